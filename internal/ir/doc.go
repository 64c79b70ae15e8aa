// Package ir provides the foundational types for exemplar.
//
// This package holds the captured-value IR, canonical JSON, content hashes and
// the invocation record model. All other internal packages import ir; ir
// imports nothing internal.
//
// Key design constraints:
//   - Captured values are snapshots, never live references into the traced program
//   - Dedup identity is computed over canonical JSON, arguments in declaration order
//   - Ordering uses logical sequence numbers, never wall-clock timestamps
//   - All JSON tags use snake_case
package ir
