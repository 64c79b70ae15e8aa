// Package store provides SQLite-backed durable storage for recorded examples.
//
// The store is an append-only log with:
//   - Sessions: one row per recording session (enable window)
//   - Examples: one row per distinct invocation example
//
// # Patterns
//
// Deduplication across runs
//   - UNIQUE(dedup_key) with ON CONFLICT DO NOTHING
//   - An example recorded by an earlier run is not stored twice
//
// Logical ordering
//   - Examples are ordered by seq (insertion order), never by timestamps
//
// Ordered arguments
//   - Arguments are stored as a JSON object in parameter declaration order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
