// Package recorder turns a live stream of function entry and exit events into
// deduplicated invocation examples.
//
// Event flow:
//
//	Event Source --> HandleEntry / HandleExit
//	                   |
//	                   v
//	               filter (target path substring first)
//	                   |
//	                   v
//	               correlator: pending map keyed by InvocationKey
//	                   |  exit attaches the return value
//	                   v
//	               deduplicator: seen-set of DedupKeys (+ optional per-function cap)
//	                   |
//	                   v
//	               example store: append-only, insertion ordered
//	                   |
//	                   v
//	               SerializedExamples(limit) --> exchange.Document
//
// A Recorder owns all of its state; independent Recorders never share
// anything. Recording is bracketed by Start/Stop or the scoped Record. Reusing
// a Recorder across several enable windows accumulates examples.
//
// Correlation uses the activation token carried by the events when the source
// provides one. Otherwise calls are matched by (defining type, function, stack
// depth), which can mispair same-depth recursive re-entry; that limitation is
// accepted for sources that cannot identify activations.
//
// Nothing in this package lets a failure reach the traced program: events that
// cannot be resolved are dropped, unmatched exits are ignored, and panics
// raised while handling an event are recovered and counted.
package recorder
