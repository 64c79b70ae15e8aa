package recorder

import (
	"github.com/roach88/exemplar/internal/ir"
)

// Sink receives each accepted example together with its dedup key.
// A Sink error is logged and counted; it never affects recording.
//
// Accept is called one example at a time in acceptance order, without the
// Recorder's lock held, so it may call back into the Recorder. A panic in
// Accept counts as an error.
type Sink interface {
	Accept(rec ir.InvocationRecord, dedupKey string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec ir.InvocationRecord, dedupKey string) error

// Accept implements Sink.
func (f SinkFunc) Accept(rec ir.InvocationRecord, dedupKey string) error {
	return f(rec, dedupKey)
}
