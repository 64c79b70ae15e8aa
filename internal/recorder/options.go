package recorder

import (
	"log/slog"

	"github.com/roach88/exemplar/internal/filter"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger. Swallowed failures are logged at Debug, session
// boundaries at Info.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFilter replaces the default target-path filter built from the
// constructor path.
func WithFilter(f *filter.Filter) Option {
	return func(r *Recorder) {
		if f != nil {
			r.filter = f
		}
	}
}

// WithMaxPerFunction caps the number of distinct examples kept per function.
// Zero means unbounded.
func WithMaxPerFunction(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.maxPerFunction = n
		}
	}
}

// WithSessionIDs sets the session ID generator.
func WithSessionIDs(gen SessionIDGenerator) Option {
	return func(r *Recorder) {
		if gen != nil {
			r.ids = gen
		}
	}
}

// WithSink registers a sink that receives every accepted example.
func WithSink(sink Sink) Option {
	return func(r *Recorder) {
		r.sink = sink
	}
}

// WithClock sets the clock that numbers accepted examples.
func WithClock(clock *Clock) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}
