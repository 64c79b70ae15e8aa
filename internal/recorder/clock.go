package recorder

import "sync/atomic"

// Clock is a monotonic logical clock.
//
// The recorder stamps each accepted example with Next(); event sources use a
// Clock to hand out activation tokens. Zero is never returned by Next, so a
// zero token always means "no activation".
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Uint64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first Next returns start+1. The record
// command starts it at the database's highest seq so a session's numbering
// continues after examples already stored.
func NewClockAt(start uint64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next value and increments the clock.
func (c *Clock) Next() uint64 {
	return c.seq.Add(1)
}

// Current returns the current value without incrementing.
func (c *Clock) Current() uint64 {
	return c.seq.Load()
}
