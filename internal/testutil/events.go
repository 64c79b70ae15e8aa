// Package testutil provides test doubles shared by the event-source packages.
package testutil

import (
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/exemplar/internal/recorder"
)

// EventCollector is a recorder.EventSink that keeps every event it receives.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type EventCollector struct {
	mu      sync.Mutex
	entries []recorder.EntryEvent
	exits   []recorder.ExitEvent
	order   []string
}

// HandleEntry implements recorder.EventSink.
func (c *EventCollector) HandleEntry(ev recorder.EntryEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, ev)
	c.order = append(c.order, "entry "+ev.DefiningType+"#"+ev.Function)
}

// HandleExit implements recorder.EventSink.
func (c *EventCollector) HandleExit(ev recorder.ExitEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exits = append(c.exits, ev)
	c.order = append(c.order, "exit "+ev.DefiningType+"#"+ev.Function)
}

// Entries returns a copy of the entry events in arrival order.
func (c *EventCollector) Entries() []recorder.EntryEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]recorder.EntryEvent(nil), c.entries...)
}

// Exits returns a copy of the exit events in arrival order.
func (c *EventCollector) Exits() []recorder.ExitEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]recorder.ExitEvent(nil), c.exits...)
}

// Sequence returns one line per event, e.g. "entry Cart#add".
func (c *EventCollector) Sequence() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Reset discards all collected events.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries, c.exits, c.order = nil, nil, nil
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRecorder returns a Recorder for target with fixed session ids and a
// silent logger.
func NewRecorder(target string, sessionIDs ...string) *recorder.Recorder {
	if len(sessionIDs) == 0 {
		sessionIDs = []string{"test-session-1", "test-session-2", "test-session-3"}
	}
	return recorder.New(target,
		recorder.WithSessionIDs(recorder.NewFixedGenerator(sessionIDs...)),
		recorder.WithLogger(DiscardLogger()),
	)
}
