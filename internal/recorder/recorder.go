package recorder

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/exemplar/internal/exchange"
	"github.com/roach88/exemplar/internal/filter"
	"github.com/roach88/exemplar/internal/ir"
)

// DefaultLimit is the number of examples SerializedExamples returns when no
// positive limit is given.
const DefaultLimit = 100

// Recorder records invocation examples from entry and exit events.
//
// Thread-safety: all methods are safe for concurrent use. Events are handled
// one at a time under the Recorder's lock; argument values must already be
// captured when an event is delivered (see Binding). The sink is called
// without the lock held, so it may call back into the Recorder.
type Recorder struct {
	mu sync.Mutex

	filter         *filter.Filter
	logger         *slog.Logger
	ids            SessionIDGenerator
	clock          *Clock
	sink           Sink
	maxPerFunction int

	enabled   bool
	sessionID string

	// pending holds in-flight calls awaiting their exit.
	pending map[ir.InvocationKey]*ir.InvocationRecord

	// seen holds the DedupKey of every accepted example.
	seen map[string]struct{}

	// perFunction counts accepted examples per defining type and function.
	perFunction map[functionKey]int

	// examples is the append-only example store.
	examples []ir.InvocationRecord

	// outbox queues accepted examples for the sink, in acceptance order.
	// draining is set while one goroutine delivers them outside the lock.
	outbox   []delivery
	draining bool

	stats Stats
}

type delivery struct {
	rec      ir.InvocationRecord
	dedupKey string
}

var (
	_ EventSink = (*Recorder)(nil)
	_ Interest  = (*Recorder)(nil)
)

type functionKey struct {
	definingType string
	function     string
}

// New creates a disabled Recorder that keeps calls to functions whose
// definition path contains path.
func New(path string, opts ...Option) *Recorder {
	r := &Recorder{
		filter:      filter.Substring(path),
		logger:      slog.Default(),
		ids:         UUIDv7Generator{},
		clock:       NewClock(),
		pending:     make(map[ir.InvocationKey]*ir.InvocationRecord),
		seen:        make(map[string]struct{}),
		perFunction: make(map[functionKey]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start enables recording and opens a new session. Starting an enabled
// Recorder does nothing.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enabled {
		return
	}
	r.enabled = true
	r.sessionID = r.ids.Generate()
	r.logger.Info("recording started", "session", r.sessionID, "target", r.filter.Target())
}

// Stop disables recording. Calls still in flight are discarded and never
// reported. Stopping a disabled Recorder does nothing.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}
	r.enabled = false
	orphaned := len(r.pending)
	r.stats.Orphaned += orphaned
	clear(r.pending)
	r.logger.Info("recording stopped",
		"session", r.sessionID,
		"examples", len(r.examples),
		"orphaned", orphaned,
	)
}

// Record enables recording, runs fn and disables recording again. Recording
// is disabled even when fn returns an error or panics; a panic is re-raised
// after disabling.
func (r *Recorder) Record(fn func() error) error {
	r.Start()
	defer r.Stop()
	return fn()
}

// Enabled reports whether the Recorder is currently recording.
func (r *Recorder) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// SessionID returns the ID of the current or most recent session, or "" if
// the Recorder was never started.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// Wants reports whether the Recorder would keep events for call. It checks
// the enabled state and the filter without touching argument values; the
// stack depth is only computed when the filter has a where predicate.
func (r *Recorder) Wants(call Call) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return false
	}
	subject := filter.Subject{
		Type:     call.DefiningType,
		Function: call.Function,
		Path:     call.Path,
		Line:     call.Line,
	}
	if r.filter.HasPredicate() && call.Depth != nil {
		subject.Depth = call.Depth()
	}
	if !r.filter.Match(subject) {
		r.stats.Filtered++
		return false
	}
	return true
}

// HandleEntry opens a pending record for the call. An entry under a key that
// is already pending replaces the earlier record.
func (r *Recorder) HandleEntry(ev EntryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}
	if !r.filter.Match(filter.Subject{
		Type:     ev.DefiningType,
		Function: ev.Function,
		Path:     ev.Path,
		Line:     ev.Line,
		Depth:    ev.Depth,
	}) {
		r.stats.Filtered++
		return
	}
	defer r.recoverEvent("entry", ev.DefiningType, ev.Function)

	args, err := resolveArguments(ev)
	if err != nil {
		r.stats.Failures++
		r.logger.Debug("entry dropped", "error", err)
		return
	}

	var params []ir.Param
	if len(ev.Params) > 0 {
		params = make([]ir.Param, len(ev.Params))
		copy(params, ev.Params)
	}

	key := keyFor(ev.DefiningType, ev.Function, ev.Depth, ev.Activation)
	r.pending[key] = &ir.InvocationRecord{
		SessionID:    r.sessionID,
		DefiningType: ev.DefiningType,
		Function:     ev.Function,
		Params:       params,
		Arguments:    args,
		Location:     ir.SourceLocation{Path: ev.Path, Line: ev.Line},
		State:        ir.StatePending,
	}
}

// resolveArguments reads every declared parameter from the binding, in
// declaration order. Any failure drops the whole entry.
func resolveArguments(ev EntryEvent) ([]ir.NamedValue, error) {
	args := make([]ir.NamedValue, 0, len(ev.Params))
	for _, p := range ev.Params {
		if ev.Binding == nil {
			return nil, &ResolutionError{
				DefiningType: ev.DefiningType,
				Function:     ev.Function,
				Param:        p.Name,
				Err:          ErrUnresolved,
			}
		}
		tv, err := ev.Binding.Lookup(p.Name)
		if err != nil {
			return nil, &ResolutionError{
				DefiningType: ev.DefiningType,
				Function:     ev.Function,
				Param:        p.Name,
				Err:          err,
			}
		}
		args = append(args, ir.NamedValue{Name: p.Name, TypedValue: tv.Clone()})
	}
	return args, nil
}

// HandleExit completes the matching pending record and hands it to the
// deduplicator. Exits without a pending entry are dropped.
func (r *Recorder) HandleExit(ev ExitEvent) {
	if r.completeExit(ev) {
		r.deliver()
	}
}

// completeExit reports whether the caller must drain the outbox.
func (r *Recorder) completeExit(ev ExitEvent) (drain bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return false
	}
	if !r.filter.Match(filter.Subject{
		Type:     ev.DefiningType,
		Function: ev.Function,
		Path:     ev.Path,
		Line:     ev.Line,
		Depth:    ev.Depth,
	}) {
		r.stats.Filtered++
		return false
	}
	defer r.recoverEvent("exit", ev.DefiningType, ev.Function)

	key := keyFor(ev.DefiningType, ev.Function, ev.Depth, ev.Activation)
	rec, ok := r.pending[key]
	if !ok {
		r.stats.DroppedExits++
		return false
	}
	delete(r.pending, key)

	ret := ev.Return.Clone()
	rec.Return = &ret
	rec.State = ir.StateCompleted
	if ev.Path != "" {
		rec.Location = ir.SourceLocation{Path: ev.Path, Line: ev.Line}
	}

	r.accept(rec)

	if len(r.outbox) == 0 || r.draining {
		return false
	}
	r.draining = true
	return true
}

// accept stores rec unless an identical invocation was already recorded or
// the function has reached its cap.
func (r *Recorder) accept(rec *ir.InvocationRecord) {
	dedupKey, err := ir.RecordDedupKey(rec)
	if err != nil {
		r.stats.Failures++
		r.logger.Debug("example dropped", "type", rec.DefiningType, "function", rec.Function, "error", err)
		return
	}
	if _, dup := r.seen[dedupKey]; dup {
		r.stats.Duplicates++
		return
	}

	fk := functionKey{definingType: rec.DefiningType, function: rec.Function}
	if r.maxPerFunction > 0 && r.perFunction[fk] >= r.maxPerFunction {
		r.stats.Capped++
		return
	}

	r.seen[dedupKey] = struct{}{}
	r.perFunction[fk]++
	rec.Seq = int64(r.clock.Next())
	r.examples = append(r.examples, *rec)
	r.stats.Accepted++

	if r.sink != nil {
		r.outbox = append(r.outbox, delivery{rec: rec.Clone(), dedupKey: dedupKey})
	}
}

// deliver hands queued examples to the sink until the outbox is empty. Only
// the goroutine that set draining calls it; examples queued meanwhile,
// including by the sink itself, are picked up by the same loop.
func (r *Recorder) deliver() {
	for {
		r.mu.Lock()
		if len(r.outbox) == 0 {
			r.draining = false
			r.mu.Unlock()
			return
		}
		next := r.outbox[0]
		r.outbox[0] = delivery{}
		r.outbox = r.outbox[1:]
		r.mu.Unlock()

		if err := r.send(next); err != nil {
			r.mu.Lock()
			r.stats.SinkErrors++
			r.mu.Unlock()
			r.logger.Warn("sink rejected example", "seq", next.rec.Seq, "error", err)
		}
	}
}

// send calls the sink, turning a panic into an error.
func (r *Recorder) send(d delivery) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &HandlerPanicError{Event: "sink", Value: p}
		}
	}()
	return r.sink.Accept(d.rec, d.dedupKey)
}

// recoverEvent swallows a panic raised while handling an event so it never
// reaches the traced program.
func (r *Recorder) recoverEvent(event, definingType, function string) {
	if p := recover(); p != nil {
		r.stats.Failures++
		r.logger.Debug("event handler panicked",
			"event", event,
			"type", definingType,
			"function", function,
			"error", &HandlerPanicError{Event: event, Value: p},
		)
	}
}

// Examples returns deep copies of the oldest limit examples in insertion
// order. A limit <= 0 returns all of them.
func (r *Recorder) Examples(limit int) []ir.InvocationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.examples)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]ir.InvocationRecord, n)
	for i := range n {
		out[i] = r.examples[i].Clone()
	}
	return out
}

// SerializedExamples projects the oldest limit examples into an exchange
// document. A limit <= 0 means DefaultLimit.
//
// The document is always complete. Fields that could not be represented are
// degraded, and the returned error joins one *exchange.FieldSerializationError
// per such field.
func (r *Recorder) SerializedExamples(limit int) (exchange.Document, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	doc, err := exchange.Serialize(r.Examples(limit))
	if err != nil {
		return doc, fmt.Errorf("serialize examples: %w", err)
	}
	return doc, nil
}

// Stats returns a snapshot of the Recorder's counters.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.stats
	s.Pending = len(r.pending)
	return s
}

// Reset discards all examples, pending calls and counters. The enabled state
// and session are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.pending)
	clear(r.seen)
	clear(r.perFunction)
	r.examples = nil
	r.stats = Stats{}
}
