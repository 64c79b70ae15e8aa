package recorder

import (
	"errors"
	"fmt"

	"github.com/roach88/exemplar/internal/ir"
)

// ErrUnresolved reports a parameter whose bound value cannot be looked up.
var ErrUnresolved = errors.New("parameter not resolvable")

// Binding resolves declared parameter names to the values bound at entry.
type Binding interface {
	Lookup(name string) (ir.TypedValue, error)
}

// ValueBinding is a Binding over already-captured values.
type ValueBinding map[string]ir.TypedValue

// Lookup implements Binding.
func (b ValueBinding) Lookup(name string) (ir.TypedValue, error) {
	tv, ok := b[name]
	if !ok {
		return ir.TypedValue{}, fmt.Errorf("%w: %s", ErrUnresolved, name)
	}
	return tv, nil
}

// CaptureBinding builds a ValueBinding by capturing live Go values.
func CaptureBinding(values map[string]any) ValueBinding {
	b := make(ValueBinding, len(values))
	for name, v := range values {
		b[name] = ir.CaptureTyped(v)
	}
	return b
}

// EntryEvent is delivered when a traced function is entered.
type EntryEvent struct {
	DefiningType string
	Function     string

	// Path and Line locate the function definition. Path is what the
	// target-path filter is matched against.
	Path string
	Line int

	// Depth is the stack size at entry.
	Depth int

	// Activation is a per-call token; zero when the source has none.
	Activation uint64

	// Params lists the declared parameters in declaration order.
	Params []ir.Param

	Binding Binding
}

// ExitEvent is delivered when a traced function returns.
type ExitEvent struct {
	DefiningType string
	Function     string
	Path         string
	Line         int
	Depth        int
	Activation   uint64
	Return       ir.TypedValue
}

// EventSink consumes entry and exit events. Recorder implements it.
type EventSink interface {
	HandleEntry(EntryEvent)
	HandleExit(ExitEvent)
}

// Call describes a call an event source is about to report, before any of
// its arguments are captured.
type Call struct {
	DefiningType string
	Function     string
	Path         string
	Line         int

	// Depth computes the stack depth on demand. It must return the value the
	// source will put on the call's events.
	Depth func() int
}

// Interest is implemented by sinks that can turn a call away before the
// event source captures anything. Sources consult it first and skip both
// events when it returns false.
type Interest interface {
	Wants(call Call) bool
}

// keyFor builds the correlation key. An activation token identifies the call
// on its own; otherwise the stack depth stands in for it.
func keyFor(definingType, function string, depth int, activation uint64) ir.InvocationKey {
	if activation != 0 {
		return ir.InvocationKey{DefiningType: definingType, Function: function, Activation: activation}
	}
	return ir.InvocationKey{DefiningType: definingType, Function: function, Depth: depth}
}
