// Package source produces entry and exit events for Go functions.
//
// Go has no call-tracing hook, so functions are instrumented explicitly:
// Wrap returns a function of the same type that reports each call to an
// EventSink, usually a *recorder.Recorder.
//
//	double := source.Wrap(tracer, "Calculator", "Double", ir.Params("x"),
//		func(x int) int { return x * 2 })
//	double(2) // entry{x: 2}, exit{4}
//
// A sink implementing recorder.Interest is asked first; calls it turns away
// run untouched, with no capture and no events. Otherwise arguments are
// captured before the entry event is delivered, so the sink sees a snapshot
// taken at call time. Each call gets an activation token from
// the tracer's clock, so recursive and concurrent calls correlate exactly.
package source

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/roach88/exemplar/internal/ir"
	"github.com/roach88/exemplar/internal/recorder"
)

// Tracer delivers events for wrapped functions to a sink.
//
// Thread-safety: a Tracer is safe for concurrent use if its sink is.
type Tracer struct {
	sink        recorder.EventSink
	clock       *recorder.Clock
	activations bool
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithClock sets the clock activation tokens are drawn from.
func WithClock(clock *recorder.Clock) Option {
	return func(t *Tracer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// WithoutActivations makes the tracer emit events without activation
// tokens, leaving correlation to stack depth.
func WithoutActivations() Option {
	return func(t *Tracer) {
		t.activations = false
	}
}

// New creates a Tracer feeding sink.
func New(sink recorder.EventSink, opts ...Option) *Tracer {
	t := &Tracer{
		sink:        sink,
		clock:       recorder.NewClock(),
		activations: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Wrap instruments fn. definingType and name identify the function in
// events; params name its parameters in declaration order. A nil params
// names them arg0, arg1, ... with a variadic last parameter marked as such.
//
// Wrap panics if fn is not a non-nil function or if params does not match
// its arity.
func Wrap[F any](t *Tracer, definingType, name string, params []ir.Param, fn F) F {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		panic(fmt.Sprintf("source.Wrap: %s#%s: fn must be a non-nil function, got %T", definingType, name, fn))
	}
	ft := fv.Type()

	if params == nil {
		params = defaultParams(ft)
	}
	if len(params) != ft.NumIn() {
		panic(fmt.Sprintf("source.Wrap: %s#%s: %d params declared for a function of %d arguments",
			definingType, name, len(params), ft.NumIn()))
	}
	params = append([]ir.Param(nil), params...)

	loc := locate(fv)
	retType := returnTypeName(ft)

	invoke := func(in []reflect.Value) []reflect.Value {
		if ft.IsVariadic() {
			return fv.CallSlice(in)
		}
		return fv.Call(in)
	}

	wrapped := reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		depth := -1
		depthOf := func() int {
			if depth < 0 {
				depth = callDepth()
			}
			return depth
		}

		if interest, ok := t.sink.(recorder.Interest); ok && !interest.Wants(recorder.Call{
			DefiningType: definingType,
			Function:     name,
			Path:         loc.Path,
			Line:         loc.Line,
			Depth:        depthOf,
		}) {
			return invoke(in)
		}

		var activation uint64
		if t.activations {
			activation = t.clock.Next()
		}

		t.sink.HandleEntry(recorder.EntryEvent{
			DefiningType: definingType,
			Function:     name,
			Path:         loc.Path,
			Line:         loc.Line,
			Depth:        depthOf(),
			Activation:   activation,
			Params:       params,
			Binding:      bindArguments(params, in),
		})

		out := invoke(in)

		// A panicking call never reaches here; its entry stays pending until
		// the session ends.
		t.sink.HandleExit(recorder.ExitEvent{
			DefiningType: definingType,
			Function:     name,
			Path:         loc.Path,
			Line:         loc.Line,
			Depth:        depthOf(),
			Activation:   activation,
			Return:       foldReturns(retType, out),
		})
		return out
	})

	return wrapped.Interface().(F)
}

func defaultParams(ft reflect.Type) []ir.Param {
	params := make([]ir.Param, ft.NumIn())
	for i := range params {
		params[i] = ir.Param{Name: fmt.Sprintf("arg%d", i), Kind: ir.ParamPositional}
	}
	if ft.IsVariadic() {
		params[len(params)-1].Kind = ir.ParamVariadic
	}
	return params
}

// bindArguments captures the call's arguments. A variadic argument arrives
// as a slice and is captured as one.
func bindArguments(params []ir.Param, in []reflect.Value) recorder.ValueBinding {
	b := make(recorder.ValueBinding, len(params))
	for i, p := range params {
		b[p.Name] = captureValue(in[i])
	}
	return b
}

func captureValue(v reflect.Value) ir.TypedValue {
	if !v.IsValid() {
		return ir.TypedValue{TypeName: "nil", Value: ir.IRNull{}}
	}
	return ir.CaptureTyped(v.Interface())
}

// foldReturns reports no results as nil, one result as itself and several
// as an array typed by the result list, e.g. "(int, error)".
func foldReturns(typeName string, out []reflect.Value) ir.TypedValue {
	switch len(out) {
	case 0:
		return ir.TypedValue{TypeName: "nil", Value: ir.IRNull{}}
	case 1:
		return captureValue(out[0])
	}

	arr := make(ir.IRArray, len(out))
	for i, v := range out {
		tv := captureValue(v)
		if tv.Err != nil {
			return ir.TypedValue{TypeName: typeName, Err: fmt.Errorf("result %d: %w", i, tv.Err)}
		}
		arr[i] = tv.Value
	}
	return ir.TypedValue{TypeName: typeName, Value: arr}
}

func returnTypeName(ft reflect.Type) string {
	names := make([]string, ft.NumOut())
	for i := range names {
		names[i] = ft.Out(i).String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// locate finds where fn is defined.
func locate(fv reflect.Value) ir.SourceLocation {
	f := runtime.FuncForPC(fv.Pointer())
	if f == nil {
		return ir.SourceLocation{}
	}
	file, line := f.FileLine(f.Entry())
	return ir.SourceLocation{Path: file, Line: line}
}

// callDepth returns the current goroutine's stack size in frames.
func callDepth() int {
	pcs := make([]uintptr, 64)
	for {
		n := runtime.Callers(0, pcs)
		if n < len(pcs) {
			return n
		}
		pcs = make([]uintptr, 2*len(pcs))
	}
}
