package eventlog

import (
	"fmt"

	"github.com/roach88/exemplar/internal/ir"
	"github.com/roach88/exemplar/internal/recorder"
)

// Replay feeds events to sink in order.
func Replay(events []Event, sink recorder.EventSink) error {
	for i := range events {
		e := &events[i]
		switch e.Kind {
		case KindEntry:
			sink.HandleEntry(recorder.EntryEvent{
				DefiningType: e.Type,
				Function:     e.Function,
				Path:         e.Path,
				Line:         e.Line,
				Depth:        e.Depth,
				Activation:   e.Activation,
				Params:       e.IRParams(),
				Binding:      newBinding(e),
			})
		case KindExit:
			var ret ir.TypedValue
			if e.Return != nil {
				ret = e.Return.Typed()
			}
			sink.HandleExit(recorder.ExitEvent{
				DefiningType: e.Type,
				Function:     e.Function,
				Path:         e.Path,
				Line:         e.Line,
				Depth:        e.Depth,
				Activation:   e.Activation,
				Return:       ret,
			})
		default:
			return fmt.Errorf("events[%d]: unknown kind %q", i, e.Kind)
		}
	}
	return nil
}

// binding resolves entry arguments from the log. Unresolved parameters fail
// lookup.
type binding struct {
	values     recorder.ValueBinding
	unresolved map[string]bool
}

func newBinding(e *Event) *binding {
	b := &binding{
		values:     make(recorder.ValueBinding, len(e.Args)),
		unresolved: make(map[string]bool, len(e.Unresolved)),
	}
	for name, v := range e.Args {
		b.values[name] = v.Typed()
	}
	for _, name := range e.Unresolved {
		b.unresolved[name] = true
	}
	return b
}

func (b *binding) Lookup(name string) (ir.TypedValue, error) {
	if b.unresolved[name] {
		return ir.TypedValue{}, fmt.Errorf("%w: %s (unresolved at source)", recorder.ErrUnresolved, name)
	}
	return b.values.Lookup(name)
}
