package recorder

import (
	"errors"
	"fmt"
)

// ResolutionError reports a parameter of an entry event that could not be
// resolved. The whole entry is dropped when this happens.
type ResolutionError struct {
	DefiningType string
	Function     string
	Param        string
	Err          error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s#%s parameter %q: %v", e.DefiningType, e.Function, e.Param, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsResolutionError checks if an error is a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// HandlerPanicError wraps a panic recovered while handling an event.
type HandlerPanicError struct {
	Event string
	Value any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("panic handling %s event: %v", e.Event, e.Value)
}
