package exchange

import (
	"errors"
	"fmt"
)

// ErrNoReturn reports a record serialized before its exit was observed.
var ErrNoReturn = errors.New("record has no return value")

// FieldSerializationError reports one field of one record that could not be
// represented. The document still carries the record with the field degraded.
type FieldSerializationError struct {
	// Seq, DefiningType and Function identify the record.
	Seq          int64
	DefiningType string
	Function     string

	// Field is "arguments.<name>" or "return".
	Field string

	Err error
}

// Error implements the error interface.
func (e *FieldSerializationError) Error() string {
	return fmt.Sprintf("serialize %s#%s (seq=%d) field %s: %v", e.DefiningType, e.Function, e.Seq, e.Field, e.Err)
}

// Unwrap returns the underlying capture error.
func (e *FieldSerializationError) Unwrap() error {
	return e.Err
}

// IsFieldSerializationError returns true if err carries a FieldSerializationError.
// Uses errors.As to handle wrapped and joined errors.
func IsFieldSerializationError(err error) bool {
	var fe *FieldSerializationError
	return errors.As(err, &fe)
}

// FieldErrors flattens err into the FieldSerializationErrors it contains,
// looking through wrapped and joined errors.
func FieldErrors(err error) []*FieldSerializationError {
	switch e := err.(type) {
	case nil:
		return nil
	case *FieldSerializationError:
		return []*FieldSerializationError{e}
	case interface{ Unwrap() []error }:
		var out []*FieldSerializationError
		for _, inner := range e.Unwrap() {
			out = append(out, FieldErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return FieldErrors(e.Unwrap())
	default:
		return nil
	}
}
