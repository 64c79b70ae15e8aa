package exchange

import (
	"errors"

	"github.com/roach88/exemplar/internal/ir"
)

// Serialize projects records into an exchange document.
//
// The records are only read; every value in the document is a fresh copy.
// Field failures do not stop serialization: the returned document is always
// complete, and err joins one *FieldSerializationError per degraded field.
func Serialize(records []ir.InvocationRecord) (Document, error) {
	doc := make(Document, 0, len(records))
	var errs []error

	for i := range records {
		ex, fieldErrs := serializeRecord(&records[i])
		doc = append(doc, ex)
		errs = append(errs, fieldErrs...)
	}

	return doc, errors.Join(errs...)
}

func serializeRecord(r *ir.InvocationRecord) (Example, []error) {
	var errs []error
	fieldErr := func(field string, err error) {
		errs = append(errs, &FieldSerializationError{
			Seq:          r.Seq,
			DefiningType: r.DefiningType,
			Function:     r.Function,
			Field:        field,
			Err:          err,
		})
	}

	ex := Example{
		ClassName:      r.DefiningType,
		MethodName:     r.Function,
		MethodLocation: r.Location,
		Arguments:      make(Arguments, 0, len(r.Arguments)),
	}

	for _, arg := range r.Arguments {
		if arg.Err != nil {
			fieldErr("arguments."+arg.Name, arg.Err)
		}
		ex.Arguments = append(ex.Arguments, Argument{Name: arg.Name, Value: project(arg.TypedValue)})
	}

	switch {
	case r.Return == nil:
		fieldErr("return", ErrNoReturn)
		ex.Return = Value{ClassName: "nil", Value: ir.IRNull{}}
	default:
		if r.Return.Err != nil {
			fieldErr("return", r.Return.Err)
		}
		ex.Return = project(*r.Return)
	}

	return ex, errs
}

func project(tv ir.TypedValue) Value {
	return Value{ClassName: tv.TypeName, Value: ir.CloneValue(tv.Representable())}
}
