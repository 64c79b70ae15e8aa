package eventlog

import (
	"fmt"
	"math"

	"github.com/roach88/exemplar/internal/ir"
)

// Typed converts v to an ir.TypedValue. Values with no exchange-format form
// (non-finite floats, unsupported YAML types) are kept with Err set so they
// degrade the way unrepresentable live values do.
func (v Value) Typed() ir.TypedValue {
	val, err := convertToIRValue(v.Value)
	if err != nil {
		return ir.TypedValue{TypeName: v.ClassName, Err: err}
	}
	return ir.TypedValue{TypeName: v.ClassName, Value: val}
}

// convertToIRValue converts a YAML-decoded value to an IRValue.
func convertToIRValue(val any) (ir.IRValue, error) {
	switch v := val.(type) {
	case nil:
		return ir.IRNull{}, nil
	case string:
		return ir.IRString(v), nil
	case int:
		return ir.IRInt(int64(v)), nil
	case int64:
		return ir.IRInt(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return ir.IRString(fmt.Sprint(v)), nil
		}
		return ir.IRInt(int64(v)), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite float %v", ir.ErrUnrepresentable, v)
		}
		return ir.IRFloat(v), nil
	case bool:
		return ir.IRBool(v), nil
	case []any:
		arr := make(ir.IRArray, len(v))
		for i, elem := range v {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(ir.IRObject, len(v))
		for key, elem := range v {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			obj[key] = irElem
		}
		return obj, nil
	case map[any]any:
		obj := make(ir.IRObject, len(v))
		for key, elem := range v {
			name := fmt.Sprint(key)
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			obj[name] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: unsupported YAML value %T", ir.ErrUnrepresentable, val)
	}
}
