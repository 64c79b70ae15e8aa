package ir

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ErrUnrepresentable reports a live value that has no exchange-format form.
var ErrUnrepresentable = errors.New("value not representable")

// maxCaptureDepth bounds how far Capture descends into nested values.
const maxCaptureDepth = 64

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	errorType         = reflect.TypeFor[error]()
)

// TypeNameOf returns the runtime type name reported for v.
func TypeNameOf(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

// CaptureTyped snapshots v into a TypedValue. Capture failures are kept on
// the TypedValue rather than returned, so one bad value never drops an event.
func CaptureTyped(v any) TypedValue {
	val, err := Capture(v)
	if err != nil {
		return TypedValue{TypeName: TypeNameOf(v), Err: err}
	}
	return TypedValue{TypeName: TypeNameOf(v), Value: val}
}

// Capture takes a deep snapshot of a live Go value.
//
// Pointers and interfaces are followed. Structs become objects keyed by
// exported field name (json tag name when present). Values implementing
// json.Marshaler or encoding.TextMarshaler are captured through them; other
// errors are captured as their message. A panic in any of those methods
// fails the value like the other unrepresentable cases.
// Cycles, funcs, channels, unsafe pointers and non-finite floats fail with
// ErrUnrepresentable.
func Capture(v any) (IRValue, error) {
	c := capturer{active: make(map[visit]bool)}
	return c.capture(reflect.ValueOf(v), "$", 0)
}

type visit struct {
	ptr uintptr
	typ reflect.Type
}

type capturer struct {
	// active holds the references on the current descent path. Shared
	// references that are not ancestors of themselves are fine.
	active map[visit]bool
}

func unrepresentable(path, reason string) error {
	return fmt.Errorf("%s: %w: %s", path, ErrUnrepresentable, reason)
}

func (c *capturer) capture(v reflect.Value, path string, depth int) (IRValue, error) {
	if !v.IsValid() {
		return IRNull{}, nil
	}
	if depth > maxCaptureDepth {
		return nil, unrepresentable(path, "nesting too deep")
	}

	if val, ok, err := c.captureMarshaler(v, path); ok {
		return val, err
	}

	switch v.Kind() {
	case reflect.Bool:
		return IRBool(v.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IRInt(v.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return IRString(strconv.FormatUint(u, 10)), nil
		}
		return IRInt(int64(u)), nil

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, unrepresentable(path, fmt.Sprintf("non-finite float %v", f))
		}
		return IRFloat(f), nil

	case reflect.Complex64, reflect.Complex128:
		return IRString(strconv.FormatComplex(v.Complex(), 'g', -1, 128)), nil

	case reflect.String:
		return IRString(v.String()), nil

	case reflect.Pointer:
		if v.IsNil() {
			return IRNull{}, nil
		}
		return c.enter(v, path, func() (IRValue, error) {
			return c.capture(v.Elem(), path, depth+1)
		})

	case reflect.Interface:
		if v.IsNil() {
			return IRNull{}, nil
		}
		return c.capture(v.Elem(), path, depth+1)

	case reflect.Slice:
		if v.IsNil() {
			return IRNull{}, nil
		}
		return c.enter(v, path, func() (IRValue, error) {
			return c.captureList(v, path, depth)
		})

	case reflect.Array:
		return c.captureList(v, path, depth)

	case reflect.Map:
		if v.IsNil() {
			return IRNull{}, nil
		}
		return c.enter(v, path, func() (IRValue, error) {
			return c.captureMap(v, path, depth)
		})

	case reflect.Struct:
		return c.captureStruct(v, path, depth)

	default:
		// Func, Chan, UnsafePointer
		return nil, unrepresentable(path, v.Type().String())
	}
}

// enter guards reference-typed values against cycles on the descent path.
func (c *capturer) enter(v reflect.Value, path string, fn func() (IRValue, error)) (IRValue, error) {
	key := visit{ptr: v.Pointer(), typ: v.Type()}
	if c.active[key] {
		return nil, unrepresentable(path, "cyclic reference")
	}
	c.active[key] = true
	defer delete(c.active, key)
	return fn()
}

// captureMarshaler captures values that define their own encoding.
// The bool result reports whether v was handled. A panic in the value's own
// method makes the value unrepresentable.
func (c *capturer) captureMarshaler(v reflect.Value, path string) (val IRValue, handled bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			val, handled, err = nil, true, unrepresentable(path, fmt.Sprintf("%s panicked: %v", v.Type(), p))
		}
	}()

	if !v.CanInterface() || v.Kind() == reflect.Interface {
		return nil, false, nil
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, false, nil
	}
	if irv, ok := v.Interface().(IRValue); ok {
		return CloneValue(irv), true, nil
	}

	if v.Type().Implements(jsonMarshalerType) {
		data, err := v.Interface().(json.Marshaler).MarshalJSON()
		if err != nil {
			return nil, true, unrepresentable(path, err.Error())
		}
		val, err := UnmarshalIRValue(data)
		if err != nil {
			return nil, true, unrepresentable(path, err.Error())
		}
		return val, true, nil
	}
	if v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, true, unrepresentable(path, err.Error())
		}
		return IRString(text), true, nil
	}
	if v.Type().Implements(errorType) {
		return IRString(v.Interface().(error).Error()), true, nil
	}
	return nil, false, nil
}

func (c *capturer) captureList(v reflect.Value, path string, depth int) (IRValue, error) {
	arr := make(IRArray, v.Len())
	for i := range arr {
		elem, err := c.capture(v.Index(i), path+"["+strconv.Itoa(i)+"]", depth+1)
		if err != nil {
			return nil, err
		}
		arr[i] = elem
	}
	return arr, nil
}

func (c *capturer) captureMap(v reflect.Value, path string, depth int) (IRValue, error) {
	obj := make(IRObject, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := mapKeyString(iter.Key())
		if err != nil {
			return nil, unrepresentable(path, err.Error())
		}
		elem, err := c.capture(iter.Value(), path+"."+key, depth+1)
		if err != nil {
			return nil, err
		}
		obj[key] = elem
	}
	return obj, nil
}

func (c *capturer) captureStruct(v reflect.Value, path string, depth int) (IRValue, error) {
	t := v.Type()
	obj := make(IRObject, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		elem, err := c.capture(v.Field(i), path+"."+name, depth+1)
		if err != nil {
			return nil, err
		}
		obj[name] = elem
	}
	return obj, nil
}

// mapKeyString renders a map key without calling Interface, which panics on
// values reached through unexported fields.
func mapKeyString(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(k.Float(), 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported map key type %s", k.Type())
	}
}
