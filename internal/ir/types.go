package ir

// ParamKind describes how a declared parameter binds its argument.
type ParamKind string

// Parameter kinds.
const (
	ParamPositional ParamKind = "positional"
	ParamOptional   ParamKind = "optional"
	ParamVariadic   ParamKind = "variadic"
	ParamKeyword    ParamKind = "keyword"
	ParamBlock      ParamKind = "block"
)

// Param is a declared parameter descriptor.
type Param struct {
	Name string    `json:"name"`
	Kind ParamKind `json:"kind"`
}

// Params builds positional parameter descriptors from names.
func Params(names ...string) []Param {
	params := make([]Param, len(names))
	for i, name := range names {
		params[i] = Param{Name: name, Kind: ParamPositional}
	}
	return params
}

// TypedValue is a captured value together with the name of its runtime type.
//
// Err is set when the live value could not be captured (cycles, funcs,
// channels, non-finite floats). Value then holds nil and the value is
// reported in degraded form; see Representable.
type TypedValue struct {
	TypeName string  `json:"class_name"`
	Value    IRValue `json:"value"`
	Err      error   `json:"-"`
}

// Representable returns the value to publish: the captured value, or the
// "#<TypeName>" placeholder when capture failed.
func (tv TypedValue) Representable() IRValue {
	if tv.Err != nil {
		return DegradedValue(tv.TypeName)
	}
	if tv.Value == nil {
		return IRNull{}
	}
	return tv.Value
}

// Clone returns a deep copy of tv.
func (tv TypedValue) Clone() TypedValue {
	return TypedValue{TypeName: tv.TypeName, Value: CloneValue(tv.Value), Err: tv.Err}
}

// DegradedValue is the placeholder published for a value that cannot be
// represented in the exchange format.
func DegradedValue(typeName string) IRString {
	return IRString("#<" + typeName + ">")
}

// NamedValue is one entry of an argument snapshot.
type NamedValue struct {
	Name string
	TypedValue
}

// SourceLocation is the file and line of a function definition.
type SourceLocation struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// InvocationKey identifies an in-flight call within one recording session.
//
// When Activation is non-zero it alone identifies the call; Depth is the
// stack-size proxy used when the event source cannot supply activation tokens.
type InvocationKey struct {
	DefiningType string
	Function     string
	Depth        int
	Activation   uint64
}

// RecordState is the lifecycle state of an InvocationRecord. A record whose
// session ends before its exit is discarded, not kept in a third state; the
// Recorder only counts it.
type RecordState int

const (
	// StatePending means the entry was seen and the exit is outstanding.
	StatePending RecordState = iota
	// StateCompleted means the matching exit attached a return value.
	StateCompleted
)

// String returns the lowercase state name.
func (s RecordState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// InvocationRecord is one invocation example, in flight or completed.
type InvocationRecord struct {
	// Seq is the logical position in the example store, assigned on acceptance.
	Seq int64

	// SessionID identifies the enable window the record was completed in.
	SessionID string

	DefiningType string
	Function     string

	// Params preserves declaration order for faithful serialization.
	Params []Param

	// Arguments holds one entry per resolved parameter, in declaration order.
	Arguments []NamedValue

	// Return is nil while the record is pending.
	Return *TypedValue

	Location SourceLocation
	State    RecordState
}

// Argument returns the captured argument with the given name.
func (r *InvocationRecord) Argument(name string) (TypedValue, bool) {
	for _, arg := range r.Arguments {
		if arg.Name == name {
			return arg.TypedValue, true
		}
	}
	return TypedValue{}, false
}

// Clone returns a deep copy that shares no mutable state with r.
func (r *InvocationRecord) Clone() InvocationRecord {
	out := *r
	if r.Params != nil {
		out.Params = make([]Param, len(r.Params))
		copy(out.Params, r.Params)
	}
	if r.Arguments != nil {
		out.Arguments = make([]NamedValue, len(r.Arguments))
		for i, arg := range r.Arguments {
			out.Arguments[i] = NamedValue{Name: arg.Name, TypedValue: arg.TypedValue.Clone()}
		}
	}
	if r.Return != nil {
		ret := r.Return.Clone()
		out.Return = &ret
	}
	return out
}
