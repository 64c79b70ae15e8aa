package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/exemplar/internal/ir"
)

// Value is a published value with the name of its type.
type Value struct {
	ClassName string
	Value     ir.IRValue
}

type valueJSON struct {
	ClassName string          `json:"class_name"`
	Value     json.RawMessage `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	raw, err := ir.MarshalIRValue(v.Value)
	if err != nil {
		return nil, err
	}
	name, err := ir.MarshalIRValue(ir.IRString(v.ClassName))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"class_name":`)
	buf.Write(name)
	buf.WriteString(`,"value":`)
	buf.Write(raw)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.ClassName = raw.ClassName
	if len(raw.Value) == 0 {
		v.Value = ir.IRNull{}
		return nil
	}
	val, err := ir.UnmarshalIRValue(raw.Value)
	if err != nil {
		return fmt.Errorf("value of %s: %w", raw.ClassName, err)
	}
	v.Value = val
	return nil
}

// Argument is one named entry of Arguments.
type Argument struct {
	Name  string
	Value Value
}

// Arguments is an ordered mapping from parameter name to value.
// It encodes as a JSON object whose keys keep declaration order.
type Arguments []Argument

// Get returns the argument with the given name.
func (a Arguments) Get(name string) (Value, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return Value{}, false
}

// Names returns the argument names in order.
func (a Arguments) Names() []string {
	names := make([]string, len(a))
	for i, arg := range a {
		names[i] = arg.Name
	}
	return names
}

// MarshalJSON implements json.Marshaler, preserving argument order.
func (a Arguments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, arg := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := ir.MarshalIRValue(ir.IRString(arg.Name))
		if err != nil {
			return nil, fmt.Errorf("argument name %q: %w", arg.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := arg.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", arg.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (a *Arguments) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*a = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("arguments: expected object, got %v", tok)
	}

	out := Arguments{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("arguments: expected key, got %v", keyTok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
		out = append(out, Argument{Name: name, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = out
	return nil
}

// Example is one element of the exchange document.
type Example struct {
	ClassName      string            `json:"class_name"`
	MethodName     string            `json:"method_name"`
	MethodLocation ir.SourceLocation `json:"method_location"`
	Arguments      Arguments         `json:"arguments"`
	Return         Value             `json:"return"`
}

// Summary renders the example on one line, e.g. "Object#double(x: 2) => 4".
func (e Example) Summary() string {
	var b strings.Builder
	b.WriteString(e.ClassName)
	b.WriteByte('#')
	b.WriteString(e.MethodName)
	b.WriteByte('(')
	for i, arg := range e.Arguments {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Name)
		b.WriteString(": ")
		b.WriteString(renderValue(arg.Value.Value))
	}
	b.WriteString(") => ")
	b.WriteString(renderValue(e.Return.Value))
	return b.String()
}

func renderValue(v ir.IRValue) string {
	data, err := ir.MarshalIRValue(v)
	if err != nil {
		return "?"
	}
	return string(data)
}

// Document is the ordered exchange document.
type Document []Example

// Encode writes the document as compact JSON followed by a newline.
// HTML characters are not escaped.
func (d Document) Encode(w io.Writer) error {
	return d.encode(w, "")
}

// EncodeIndent writes the document as indented JSON followed by a newline.
func (d Document) EncodeIndent(w io.Writer, indent string) error {
	return d.encode(w, indent)
}

func (d Document) encode(w io.Writer, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if d == nil {
		d = Document{}
	}
	if err := enc.Encode([]Example(d)); err != nil {
		return fmt.Errorf("encode exchange document: %w", err)
	}
	return nil
}

// Decode reads an exchange document.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode exchange document: %w", err)
	}
	return doc, nil
}
