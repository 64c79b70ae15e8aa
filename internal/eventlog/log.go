package eventlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exemplar/internal/ir"
)

// Event kinds.
const (
	KindEntry = "entry"
	KindExit  = "exit"
)

// Log is a recorded sequence of events.
type Log struct {
	// Name optionally labels the log.
	Name string `yaml:"name,omitempty"`

	// Events are replayed in order.
	Events []Event `yaml:"events"`
}

// Event is one entry or exit event.
type Event struct {
	Kind     string `yaml:"kind"`
	Type     string `yaml:"type"`
	Function string `yaml:"function"`
	Path     string `yaml:"path"`
	Line     int    `yaml:"line,omitempty"`
	Depth    int    `yaml:"depth"`

	// Activation is the producer's per-call token; 0 when it has none.
	Activation uint64 `yaml:"activation,omitempty"`

	// Params, Args and Unresolved are only valid on entry events.
	Params     []Param          `yaml:"params,omitempty"`
	Args       map[string]Value `yaml:"args,omitempty"`
	Unresolved []string         `yaml:"unresolved,omitempty"`

	// Return is required on exit events.
	Return *Value `yaml:"return,omitempty"`
}

// Param declares one parameter. Kind defaults to positional.
type Param struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind,omitempty"`
}

// Value is a value with the name of its type in the producing runtime.
type Value struct {
	ClassName string `yaml:"class_name"`
	Value     any    `yaml:"value"`
}

var paramKinds = []ir.ParamKind{
	ir.ParamPositional,
	ir.ParamOptional,
	ir.ParamVariadic,
	ir.ParamKeyword,
	ir.ParamBlock,
}

// LoadLog reads and parses an event log file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadLog(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return ParseLog(bytes.NewReader(data))
}

// ParseLog parses an event log from r.
func ParseLog(r io.Reader) (*Log, error) {
	var log Log
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&log); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateLog(&log); err != nil {
		return nil, fmt.Errorf("invalid event log: %w", err)
	}
	return &log, nil
}

func validateLog(l *Log) error {
	if len(l.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	for i := range l.Events {
		if err := validateEvent(&l.Events[i]); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	return nil
}

func validateEvent(e *Event) error {
	if e.Type == "" {
		return fmt.Errorf("type is required")
	}
	if e.Function == "" {
		return fmt.Errorf("function is required")
	}
	if e.Depth < 0 {
		return fmt.Errorf("depth must be non-negative, got %d", e.Depth)
	}

	switch e.Kind {
	case KindEntry:
		if e.Return != nil {
			return fmt.Errorf("return is not allowed on entry events")
		}
		return validateEntry(e)
	case KindExit:
		if e.Return == nil {
			return fmt.Errorf("return is required on exit events")
		}
		if len(e.Params) > 0 || len(e.Args) > 0 || len(e.Unresolved) > 0 {
			return fmt.Errorf("params, args and unresolved are only allowed on entry events")
		}
		return nil
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown kind %q (want %q or %q)", e.Kind, KindEntry, KindExit)
	}
}

// validateEntry checks that every declared parameter is either bound in args
// or listed as unresolved, and nothing else is.
func validateEntry(e *Event) error {
	declared := make(map[string]bool, len(e.Params))
	for i, p := range e.Params {
		if p.Name == "" {
			return fmt.Errorf("params[%d]: name is required", i)
		}
		if declared[p.Name] {
			return fmt.Errorf("params[%d]: duplicate parameter %q", i, p.Name)
		}
		declared[p.Name] = true
		if p.Kind != "" && !slices.Contains(paramKinds, ir.ParamKind(p.Kind)) {
			return fmt.Errorf("params[%d]: unknown kind %q", i, p.Kind)
		}
	}

	for name := range e.Args {
		if !declared[name] {
			return fmt.Errorf("args: %q is not a declared parameter", name)
		}
	}
	for _, name := range e.Unresolved {
		if !declared[name] {
			return fmt.Errorf("unresolved: %q is not a declared parameter", name)
		}
		if _, ok := e.Args[name]; ok {
			return fmt.Errorf("unresolved: %q also has a value in args", name)
		}
	}
	for _, p := range e.Params {
		if _, ok := e.Args[p.Name]; !ok && !slices.Contains(e.Unresolved, p.Name) {
			return fmt.Errorf("args: missing value for parameter %q", p.Name)
		}
	}
	return nil
}

// IRParams returns the declared parameters with kinds defaulted.
func (e *Event) IRParams() []ir.Param {
	params := make([]ir.Param, len(e.Params))
	for i, p := range e.Params {
		kind := ir.ParamKind(p.Kind)
		if kind == "" {
			kind = ir.ParamPositional
		}
		params[i] = ir.Param{Name: p.Name, Kind: kind}
	}
	return params
}
