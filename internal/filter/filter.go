// Package filter decides which traced functions are recorded.
//
// Checks run cheapest first: the target-path substring, then exclude globs,
// then an optional predicate expression.
package filter

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Subject is what a filter sees of an event.
type Subject struct {
	Type     string
	Function string
	Path     string
	Line     int
	Depth    int
}

// env is the predicate evaluation environment.
func (s Subject) env() map[string]any {
	return map[string]any{
		"type":     s.Type,
		"function": s.Function,
		"path":     s.Path,
		"line":     s.Line,
		"depth":    s.Depth,
	}
}

// Filter matches events against a target path and optional refinements.
//
// Thread-safety: a Filter is immutable after construction.
type Filter struct {
	target   string
	excludes []string
	where    string
	program  *vm.Program
}

// Option configures a Filter.
type Option func(*Filter)

// WithExcludes rejects paths matching any of the doublestar patterns.
func WithExcludes(patterns ...string) Option {
	return func(f *Filter) {
		f.excludes = append(f.excludes, patterns...)
	}
}

// WithWhere adds a boolean predicate over type, function, path, line and depth,
// e.g. `function != "String" && depth < 40`.
func WithWhere(expression string) Option {
	return func(f *Filter) {
		f.where = expression
	}
}

// Substring returns a filter that only checks the target-path substring.
// An empty target matches every path.
func Substring(target string) *Filter {
	return &Filter{target: target}
}

// New builds a filter. Exclude patterns are validated and the predicate is
// compiled up front so a bad configuration fails here rather than per event.
func New(target string, opts ...Option) (*Filter, error) {
	f := &Filter{target: target}
	for _, opt := range opts {
		opt(f)
	}

	for _, pattern := range f.excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}

	if strings.TrimSpace(f.where) != "" {
		program, err := expr.Compile(f.where, expr.Env(Subject{}.env()), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("failed to compile where expression %q: %w", f.where, err)
		}
		f.program = program
	}

	return f, nil
}

// Target returns the target-path substring.
func (f *Filter) Target() string {
	return f.target
}

// HasPredicate reports whether Match evaluates a where expression, and so
// needs the subject's Depth.
func (f *Filter) HasPredicate() bool {
	return f.program != nil
}

// Match reports whether the subject should be recorded. A predicate that
// fails at run time rejects the subject.
func (f *Filter) Match(s Subject) bool {
	if !strings.Contains(s.Path, f.target) {
		return false
	}

	for _, pattern := range f.excludes {
		// Patterns were validated in New.
		if ok, _ := doublestar.Match(pattern, s.Path); ok {
			return false
		}
	}

	if f.program == nil {
		return true
	}
	out, err := expr.Run(f.program, s.env())
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
