package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/exemplar/internal/exchange"
	"github.com/roach88/exemplar/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession writes a session row so examples can reference it.
func createTestSession(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.WriteSession(context.Background(), Session{ID: id, Target: "app/"}); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
}

// doubleExample builds Object#double(x: n) => 2n.
func doubleExample(n int64) exchange.Example {
	return exchange.Example{
		ClassName:      "Object",
		MethodName:     "double",
		MethodLocation: ir.SourceLocation{Path: "app/math.rb", Line: 3},
		Arguments: exchange.Arguments{
			{Name: "x", Value: exchange.Value{ClassName: "Integer", Value: ir.IRInt(n)}},
		},
		Return: exchange.Value{ClassName: "Integer", Value: ir.IRInt(2 * n)},
	}
}
