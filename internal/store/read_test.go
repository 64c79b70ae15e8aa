package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exemplar/internal/exchange"
	"github.com/roach88/exemplar/internal/ir"
)

func TestReadExamples_Empty(t *testing.T) {
	s := createTestStore(t)

	doc, err := s.ReadExamples(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, doc, "empty store must return an empty document, not nil")
	assert.Empty(t, doc)
}

func TestReadExamples_InsertionOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	for _, n := range []int64{5, 1, 3} {
		_, err := s.WriteExample(ctx, doubleExample(n), "s1", fmt.Sprintf("k%d", n))
		require.NoError(t, err)
	}

	doc, err := s.ReadExamples(ctx, 0)
	require.NoError(t, err)
	require.Len(t, doc, 3)
	assert.Equal(t, "Object#double(x: 5) => 10", doc[0].Summary())
	assert.Equal(t, "Object#double(x: 1) => 2", doc[1].Summary())
	assert.Equal(t, "Object#double(x: 3) => 6", doc[2].Summary())
}

func TestReadExamples_Limit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")
	for n := range int64(5) {
		_, err := s.WriteExample(ctx, doubleExample(n), "s1", fmt.Sprintf("k%d", n))
		require.NoError(t, err)
	}

	doc, err := s.ReadExamples(ctx, 2)
	require.NoError(t, err)
	require.Len(t, doc, 2)
	assert.Equal(t, "Object#double(x: 0) => 0", doc[0].Summary())
}

func TestReadExamples_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	ex := exchange.Example{
		ClassName:      "Cart",
		MethodName:     "add",
		MethodLocation: ir.SourceLocation{Path: "app/models/cart.rb", Line: 12},
		Arguments: exchange.Arguments{
			{Name: "zeta", Value: exchange.Value{ClassName: "Hash", Value: ir.IRObject{"qty": ir.IRInt(2), "price": ir.IRFloat(9.5)}}},
			{Name: "alpha", Value: exchange.Value{ClassName: "Array", Value: ir.IRArray{ir.IRString("gift"), ir.IRNull{}}}},
		},
		Return: exchange.Value{ClassName: "NilClass", Value: ir.IRNull{}},
	}
	_, err := s.WriteExample(ctx, ex, "s1", "cart")
	require.NoError(t, err)

	doc, err := s.ReadExamples(ctx, 0)
	require.NoError(t, err)
	require.Len(t, doc, 1)
	assert.Equal(t, ex, doc[0])
	assert.Equal(t, []string{"zeta", "alpha"}, doc[0].Arguments.Names(), "declaration order survives storage")
}

func TestReadSessions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s-b")
	createTestSession(t, s, "s-a")
	createTestSession(t, s, "s-empty")

	_, err := s.WriteExample(ctx, doubleExample(1), "s-b", "k1")
	require.NoError(t, err)
	_, err = s.WriteExample(ctx, doubleExample(2), "s-a", "k2")
	require.NoError(t, err)
	_, err = s.WriteExample(ctx, doubleExample(3), "s-b", "k3")
	require.NoError(t, err)

	sessions, err := s.ReadSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, SessionSummary{ID: "s-empty", Target: "app/", RecorderVersion: ir.RecorderVersion, Examples: 0}, sessions[0])
	assert.Equal(t, "s-b", sessions[1].ID)
	assert.Equal(t, 2, sessions[1].Examples)
	assert.Equal(t, "s-a", sessions[2].ID)
	assert.Equal(t, 1, sessions[2].Examples)
}
