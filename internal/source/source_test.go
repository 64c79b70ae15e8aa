package source

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exemplar/internal/ir"
	"github.com/roach88/exemplar/internal/recorder"
	"github.com/roach88/exemplar/internal/testutil"
)

func newRecorder(t *testing.T) *recorder.Recorder {
	t.Helper()
	return testutil.NewRecorder("source_test.go", "s1", "s2")
}

func summaries(t *testing.T, r *recorder.Recorder) []string {
	t.Helper()
	doc, err := r.SerializedExamples(0)
	require.NoError(t, err)
	out := make([]string, len(doc))
	for i, ex := range doc {
		out[i] = ex.Summary()
	}
	return out
}

func TestWrap_EmitsEntryAndExit(t *testing.T) {
	log := &testutil.EventCollector{}
	tr := New(log)
	double := Wrap(tr, "Calculator", "Double", ir.Params("x"), func(x int) int { return x * 2 })

	assert.Equal(t, 4, double(2))

	require.Len(t, log.Entries(), 1)
	require.Len(t, log.Exits(), 1)
	entry, exit := log.Entries()[0], log.Exits()[0]

	assert.Equal(t, "Calculator", entry.DefiningType)
	assert.Equal(t, "Double", entry.Function)
	assert.True(t, strings.HasSuffix(entry.Path, "source_test.go"), entry.Path)
	assert.Positive(t, entry.Line)
	assert.Positive(t, entry.Depth)
	assert.NotZero(t, entry.Activation)
	assert.Equal(t, []ir.Param{{Name: "x", Kind: ir.ParamPositional}}, entry.Params)

	x, err := entry.Binding.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, ir.TypedValue{TypeName: "int", Value: ir.IRInt(2)}, x)

	assert.Equal(t, entry.Activation, exit.Activation)
	assert.Equal(t, entry.Depth, exit.Depth)
	assert.Equal(t, ir.TypedValue{TypeName: "int", Value: ir.IRInt(4)}, exit.Return)
}

func TestWrap_RecordsDoubleScenario(t *testing.T) {
	r := newRecorder(t)
	tr := New(r)
	double := Wrap(tr, "Object", "double", ir.Params("x"), func(x int) int { return x * 2 })

	require.NoError(t, r.Record(func() error {
		double(2)
		double(2)
		double(3)
		return nil
	}))

	assert.Equal(t, []string{
		"Object#double(x: 2) => 4",
		"Object#double(x: 3) => 6",
	}, summaries(t, r))
}

func TestWrap_Recursion(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
	}{
		{name: "activations"},
		{name: "depth", opts: []Option{WithoutActivations()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := newRecorder(t)
			tr := New(r, tc.opts...)

			var fact func(int) int
			fact = Wrap(tr, "Math", "fact", ir.Params("n"), func(n int) int {
				if n <= 1 {
					return 1
				}
				return n * fact(n-1)
			})

			r.Start()
			assert.Equal(t, 6, fact(3))
			r.Stop()

			assert.Equal(t, []string{
				"Math#fact(n: 1) => 1",
				"Math#fact(n: 2) => 2",
				"Math#fact(n: 3) => 6",
			}, summaries(t, r))
		})
	}
}

func TestWrap_NestedCallsAreDeeper(t *testing.T) {
	log := &testutil.EventCollector{}
	tr := New(log)
	inner := Wrap(tr, "T", "inner", nil, func() {})
	outer := Wrap(tr, "T", "outer", nil, func() { inner() })

	outer()

	require.Len(t, log.Entries(), 2)
	assert.Equal(t, "outer", log.Entries()[0].Function)
	assert.Greater(t, log.Entries()[1].Depth, log.Entries()[0].Depth)
	assert.Equal(t, "inner", log.Exits()[0].Function)
	assert.Equal(t, "outer", log.Exits()[1].Function)
}

func TestWrap_WithoutActivations(t *testing.T) {
	log := &testutil.EventCollector{}
	tr := New(log, WithoutActivations())
	Wrap(tr, "T", "f", nil, func() {})()

	assert.Zero(t, log.Entries()[0].Activation)
	assert.Zero(t, log.Exits()[0].Activation)
}

func TestWrap_SharedClock(t *testing.T) {
	clock := recorder.NewClockAt(100)
	log := &testutil.EventCollector{}
	tr := New(log, WithClock(clock))
	Wrap(tr, "T", "f", nil, func() {})()

	assert.Equal(t, uint64(101), log.Entries()[0].Activation)
}

func TestWrap_MultipleReturnsFold(t *testing.T) {
	r := newRecorder(t)
	tr := New(r)
	divide := Wrap(tr, "Math", "divide", ir.Params("a", "b"), func(a, b int) (int, error) {
		if b == 0 {
			return 0, errors.New("division by zero")
		}
		return a / b, nil
	})

	r.Start()
	q, err := divide(6, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, q)
	_, err = divide(1, 0)
	require.Error(t, err)
	r.Stop()

	examples := r.Examples(0)
	require.Len(t, examples, 2)
	assert.Equal(t, "(int, error)", examples[0].Return.TypeName)
	assert.Equal(t, ir.IRArray{ir.IRInt(2), ir.IRNull{}}, examples[0].Return.Value)
	assert.Equal(t, ir.IRArray{ir.IRInt(0), ir.IRString("division by zero")}, examples[1].Return.Value)
}

func TestWrap_NoReturnIsNil(t *testing.T) {
	log := &testutil.EventCollector{}
	tr := New(log)
	Wrap(tr, "Logger", "Print", ir.Params("msg"), func(string) {})("hi")

	assert.Equal(t, ir.TypedValue{TypeName: "nil", Value: ir.IRNull{}}, log.Exits()[0].Return)
}

func TestWrap_Variadic(t *testing.T) {
	log := &testutil.EventCollector{}
	tr := New(log)
	sum := Wrap(tr, "Math", "sum", nil, func(xs ...int) int {
		total := 0
		for _, x := range xs {
			total += x
		}
		return total
	})

	assert.Equal(t, 6, sum(1, 2, 3))
	assert.Equal(t, 0, sum())

	assert.Equal(t, []ir.Param{{Name: "arg0", Kind: ir.ParamVariadic}}, log.Entries()[0].Params)
	xs, err := log.Entries()[0].Binding.Lookup("arg0")
	require.NoError(t, err)
	assert.Equal(t, ir.TypedValue{TypeName: "[]int", Value: ir.IRArray{ir.IRInt(1), ir.IRInt(2), ir.IRInt(3)}}, xs)

	empty, err := log.Entries()[1].Binding.Lookup("arg0")
	require.NoError(t, err)
	assert.Equal(t, "[]int", empty.TypeName)
}

func TestWrap_InterfaceArguments(t *testing.T) {
	log := &testutil.EventCollector{}
	tr := New(log)
	describe := Wrap(tr, "Fmt", "describe", ir.Params("v"), func(v any) string {
		if v == nil {
			return "nothing"
		}
		return "something"
	})

	describe(nil)
	describe("text")

	v, _ := log.Entries()[0].Binding.Lookup("v")
	assert.Equal(t, ir.TypedValue{TypeName: "nil", Value: ir.IRNull{}}, v)
	v, _ = log.Entries()[1].Binding.Lookup("v")
	assert.Equal(t, ir.TypedValue{TypeName: "string", Value: ir.IRString("text")}, v)
}

func TestWrap_ArgumentsSnapshotBeforeCall(t *testing.T) {
	r := newRecorder(t)
	tr := New(r)
	clobber := Wrap(tr, "Slice", "clobber", ir.Params("xs"), func(xs []int) int {
		xs[0] = 99
		return len(xs)
	})

	r.Start()
	clobber([]int{1, 2})
	r.Stop()

	assert.Equal(t, []string{"Slice#clobber(xs: [1,2]) => 2"}, summaries(t, r))
}

func TestWrap_UnrepresentableArgumentDegrades(t *testing.T) {
	r := newRecorder(t)
	tr := New(r)
	drain := Wrap(tr, "Worker", "drain", ir.Params("jobs"), func(jobs chan int) int { return len(jobs) })

	r.Start()
	drain(make(chan int))
	r.Stop()

	doc, err := r.SerializedExamples(0)
	require.Error(t, err)
	require.Len(t, doc, 1)
	jobs, ok := doc[0].Arguments.Get("jobs")
	require.True(t, ok)
	assert.Equal(t, ir.IRString("#<chan int>"), jobs.Value)
}

func TestWrap_PanicPropagatesAndLeavesNoExample(t *testing.T) {
	r := newRecorder(t)
	tr := New(r)
	explode := Wrap(tr, "Bomb", "explode", nil, func() int { panic("boom") })

	r.Start()
	assert.PanicsWithValue(t, "boom", func() { explode() })
	assert.Equal(t, 1, r.Stats().Pending)
	r.Stop()

	assert.Empty(t, r.Examples(0))
	assert.Equal(t, 1, r.Stats().Orphaned)
}

func TestWrap_DisabledRecorderPassesThrough(t *testing.T) {
	r := newRecorder(t)
	tr := New(r)
	double := Wrap(tr, "Object", "double", ir.Params("x"), func(x int) int { return x * 2 })

	assert.Equal(t, 8, double(4))
	assert.Empty(t, r.Examples(0))
}

func TestWrap_Concurrent(t *testing.T) {
	r := newRecorder(t)
	tr := New(r)
	square := Wrap(tr, "Math", "square", ir.Params("x"), func(x int) int { return x * x })

	r.Start()
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 25 {
				square(g*25 + i)
			}
		}()
	}
	wg.Wait()
	r.Stop()

	examples := r.Examples(0)
	require.Len(t, examples, 200)
	for _, ex := range examples {
		x, ok := ex.Argument("x")
		require.True(t, ok)
		n := int64(x.Value.(ir.IRInt))
		assert.Equal(t, ir.IRInt(n*n), ex.Return.Value)
	}
}

func TestWrap_PanicsOnMisuse(t *testing.T) {
	tr := New(&testutil.EventCollector{})

	assert.Panics(t, func() { Wrap(tr, "T", "f", nil, 42) })
	assert.Panics(t, func() {
		var nilFn func()
		Wrap(tr, "T", "f", nil, nilFn)
	})
	assert.Panics(t, func() { Wrap(tr, "T", "f", ir.Params("a", "b"), func(int) {}) })
}

// countingJSON counts how often it is serialized.
type countingJSON struct{ calls *int }

func (c countingJSON) MarshalJSON() ([]byte, error) {
	*c.calls++
	return []byte(`"counted"`), nil
}

type explodingJSON struct{}

func (explodingJSON) MarshalJSON() ([]byte, error) { panic("marshal failed") }

func TestWrap_PanickingMarshalerDegrades(t *testing.T) {
	r := newRecorder(t)
	tr := New(r)
	echo := Wrap(tr, "Codec", "echo", ir.Params("v"), func(v explodingJSON) explodingJSON { return v })

	r.Start()
	require.NotPanics(t, func() { echo(explodingJSON{}) })
	r.Stop()

	doc, err := r.SerializedExamples(0)
	require.Error(t, err)
	require.Len(t, doc, 1)
	v, ok := doc[0].Arguments.Get("v")
	require.True(t, ok)
	assert.Equal(t, ir.DegradedValue("source.explodingJSON"), v.Value)
	assert.Equal(t, ir.DegradedValue("source.explodingJSON"), doc[0].Return.Value)
}

func TestWrap_PanickingMarshalerInMultipleReturns(t *testing.T) {
	log := &testutil.EventCollector{}
	tr := New(log)
	pair := Wrap(tr, "Codec", "pair", nil, func() (explodingJSON, error) { return explodingJSON{}, nil })

	require.NotPanics(t, func() { pair() })
	require.Len(t, log.Exits(), 1)
	ret := log.Exits()[0].Return
	assert.Equal(t, "(source.explodingJSON, error)", ret.TypeName)
	require.Error(t, ret.Err)
	assert.ErrorIs(t, ret.Err, ir.ErrUnrepresentable)
}

func TestWrap_UnwantedCallsSkipCapture(t *testing.T) {
	var calls int
	r := testutil.NewRecorder("no-such-path", "s1")
	tr := New(r)
	keep := Wrap(tr, "Store", "keep", ir.Params("v"), func(v countingJSON) countingJSON { return v })

	keep(countingJSON{calls: &calls})
	assert.Zero(t, calls, "disabled recorder")

	r.Start()
	keep(countingJSON{calls: &calls})
	r.Stop()

	assert.Zero(t, calls, "filtered call")
	assert.Equal(t, 1, r.Stats().Filtered)
	assert.Zero(t, r.Stats().Pending)
	assert.Empty(t, r.Examples(0))
}

func TestWrap_WantedCallsCapture(t *testing.T) {
	var calls int
	r := newRecorder(t)
	tr := New(r)
	keep := Wrap(tr, "Store", "keep", ir.Params("v"), func(v countingJSON) countingJSON { return v })

	r.Start()
	keep(countingJSON{calls: &calls})
	r.Stop()

	assert.Equal(t, 2, calls, "argument and return")
	assert.Equal(t, []string{`Store#keep(v: "counted") => "counted"`}, summaries(t, r))
}
