package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exemplar/internal/exchange"
	"github.com/roach88/exemplar/internal/ir"
	"github.com/roach88/exemplar/internal/recorder"
	"github.com/roach88/exemplar/internal/testutil"
)

func newRecorder(target string) *recorder.Recorder {
	return testutil.NewRecorder(target, "replay-1")
}

func replayFile(t *testing.T, r *recorder.Recorder, name string) {
	t.Helper()
	log, err := LoadLog(filepath.Join("testdata", name))
	require.NoError(t, err)
	require.NoError(t, r.Record(func() error {
		return Replay(log.Events, r)
	}))
}

func TestLoadLog_Double(t *testing.T) {
	log, err := LoadLog(filepath.Join("testdata", "double.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "double", log.Name)
	require.Len(t, log.Events, 6)
	first := log.Events[0]
	assert.Equal(t, KindEntry, first.Kind)
	assert.Equal(t, "Object", first.Type)
	assert.Equal(t, "double", first.Function)
	assert.Equal(t, 3, first.Line)
	assert.Equal(t, 4, first.Depth)
	assert.Equal(t, []ir.Param{{Name: "x", Kind: ir.ParamPositional}}, first.IRParams())
	assert.Equal(t, ir.TypedValue{TypeName: "Integer", Value: ir.IRInt(2)}, first.Args["x"].Typed())

	// kind defaults to positional
	assert.Equal(t, []ir.Param{{Name: "x", Kind: ir.ParamPositional}}, log.Events[2].IRParams())
}

func TestReplay_DoubleScenario(t *testing.T) {
	r := newRecorder("app/")
	replayFile(t, r, "double.yaml")

	doc, err := r.SerializedExamples(100)
	require.NoError(t, err)
	require.Len(t, doc, 2)
	assert.Equal(t, "Object#double(x: 2) => 4", doc[0].Summary())
	assert.Equal(t, "Object#double(x: 3) => 6", doc[1].Summary())
	assert.Equal(t, ir.SourceLocation{Path: "app/math.rb", Line: 3}, doc[0].MethodLocation)
}

func TestReplay_Checkout(t *testing.T) {
	r := newRecorder("app/models")
	replayFile(t, r, "checkout.yaml")

	doc, err := r.SerializedExamples(0)
	require.Error(t, err)

	summaries := make([]string, len(doc))
	for i, ex := range doc {
		summaries[i] = ex.Summary()
	}
	assert.Equal(t, []string{
		`Pricing#quote(sku: "A-1") => 9.5`,
		`Cart#add(item: {"qty":2,"sku":"A-1"}, tags: ["gift","sale"]) => 19`,
		`Stats#ratio(total: 0) => "#<Float>"`,
	}, summaries)

	fieldErrs := exchange.FieldErrors(err)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "Stats", fieldErrs[0].DefiningType)
	assert.Equal(t, "return", fieldErrs[0].Field)
	assert.ErrorIs(t, fieldErrs[0], ir.ErrUnrepresentable)

	stats := r.Stats()
	assert.Equal(t, 3, stats.Accepted)
	assert.Equal(t, 2, stats.Filtered, "logger entry and exit")
	assert.Equal(t, 1, stats.Failures, "unresolved parameter")
	assert.Equal(t, 1, stats.DroppedExits, "exit of the dropped entry")
	assert.Zero(t, stats.Pending)
}

func TestReplay_ArgumentOrderFollowsDeclaration(t *testing.T) {
	r := newRecorder("app/models")
	replayFile(t, r, "checkout.yaml")

	examples := r.Examples(0)
	require.Len(t, examples, 3)
	cart := examples[1]
	require.Len(t, cart.Arguments, 2)
	assert.Equal(t, "item", cart.Arguments[0].Name)
	assert.Equal(t, "tags", cart.Arguments[1].Name)
	assert.Equal(t, ir.ParamVariadic, cart.Params[1].Kind)
}

func TestReplay_DeliversEventsInOrder(t *testing.T) {
	log, err := LoadLog(filepath.Join("testdata", "double.yaml"))
	require.NoError(t, err)

	events := &testutil.EventCollector{}
	require.NoError(t, Replay(log.Events, events))

	assert.Equal(t, []string{
		"entry Object#double", "exit Object#double",
		"entry Object#double", "exit Object#double",
		"entry Object#double", "exit Object#double",
	}, events.Sequence())

	entry := events.Entries()[2]
	assert.Equal(t, "app/math.rb", entry.Path)
	assert.Equal(t, 4, entry.Depth)
	x, err := entry.Binding.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(3), x.Value)
	assert.Equal(t, ir.IRInt(6), events.Exits()[2].Return.Value)
}

func TestReplay_UnknownKind(t *testing.T) {
	r := newRecorder("")
	err := Replay([]Event{{Kind: "yield", Type: "T", Function: "f"}}, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yield")
}

func TestValueTyped(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  ir.IRValue
	}{
		{"null", nil, ir.IRNull{}},
		{"string", "a", ir.IRString("a")},
		{"int", 3, ir.IRInt(3)},
		{"float", 2.5, ir.IRFloat(2.5)},
		{"bool", true, ir.IRBool(true)},
		{"list", []any{1, "b"}, ir.IRArray{ir.IRInt(1), ir.IRString("b")}},
		{"map", map[string]any{"k": []any{}}, ir.IRObject{"k": ir.IRArray{}}},
		{"non-string keys", map[any]any{1: "one"}, ir.IRObject{"1": ir.IRString("one")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv := Value{ClassName: "X", Value: tt.value}.Typed()
			require.NoError(t, tv.Err)
			assert.Equal(t, "X", tv.TypeName)
			assert.Equal(t, tt.want, tv.Value)
		})
	}
}

func TestValueTyped_Unrepresentable(t *testing.T) {
	tv := Value{ClassName: "Set", Value: struct{}{}}.Typed()
	require.Error(t, tv.Err)
	assert.ErrorIs(t, tv.Err, ir.ErrUnrepresentable)
	assert.Equal(t, ir.IRString("#<Set>"), tv.Representable())
}

func TestParseLog_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty",
			content: "name: nothing\n",
			wantErr: "events list is required",
		},
		{
			name: "unknown field",
			content: `
events:
  - kind: entry
    type: T
    function: f
    depht: 1
`,
			wantErr: "depht",
		},
		{
			name: "missing kind",
			content: `
events:
  - type: T
    function: f
`,
			wantErr: "kind is required",
		},
		{
			name: "unknown kind",
			content: `
events:
  - kind: call
    type: T
    function: f
`,
			wantErr: `unknown kind "call"`,
		},
		{
			name: "missing function",
			content: `
events:
  - kind: entry
    type: T
`,
			wantErr: "function is required",
		},
		{
			name: "exit without return",
			content: `
events:
  - kind: exit
    type: T
    function: f
`,
			wantErr: "return is required",
		},
		{
			name: "entry with return",
			content: `
events:
  - kind: entry
    type: T
    function: f
    return: {class_name: Integer, value: 1}
`,
			wantErr: "not allowed on entry",
		},
		{
			name: "exit with args",
			content: `
events:
  - kind: exit
    type: T
    function: f
    args:
      x: {class_name: Integer, value: 1}
    return: {class_name: Integer, value: 1}
`,
			wantErr: "only allowed on entry",
		},
		{
			name: "undeclared arg",
			content: `
events:
  - kind: entry
    type: T
    function: f
    args:
      x: {class_name: Integer, value: 1}
`,
			wantErr: `"x" is not a declared parameter`,
		},
		{
			name: "missing arg",
			content: `
events:
  - kind: entry
    type: T
    function: f
    params: [{name: x}, {name: y}]
    args:
      x: {class_name: Integer, value: 1}
`,
			wantErr: `missing value for parameter "y"`,
		},
		{
			name: "unresolved and bound",
			content: `
events:
  - kind: entry
    type: T
    function: f
    params: [{name: x}]
    args:
      x: {class_name: Integer, value: 1}
    unresolved: [x]
`,
			wantErr: "also has a value",
		},
		{
			name: "duplicate param",
			content: `
events:
  - kind: entry
    type: T
    function: f
    params: [{name: x}, {name: x}]
    unresolved: [x]
`,
			wantErr: "duplicate parameter",
		},
		{
			name: "bad param kind",
			content: `
events:
  - kind: entry
    type: T
    function: f
    params: [{name: x, kind: splat}]
    unresolved: [x]
`,
			wantErr: `unknown kind "splat"`,
		},
		{
			name: "negative depth",
			content: `
events:
  - kind: entry
    type: T
    function: f
    depth: -1
`,
			wantErr: "depth must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLog(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadLog_MissingFile(t *testing.T) {
	_, err := LoadLog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
