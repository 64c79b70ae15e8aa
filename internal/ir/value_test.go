package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	values := []IRValue{
		IRNull{}, IRString("s"), IRInt(1), IRFloat(1.5), IRBool(true), IRArray{}, IRObject{},
	}
	assert.Len(t, values, 7)
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{"c": IRInt(3), "a": IRInt(1), "b": IRInt(2)}
	assert.Equal(t, []string{"a", "b", "c"}, obj.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, -1, compareKeysRFC8785("a", "b"))
	assert.Equal(t, 1, compareKeysRFC8785("b", "a"))
	assert.Equal(t, 0, compareKeysRFC8785("a", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "ab"))
	assert.Equal(t, -1, compareKeysRFC8785("\U00010000", "\uE000"))
}

func TestUnmarshalIRValueNumbers(t *testing.T) {
	v, err := UnmarshalIRValue([]byte("42"))
	require.NoError(t, err)
	assert.Equal(t, IRInt(42), v)

	v, err = UnmarshalIRValue([]byte("9223372036854775807"))
	require.NoError(t, err)
	assert.Equal(t, IRInt(9223372036854775807), v, "large ints must not lose precision")

	v, err = UnmarshalIRValue([]byte("2.5"))
	require.NoError(t, err)
	assert.Equal(t, IRFloat(2.5), v)

	v, err = UnmarshalIRValue([]byte("1e3"))
	require.NoError(t, err)
	assert.Equal(t, IRFloat(1000), v)
}

func TestUnmarshalIRValueStructures(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"a":[1,"x",null,true],"b":{"c":1.5}}`))
	require.NoError(t, err)

	expected := IRObject{
		"a": IRArray{IRInt(1), IRString("x"), IRNull{}, IRBool(true)},
		"b": IRObject{"c": IRFloat(1.5)},
	}
	assert.Equal(t, expected, v)
}

func TestUnmarshalIRValueRejectsEmpty(t *testing.T) {
	_, err := UnmarshalIRValue([]byte("  "))
	require.Error(t, err)
}

func TestMarshalIRValueRoundTrip(t *testing.T) {
	original := IRObject{
		"name":  IRString("widget"),
		"count": IRInt(3),
		"ratio": IRFloat(0.25),
		"tags":  IRArray{IRString("a"), IRNull{}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Equal(t, `{"count":3,"name":"widget","ratio":0.25,"tags":["a",null]}`, string(data))

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestCloneValueIsDeep(t *testing.T) {
	original := IRObject{"list": IRArray{IRInt(1)}, "obj": IRObject{"k": IRString("v")}}
	clone := CloneValue(original).(IRObject)

	clone["list"].(IRArray)[0] = IRInt(99)
	clone["obj"].(IRObject)["k"] = IRString("changed")

	assert.Equal(t, IRInt(1), original["list"].(IRArray)[0])
	assert.Equal(t, IRString("v"), original["obj"].(IRObject)["k"])
}

func TestHelperConstructors(t *testing.T) {
	obj := NewIRObjectFromPairs(O("name", IRString("cart")), O("count", IRInt(5)))
	assert.Equal(t, IRObject{"name": IRString("cart"), "count": IRInt(5)}, obj)
}

func TestMarshalIRValue_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalIRValue(IRObject{"<k>": IRString("#<chan int> & more")})
	require.NoError(t, err)
	assert.Equal(t, `{"<k>":"#<chan int> & more"}`, string(data))
}
