package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Number(1.5)
	var _ Value = String("test")
	var _ Value = Array{String("a"), Number(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"a":  Number(1),
		"A":  Number(2),
		"aa": Number(3),
		"Aa": Number(5),
		"AA": Number(6),
	}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aa"}, obj.SortedKeys())
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-5, "-5"},
		{100, "100"},
		{0.1, "0.1"},
		{123.34, "123.34"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{1.5e-7, "1.5e-7"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.in))
		})
	}
}

func TestUnmarshalValue(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"a": [1, "two", true, null], "b": {"c": 2.5}}`))
	require.NoError(t, err)

	want := Object{
		"a": Array{Number(1), String("two"), Bool(true), Null{}},
		"b": Object{"c": Number(2.5)},
	}
	assert.True(t, Equal(want, v), "got %s", StringifyString(v))
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"int":    42,
		"list":   []any{"x", int64(3)},
		"nested": map[any]any{"k": false},
		"nil":    nil,
	})
	require.NoError(t, err)

	obj := v.(Object)
	assert.Equal(t, Number(42), obj["int"])
	assert.Equal(t, Array{String("x"), Number(3)}, obj["list"])
	assert.Equal(t, Object{"k": Bool(false)}, obj["nested"])
	assert.Equal(t, Null{}, obj["nil"])

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestToAnyRoundTrip(t *testing.T) {
	v := Object{"list": Array{Number(1), String("a")}, "flag": Bool(true), "none": Null{}}
	back, err := FromAny(ToAny(v))
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Null{}))
	assert.True(t, Equal(Array{Number(1), String("a")}, Array{Number(1), String("a")}))
	assert.False(t, Equal(Array{Number(1)}, Array{String("1")}))
	assert.False(t, Equal(Number(math.NaN()), Number(math.NaN())))
	assert.False(t, Equal(Object{"a": Number(1)}, Object{"b": Number(1)}))
}

func TestCloneIsDeep(t *testing.T) {
	orig := Object{"list": Array{Number(1)}}
	cp := Clone(orig).(Object)
	cp["list"].(Array)[0] = Number(2)

	assert.Equal(t, Number(1), orig["list"].(Array)[0])
}

func TestNumberMarshalNonFinite(t *testing.T) {
	data, err := json.Marshal(Array{Number(math.NaN()), Number(math.Inf(1)), Number(2)})
	require.NoError(t, err)
	assert.Equal(t, `[null,null,2]`, string(data))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TypeBoolean, TypeOf(Bool(true)))
	assert.Equal(t, TypeBoolean, TypeOf(String("false")))
	assert.Equal(t, TypeNumber, TypeOf(Number(3)))
	assert.Equal(t, TypeArray, TypeOf(Array{}))
	assert.Equal(t, TypeArray, TypeOf(String("[1,2]")))
	assert.Equal(t, TypeString, TypeOf(String("Bennu")))
	assert.Equal(t, TypeUnknown, TypeOf(nil))
}

func TestObject_UnmarshalNullIsNoOp(t *testing.T) {
	var req struct {
		State Object `json:"state"`
		List  Array  `json:"list"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"state": null, "list": null}`), &req))
	assert.Nil(t, req.State)
	assert.Nil(t, req.List)

	err := json.Unmarshal([]byte(`{"state": [1]}`), &req)
	assert.Error(t, err)
}
