package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringifyMatchesJSONStringify(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"undefined", nil, "null"},
		{"string", String("a<b>&c"), `"a<b>&c"`},
		{"escapes", String("q\"\\\n"), `"q\"\\\n"`},
		{"control", String("\x01"), `"\u0001"`},
		{"number", Number(10.5), "10.5"},
		{"array", Array{Number(1), Bool(false), Null{}}, "[1,false,null]"},
		{"sorted object", Object{"b": Number(1), "a": String("x")}, `{"a":"x","b":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StringifyString(tt.in))
		})
	}
}

func TestMarshalCanonicalNormalizesNFC(t *testing.T) {
	// "e" + combining acute accent composes to U+00E9.
	decomposed := String("e\u0301")
	composed := String("\u00e9")

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)

	assert.Equal(t, b, a)
	assert.NotEqual(t, Stringify(decomposed), Stringify(composed))
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	obj := Object{"z": Number(1), "m": Array{String("x")}, "a": Object{"y": Bool(true), "b": Null{}}}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, `{"a":{"b":null,"y":true},"m":["x"],"z":1}`, string(first))
}
