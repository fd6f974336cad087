package operator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/adaptivity/internal/ir"
)

func TestParseArray(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want ir.Array
	}{
		{"numeric strings", []any{"1", "2", "3"}, ir.Array{ir.Number(1), ir.Number(2), ir.Number(3)}},
		{"mixed", []any{"1", 2, "3"}, ir.Array{ir.Number(1), ir.Number(2), ir.Number(3)}},
		{"words and numbers", []any{"Stem", "Options", "3"}, ir.Array{ir.String("Stem"), ir.String("Options"), ir.Number(3)}},
		{"comma string", "Stem,Option1,Option2", ir.Array{ir.String("Stem"), ir.String("Option1"), ir.String("Option2")}},
		{"json array", `["a", 2]`, ir.Array{ir.String("a"), ir.Number(2)}},
		{"loose brackets", "[some, thing, silly]", ir.Array{ir.String("some"), ir.String("thing"), ir.String("silly")}},
		{"empty brackets", "[]", ir.Array{}},
		{"nested", "[[1, 2], [3, 4]]", ir.Array{ir.Array{ir.Number(1), ir.Number(2)}, ir.Array{ir.Number(3), ir.Number(4)}}},
		{"loose nested", "[[a,b],[c,d]]", ir.Array{ir.Array{ir.String("a"), ir.String("b")}, ir.Array{ir.String("c"), ir.String("d")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseArray(ir.MustFromAny(tt.in))
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := ParseArray(ir.Number(3))
	assert.False(t, ok)
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 12.0, ParseFloat(ir.String("12abc")))
	assert.Equal(t, 3.5, ParseFloat(ir.String("  3.5 ")))
	assert.Equal(t, -0.5, ParseFloat(ir.String("-.5")))
	assert.True(t, math.IsInf(ParseFloat(ir.String("Infinity")), 1))
	assert.True(t, math.IsNaN(ParseFloat(ir.String("abc"))))
	assert.True(t, math.IsNaN(ParseFloat(ir.Bool(true))))
}

func TestToNumber(t *testing.T) {
	assert.Equal(t, 0.0, ToNumber(ir.String("")))
	assert.Equal(t, 1.0, ToNumber(ir.Bool(true)))
	assert.Equal(t, 123.34, ToNumber(ir.String("123.34")))
	assert.True(t, math.IsNaN(ToNumber(ir.String("12abc"))))
	assert.True(t, math.IsNaN(ToNumber(ir.String("NaN"))))
	assert.Equal(t, 5.0, ToNumber(ir.Array{ir.Number(5)}))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "1,a,,true", ToString(ir.Array{ir.Number(1), ir.String("a"), ir.Null{}, ir.Bool(true)}))
	assert.Equal(t, "0.1", ToString(ir.Number(0.1)))
	assert.Equal(t, "undefined", ToString(nil))
}

func TestParseBoolean(t *testing.T) {
	for _, in := range []any{true, 1, "true", "TRUE", "on", "1"} {
		assert.True(t, ParseBoolean(ir.MustFromAny(in)), "%v", in)
	}
	for _, in := range []any{false, 0, "false", "off", "yes", nil} {
		assert.False(t, ParseBoolean(ir.MustFromAny(in)), "%v", in)
	}
}
