package operator

import (
	"math"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
)

func compareNumbers(fact, value ir.Value, cmp func(a, b float64) bool) bool {
	a, b := ParseFloat(fact), ParseFloat(value)
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return cmp(a, b)
}

func startsWith(fact, value ir.Value) bool {
	s, ok := fact.(ir.String)
	if !ok {
		return false
	}
	return strings.HasPrefix(string(s), ToString(value))
}

func endsWith(fact, value ir.Value) bool {
	s, ok := fact.(ir.String)
	if !ok {
		return false
	}
	return strings.HasSuffix(string(s), ToString(value))
}
