package operator

import (
	"math"

	"github.com/roach88/adaptivity/internal/ir"
)

// normalizeRange reads the fact and [min, max, ...] as floats.
func normalizeRange(fact, value ir.Value) (f, lower, upper float64, ok bool) {
	list, listOK := tokens(value)
	if !listOK || len(list) < 2 {
		return 0, 0, 0, false
	}
	f = ParseFloat(fact)
	lower = ParseFloat(list[0])
	upper = ParseFloat(list[1])
	if math.IsNaN(f) || math.IsNaN(lower) || math.IsNaN(upper) {
		return 0, 0, 0, false
	}
	return f, lower, upper, true
}

func inRange(fact, value ir.Value) bool {
	f, lower, upper, ok := normalizeRange(fact, value)
	return ok && f >= lower && f <= upper
}

// notInRange is false for unreadable input rather than the negation of inRange.
func notInRange(fact, value ir.Value) bool {
	f, lower, upper, ok := normalizeRange(fact, value)
	return ok && (f < lower || f > upper)
}
