package operator

import (
	"math"
	"slices"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
)

// normalizeEquality sorts a list of scalar tokens: numbers ascending first,
// then strings. ok is false when v is not a flat scalar list.
func normalizeEquality(v ir.Value) (ir.Array, bool) {
	list, ok := tokens(v)
	if !ok {
		return nil, false
	}
	for _, elem := range list {
		switch elem.(type) {
		case ir.Number, ir.String:
		default:
			return nil, false
		}
	}
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, compareTokens)
	return sorted, true
}

func compareTokens(a, b ir.Value) int {
	an, aNum := a.(ir.Number)
	bn, bNum := b.(ir.Number)
	switch {
	case aNum && bNum:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(string(a.(ir.String)), string(b.(ir.String)))
}

func isEqual(fact, value ir.Value) bool {
	if n, ok := fact.(ir.Number); ok && math.IsNaN(float64(n)) && IsNumeric(value) {
		return false
	}

	if listLike(fact) || listLike(value) {
		a, aOK := normalizeEquality(fact)
		b, bOK := normalizeEquality(value)
		if aOK && bOK {
			return slices.EqualFunc(a, b, sameToken)
		}
		return ir.StringifyString(fact) == ir.StringifyString(value)
	}

	_, factBool := fact.(ir.Bool)
	_, valueBool := value.(ir.Bool)
	if factBool || valueBool {
		return equalFold(ToString(fact), ToString(value))
	}

	if IsNumeric(value) {
		return ParseFloat(fact) == ParseFloat(value)
	}

	return equalFold(strings.TrimSpace(ToString(fact)), strings.TrimSpace(ToString(value)))
}

func isAnyOf(fact, value ir.Value) bool {
	candidates, ok := tokens(value)
	if !ok {
		candidates = ir.Array{value}
	}
	for _, candidate := range candidates {
		if isEqual(fact, candidate) {
			return true
		}
	}
	return false
}

// isNaN compares Number(fact) being NaN with the boolean the author expects.
func isNaN(fact, value ir.Value) bool {
	return math.IsNaN(ToNumber(fact)) == ParseBoolean(value)
}

// normalizeTolerance reads [base, tolerancePercent] and the fact as floats.
func normalizeTolerance(fact, value ir.Value) (f, base, tolerance float64, ok bool) {
	list, listOK := tokens(value)
	if !listOK || len(list) < 2 {
		return 0, 0, 0, false
	}
	f = ParseFloat(fact)
	base = ParseFloat(list[0])
	tolerance = ParseFloat(list[1])
	if math.IsNaN(f) || math.IsNaN(base) || math.IsNaN(tolerance) {
		return 0, 0, 0, false
	}
	return f, base, tolerance, true
}

// ToleranceBand returns the inclusive band for base and tolerancePercent.
// The delta keeps the sign of base, so for negative bases the bounds are
// computed as base+delta and base-delta.
func ToleranceBand(base, tolerancePercent float64) (lower, upper float64) {
	delta := base * tolerancePercent / 100
	if base >= 0 {
		return base - delta, base + delta
	}
	return base + delta, base - delta
}

func equalWithTolerance(fact, value ir.Value) bool {
	f, base, tolerance, ok := normalizeTolerance(fact, value)
	if !ok {
		return false
	}
	lower, upper := ToleranceBand(base, tolerance)
	return f >= lower && f <= upper
}

func notEqualWithTolerance(fact, value ir.Value) bool {
	f, base, tolerance, ok := normalizeTolerance(fact, value)
	if !ok {
		return false
	}
	lower, upper := ToleranceBand(base, tolerance)
	return f < lower || f > upper
}
