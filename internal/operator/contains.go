package operator

import (
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
)

// normalizeContainment reads the value side of a containment check as a
// token list. Scalars that are not strings become a one element list.
func normalizeContainment(v ir.Value) ir.Array {
	if list, ok := tokens(v); ok {
		return list
	}
	return ir.Array{ParseNumString(v)}
}

// contains reports whether fact contains value. With every set, all value
// tokens must be present (used by notContains); otherwise any one suffices.
func contains(fact, value ir.Value, every bool) bool {
	if !Truthy(fact) || !Truthy(value) {
		return false
	}

	if s, ok := fact.(ir.String); ok && !ir.IsBracketed(string(s)) {
		haystack := fold(string(s))
		if v, isString := value.(ir.String); isString && !strings.ContainsAny(string(v), "[]") {
			return strings.Contains(haystack, fold(string(v)))
		}
		match := func(tok ir.Value) bool {
			return strings.Contains(haystack, fold(strings.TrimSpace(ToString(tok))))
		}
		return anyOrEvery(normalizeContainment(value), every, match)
	}

	facts, ok := tokens(fact)
	if !ok {
		return false
	}
	return anyOrEvery(normalizeContainment(value), every, func(tok ir.Value) bool {
		return includes(facts, tok)
	})
}

func anyOrEvery(list ir.Array, every bool, match func(ir.Value) bool) bool {
	if len(list) == 0 {
		return false
	}
	for _, tok := range list {
		if match(tok) != every {
			return !every
		}
	}
	return every
}

// mutuallyContained reports set equality of two token lists of equal length.
func mutuallyContained(a, b ir.Array) bool {
	if len(a) != len(b) {
		return false
	}
	for _, elem := range a {
		if !includes(b, elem) {
			return false
		}
	}
	for _, elem := range b {
		if !includes(a, elem) {
			return false
		}
	}
	return true
}

// containsOnly: fact holds exactly the value's elements, in any order.
func containsOnly(fact, value ir.Value) bool {
	if !Truthy(fact) || !Truthy(value) {
		return false
	}
	facts, ok := tokens(fact)
	if !ok || len(facts) == 0 {
		return false
	}
	return mutuallyContained(facts, normalizeContainment(value))
}

// containsExactly compares lists as sets of equal length and anything else
// by strict equality.
func containsExactly(fact, value ir.Value) bool {
	if !Truthy(fact) || !Truthy(value) {
		return false
	}
	if listLike(fact) && listLike(value) {
		facts, _ := tokens(fact)
		return mutuallyContained(facts, normalizeContainment(value))
	}
	return ir.Equal(fact, value)
}
