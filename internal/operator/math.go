package operator

import "github.com/roach88/adaptivity/internal/ir"

// mathStub backs isExactly, isEquivalentOf and hasSameTerms.
//
// Unimplemented: symbolic comparison of math expressions. Until it exists
// these operators are strict equality and their negations strict inequality.
func mathStub(fact, value ir.Value) bool {
	return ir.Equal(fact, value)
}
