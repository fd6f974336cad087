package script

import (
	"errors"
	"fmt"

	"github.com/roach88/adaptivity/internal/ir"
)

const (
	// DefaultMaxSteps bounds the number of AST nodes one evaluation may visit.
	DefaultMaxSteps = 100_000

	// DefaultMaxDepth bounds nested user function calls.
	DefaultMaxDepth = 256

	// DefaultMaxAlloc bounds the bytes of values one evaluation may build,
	// as measured by valueSize.
	DefaultMaxAlloc = 16 << 20
)

// Budget tracks evaluation steps and call depth for one evaluation.
//
// A fresh Budget is created for every top-level evaluation. Steps catch
// long linear computations, depth catches runaway recursion; together they
// guarantee every script terminates. The allocation charge keeps the
// values it builds along the way bounded too.
type Budget struct {
	maxSteps int
	steps    int
	maxDepth int
	depth    int
	maxAlloc int
	alloc    int
}

// NewBudget creates a budget with the given limits and DefaultMaxAlloc.
func NewBudget(maxSteps, maxDepth int) *Budget {
	return &Budget{maxSteps: maxSteps, maxDepth: maxDepth, maxAlloc: DefaultMaxAlloc}
}

// Step counts one evaluation step.
//
// Returns BudgetExceededError once the step limit is passed.
func (b *Budget) Step() error {
	b.steps++
	if b.steps > b.maxSteps {
		return &BudgetExceededError{Resource: "steps", Used: b.steps, Limit: b.maxSteps}
	}
	return nil
}

// Enter records a function call; pair with Leave.
func (b *Budget) Enter() error {
	b.depth++
	if b.depth > b.maxDepth {
		return &BudgetExceededError{Resource: "depth", Used: b.depth, Limit: b.maxDepth}
	}
	return nil
}

// Leave records a function return.
func (b *Budget) Leave() {
	b.depth--
}

// Charge counts the size of values about to be built or just returned.
// Sizes are measured only up to the remaining allowance, so charging a
// huge shared structure costs no more than the limit.
func (b *Budget) Charge(vals ...ir.Value) error {
	for _, v := range vals {
		b.alloc += valueSize(v, b.maxAlloc-b.alloc+1)
		if b.alloc > b.maxAlloc {
			return &BudgetExceededError{Resource: "memory", Used: b.alloc, Limit: b.maxAlloc}
		}
	}
	return nil
}

// Steps returns the steps used so far.
func (b *Budget) Steps() int {
	return b.steps
}

// BudgetExceededError is returned when an evaluation runs out of steps or
// call depth. The evaluation is abandoned; no partial result is returned.
type BudgetExceededError struct {
	Resource string // "steps", "depth" or "memory"
	Used     int
	Limit    int
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("script exceeded %s budget: %d > %d limit", e.Resource, e.Used, e.Limit)
}

// IsBudgetExceeded returns true if the error is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceeded(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}

// Per-value overhead used by valueSize, so empty strings and lists still
// cost something.
const valueOverhead = 16

// valueSize approximates the bytes v occupies once flattened, following
// shared sub-values each time they appear. It stops counting once limit
// is reached.
func valueSize(v ir.Value, limit int) int {
	size := valueOverhead
	switch x := v.(type) {
	case ir.String:
		size += len(x)
	case ir.Array:
		for _, elem := range x {
			if size >= limit {
				return size
			}
			size += valueSize(elem, limit-size)
		}
	case ir.Object:
		for k, elem := range x {
			if size >= limit {
				return size
			}
			size += len(k) + valueSize(elem, limit-size)
		}
	}
	return size
}
