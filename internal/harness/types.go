package harness

import (
	"github.com/roach88/adaptivity/internal/compiler"
	"github.com/roach88/adaptivity/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expect clause and every assertion match.
	Pass bool `json:"pass"`

	// Check is the result of the first check. Nil when the check failed.
	Check *ir.Result `json:"check,omitempty"`

	// ErrorCode is the engine error code when the check failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Warnings are rule lint warnings. They never fail a scenario.
	Warnings []compiler.Warning `json:"warnings,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Warnings: []compiler.Warning{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// sent returns the types of the events in the check result.
func (r *Result) sent() []string {
	if r.Check == nil {
		return []string{}
	}
	return r.Check.Debug.Sent
}

// fired returns the types of every event that fired, in order.
func (r *Result) fired() []string {
	if r.Check == nil {
		return []string{}
	}
	return r.Check.Debug.All
}
