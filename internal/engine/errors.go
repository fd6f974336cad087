package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/adaptivity/internal/operator"
	"github.com/roach88/adaptivity/internal/rules"
)

// CheckError is returned when a check cannot produce a result because the
// caller broke its contract: rules that do not compile, state that cannot
// be assigned, or a result that cannot be encoded.
//
// Expression failures inside rule values are not CheckErrors; they are
// logged and the literal value is used instead.
type CheckError struct {
	// Code identifies the error category.
	Code CheckErrorCode

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause.
	Err error
}

// CheckErrorCode categorizes check errors.
type CheckErrorCode string

const (
	// ErrCodeUnknownOperator indicates a condition names an operator that does not exist.
	ErrCodeUnknownOperator CheckErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeInvalidRule indicates a malformed condition tree.
	ErrCodeInvalidRule CheckErrorCode = "INVALID_RULE"

	// ErrCodeInvalidState indicates the state could not be assigned.
	ErrCodeInvalidState CheckErrorCode = "INVALID_STATE"

	// ErrCodeEncodeFailed indicates the result could not be serialized.
	ErrCodeEncodeFailed CheckErrorCode = "ENCODE_FAILED"
)

// Error implements the error interface.
func (e *CheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CheckError) Unwrap() error {
	return e.Err
}

// IsUnknownOperator returns true if the error is an unknown operator error.
// Uses errors.As to handle wrapped errors.
func IsUnknownOperator(err error) bool {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeUnknownOperator
	}
	var ue *operator.UnknownOperatorError
	return errors.As(err, &ue)
}

// IsInvalidRule returns true if the error is an invalid rule error.
func IsInvalidRule(err error) bool {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeInvalidRule
	}
	return false
}

// newCompileError classifies a rules.CompileAll failure.
func newCompileError(err error) *CheckError {
	var ue *operator.UnknownOperatorError
	if errors.As(err, &ue) {
		return &CheckError{
			Code:    ErrCodeUnknownOperator,
			Message: fmt.Sprintf("unknown operator %q", ue.Name),
			Err:     err,
		}
	}
	var ce *rules.CompileError
	msg := "rules do not compile"
	if errors.As(err, &ce) {
		msg = fmt.Sprintf("rule %q does not compile", ce.RuleID)
	}
	return &CheckError{Code: ErrCodeInvalidRule, Message: msg, Err: err}
}
