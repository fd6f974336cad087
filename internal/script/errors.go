package script

import (
	"errors"
	"fmt"
)

// SyntaxError reports a lexing or parsing failure.
type SyntaxError struct {
	Source string
	Offset int // byte offset into Source
	Msg    string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

// RuntimeError reports a failure while evaluating a well-formed program.
type RuntimeError struct {
	Offset int
	Msg    string
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at offset %d: %s", e.Offset, e.Msg)
}

// UndefinedReferenceError is returned when a script reads a name that is
// not in scope.
type UndefinedReferenceError struct {
	Name string
}

// Error implements the error interface.
func (e *UndefinedReferenceError) Error() string {
	return fmt.Sprintf("undefined reference {%s}", e.Name)
}

// BoundReferenceError is returned when assigning to a name that was bound
// to another with "bind to".
type BoundReferenceError struct {
	Name   string
	Source string
}

// Error implements the error interface.
func (e *BoundReferenceError) Error() string {
	return fmt.Sprintf("%s is a bound reference to %s, cannot assign", e.Name, e.Source)
}

// IsSyntaxError returns true if err is a SyntaxError.
// Uses errors.As to handle wrapped errors.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsUndefinedReference returns true if err is an UndefinedReferenceError.
func IsUndefinedReference(err error) bool {
	var ue *UndefinedReferenceError
	return errors.As(err, &ue)
}
