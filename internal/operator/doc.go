// Package operator implements the comparison predicates used by rule
// conditions.
//
// Every operator is a pure function of (fact, value) and returns false,
// never an error, when either operand is undefined or malformed. Operator
// names are resolved once with Parse when rules are loaded; evaluation then
// dispatches on the closed Kind enum.
//
// Operands arrive loosely typed: numbers as strings, lists as "[a, b]" or
// "a,b" strings, booleans as "true". Each family normalizes its operands in
// one place (normalize.go) before comparing.
package operator
