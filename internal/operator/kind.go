package operator

import (
	"fmt"
	"slices"

	"github.com/roach88/adaptivity/internal/ir"
)

// Kind identifies one operator.
type Kind int

const (
	Contains Kind = iota + 1
	NotContains
	ContainsAnyOf
	NotContainsAnyOf
	ContainsOnly
	NotContainsOnly
	ContainsExactly
	NotContainsExactly

	Equal
	NotEqual
	Is
	NotIs
	IsAnyOf
	NotIsAnyOf
	IsNaN
	EqualWithTolerance
	NotEqualWithTolerance

	InRange
	NotInRange

	LessThan
	LessThanInclusive
	GreaterThan
	GreaterThanInclusive
	In
	NotIn
	StartsWith
	EndsWith

	IsExactly
	NotIsExactly
	IsEquivalentOf
	NotIsEquivalentOf
	HasSameTerms
	HasDifferentTerms
)

var kindNames = map[Kind]string{
	Contains:              "contains",
	NotContains:           "notContains",
	ContainsAnyOf:         "containsAnyOf",
	NotContainsAnyOf:      "notContainsAnyOf",
	ContainsOnly:          "containsOnly",
	NotContainsOnly:       "notContainsOnly",
	ContainsExactly:       "containsExactly",
	NotContainsExactly:    "notContainsExactly",
	Equal:                 "equal",
	NotEqual:              "notEqual",
	Is:                    "is",
	NotIs:                 "notIs",
	IsAnyOf:               "isAnyOf",
	NotIsAnyOf:            "notIsAnyOf",
	IsNaN:                 "isNaN",
	EqualWithTolerance:    "equalWithTolerance",
	NotEqualWithTolerance: "notEqualWithTolerance",
	InRange:               "inRange",
	NotInRange:            "notInRange",
	LessThan:              "lessThan",
	LessThanInclusive:     "lessThanInclusive",
	GreaterThan:           "greaterThan",
	GreaterThanInclusive:  "greaterThanInclusive",
	In:                    "in",
	NotIn:                 "notIn",
	StartsWith:            "startsWith",
	EndsWith:              "endsWith",
	IsExactly:             "isExactly",
	NotIsExactly:          "notIsExactly",
	IsEquivalentOf:        "isEquivalentOf",
	NotIsEquivalentOf:     "notIsEquivalentOf",
	HasSameTerms:          "hasSameTerms",
	HasDifferentTerms:     "hasDifferentTerms",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		m[name] = k
	}
	return m
}()

// String returns the authored operator name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// UnknownOperatorError is returned by Parse for names outside the library.
type UnknownOperatorError struct {
	Name string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Name)
}

// Parse resolves an authored operator name.
func Parse(name string) (Kind, error) {
	if k, ok := kindsByName[name]; ok {
		return k, nil
	}
	return 0, &UnknownOperatorError{Name: name}
}

// Names returns every operator name, sorted.
func Names() []string {
	names := make([]string, 0, len(kindsByName))
	for name := range kindsByName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Apply evaluates the operator. An undefined operand always yields false.
func (k Kind) Apply(fact, value ir.Value) bool {
	if fact == nil || value == nil {
		return false
	}

	switch k {
	case Contains, ContainsAnyOf:
		return contains(fact, value, false)
	case NotContains:
		return !contains(fact, value, true)
	case NotContainsAnyOf:
		return !contains(fact, value, false)
	case ContainsOnly:
		return containsOnly(fact, value)
	case NotContainsOnly:
		return !containsOnly(fact, value)
	case ContainsExactly:
		return containsExactly(fact, value)
	case NotContainsExactly:
		return !containsExactly(fact, value)

	case Equal, Is:
		return isEqual(fact, value)
	case NotEqual, NotIs:
		return !isEqual(fact, value)
	case IsAnyOf, In:
		return isAnyOf(fact, value)
	case NotIsAnyOf, NotIn:
		return !isAnyOf(fact, value)
	case IsNaN:
		return isNaN(fact, value)
	case EqualWithTolerance:
		return equalWithTolerance(fact, value)
	case NotEqualWithTolerance:
		return notEqualWithTolerance(fact, value)

	case InRange:
		return inRange(fact, value)
	case NotInRange:
		return notInRange(fact, value)

	case LessThan:
		return compareNumbers(fact, value, func(a, b float64) bool { return a < b })
	case LessThanInclusive:
		return compareNumbers(fact, value, func(a, b float64) bool { return a <= b })
	case GreaterThan:
		return compareNumbers(fact, value, func(a, b float64) bool { return a > b })
	case GreaterThanInclusive:
		return compareNumbers(fact, value, func(a, b float64) bool { return a >= b })
	case StartsWith:
		return startsWith(fact, value)
	case EndsWith:
		return endsWith(fact, value)

	case IsExactly, IsEquivalentOf, HasSameTerms:
		return mathStub(fact, value)
	case NotIsExactly, NotIsEquivalentOf, HasDifferentTerms:
		return !mathStub(fact, value)
	}
	panic(fmt.Sprintf("operator: unhandled kind %d", int(k)))
}

// Evaluate is Parse followed by Apply.
func Evaluate(name string, fact, value ir.Value) (bool, error) {
	k, err := Parse(name)
	if err != nil {
		return false, err
	}
	return k.Apply(fact, value), nil
}
