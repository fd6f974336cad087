package ir

import (
	"fmt"
	"strings"
)

// VariableType tags a condition or state variable with its authored type.
type VariableType int

const (
	TypeNumber     VariableType = 1
	TypeString     VariableType = 2
	TypeArray      VariableType = 3
	TypeBoolean    VariableType = 4
	TypeEnum       VariableType = 5
	TypeMathExpr   VariableType = 6
	TypeArrayPoint VariableType = 7
	TypeUnknown    VariableType = 99
)

// String returns the type name.
func (t VariableType) String() string {
	switch t {
	case TypeNumber:
		return "NUMBER"
	case TypeString:
		return "STRING"
	case TypeArray:
		return "ARRAY"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeEnum:
		return "ENUM"
	case TypeMathExpr:
		return "MATH_EXPR"
	case TypeArrayPoint:
		return "ARRAY_POINT"
	case TypeUnknown:
		return "UNKNOWN"
	case 0:
		return "UNSET"
	default:
		return fmt.Sprintf("VariableType(%d)", int(t))
	}
}

// TypeOf infers the variable type of a raw state value. Strings that spell a
// boolean or look like a bracketed list are typed as such.
func TypeOf(v Value) VariableType {
	switch val := v.(type) {
	case Bool:
		return TypeBoolean
	case Number:
		return TypeNumber
	case Array:
		return TypeArray
	case String:
		s := string(val)
		if s == "true" || s == "false" {
			return TypeBoolean
		}
		if IsBracketed(s) {
			return TypeArray
		}
		return TypeString
	default:
		return TypeUnknown
	}
}

// IsBracketed reports whether s starts with '[' and ends with ']'.
func IsBracketed(s string) bool {
	return strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
}
