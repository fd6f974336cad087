package operator

import (
	"encoding/json"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/roach88/adaptivity/internal/ir"
)

// floatPrefix matches the longest numeric prefix parseFloat accepts.
var floatPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// decimalLiteral matches a complete decimal number literal.
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ToString converts a value to the string a JavaScript runtime would produce.
func ToString(v ir.Value) string {
	switch val := v.(type) {
	case nil:
		return "undefined"
	case ir.Null:
		return "null"
	case ir.Bool:
		return strconv.FormatBool(bool(val))
	case ir.Number:
		return ir.FormatNumber(float64(val))
	case ir.String:
		return string(val)
	case ir.Array:
		parts := make([]string, len(val))
		for i, elem := range val {
			switch elem.(type) {
			case nil, ir.Null:
				parts[i] = ""
			default:
				parts[i] = ToString(elem)
			}
		}
		return strings.Join(parts, ",")
	case ir.Object:
		return "[object Object]"
	default:
		return ""
	}
}

// ParseFloat mirrors parseFloat: leading whitespace is skipped and the longest
// numeric prefix is parsed. Returns NaN when there is none.
func ParseFloat(v ir.Value) float64 {
	if n, ok := v.(ir.Number); ok {
		return float64(n)
	}
	s := strings.TrimLeftFunc(ToString(v), func(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' })
	m := floatPrefix.FindString(s)
	if m == "" {
		return math.NaN()
	}
	switch m {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	// Out of range literals come back as ±Inf alongside the error.
	f, _ := strconv.ParseFloat(m, 64)
	return f
}

// ToNumber mirrors Number(v): the whole string must be numeric, the empty
// string is zero, booleans are 0 or 1.
func ToNumber(v ir.Value) float64 {
	switch val := v.(type) {
	case nil:
		return math.NaN()
	case ir.Null:
		return 0
	case ir.Bool:
		if val {
			return 1
		}
		return 0
	case ir.Number:
		return float64(val)
	case ir.String:
		return stringToNumber(string(val))
	case ir.Array:
		switch len(val) {
		case 0:
			return 0
		case 1:
			return stringToNumber(ToString(val[0]))
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// IsNumeric reports whether v is a number or a string holding a complete
// decimal literal.
func IsNumeric(v ir.Value) bool {
	switch val := v.(type) {
	case ir.Number:
		return !math.IsNaN(float64(val))
	case ir.String:
		return decimalLiteral.MatchString(strings.TrimSpace(string(val)))
	default:
		return false
	}
}

// ParseNumString converts a list element: anything with a numeric prefix
// becomes a number, nested lists and objects are kept, everything else
// becomes a trimmed string.
func ParseNumString(v ir.Value) ir.Value {
	switch v.(type) {
	case ir.Number, ir.Array, ir.Object:
		return v
	}
	if f := ParseFloat(v); !math.IsNaN(f) {
		return ir.Number(f)
	}
	return ir.String(strings.TrimSpace(ToString(v)))
}

// ParseBoolean accepts true, 1, "true", "on" and "1" (case-insensitive).
func ParseBoolean(v ir.Value) bool {
	switch val := v.(type) {
	case nil:
		return false
	case ir.Bool:
		return bool(val)
	case ir.Number:
		return val == 1
	default:
		switch strings.ToLower(ToString(v)) {
		case "true", "on", "1":
			return true
		}
		return false
	}
}

// ParseArray turns a loosely authored list into elements: arrays are
// normalized element-wise, "[...]" strings are decoded as JSON or split on
// commas (one level of nesting), other strings are split on commas.
// ok is false for values that cannot be read as a list.
func ParseArray(v ir.Value) (ir.Array, bool) {
	switch val := v.(type) {
	case ir.Array:
		out := make(ir.Array, len(val))
		for i, elem := range val {
			out[i] = ParseNumString(elem)
		}
		return out, true
	case ir.String:
		s := string(val)
		if s == "" {
			return ir.Array{}, true
		}
		if ir.IsBracketed(s) {
			return parseBracketed(s), true
		}
		return splitList(s), true
	case nil, ir.Null:
		return ir.Array{}, true
	default:
		return nil, false
	}
}

func parseBracketed(s string) ir.Array {
	var decoded []any
	if err := json.Unmarshal([]byte(s), &decoded); err == nil {
		if arr, err := ir.FromAny(decoded); err == nil {
			return arr.(ir.Array)
		}
	}

	inner := s[1 : len(s)-1]
	if ir.IsBracketed(inner) {
		inner = strings.ReplaceAll(inner, "], [", "],\n[")
		inner = strings.ReplaceAll(inner, "],[", "],\n[")
		parts := strings.Split(inner, ",\n")
		out := make(ir.Array, len(parts))
		for i, part := range parts {
			out[i] = parseBracketed(part)
		}
		return out
	}

	elements := splitList(inner)
	if len(elements) == 1 && ir.Equal(elements[0], ir.String("")) {
		return ir.Array{}
	}
	return elements
}

func splitList(s string) ir.Array {
	parts := strings.Split(s, ",")
	out := make(ir.Array, len(parts))
	for i, part := range parts {
		out[i] = ParseNumString(ir.String(part))
	}
	return out
}

// listLike reports whether v is an array or a bracketed string.
func listLike(v ir.Value) bool {
	switch val := v.(type) {
	case ir.Array:
		return true
	case ir.String:
		return ir.IsBracketed(string(val))
	default:
		return false
	}
}

// Truthy mirrors JavaScript truthiness.
func Truthy(v ir.Value) bool {
	switch val := v.(type) {
	case nil, ir.Null:
		return false
	case ir.Bool:
		return bool(val)
	case ir.Number:
		f := float64(val)
		return f != 0 && !math.IsNaN(f)
	case ir.String:
		return val != ""
	default:
		return true
	}
}

// fold returns the case-folded form of s. Casers are not safe for
// concurrent use, so each call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

func equalFold(a, b string) bool {
	return fold(a) == fold(b)
}

// sameToken compares two normalized list elements.
func sameToken(a, b ir.Value) bool {
	an, aNum := a.(ir.Number)
	bn, bNum := b.(ir.Number)
	if aNum && bNum {
		return an == bn
	}
	if aNum != bNum {
		return false
	}
	as, aStr := a.(ir.String)
	bs, bStr := b.(ir.String)
	if aStr && bStr {
		return strings.TrimSpace(string(as)) == strings.TrimSpace(string(bs))
	}
	return ir.Equal(a, b)
}

func includes(list ir.Array, v ir.Value) bool {
	return slices.ContainsFunc(list, func(elem ir.Value) bool { return sameToken(elem, v) })
}

// tokens reads v as a list with every element normalized.
func tokens(v ir.Value) (ir.Array, bool) {
	list, ok := ParseArray(v)
	if !ok {
		return nil, false
	}
	out := make(ir.Array, len(list))
	for i, elem := range list {
		out[i] = ParseNumString(elem)
	}
	return out, true
}
