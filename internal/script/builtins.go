package script

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
)

type nativeFunc = func(env *Environment, args []ir.Value) (ir.Value, error)

func native(env *Environment, name string, minArgs, maxArgs int, fn nativeFunc) {
	env.Define(&Function{Name: name, Native: fn, MinArgs: minArgs, MaxArgs: maxArgs})
}

// unary wraps a float function of one argument.
func unary(fn func(float64) float64) nativeFunc {
	return func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.Number(fn(operator.ToNumber(args[0]))), nil
	}
}

func binaryFloat(fn func(a, b float64) float64) nativeFunc {
	return func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.Number(fn(operator.ToNumber(args[0]), operator.ToNumber(args[1]))), nil
	}
}

// numbers flattens arguments into floats; a single list argument is spread.
func numbers(args []ir.Value) []float64 {
	if len(args) == 1 {
		if list, ok := args[0].(ir.Array); ok {
			args = list
		}
	}
	out := make([]float64, len(args))
	for i, a := range args {
		out[i] = operator.ToNumber(a)
	}
	return out
}

func reduce(fn func([]float64) float64) nativeFunc {
	return func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.Number(fn(numbers(args))), nil
	}
}

func registerBuiltins(env *Environment) {
	// Math.
	for name, fn := range map[string]func(float64) float64{
		"abs": math.Abs, "ceil": math.Ceil, "floor": math.Floor, "trunc": math.Trunc,
		"sqrt": math.Sqrt, "cbrt": math.Cbrt, "exp": math.Exp,
		"log": math.Log, "ln": math.Log, "log10": math.Log10, "log2": math.Log2,
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
		"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
		"sign": sign,
	} {
		native(env, name, 1, 1, unary(fn))
	}
	native(env, "pow", 2, 2, binaryFloat(math.Pow))
	native(env, "atan2", 2, 2, binaryFloat(math.Atan2))
	native(env, "round", 1, 2, roundFn)
	native(env, "hypot", 0, -1, reduce(hypot))
	native(env, "min", 1, -1, reduce(minOf))
	native(env, "max", 1, -1, reduce(maxOf))
	native(env, "pi", 0, 0, func(*Environment, []ir.Value) (ir.Value, error) { return ir.Number(math.Pi), nil })
	native(env, "e", 0, 0, func(*Environment, []ir.Value) (ir.Value, error) { return ir.Number(math.E), nil })

	// Statistics.
	native(env, "sum", 0, -1, reduce(sum))
	native(env, "mean", 1, -1, reduce(mean))
	native(env, "avg", 1, -1, reduce(mean))
	native(env, "median", 1, -1, reduce(median))
	native(env, "variance", 1, -1, reduce(variance))
	native(env, "stdev", 1, -1, reduce(func(xs []float64) float64 { return math.Sqrt(variance(xs)) }))
	native(env, "count", 0, -1, reduce(func(xs []float64) float64 { return float64(len(xs)) }))

	// Conversion, strings and lists.
	native(env, "num", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.Number(operator.ToNumber(args[0])), nil
	})
	native(env, "parseFloat", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.Number(operator.ParseFloat(args[0])), nil
	})
	native(env, "str", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.String(operator.ToString(args[0])), nil
	})
	native(env, "bool", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.Bool(operator.Truthy(args[0])), nil
	})
	native(env, "isNaN", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.Bool(math.IsNaN(operator.ToNumber(args[0]))), nil
	})
	native(env, "toFixed", 1, 2, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		digits := 0
		if len(args) > 1 {
			digits = int(operator.ToNumber(args[1]))
		}
		if digits < 0 || digits > 100 {
			return nil, fmt.Errorf("digits %d out of range", digits)
		}
		return ir.String(strconv.FormatFloat(operator.ToNumber(args[0]), 'f', digits, 64)), nil
	})
	native(env, "len", 1, 1, lenFn)
	native(env, "upper", 1, 1, stringFn(strings.ToUpper))
	native(env, "lower", 1, 1, stringFn(strings.ToLower))
	native(env, "trim", 1, 1, stringFn(strings.TrimSpace))
	native(env, "split", 2, 2, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		parts := strings.Split(operator.ToString(args[0]), operator.ToString(args[1]))
		out := make(ir.Array, len(parts))
		for i, p := range parts {
			out[i] = ir.String(p)
		}
		return out, nil
	})
	native(env, "join", 1, 2, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		list, err := asList(args[0])
		if err != nil {
			return nil, err
		}
		sep := ","
		if len(args) > 1 {
			sep = operator.ToString(args[1])
		}
		parts := make([]string, len(list))
		for i, v := range list {
			parts[i] = operator.ToString(v)
		}
		return ir.String(strings.Join(parts, sep)), nil
	})
	native(env, "concat", 0, -1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		out := ir.Array{}
		for _, a := range args {
			if list, ok := a.(ir.Array); ok {
				out = append(out, list...)
			} else {
				out = append(out, a)
			}
		}
		return out, nil
	})
	native(env, "indexOf", 2, 2, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		if s, ok := args[0].(ir.String); ok {
			return ir.Number(strings.Index(string(s), operator.ToString(args[1]))), nil
		}
		list, err := asList(args[0])
		if err != nil {
			return nil, err
		}
		return ir.Number(slices.IndexFunc(list, func(v ir.Value) bool { return looseEqual(v, args[1]) })), nil
	})
	native(env, "includes", 2, 2, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		if s, ok := args[0].(ir.String); ok {
			return ir.Bool(strings.Contains(string(s), operator.ToString(args[1]))), nil
		}
		list, err := asList(args[0])
		if err != nil {
			return nil, err
		}
		return ir.Bool(slices.ContainsFunc(list, func(v ir.Value) bool { return looseEqual(v, args[1]) })), nil
	})
	native(env, "slice", 2, 3, sliceFn)
	native(env, "parseArray", 1, 1, func(_ *Environment, args []ir.Value) (ir.Value, error) {
		list, ok := operator.ParseArray(args[0])
		if !ok {
			return ir.Array{args[0]}, nil
		}
		return list, nil
	})

	registerRandom(env)
	registerMatrix(env)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x
}

// roundFn rounds half up like Math.round, optionally to a number of digits.
func roundFn(_ *Environment, args []ir.Value) (ir.Value, error) {
	x := operator.ToNumber(args[0])
	if len(args) == 1 {
		return ir.Number(math.Floor(x + 0.5)), nil
	}
	scale := math.Pow(10, operator.ToNumber(args[1]))
	return ir.Number(math.Floor(x*scale+0.5) / scale), nil
}

func hypot(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x * x
	}
	return math.Sqrt(total)
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(1)
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if math.IsNaN(x) {
			return x
		}
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(-1)
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if math.IsNaN(x) {
			return x
		}
		m = math.Max(m, x)
	}
	return m
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return sum(xs) / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// variance is the population variance.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := mean(xs)
	var total float64
	for _, x := range xs {
		total += (x - m) * (x - m)
	}
	return total / float64(len(xs))
}

func stringFn(fn func(string) string) nativeFunc {
	return func(_ *Environment, args []ir.Value) (ir.Value, error) {
		return ir.String(fn(operator.ToString(args[0]))), nil
	}
}

func lenFn(_ *Environment, args []ir.Value) (ir.Value, error) {
	switch v := args[0].(type) {
	case ir.Array:
		return ir.Number(len(v)), nil
	case ir.String:
		return ir.Number(len([]rune(string(v)))), nil
	case ir.Object:
		return ir.Number(len(v)), nil
	}
	return ir.Number(0), nil
}

var errNotList = errors.New("argument is not a list")

func asList(v ir.Value) (ir.Array, error) {
	if list, ok := v.(ir.Array); ok {
		return list, nil
	}
	if s, ok := v.(ir.String); ok && ir.IsBracketed(string(s)) {
		list, _ := operator.ParseArray(s)
		return list, nil
	}
	return nil, errNotList
}

func sliceFn(_ *Environment, args []ir.Value) (ir.Value, error) {
	bounds := func(n int) (int, int) {
		clamp := func(f float64) int {
			i := int(f)
			if i < 0 {
				i += n
			}
			return max(0, min(n, i))
		}
		start := clamp(operator.ToNumber(args[1]))
		end := n
		if len(args) > 2 {
			end = clamp(operator.ToNumber(args[2]))
		}
		return start, max(start, end)
	}

	if s, ok := args[0].(ir.String); ok {
		runes := []rune(string(s))
		start, end := bounds(len(runes))
		return ir.String(runes[start:end]), nil
	}
	list, err := asList(args[0])
	if err != nil {
		return nil, err
	}
	start, end := bounds(len(list))
	return slices.Clone(list[start:end]), nil
}
