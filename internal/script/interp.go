package script

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
)

// Function is a callable registered in an Environment: either a native Go
// builtin or a user function declared with fn.
type Function struct {
	Name string

	// User functions.
	Params []string
	Body   Expr
	scope  *Environment

	// Native builtins. MaxArgs < 0 means variadic.
	Native  func(env *Environment, args []ir.Value) (ir.Value, error)
	MinArgs int
	MaxArgs int
}

// ctxCheckInterval is how many steps pass between context checks.
const ctxCheckInterval = 1024

type interpreter struct {
	ctx    context.Context
	budget *Budget
}

func (in *interpreter) run(prog *Program, env *Environment) (ir.Value, error) {
	var last ir.Value
	for _, stmt := range prog.Stmts {
		v, err := in.exec(stmt, env)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (in *interpreter) step() error {
	if err := in.budget.Step(); err != nil {
		return err
	}
	if in.budget.Steps()%ctxCheckInterval == 0 {
		return in.ctx.Err()
	}
	return nil
}

func (in *interpreter) exec(stmt Stmt, env *Environment) (ir.Value, error) {
	if err := in.step(); err != nil {
		return nil, err
	}

	switch s := stmt.(type) {
	case *ExprStmt:
		return in.eval(s.X, env)

	case *FnStmt:
		env.Define(&Function{Name: s.Name, Params: s.Params, Body: s.Body, scope: env})
		return ir.Null{}, nil

	case *LetStmt:
		switch s.Op {
		case AssignBind:
			source := refName(s.Value)
			if source == s.Target {
				return nil, &RuntimeError{Offset: s.Offset(), Msg: fmt.Sprintf("cannot bind %s to itself", s.Target)}
			}
			env.Bind(s.Target, source)
			v, _ := env.Lookup(source)
			if v == nil {
				v = ir.Null{}
			}
			return v, nil
		default:
			// AssignValue and AssignAnchor both store the current value; an
			// anchor simply requires the right side to be a reference.
			v, err := in.eval(s.Value, env)
			if err != nil {
				return nil, err
			}
			v = ir.Clone(v)
			if err := env.Set(s.Target, v); err != nil {
				return nil, err
			}
			return v, nil
		}
	}
	return nil, &RuntimeError{Offset: stmt.Offset(), Msg: fmt.Sprintf("unknown statement %T", stmt)}
}

func refName(e Expr) string {
	switch x := e.(type) {
	case *Ref:
		return x.Name
	case *Ident:
		return x.Name
	}
	return ""
}

func (in *interpreter) eval(e Expr, env *Environment) (ir.Value, error) {
	if err := in.step(); err != nil {
		return nil, err
	}

	switch x := e.(type) {
	case *NumberLit:
		return ir.Number(x.Value), nil
	case *StringLit:
		return ir.String(x.Value), nil
	case *BoolLit:
		return ir.Bool(x.Value), nil
	case *NullLit:
		return ir.Null{}, nil

	case *Ident:
		return in.lookup(x.Name, env)
	case *Ref:
		return in.lookup(x.Name, env)

	case *ArrayLit:
		arr := make(ir.Array, len(x.Elems))
		for i, elem := range x.Elems {
			v, err := in.eval(elem, env)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		if err := in.budget.Charge(arr); err != nil {
			return nil, err
		}
		return arr, nil

	case *Unary:
		v, err := in.eval(x.X, env)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case tokMinus:
			return ir.Number(-operator.ToNumber(v)), nil
		case tokPlus:
			return ir.Number(operator.ToNumber(v)), nil
		default:
			return ir.Bool(!operator.Truthy(v)), nil
		}

	case *Logical:
		left, err := in.eval(x.X, env)
		if err != nil {
			return nil, err
		}
		if operator.Truthy(left) == (x.Op == tokOr) {
			return left, nil
		}
		return in.eval(x.Y, env)

	case *Conditional:
		cond, err := in.eval(x.Cond, env)
		if err != nil {
			return nil, err
		}
		if operator.Truthy(cond) {
			return in.eval(x.Then, env)
		}
		return in.eval(x.Else, env)

	case *Binary:
		left, err := in.eval(x.X, env)
		if err != nil {
			return nil, err
		}
		right, err := in.eval(x.Y, env)
		if err != nil {
			return nil, err
		}
		if x.Op == tokPlus {
			// Concatenation flattens both sides into a new string.
			if err := in.budget.Charge(left, right); err != nil {
				return nil, err
			}
		}
		return binary(x.Op, left, right), nil

	case *Index:
		target, err := in.eval(x.X, env)
		if err != nil {
			return nil, err
		}
		index, err := in.eval(x.Index, env)
		if err != nil {
			return nil, err
		}
		return indexValue(target, index), nil

	case *Call:
		return in.call(x, env)
	}
	return nil, &RuntimeError{Offset: e.Offset(), Msg: fmt.Sprintf("unknown expression %T", e)}
}

func (in *interpreter) lookup(name string, env *Environment) (ir.Value, error) {
	if v, ok := env.Lookup(name); ok {
		return v, nil
	}
	return nil, &UndefinedReferenceError{Name: name}
}

func (in *interpreter) call(c *Call, env *Environment) (ir.Value, error) {
	fn, ok := env.Function(c.Name)
	if !ok {
		return nil, &RuntimeError{Offset: c.Offset(), Msg: fmt.Sprintf("unknown function %s", c.Name)}
	}

	args := make([]ir.Value, len(c.Args))
	for i, arg := range c.Args {
		v, err := in.eval(arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if fn.Native != nil {
		if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
			return nil, &RuntimeError{Offset: c.Offset(), Msg: fmt.Sprintf("%s: wrong number of arguments (%d)", fn.Name, len(args))}
		}
		v, err := fn.Native(env, args)
		if err != nil {
			return nil, &RuntimeError{Offset: c.Offset(), Msg: fmt.Sprintf("%s: %v", fn.Name, err)}
		}
		if v == nil {
			v = ir.Null{}
		}
		if err := in.budget.Charge(v); err != nil {
			return nil, err
		}
		return v, nil
	}

	if len(args) != len(fn.Params) {
		return nil, &RuntimeError{Offset: c.Offset(), Msg: fmt.Sprintf("%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))}
	}
	if err := in.budget.Enter(); err != nil {
		return nil, err
	}
	defer in.budget.Leave()

	scope := newScope(fn.scope)
	for i, param := range fn.Params {
		scope.vars[param] = args[i]
	}
	return in.eval(fn.Body, scope)
}

func binary(op TokenKind, a, b ir.Value) ir.Value {
	switch op {
	case tokPlus:
		return add(a, b)
	case tokMinus:
		return ir.Number(operator.ToNumber(a) - operator.ToNumber(b))
	case tokStar:
		return ir.Number(operator.ToNumber(a) * operator.ToNumber(b))
	case tokSlash:
		return ir.Number(operator.ToNumber(a) / operator.ToNumber(b))
	case tokPercent:
		return ir.Number(math.Mod(operator.ToNumber(a), operator.ToNumber(b)))
	case tokCaret:
		return ir.Number(math.Pow(operator.ToNumber(a), operator.ToNumber(b)))
	case tokEq:
		return ir.Bool(looseEqual(a, b))
	case tokNotEq:
		return ir.Bool(!looseEqual(a, b))
	case tokLess:
		return ir.Bool(compare(a, b, func(c int) bool { return c < 0 }))
	case tokLessEq:
		return ir.Bool(compare(a, b, func(c int) bool { return c <= 0 }))
	case tokGreater:
		return ir.Bool(compare(a, b, func(c int) bool { return c > 0 }))
	case tokGreaterEq:
		return ir.Bool(compare(a, b, func(c int) bool { return c >= 0 }))
	}
	return ir.Null{}
}

// add concatenates when either side is a string or list, otherwise sums.
func add(a, b ir.Value) ir.Value {
	switch a.(type) {
	case ir.String, ir.Array, ir.Object:
		return ir.String(operator.ToString(a) + operator.ToString(b))
	}
	switch b.(type) {
	case ir.String, ir.Array, ir.Object:
		return ir.String(operator.ToString(a) + operator.ToString(b))
	}
	return ir.Number(operator.ToNumber(a) + operator.ToNumber(b))
}

// compare orders two strings lexically and anything else numerically.
// NaN never compares.
func compare(a, b ir.Value, ok func(int) bool) bool {
	as, aStr := a.(ir.String)
	bs, bStr := b.(ir.String)
	if aStr && bStr {
		return ok(strings.Compare(string(as), string(bs)))
	}
	x, y := operator.ToNumber(a), operator.ToNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	switch {
	case x < y:
		return ok(-1)
	case x > y:
		return ok(1)
	}
	return ok(0)
}

func looseEqual(a, b ir.Value) bool {
	_, aNull := a.(ir.Null)
	_, bNull := b.(ir.Null)
	if aNull || bNull || a == nil || b == nil {
		return (aNull || a == nil) && (bNull || b == nil)
	}
	if ir.KindOf(a) == ir.KindOf(b) {
		return ir.Equal(a, b)
	}
	switch a.(type) {
	case ir.Array, ir.Object:
		return false
	}
	switch b.(type) {
	case ir.Array, ir.Object:
		return false
	}
	return operator.ToNumber(a) == operator.ToNumber(b)
}

func indexValue(target, index ir.Value) ir.Value {
	switch t := target.(type) {
	case ir.Array:
		i, ok := intIndex(index, len(t))
		if !ok {
			return ir.Null{}
		}
		return t[i]
	case ir.String:
		runes := []rune(string(t))
		i, ok := intIndex(index, len(runes))
		if !ok {
			return ir.Null{}
		}
		return ir.String(runes[i])
	case ir.Object:
		if v, ok := t[operator.ToString(index)]; ok {
			return v
		}
	}
	return ir.Null{}
}

func intIndex(v ir.Value, length int) (int, bool) {
	f := operator.ToNumber(v)
	if math.IsNaN(f) || f != math.Trunc(f) || f < 0 || f >= float64(length) {
		return 0, false
	}
	return int(f), true
}
