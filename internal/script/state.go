package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
)

// Operators accepted by ApplyState.
const (
	OpSet      = "="
	OpSetting  = "setting to"
	OpAdd      = "+"
	OpAdding   = "adding"
	OpSub      = "-"
	OpSubtract = "subtracting"
	OpBind     = "bind to"
	OpAnchor   = "anchor to"
)

// UnknownStateOperatorError is returned for a mutation operator outside the
// supported set.
type UnknownStateOperatorError struct {
	Operator string
}

// Error implements the error interface.
func (e *UnknownStateOperatorError) Error() string {
	return fmt.Sprintf("unknown state operator %q", e.Operator)
}

// AssignState loads a flat state map into env.
//
// Keys are assigned in sorted order. A value may be a plain JSON value or a
// typed variable object ({"key"|"path": ..., "value": ..., "type": n}).
// Values are coerced to their declared or inferred type. String values
// written as expressions ("{stage.a} * 2") are evaluated after every
// literal is in place; if evaluation fails the literal is kept.
func (e *Evaluator) AssignState(ctx context.Context, env *Environment, state ir.Object) error {
	type pending struct {
		name string
		expr string
	}
	var deferred []pending

	for _, key := range state.SortedKeys() {
		name, value, typ := describeStateValue(key, state[key])
		if name == "" {
			continue
		}
		if err := env.Set(name, Coerce(value, typ)); err != nil {
			return fmt.Errorf("assign %s: %w", name, err)
		}
		if s, ok := value.(ir.String); ok && isStateExpression(string(s)) {
			deferred = append(deferred, pending{name: name, expr: string(s)})
		}
	}

	for _, p := range deferred {
		v, ok, err := e.tryEvaluate(ctx, env, p.expr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := env.Set(p.name, v); err != nil {
			return fmt.Errorf("assign %s: %w", p.name, err)
		}
	}
	return nil
}

// describeStateValue unpacks one state entry into name, raw value and type.
func describeStateValue(key string, v ir.Value) (string, ir.Value, ir.VariableType) {
	name := strings.TrimSpace(key)
	var typ ir.VariableType

	if obj, ok := v.(ir.Object); ok {
		path, hasPath := obj["path"].(ir.String)
		k, hasKey := obj["key"].(ir.String)
		switch {
		case hasPath && path != "":
			name = strings.TrimSpace(string(path))
			v = obj["value"]
		case hasKey && k != "":
			name = strings.TrimSpace(string(k))
			v = obj["value"]
		default:
			v = ir.String(ir.Stringify(obj))
		}
		if hasPath || hasKey {
			if n, isNumber := obj["type"].(ir.Number); isNumber {
				typ = ir.VariableType(n)
			}
		}
	}

	if typ == 0 {
		typ = ir.TypeOf(v)
	}
	return name, v, typ
}

// isStateExpression reports whether a state string should be evaluated.
func isStateExpression(s string) bool {
	return strings.Contains(s, "{") && strings.Contains(s, "}") &&
		!LooksLikeJSON(s) && !strings.Contains(s, `\`)
}

// Coerce converts a raw value to the given variable type.
func Coerce(v ir.Value, t ir.VariableType) ir.Value {
	switch t {
	case ir.TypeString, ir.TypeEnum, ir.TypeMathExpr:
		switch val := v.(type) {
		case ir.String:
			return val
		case nil, ir.Null:
			return ir.String("")
		default:
			return ir.String(ir.Stringify(v))
		}
	case ir.TypeArray, ir.TypeArrayPoint:
		if list, ok := operator.ParseArray(v); ok {
			return list
		}
		return ir.Array{v}
	case ir.TypeNumber:
		return ir.Number(operator.ParseFloat(v))
	case ir.TypeBoolean:
		return ir.Bool(operator.ParseBoolean(v))
	default:
		if v == nil {
			return ir.Null{}
		}
		return v
	}
}

// ApplyState applies one mutation to env.
//
// "=" and "setting to" assign, "+"/"adding" and "-"/"subtracting" update the
// current value, "bind to" makes the target read through to another
// variable and "anchor to" copies another variable's current value. Operand
// strings holding references are evaluated first.
func (e *Evaluator) ApplyState(ctx context.Context, env *Environment, op ir.StateOperation) error {
	target := strings.TrimSpace(op.Target)
	if target == "" {
		return fmt.Errorf("apply state: empty target")
	}
	typ := op.TargetType
	if typ == 0 {
		typ = ir.TypeUnknown
	}

	e.logger.Debug("apply state",
		"target", target,
		"operator", op.Operator)

	switch op.Operator {
	case OpSet, OpSetting:
		v, err := e.operand(ctx, env, op.Value, typ)
		if err != nil {
			return err
		}
		return env.Set(target, v)

	case OpAdd, OpAdding, OpSub, OpSubtract:
		current, ok := env.Lookup(target)
		if !ok {
			return &UndefinedReferenceError{Name: target}
		}
		v, err := e.operand(ctx, env, op.Value, typ)
		if err != nil {
			return err
		}
		if op.Operator == OpAdd || op.Operator == OpAdding {
			return env.Set(target, add(current, v))
		}
		return env.Set(target, ir.Number(operator.ToNumber(current)-operator.ToNumber(v)))

	case OpBind, OpAnchor:
		s, ok := op.Value.(ir.String)
		if !ok {
			return fmt.Errorf("%s value must be a string, got %s", op.Operator, ir.KindOf(op.Value))
		}
		source := strings.TrimSpace(string(s))
		if strings.Count(source, "{") == 1 && strings.HasPrefix(source, "{") && strings.HasSuffix(source, "}") {
			source = strings.TrimSpace(source[1 : len(source)-1])
		} else if strings.Contains(source, "{") {
			v, err := e.Run(ctx, env, source)
			if err != nil {
				return err
			}
			return env.Set(target, ir.Clone(v))
		}
		if op.Operator == OpBind {
			if source == target {
				return fmt.Errorf("cannot bind %s to itself", target)
			}
			env.Bind(target, source)
			return nil
		}
		v, ok := env.Lookup(source)
		if !ok {
			return &UndefinedReferenceError{Name: source}
		}
		return env.Set(target, ir.Clone(v))
	}
	return &UnknownStateOperatorError{Operator: op.Operator}
}

// BulkApplyState applies operations in order. A failing operation does not
// stop the ones after it; all failures are returned joined.
func (e *Evaluator) BulkApplyState(ctx context.Context, env *Environment, ops []ir.StateOperation) error {
	var errs []error
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.ApplyState(ctx, env, op); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			errs = append(errs, fmt.Errorf("operation %d (%s %s): %w", i, op.Target, op.Operator, err))
		}
	}
	return errors.Join(errs...)
}

// operand resolves the value side of a mutation. Strings with references
// are evaluated; if that fails the references are templated into the text,
// which is evaluated again or else kept as text. Other values are coerced
// to typ.
func (e *Evaluator) operand(ctx context.Context, env *Environment, v ir.Value, typ ir.VariableType) (ir.Value, error) {
	s, ok := v.(ir.String)
	if !ok || !strings.Contains(string(s), "{") || LooksLikeJSON(string(s)) {
		return Coerce(v, typ), nil
	}

	if val, ok, err := e.tryEvaluate(ctx, env, string(s)); err != nil || ok {
		return val, err
	}

	templated, err := e.Templatize(ctx, env, string(s))
	if err != nil {
		return nil, err
	}
	if templated != string(s) {
		if val, ok, err := e.tryEvaluate(ctx, env, templated); err != nil || ok {
			return val, err
		}
	}
	return Coerce(ir.String(templated), typ), nil
}
