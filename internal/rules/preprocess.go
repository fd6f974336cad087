package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/script"
)

// Preprocess returns normalized copies of rules, which must already be
// filtered to the enabled ones.
//
// Each copy gets Priority = 1 + its index, and its event params carry
// order (= priority), correct and default. Every leaf condition value is
// resolved against env:
//   - arrays are resolved element by element; non-string elements are kept
//   - strings without '{' are kept
//   - other strings are evaluated; a string result is used as-is, any other
//     result is stored as its JSON text
//   - an ARRAY-typed condition whose authored string is not bracketed is
//     wrapped in [...]
//
// Evaluation failures keep the literal. The only error returned is
// context cancellation.
func Preprocess(ctx context.Context, ev *script.Evaluator, env *script.Environment, rules []ir.Rule) ([]ir.Rule, error) {
	out := ir.CloneRules(rules)
	for i := range out {
		r := &out[i]
		r.Priority = i + 1
		r.Event.Params.Order = r.Priority
		r.Event.Params.Correct = r.Correct
		r.Event.Params.Default = r.Default

		var err error
		r.Conditions.Walk(func(leaf *ir.Condition) {
			if err != nil {
				return
			}
			leaf.Value, err = resolveValue(ctx, ev, env, leaf)
		})
		if err != nil {
			return nil, fmt.Errorf("preprocess rule %q: %w", r.ID, err)
		}
	}
	return out, nil
}

func resolveValue(ctx context.Context, ev *script.Evaluator, env *script.Environment, leaf *ir.Condition) (ir.Value, error) {
	switch v := leaf.Value.(type) {
	case ir.Array:
		out := make(ir.Array, len(v))
		for i, elem := range v {
			s, ok := elem.(ir.String)
			if !ok {
				out[i] = elem
				continue
			}
			resolved, err := ev.EvaluateValue(ctx, env, string(s))
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	case ir.String:
		authored := string(v)
		text := authored
		if strings.Contains(authored, "{") {
			resolved, err := ev.EvaluateValue(ctx, env, authored)
			if err != nil {
				return nil, err
			}
			if s, ok := resolved.(ir.String); ok {
				text = string(s)
			} else {
				text = ir.StringifyString(resolved)
			}
		}
		if leaf.Type == ir.TypeArray && !strings.HasPrefix(authored, "[") && !strings.HasSuffix(authored, "]") {
			text = "[" + text + "]"
		}
		return ir.String(text), nil

	default:
		return leaf.Value, nil
	}
}
