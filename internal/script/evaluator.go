package script

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
)

// Evaluator runs scripts against environments under a fresh Budget per
// evaluation. It holds configuration only and is safe for concurrent use;
// the environments passed to it are not.
type Evaluator struct {
	maxSteps int
	maxDepth int
	logger   *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxSteps sets the step budget of each evaluation.
func WithMaxSteps(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithMaxDepth sets the call depth budget of each evaluation.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for evaluation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		maxSteps: DefaultMaxSteps,
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exec evaluates a parsed program. The result is the value of the last
// statement, or nil for an empty program.
func (e *Evaluator) Exec(ctx context.Context, env *Environment, prog *Program) (ir.Value, error) {
	in := &interpreter{ctx: ctx, budget: NewBudget(e.maxSteps, e.maxDepth)}
	return in.run(prog, env)
}

// Run parses and evaluates src.
func (e *Evaluator) Run(ctx context.Context, env *Environment, src string) (ir.Value, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return e.Exec(ctx, env, prog)
}

// Value reads a single variable.
func (e *Evaluator) Value(env *Environment, name string) (ir.Value, bool) {
	return env.Lookup(strings.TrimSpace(name))
}

// EvaluateValue evaluates an authored value that may embed references.
//
// Strings without '{' and strings that look like JSON objects are returned
// unchanged. Otherwise grouping braces are normalized to parentheses and the
// result evaluated. Everything between a reference's braces is its name, so
// "{round(x)}" reads the variable "round(x)" rather than calling round;
// write "{round({x})}" for the call.
// On any evaluation failure a warning is logged and the original string is
// returned. The only error returned is context cancellation.
func (e *Evaluator) EvaluateValue(ctx context.Context, env *Environment, s string) (ir.Value, error) {
	if !strings.Contains(s, "{") || LooksLikeJSON(s) {
		return ir.String(s), nil
	}

	v, ok, err := e.tryEvaluate(ctx, env, s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return ir.String(s), nil
	}
	return v, nil
}

// tryEvaluate evaluates s after brace normalization. ok is false when s does
// not evaluate to a value; the failure is logged. Only context errors are
// returned.
func (e *Evaluator) tryEvaluate(ctx context.Context, env *Environment, s string) (ir.Value, bool, error) {
	v, err := e.Run(ctx, env, NormalizeBraces(s))
	if err == nil && v == nil {
		err = errEmptyExpression
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		e.logger.Warn("expression evaluation failed, using literal",
			"expression", s,
			"error", err)
		return nil, false, nil
	}
	return v, true, nil
}

var errEmptyExpression = errors.New("expression has no value")

// NormalizeBraces rewrites grouping braces into parentheses. A brace pair
// that encloses another brace is grouping, so {{a}-{b}} reads as
// ({a}-{b}). Unbalanced braces are left alone.
func NormalizeBraces(s string) string {
	out := []byte(s)
	var open []int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			open = append(open, i)
		case '}':
			if len(open) == 0 {
				continue
			}
			j := open[len(open)-1]
			open = open[:len(open)-1]
			if strings.Contains(s[j+1:i], "{") {
				out[j], out[i] = '(', ')'
			}
		}
	}
	return string(out)
}

// LooksLikeJSON reports whether s is "{}" or starts like a JSON object
// ({" or { ") and ends with }.
func LooksLikeJSON(s string) bool {
	if s == "{}" {
		return true
	}
	return (strings.HasPrefix(s, `{"`) || strings.HasPrefix(s, `{ "`)) && strings.HasSuffix(s, "}")
}

// ExtractExpressions returns the contents of every outermost {...} span in
// text, in order. Unbalanced trailing braces are ignored.
func ExtractExpressions(text string) []string {
	var out []string
	depth, start := 0, -1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, text[start+1:i])
			}
		}
	}
	return out
}

// Templatize replaces every outermost {...} span in text with the value of
// the expression it holds. Strings are inserted as-is, other values as JSON.
// Spans that fail to evaluate are left untouched.
func (e *Evaluator) Templatize(ctx context.Context, env *Environment, text string) (string, error) {
	var sb strings.Builder
	depth, start, last := 0, -1, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			span := text[start : i+1]
			sb.WriteString(text[last:start])
			last = i + 1

			v, err := e.Run(ctx, env, NormalizeBraces(span))
			if err != nil || v == nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return "", ctxErr
				}
				sb.WriteString(span)
				continue
			}
			if s, ok := v.(ir.String); ok {
				sb.WriteString(string(s))
			} else {
				sb.Write(ir.Stringify(v))
			}
		}
	}
	sb.WriteString(text[last:])
	return sb.String(), nil
}
