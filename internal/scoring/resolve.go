package scoring

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/operator"
	"github.com/roach88/adaptivity/internal/rules"
	"github.com/roach88/adaptivity/internal/script"
)

// CurrentQuestionScore is the state path trap-state scoring writes and
// reads.
const CurrentQuestionScore = "session.currentQuestionScore"

// Resolver turns fired events into a Result.
type Resolver struct {
	eval   *script.Evaluator
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for resolution warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver. ev applies trap-state mutations.
func New(ev *script.Evaluator, opts ...Option) *Resolver {
	r := &Resolver{eval: ev, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the result for one check. fired holds the events of the
// rules that matched; env is the call's own environment, which trap-state
// scoring mutates.
func (r *Resolver) Resolve(ctx context.Context, env *script.Environment, fired []ir.Event, sc ir.ScoringContext) (*ir.Result, error) {
	sorted := SortByOrder(fired)

	remaining := sorted
	var defaultWrong ir.Event
	if i := slices.IndexFunc(sorted, isDefaultWrong); i >= 0 {
		defaultWrong = sorted[i]
		remaining = slices.Delete(slices.Clone(sorted), i, i+1)
	} else {
		r.logger.Warn("no default wrong event fired, using builtin",
			"fired", len(sorted))
		defaultWrong = rules.DefaultWrongEvent()
	}

	correct := slices.ContainsFunc(remaining, func(e ir.Event) bool { return e.Params.Correct })
	final := make([]ir.Event, 0, len(remaining))
	for _, e := range remaining {
		if e.Params.Correct == correct {
			final = append(final, e)
		}
	}
	if len(final) == 0 {
		final = append(final, defaultWrong)
	}

	var score float64
	if correct || sc.NegativeScoreAllowed {
		if sc.TrapStateScoreScheme {
			s, err := r.trapScore(ctx, env, final)
			if err != nil {
				return nil, err
			}
			score = s
		} else {
			score = AttemptScore(sc)
		}
		score = Clamp(score, sc)
	}

	r.logger.Debug("resolved check",
		"correct", correct,
		"score", score,
		"fired", len(sorted),
		"sent", len(final))

	return &ir.Result{
		Correct: correct,
		Score:   score,
		OutOf:   sc.MaxScore,
		Results: final,
		Debug: ir.Debug{
			Sent: ir.EventTypes(final),
			All:  ir.EventTypes(sorted),
		},
	}, nil
}

// SortByOrder returns a copy of events stably sorted by params.order.
func SortByOrder(events []ir.Event) []ir.Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b ir.Event) int {
		return cmp.Compare(a.Params.Order, b.Params.Order)
	})
	return sorted
}

func isDefaultWrong(e ir.Event) bool {
	return e.Params.Default && !e.Params.Correct
}

// trapScore applies every mutation of CurrentQuestionScore in the final
// events, in order, and reads the score back. Without such mutations the
// score is 0.
func (r *Resolver) trapScore(ctx context.Context, env *script.Environment, events []ir.Event) (float64, error) {
	var ops []ir.StateOperation
	for _, e := range events {
		for _, a := range e.Params.Actions {
			if op, ok := a.StateOperation(); ok && op.Target == CurrentQuestionScore {
				ops = append(ops, op)
			}
		}
	}
	if len(ops) == 0 {
		return 0, nil
	}

	if err := r.eval.BulkApplyState(ctx, env, ops); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		r.logger.Warn("trap state score mutation failed",
			"error", err)
	}

	v, _ := env.Lookup(CurrentQuestionScore)
	score := operator.ToNumber(v)
	if math.IsNaN(score) {
		return 0, nil
	}
	return score, nil
}

// AttemptScore is the attempt-decay score: the full score on the first
// attempt, minus maxScore/maxAttempt for every attempt after it. A
// maxAttempt below 1 counts as 1.
func AttemptScore(sc ir.ScoringContext) float64 {
	maxAttempt := sc.MaxAttempt
	if maxAttempt <= 0 {
		maxAttempt = 1
	}
	return sc.MaxScore - (sc.MaxScore/maxAttempt)*(sc.CurrentAttemptNumber-1)
}

// Clamp caps score at maxScore and, unless negative scores are allowed,
// raises it to 0. NaN becomes 0.
func Clamp(score float64, sc ir.ScoringContext) float64 {
	if math.IsNaN(score) {
		return 0
	}
	score = math.Min(score, sc.MaxScore)
	if !sc.NegativeScoreAllowed {
		score = math.Max(0, score)
	}
	return score
}
