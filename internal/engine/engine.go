package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/rules"
	"github.com/roach88/adaptivity/internal/scoring"
	"github.com/roach88/adaptivity/internal/script"
)

// EngineVersion is recorded with every check so replays can tell which
// evaluation semantics produced a stored result.
const EngineVersion = "adaptivity/1"

// Recorder persists check records. Implemented by *store.Store.
type Recorder interface {
	WriteCheck(ctx context.Context, rec ir.CheckRecord) error
}

// Request holds the inputs of one check.
type Request struct {
	State   ir.Object         `json:"state"`
	Rules   []ir.Rule         `json:"rules"`
	Scoring ir.ScoringContext `json:"scoringContext"`
}

// Engine evaluates checks. It holds configuration only; every check builds
// its own environment, so one Engine serves concurrent callers.
type Engine struct {
	eval        *script.Evaluator
	resolver    *scoring.Resolver
	logger      *slog.Logger
	clock       Sequencer
	ids         IDGenerator
	recorder    Recorder
	parallelism int
	maxSteps    int
	maxDepth    int
	metrics     *checkMetrics
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithMaxSteps sets the script step budget of each evaluation.
//
// Default: script.DefaultMaxSteps
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithMaxDepth sets the script call depth budget of each evaluation.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// WithParallelism bounds how many rules are evaluated at once.
// Values below 1 evaluate rules one at a time.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = max(1, n)
	}
}

// WithLogger sets the logger for the engine and everything it drives.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder records every successful check.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithIDGenerator sets the generator for recorded check ids.
//
// Default: UUIDv7Generator
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithClock sets the clock that orders recorded checks. Use a clock
// resumed from the store's last seq when appending to an existing log.
func WithClock(c Sequencer) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:      slog.Default(),
		clock:       NewClock(),
		ids:         UUIDv7Generator{},
		parallelism: rules.DefaultParallelism,
		maxSteps:    script.DefaultMaxSteps,
		maxDepth:    script.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.eval = script.New(
		script.WithMaxSteps(e.maxSteps),
		script.WithMaxDepth(e.maxDepth),
		script.WithLogger(e.logger),
	)
	e.resolver = scoring.New(e.eval, scoring.WithLogger(e.logger))
	e.metrics = newCheckMetrics(e.logger)
	return e
}

// Check evaluates req and returns its result. The result is recorded when
// the engine has a Recorder.
func (e *Engine) Check(ctx context.Context, req Request) (*ir.Result, error) {
	result, err := e.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	e.record(ctx, req, result)
	return result, nil
}

// CheckEncoded is Check returning the base64 form of the result's JSON.
func (e *Engine) CheckEncoded(ctx context.Context, req Request) (string, error) {
	result, err := e.Check(ctx, req)
	if err != nil {
		return "", err
	}
	encoded, err := scoring.Encode(result)
	if err != nil {
		return "", &CheckError{Code: ErrCodeEncodeFailed, Message: "encode result", Err: err}
	}
	return encoded, nil
}

// Evaluate runs a check without recording it.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*ir.Result, error) {
	ctx, span := tracer.Start(ctx, "engine.Check",
		trace.WithAttributes(
			attribute.Int("check.rules", len(req.Rules)),
			attribute.Int("check.state_keys", len(req.State)),
			attribute.Bool("check.trap_state", req.Scoring.TrapStateScoreScheme),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := e.evaluate(ctx, req)
	e.metrics.observe(ctx, result, err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("check failed", "error", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("check.correct", result.Correct),
		attribute.Float64("check.score", result.Score),
		attribute.Int("check.events", len(result.Results)),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (e *Engine) evaluate(ctx context.Context, req Request) (*ir.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := script.NewEnvironment()
	if err := e.eval.AssignState(ctx, env, req.State); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &CheckError{Code: ErrCodeInvalidState, Message: "assign state", Err: err}
	}

	enabled, added := rules.EnsureDefaultWrong(rules.Enabled(req.Rules))
	if added {
		e.logger.Warn("no default wrong rule, adding builtin",
			"rule", rules.DefaultWrongID)
	}

	prepared, err := rules.Preprocess(ctx, e.eval, env, enabled)
	if err != nil {
		return nil, err
	}

	compiled, err := rules.CompileAll(prepared)
	if err != nil {
		return nil, newCompileError(err)
	}

	facts := env.Snapshot()
	fired, err := e.run(ctx, compiled, facts)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("rules evaluated",
		"rules", len(compiled),
		"fired", len(fired))

	return e.resolver.Resolve(ctx, env, fired, req.Scoring)
}

func (e *Engine) run(ctx context.Context, compiled []*rules.Compiled, facts ir.Object) ([]ir.Event, error) {
	ctx, span := tracer.Start(ctx, "engine.RunRules",
		trace.WithAttributes(attribute.Int("rules.parallelism", e.parallelism)),
	)
	defer span.End()

	fired, err := rules.Run(ctx, compiled, facts, e.parallelism)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("rules.fired", len(fired)))
	return fired, nil
}

// record writes a check to the recorder. Recording is an audit trail: a
// failed write is logged and the check result still returned.
func (e *Engine) record(ctx context.Context, req Request, result *ir.Result) {
	if e.recorder == nil {
		return
	}
	rec, err := e.newRecord(req, result)
	if err == nil {
		err = e.recorder.WriteCheck(ctx, rec)
	}
	if err != nil {
		e.logger.Error("record check failed",
			"id", rec.ID,
			"error", err)
		return
	}
	e.logger.Debug("check recorded",
		"id", rec.ID,
		"seq", rec.Seq,
		"input_hash", rec.InputHash)
}

func (e *Engine) newRecord(req Request, result *ir.Result) (ir.CheckRecord, error) {
	// Stored records read back with empty collections, never nil.
	if req.State == nil {
		req.State = ir.Object{}
	}
	if req.Rules == nil {
		req.Rules = []ir.Rule{}
	}
	inputHash, err := ir.CheckInputHash(req.State, req.Rules, req.Scoring)
	if err != nil {
		return ir.CheckRecord{}, fmt.Errorf("hash inputs: %w", err)
	}
	resultHash, err := ir.ResultHash(result)
	if err != nil {
		return ir.CheckRecord{}, fmt.Errorf("hash result: %w", err)
	}
	return ir.CheckRecord{
		ID:            e.ids.Generate(),
		Seq:           e.clock.Next(),
		InputHash:     inputHash,
		State:         req.State,
		Rules:         req.Rules,
		Scoring:       req.Scoring,
		Result:        *result,
		ResultHash:    resultHash,
		EngineVersion: EngineVersion,
	}, nil
}
