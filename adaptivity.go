// Package adaptivity checks a learner's answer state against authored
// adaptivity rules and scores the outcome.
//
// Check is the library entry point; CheckJSON takes the three documents as
// the delivery system sends them and returns either the result JSON or its
// base64 transport form.
package adaptivity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/roach88/adaptivity/internal/compiler"
	"github.com/roach88/adaptivity/internal/engine"
	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/scoring"
)

type (
	// Rule is one authored rule: a condition tree and the event it sends.
	Rule = ir.Rule
	// ScoringContext configures score computation for one check.
	ScoringContext = ir.ScoringContext
	// Result is the outcome of one check.
	Result = ir.Result
	// Event is a fired rule's event.
	Event = ir.Event
	// Option configures the engine a check runs on.
	Option = engine.Option
	// CheckError is returned when the rules cannot be evaluated.
	CheckError = engine.CheckError
)

// Engine options.
var (
	WithMaxSteps    = engine.WithMaxSteps
	WithMaxDepth    = engine.WithMaxDepth
	WithParallelism = engine.WithParallelism
	WithLogger      = engine.WithLogger
)

// defaultEngine serves calls made without options, so its evaluator and
// metric instruments are built once per process.
var defaultEngine = sync.OnceValue(func() *engine.Engine { return engine.New() })

// engineFor returns the shared engine, or a new one configured by opts.
// Hosts that always pass options should build and keep an *engine.Engine.
func engineFor(opts []Option) *engine.Engine {
	if len(opts) == 0 {
		return defaultEngine()
	}
	return engine.New(opts...)
}

// Check evaluates state against rules. State values may be any JSON
// compatible Go values.
func Check(ctx context.Context, state map[string]any, rules []Rule, sc ScoringContext, opts ...Option) (*Result, error) {
	req, err := request(state, rules, sc)
	if err != nil {
		return nil, err
	}
	return engineFor(opts).Check(ctx, req)
}

// CheckEncoded is Check returning the base64 form of the result's JSON.
func CheckEncoded(ctx context.Context, state map[string]any, rules []Rule, sc ScoringContext, opts ...Option) (string, error) {
	req, err := request(state, rules, sc)
	if err != nil {
		return "", err
	}
	return engineFor(opts).CheckEncoded(ctx, req)
}

// CheckJSON runs a check from JSON documents. rulesJSON is a list of rules
// or an object with a rules list; an empty scoringJSON scores nothing.
// With encode set the base64 string is returned, otherwise the result JSON.
func CheckJSON(ctx context.Context, stateJSON, rulesJSON, scoringJSON []byte, encode bool, opts ...Option) (string, error) {
	var state ir.Object
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return "", fmt.Errorf("decode state: %w", err)
	}
	if state == nil {
		state = ir.Object{}
	}

	rules, err := compiler.ParseRules(rulesJSON, compiler.FormatJSON, "rules.json")
	if err != nil {
		return "", fmt.Errorf("decode rules: %w", err)
	}

	var sc ScoringContext
	if len(bytes.TrimSpace(scoringJSON)) > 0 {
		if err := json.Unmarshal(scoringJSON, &sc); err != nil {
			return "", fmt.Errorf("decode scoring context: %w", err)
		}
	}

	eng := engineFor(opts)
	req := engine.Request{State: state, Rules: rules, Scoring: sc}
	if encode {
		return eng.CheckEncoded(ctx, req)
	}
	result, err := eng.Check(ctx, req)
	if err != nil {
		return "", err
	}
	data, err := scoring.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode reverses the encoded form returned by CheckEncoded.
func Decode(encoded string) (*Result, error) {
	return scoring.Decode(encoded)
}

func request(state map[string]any, rules []Rule, sc ScoringContext) (engine.Request, error) {
	obj := ir.Object{}
	for k, v := range state {
		val, err := ir.FromAny(v)
		if err != nil {
			return engine.Request{}, fmt.Errorf("state %q: %w", k, err)
		}
		obj[k] = val
	}
	return engine.Request{State: obj, Rules: rules, Scoring: sc}, nil
}
