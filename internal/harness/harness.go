package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"

	"github.com/roach88/adaptivity/internal/compiler"
	"github.com/roach88/adaptivity/internal/engine"
	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/store"
	"github.com/roach88/adaptivity/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and check ids.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Build the check request and lint the rules
// 3. Run the check, Repeat times, recording into the database
// 4. Compare the result with the expect clause and assertions
// 5. Replay the recorded checks
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	req, err := scenario.Request()
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	clock := testutil.NewDeterministicClock()
	h := &Harness{
		store: st,
		clock: clock,
		engine: engine.New(
			engine.WithRecorder(st),
			engine.WithClock(clock),
			engine.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.CheckID)),
			engine.WithLogger(logger),
		),
		logger: logger,
	}

	result := NewResult()
	result.Warnings = compiler.Analyze(req.Rules)

	if err := h.executeChecks(ctx, scenario, req, result); err != nil {
		return nil, err
	}
	h.checkExpect(scenario.Expect, result)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	if err := h.replay(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// executeChecks runs the check Repeat times (at least once). Every run must
// produce the result of the first.
func (h *Harness) executeChecks(ctx context.Context, scenario *Scenario, req engine.Request, result *Result) error {
	runs := max(1, scenario.Repeat)
	for i := range runs {
		checked, err := h.engine.Check(ctx, req)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		code := errorCode(err)
		if i == 0 {
			result.Check = checked
			result.ErrorCode = code
			if err != nil && scenario.Expect.Error == "" {
				result.AddError(fmt.Sprintf("check failed: %v", err))
			}
		} else if code != result.ErrorCode || !reflect.DeepEqual(checked, result.Check) {
			result.AddError(fmt.Sprintf("check %d differs from the first run", i+1))
		}

		h.logger.Info("check completed",
			"run", i,
			"seq", h.clock.Current(),
			"error_code", code,
		)
	}
	return nil
}

// checkExpect compares the first result with the expect clause.
func (h *Harness) checkExpect(expect Expect, result *Result) {
	if expect.Error != "" {
		if result.ErrorCode != expect.Error {
			result.AddError(fmt.Sprintf("expected error %s, got %q", expect.Error, result.ErrorCode))
		}
		return
	}
	got := result.Check
	if got == nil {
		return
	}

	if expect.Correct != nil && got.Correct != *expect.Correct {
		result.AddError(fmt.Sprintf("expected correct=%t, got %t", *expect.Correct, got.Correct))
	}
	if expect.Score != nil && got.Score != *expect.Score {
		result.AddError(fmt.Sprintf("expected score %s, got %s",
			ir.FormatNumber(*expect.Score), ir.FormatNumber(got.Score)))
	}
	if expect.OutOf != nil && got.OutOf != *expect.OutOf {
		result.AddError(fmt.Sprintf("expected out_of %s, got %s",
			ir.FormatNumber(*expect.OutOf), ir.FormatNumber(got.OutOf)))
	}
	if expect.Events != nil && !slices.Equal(expect.Events, got.Debug.Sent) {
		result.AddError(fmt.Sprintf("expected events %v, got %v", expect.Events, got.Debug.Sent))
	}
}

// replay re-evaluates every recorded check and fails the scenario if any
// diverges.
func (h *Harness) replay(ctx context.Context, result *Result) error {
	records, err := h.store.ReadAllChecks(ctx)
	if err != nil {
		return fmt.Errorf("failed to read checks: %w", err)
	}
	reports, err := h.engine.Replay(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to replay checks: %w", err)
	}
	for _, report := range reports {
		if !report.OK() {
			result.AddError(fmt.Sprintf("replay of %s diverged: input_match=%t result_match=%t %s",
				report.ID, report.InputMatch, report.ResultMatch, report.Error))
		}
	}
	return nil
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var checkErr *engine.CheckError
	if errors.As(err, &checkErr) {
		return string(checkErr.Code)
	}
	return "UNKNOWN"
}
