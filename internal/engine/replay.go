package engine

import (
	"context"
	"fmt"

	"github.com/roach88/adaptivity/internal/ir"
)

// Replay re-evaluates recorded checks to verify determinism.
//
// A check is a pure function of its inputs: the same state, rules and
// scoring context must produce the same result no matter how often or in
// what order checks run. Each record carries two fingerprints, the hash of
// its inputs and the hash of the result it produced. Replay recomputes both
// and reports every record where either differs.
//
// Replay never records; running it against a live store leaves the log
// untouched.

// ReplayReport describes the outcome of replaying one record.
type ReplayReport struct {
	ID  string `json:"id"`
	Seq int64  `json:"seq"`

	// InputMatch is false when the stored inputs no longer hash to the
	// recorded input hash.
	InputMatch bool `json:"input_match"`

	// ResultMatch is false when re-evaluation produced a different result.
	ResultMatch bool `json:"result_match"`

	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`

	// Error is set when the record could not be re-evaluated.
	Error string `json:"error,omitempty"`
}

// OK reports whether the record replayed identically.
func (r ReplayReport) OK() bool {
	return r.Error == "" && r.InputMatch && r.ResultMatch
}

// Replay re-evaluates records in order. Only context cancellation stops it
// early; per-record failures are reported.
func (e *Engine) Replay(ctx context.Context, records []ir.CheckRecord) ([]ReplayReport, error) {
	reports := make([]ReplayReport, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report := e.replayOne(ctx, rec)
		if !report.OK() {
			e.logger.Warn("replay diverged",
				"id", rec.ID,
				"seq", rec.Seq,
				"input_match", report.InputMatch,
				"result_match", report.ResultMatch,
				"error", report.Error)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (e *Engine) replayOne(ctx context.Context, rec ir.CheckRecord) ReplayReport {
	report := ReplayReport{ID: rec.ID, Seq: rec.Seq, Expected: rec.ResultHash}

	inputHash, err := ir.CheckInputHash(rec.State, rec.Rules, rec.Scoring)
	if err != nil {
		report.Error = fmt.Sprintf("hash inputs: %v", err)
		return report
	}
	report.InputMatch = inputHash == rec.InputHash

	result, err := e.Evaluate(ctx, Request{State: rec.State, Rules: rec.Rules, Scoring: rec.Scoring})
	if err != nil {
		report.Error = err.Error()
		return report
	}
	actual, err := ir.ResultHash(result)
	if err != nil {
		report.Error = fmt.Sprintf("hash result: %v", err)
		return report
	}
	report.Actual = actual
	report.ResultMatch = actual == rec.ResultHash
	return report
}
