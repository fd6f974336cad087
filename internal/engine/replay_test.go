package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/testutil"
)

func recordChecks(t *testing.T, reqs ...Request) []ir.CheckRecord {
	t.Helper()
	s := setupTestStore(t)
	ids := make([]string, len(reqs))
	for i := range ids {
		ids[i] = "check-" + string(rune('a'+i))
	}
	e := newTestEngine(WithRecorder(s), WithIDGenerator(NewFixedGenerator(ids...)))

	ctx := context.Background()
	for _, req := range reqs {
		_, err := e.Check(ctx, req)
		require.NoError(t, err)
	}
	records, err := s.ReadAllChecks(ctx)
	require.NoError(t, err)
	require.Len(t, records, len(reqs))
	return records
}

func TestReplay_StoredChecksReplayIdentically(t *testing.T) {
	trap := mockRequest(testutil.ComplexRule(), testutil.TrapScoreRule(ir.String("50 * {variables.scoreFactor}")))
	trap.Scoring = testutil.TrapScoring(100)

	records := recordChecks(t,
		mockRequest(testutil.DefaultCorrectRule()),
		mockRequest(testutil.DisabledCorrectRule(), testutil.DefaultWrongRule()),
		Request{},
		trap,
	)

	reports, err := newTestEngine().Replay(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, reports, len(records))
	for _, r := range reports {
		assert.True(t, r.OK(), "record %s: %+v", r.ID, r)
	}
}

func TestReplay_DetectsDivergence(t *testing.T) {
	records := recordChecks(t, mockRequest(testutil.DefaultCorrectRule()), mockRequest(testutil.DefaultCorrectRule()))

	records[0].ResultHash = "tampered"
	records[1].Scoring.MaxScore = 99

	reports, err := newTestEngine().Replay(context.Background(), records)
	require.NoError(t, err)

	assert.True(t, reports[0].InputMatch)
	assert.False(t, reports[0].ResultMatch)
	assert.False(t, reports[0].OK())

	assert.False(t, reports[1].InputMatch, "edited inputs no longer match their hash")
	assert.False(t, reports[1].ResultMatch)
}

func TestReplay_ReportsEvaluationErrors(t *testing.T) {
	rec := ir.CheckRecord{
		ID:    "bad",
		Rules: []ir.Rule{{ID: "bad", Conditions: ir.All(ir.Leaf("a", "approximately", ir.Number(1)))}},
	}

	reports, err := newTestEngine().Replay(context.Background(), []ir.CheckRecord{rec})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Error, "UNKNOWN_OPERATOR")
	assert.False(t, reports[0].OK())
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := newTestEngine().Replay(ctx, []ir.CheckRecord{{ID: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}
