package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/store"
)

func testResult() *Result {
	r := NewResult()
	r.Check = &ir.Result{
		Correct: true,
		Score:   10,
		OutOf:   10,
		Results: []ir.Event{{
			Type: "q1.correct",
			Params: ir.EventParams{
				Actions: []ir.Action{
					{Type: ir.ActionNavigation, Params: ir.Object{"target": ir.String("next")}},
					{Type: ir.ActionFeedback, Params: ir.Object{"text": ir.String("Well done"), "partsLayout": ir.Array{}}},
				},
				Order:   1,
				Correct: true,
			},
		}},
		Debug: ir.Debug{
			Sent: []string{"q1.correct"},
			All:  []string{"q1.correct", "q1.hint", "q1.defaultWrong"},
		},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	assertions := []Assertion{
		{Type: AssertEventSent, Event: "q1.correct"},
		{Type: AssertEventFired, Event: "q1.defaultWrong"},
		{Type: AssertEventOrder, Events: []string{"q1.correct", "q1.defaultWrong"}},
		{Type: AssertEventCount, Event: "q1.hint", Count: 1},
		{Type: AssertEventCount, Event: "q2.correct", Count: 0},
		{Type: AssertAction, Event: "q1.correct", Action: ir.ActionNavigation},
		{Type: AssertAction, Event: "q1.correct", Action: ir.ActionFeedback, Params: map[string]any{"text": "Well done"}},
	}
	assert.Empty(t, EvaluateAssertions(testResult(), assertions, nil))
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"not sent", Assertion{Type: AssertEventSent, Event: "q1.defaultWrong"}, "Assertion failed: event_sent"},
		{"never fired", Assertion{Type: AssertEventFired, Event: "q9"}, "not found in"},
		{"order missing", Assertion{Type: AssertEventOrder, Events: []string{"q1.correct", "q9"}}, "missing event: q9"},
		{"order wrong", Assertion{Type: AssertEventOrder, Events: []string{"q1.defaultWrong", "q1.correct"}}, "should be before"},
		{"count", Assertion{Type: AssertEventCount, Event: "q1.correct", Count: 2}, "1 occurrences"},
		{"action params", Assertion{Type: AssertAction, Event: "q1.correct", Action: ir.ActionFeedback, Params: map[string]any{"text": "Nope"}}, "no matching action"},
		{"action event", Assertion{Type: AssertAction, Event: "q1.hint", Action: ir.ActionFeedback}, "event not sent"},
		{"final state without store", Assertion{Type: AssertFinalState, Table: "checks"}, "requires database context"},
		{"unknown", Assertion{Type: "trace_contains"}, "unknown assertion type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(testResult(), []Assertion{tt.assertion}, nil)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestEvaluateAssertions_NoCheck(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{
		{Type: AssertEventSent, Event: "x"},
		{Type: AssertAction, Event: "x", Action: "feedback"},
	}, nil)
	assert.Len(t, errs, 2)
}

func TestAssertionError_ListsFiredEvents(t *testing.T) {
	err := &AssertionError{
		Type:     AssertEventSent,
		Expected: "event a",
		Actual:   "not found",
		Fired:    []string{"b", "c"},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Expected: event a")
	assert.Contains(t, msg, "[1] b")
	assert.Contains(t, msg, "[2] c")
}

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	result := testResult().Check
	for i, id := range []string{"check-a", "check-b"} {
		require.NoError(t, st.WriteCheck(context.Background(), ir.CheckRecord{
			ID:            id,
			Seq:           int64(i + 1),
			InputHash:     "input-" + id,
			State:         ir.Object{},
			Rules:         []ir.Rule{},
			Result:        *result,
			ResultHash:    "result-" + id,
			EngineVersion: "adaptivity/1",
		}))
	}
	return st
}

func TestAssertFinalState(t *testing.T) {
	st := seededStore(t)
	actx := &AssertionContext{Store: st, Ctx: context.Background()}

	pass := Assertion{
		Type:    AssertFinalState,
		Table:   "checks",
		Where:   map[string]any{"id": "check-b"},
		Columns: map[string]any{"seq": 2, "correct": true, "score": 10, "engine_version": "adaptivity/1"},
	}
	assert.Empty(t, EvaluateAssertions(testResult(), []Assertion{pass}, actx))

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "value mismatch",
			assertion: Assertion{Type: AssertFinalState, Table: "checks", Where: map[string]any{"id": "check-a"}, Columns: map[string]any{"score": 7.5}},
			want:      `column "score" = 10`,
		},
		{
			name:      "missing column",
			assertion: Assertion{Type: AssertFinalState, Table: "checks", Where: map[string]any{"id": "check-a"}, Columns: map[string]any{"grade": 1}},
			want:      `column "grade" not present`,
		},
		{
			name:      "row not found",
			assertion: Assertion{Type: AssertFinalState, Table: "checks", Where: map[string]any{"id": "check-z"}, Columns: map[string]any{"seq": 1}},
			want:      "row not found",
		},
		{
			name:      "ambiguous",
			assertion: Assertion{Type: AssertFinalState, Table: "checks", Columns: map[string]any{"seq": 1}},
			want:      "multiple rows matched",
		},
		{
			name:      "bad table",
			assertion: Assertion{Type: AssertFinalState, Table: "checks; DROP TABLE checks", Columns: map[string]any{"seq": 1}},
			want:      "invalid table name",
		},
		{
			name:      "bad column",
			assertion: Assertion{Type: AssertFinalState, Table: "checks", Where: map[string]any{"id = id OR 1": 1}, Columns: map[string]any{"seq": 1}},
			want:      "invalid column name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(testResult(), []Assertion{tt.assertion}, actx)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestColumnValuesEqual(t *testing.T) {
	assert.True(t, columnValuesEqual("a", "a"))
	assert.True(t, columnValuesEqual("a", []byte("a")))
	assert.True(t, columnValuesEqual(true, int64(1)))
	assert.True(t, columnValuesEqual(false, int64(0)))
	assert.True(t, columnValuesEqual(10, float64(10)))
	assert.True(t, columnValuesEqual(2.5, float64(2.5)))
	assert.True(t, columnValuesEqual(int64(3), int64(3)))
	assert.True(t, columnValuesEqual(nil, nil))

	assert.False(t, columnValuesEqual("1", int64(1)))
	assert.False(t, columnValuesEqual(1, "1"))
	assert.False(t, columnValuesEqual(nil, "a"))
	assert.False(t, columnValuesEqual(true, "true"))
}

func TestBuildWhereClause_SortedKeys(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]any{"seq": 2, "id": "a"})
	require.NoError(t, err)
	assert.Equal(t, "id = ? AND seq = ?", sql)
	assert.Equal(t, []any{"a", 2}, args)
}
