package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/adaptivity/internal/ir"
	"github.com/roach88/adaptivity/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a check record with the given id and seq.
func createTestRecord(id string, seq int64) ir.CheckRecord {
	return ir.CheckRecord{
		ID:        id,
		Seq:       seq,
		InputHash: "input-" + id,
		State:     ir.Object{"stage.q1.value": ir.String("42")},
		Rules:     []ir.Rule{testutil.DefaultCorrectRule()},
		Scoring:   testutil.AttemptScoring(1, 10, 1, false),
		Result: ir.Result{
			Correct: true,
			Score:   10,
			OutOf:   10,
			Results: []ir.Event{testutil.DefaultCorrectRule().Event},
			Debug: ir.Debug{
				Sent: []string{"ts:1476204198961:2067.correct"},
				All:  []string{"ts:1476204198961:2067.correct"},
			},
		},
		ResultHash:    "result-" + id,
		EngineVersion: "test",
	}
}
