package cli

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordChecks runs two checks into a fresh database and returns its path.
func recordChecks(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "checks.db")
	checks := []struct{ id, state string }{
		{"check-1", "testdata/state_correct.json"},
		{"check-2", "testdata/state_wrong.yaml"},
	}
	for _, c := range checks {
		_, _, err := execute(t, "check",
			"--state", c.state,
			"--rules", "testdata/rules.json",
			"--scoring", "testdata/scoring.yaml",
			"--db", db, "--id", c.id)
		require.NoError(t, err)
	}
	return db
}

func TestReplayCommand_Deterministic(t *testing.T) {
	db := recordChecks(t)

	out, _, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 replayed, 0 diverged")
	assert.Contains(t, out, "✓ All checks deterministic")
}

func TestReplayCommand_VerboseListsChecks(t *testing.T) {
	db := recordChecks(t)

	out, _, err := execute(t, "-v", "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ check-1")
	assert.Contains(t, out, "✓ check-2")
}

func TestReplayCommand_SingleCheckJSON(t *testing.T) {
	db := recordChecks(t)

	out, _, err := execute(t, "--format", "json", "replay", "--db", db, "--id", "check-2")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["total_checks"])
	assert.Equal(t, true, data["all_deterministic"])
	checks := data["checks"].([]any)
	require.Len(t, checks, 1)
	assert.Equal(t, "check-2", checks[0].(map[string]any)["id"])
}

func TestReplayCommand_DetectsDivergence(t *testing.T) {
	db := recordChecks(t)

	raw, err := sql.Open("sqlite3", db)
	require.NoError(t, err)
	_, err = raw.Exec(`UPDATE checks SET result_hash = 'tampered' WHERE id = 'check-1'`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	out, _, err := execute(t, "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ check-1 (seq 1)")
	assert.Contains(t, out, "expected tampered")
	assert.Contains(t, out, "Replay Summary: 2 replayed, 1 diverged")

	out, _, err = execute(t, "--format", "json", "replay", "--db", db)
	require.Error(t, err)
	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeReplayDiverged, resp.Error.Code)
}

func TestReplayCommand_Errors(t *testing.T) {
	_, _, err := execute(t, "replay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)

	_, _, err = execute(t, "replay", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")

	db := recordChecks(t)
	_, _, err = execute(t, "replay", "--db", db, "--id", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryCommand(t *testing.T) {
	db := recordChecks(t)

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ check-1  10/10  [q1.correct]")
	assert.Contains(t, out, "✗ check-2  0/10  [q1.defaultWrong]")
}

func TestHistoryCommand_ByInputHash(t *testing.T) {
	db := recordChecks(t)

	out, _, err := execute(t, "--format", "json", "history", "--db", db)
	require.NoError(t, err)
	entries := decodeResponse(t, out).Data.([]any)
	require.Len(t, entries, 2)
	hash := entries[0].(map[string]any)["input_hash"].(string)

	out, _, err = execute(t, "--format", "json", "history", "--db", db, "--input", hash)
	require.NoError(t, err)
	filtered := decodeResponse(t, out).Data.([]any)
	require.Len(t, filtered, 1)
	assert.Equal(t, hash, filtered[0].(map[string]any)["input_hash"])
}

func TestHistoryCommand_Empty(t *testing.T) {
	db := recordChecks(t)

	out, _, err := execute(t, "history", "--db", db, "--input", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "No checks found in database.")
}
