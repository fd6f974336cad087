package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: answer_right
state:
  stage.answer.value: 42
rules:
  - id: q1.correct
    correct: true
    conditions:
      all:
        - fact: stage.answer.value
          operator: equal
          value: 42
    event:
      type: q1.correct
scoring:
  maxScore: 10
  maxAttempt: 1
  currentAttemptNumber: 1
expect:
  correct: true
  score: 10
  events: [q1.correct]
`

const failingScenario = `name: answer_expected_wrong
state:
  stage.answer.value: 42
rules:
  - id: q1.correct
    correct: true
    conditions:
      all:
        - fact: stage.answer.value
          operator: equal
          value: 42
    event:
      type: q1.correct
expect:
  correct: false
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", t.TempDir())
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(0), data["total"])
	assert.Empty(t, data["scenarios"])
}

func TestTestCommandPassing(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"answer_right.yaml": passingScenario})

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ answer_right")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailing(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"answer_right.yaml":          passingScenario,
		"answer_expected_wrong.yaml": failingScenario,
	})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ answer_expected_wrong")
	assert.Contains(t, out, "expected correct=false, got true")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingJSON(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"answer_expected_wrong.yaml": failingScenario})

	out, _, err := execute(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(1), data["failed"])
	scenarios := data["scenarios"].([]any)
	require.Len(t, scenarios, 1)
	assert.Equal(t, false, scenarios[0].(map[string]any)["pass"])
}

func TestTestCommandFilter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{
		"answer_right.yaml":          passingScenario,
		"answer_expected_wrong.yaml": failingScenario,
	})

	out, _, err := execute(t, "test", dir, "--filter", "*_right")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "answer_expected_wrong")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"answer_right.yaml": passingScenario})

	_, _, err := execute(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandSingleFile(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"answer_right.yaml": passingScenario})

	out, _, err := execute(t, "test", filepath.Join(dir, "answer_right.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"broken.yaml": "name: broken\nexpect:\n  correct: true\n"})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := writeScenarios(t, map[string]string{"answer_right.yaml": passingScenario})
	golden := filepath.Join(dir, "golden", "answer_right.golden")

	out, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ answer_right (golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "answer_right"`)

	out, _, err = execute(t, "test", dir)
	require.NoError(t, err, out)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "result does not match golden file")
}
