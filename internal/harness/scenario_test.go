package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adaptivity/internal/ir"
)

// writeScenario writes content to a scenario file in a temp dir and
// returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalScenario = `
name: minimal
description: one default correct rule
rules:
  - conditions: {all: []}
    default: true
    correct: true
    event: {type: ok}
expect:
  correct: true
`

func TestLoadScenario_Minimal(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.NotNil(t, s.Expect.Correct)
	assert.True(t, *s.Expect.Correct)
	assert.Len(t, s.Rules, 1)
	assert.Zero(t, s.Repeat)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	_, err := LoadScenario(writeScenario(t, minimalScenario+"assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nrules: []\nexpect: {correct: true}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nrules: []\nexpect: {correct: true}\n",
			wantErr: "description is required",
		},
		{
			name:    "no rules",
			content: "name: n\ndescription: d\nexpect: {correct: true}\n",
			wantErr: "rules or rules_file is required",
		},
		{
			name:    "both rule sources",
			content: "name: n\ndescription: d\nrules: []\nrules_file: r.json\nexpect: {correct: true}\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "rules file missing",
			content: "name: n\ndescription: d\nrules_file: nowhere.json\nexpect: {correct: true}\n",
			wantErr: "rules file not found",
		},
		{
			name:    "no expectation",
			content: "name: n\ndescription: d\nrules: []\n",
			wantErr: "expect.correct or expect.error is required",
		},
		{
			name:    "error with result expectation",
			content: "name: n\ndescription: d\nrules: []\nexpect: {error: INVALID_RULE, correct: false}\n",
			wantErr: "cannot be combined",
		},
		{
			name:    "negative repeat",
			content: "name: n\ndescription: d\nrules: []\nrepeat: -1\nexpect: {correct: true}\n",
			wantErr: "repeat must be non-negative",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nrules: []\nexpect: {correct: true}\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "event_order without events",
			content: "name: n\ndescription: d\nrules: []\nexpect: {correct: true}\nassertions: [{type: event_order}]\n",
			wantErr: "events list is required",
		},
		{
			name:    "action without action type",
			content: "name: n\ndescription: d\nrules: []\nexpect: {correct: true}\nassertions: [{type: action, event: e}]\n",
			wantErr: "event and action are required",
		},
		{
			name:    "final_state without columns",
			content: "name: n\ndescription: d\nrules: []\nexpect: {correct: true}\nassertions: [{type: final_state, table: checks}]\n",
			wantErr: "columns is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_RulesFileRelativeToScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "answer_incorrect.yaml"))
	require.NoError(t, err)

	req, err := s.Request()
	require.NoError(t, err)
	require.Len(t, req.Rules, 2)
	assert.Equal(t, "q1.correct", req.Rules[0].ID)
	assert.Equal(t, "q1.defaultWrong", req.Rules[1].ID)
}

func TestScenario_Request(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "trap_score.yaml"))
	require.NoError(t, err)

	req, err := s.Request()
	require.NoError(t, err)

	assert.Equal(t, ir.Number(2), req.State["variables.scoreFactor"])
	assert.Equal(t, ir.ScoringContext{MaxScore: 100, TrapStateScoreScheme: true}, req.Scoring)
	require.Len(t, req.Rules, 1)

	op, ok := req.Rules[0].Event.Params.Actions[0].StateOperation()
	require.True(t, ok)
	assert.Equal(t, "session.currentQuestionScore", op.Target)
	assert.Equal(t, ir.TypeNumber, op.TargetType)
	assert.Equal(t, ir.String("50 * {variables.scoreFactor}"), op.Value)
}

func TestScenario_RequestEmptyState(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, minimalScenario))
	require.NoError(t, err)

	req, err := s.Request()
	require.NoError(t, err)
	assert.NotNil(t, req.State)
	assert.Empty(t, req.State)
	assert.Equal(t, ir.ScoringContext{}, req.Scoring)
}

func TestScenario_RequestSchemaError(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, `
name: bad
description: rule without an event type
rules:
  - conditions: {all: []}
    event: {}
expect:
  correct: false
`))
	require.NoError(t, err)

	_, err = s.Request()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules:")
}

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	assert.Equal(t, []string{
		"answer_correct.yaml",
		"answer_incorrect.yaml",
		"attempt_scoring.yaml",
		"trap_score.yaml",
		"unknown_operator.yaml",
	}, names)

	single, err := FindScenarios(files[0])
	require.NoError(t, err)
	assert.Equal(t, files[:1], single)
}

func TestFindScenarios_NotFound(t *testing.T) {
	_, err := FindScenarios(filepath.Join(t.TempDir(), "nope"))
	var notFound *ScenarioNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Error(), "does not exist")
}
