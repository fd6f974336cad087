package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"answer_correct", "answer_incorrect", "unknown_operator"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_EmptyListsNotNull(t *testing.T) {
	data, err := newSnapshot("empty", NewResult()).marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results": []`)
	assert.Contains(t, string(data), `"sent": []`)
	assert.NotContains(t, string(data), "error_code")
}

func TestSnapshot_KeepsMarkup(t *testing.T) {
	result, err := Run(loadTestScenario(t, "answer_incorrect"))
	require.NoError(t, err)

	data, err := newSnapshot("answer_incorrect", result).marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text": "<b>Try again</b>"`)
}
