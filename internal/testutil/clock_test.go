package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adaptivity/internal/ir"
)

func TestDeterministicClock(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next(), "reset replays the same sequence")
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "check-1", NewFixedIDGenerator("check-1").Generate())
	assert.Equal(t, "test-check-default", NewFixedIDGenerator("").Generate())
}

func TestFixtures(t *testing.T) {
	assert.False(t, DefaultCorrectRule().Disabled)
	assert.True(t, DisabledCorrectRule().Disabled)

	wrong := DefaultWrongRule()
	assert.True(t, wrong.Default)
	assert.False(t, wrong.Correct)

	trap := TrapScoreRule(ir.Number(10))
	last := trap.Event.Params.Actions[len(trap.Event.Params.Actions)-1]
	op, ok := last.StateOperation()
	require.True(t, ok)
	assert.Equal(t, "session.currentQuestionScore", op.Target)
	assert.Equal(t, ir.TypeNumber, op.TargetType)

	assert.Panics(t, func() { MustRule("{") })
}
