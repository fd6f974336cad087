package engine

import "sync/atomic"

// Sequencer hands out the seq numbers that order recorded checks.
type Sequencer interface {
	Next() int64
}

// Clock is the engine's logical clock. Seqs are strictly increasing and
// never derived from wall time, so a store's order survives replay.
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first seq is 1.
func NewClock() *Clock {
	return NewClockAt(0)
}

// NewClockAt returns a clock whose first seq is last+1, for resuming
// after the checks already in a store.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// Next advances the clock.
func (c *Clock) Next() int64 { return c.seq.Add(1) }

// Current is the last seq handed out, or the starting point.
func (c *Clock) Current() int64 { return c.seq.Load() }
