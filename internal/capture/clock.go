package capture

import "sync/atomic"

// Clock counts device clock edges since construction.
//
// It is the global time axis used to stamp batches and trace events, and
// is independent of the per-batch Counter. Only Device.Tick advances it;
// Current may be read from other goroutines (e.g. a progress reporter).
type Clock struct {
	cycle atomic.Uint64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock by one edge and returns the new cycle number.
// The first call returns 1.
func (c *Clock) Next() uint64 {
	return c.cycle.Add(1)
}

// Current returns the number of edges seen so far.
func (c *Clock) Current() uint64 {
	return c.cycle.Load()
}
