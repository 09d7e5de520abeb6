package bench

import "github.com/Acathla-fr/MutCapTouch/internal/capture"

// Synchronizer is a chain of flip-flops on the line inputs.
// A chain of k stages delays every level change by k cycles; k = 0 is a wire.
type Synchronizer struct {
	stages []capture.Mask
}

// NewSynchronizer creates a chain of the given length, all stages low.
func NewSynchronizer(stages int) *Synchronizer {
	return &Synchronizer{stages: make([]capture.Mask, stages)}
}

// Shift clocks in the pad levels and returns the levels leaving the chain.
func (s *Synchronizer) Shift(in capture.Mask) capture.Mask {
	if len(s.stages) == 0 {
		return in
	}
	last := len(s.stages) - 1
	out := s.stages[last]
	copy(s.stages[1:], s.stages[:last])
	s.stages[0] = in
	return out
}
