package capture

// LatchBank holds the per-line "time of first detected high" cells.
//
// A cell is either unset or holds a counter value. Cells are written only
// while the sequencer is in RUN and cleared when drained into the queue.
type LatchBank struct {
	times []uint32
	set   Mask
}

// NewLatchBank creates a bank of n unset cells.
func NewLatchBank(n int) *LatchBank {
	return &LatchBank{times: make([]uint32, n)}
}

// Observe applies the race rule for one cycle: every line that is high
// and still unset latches now. All lines see the same now, so lines that
// cross on the same cycle latch the same value regardless of index order.
// Returns the lines latched by this call.
func (b *LatchBank) Observe(levels Mask, now uint32) Mask {
	fired := levels & FullMask(len(b.times)) &^ b.set
	for a := range b.times {
		if fired.Has(a) {
			b.times[a] = now
		}
	}
	b.set |= fired
	return fired
}

// Get returns cell a without clearing it.
func (b *LatchBank) Get(a int) (uint32, bool) {
	if !b.set.Has(a) {
		return 0, false
	}
	return b.times[a], true
}

// Take returns cell a and clears it.
func (b *LatchBank) Take(a int) (uint32, bool) {
	v, ok := b.Get(a)
	b.times[a] = 0
	b.set &^= Mask(1) << uint(a)
	return v, ok
}

// Latched returns the set of lines holding a value.
func (b *LatchBank) Latched() Mask {
	return b.set
}

// Clear unsets every cell.
func (b *LatchBank) Clear() {
	for a := range b.times {
		b.times[a] = 0
	}
	b.set = 0
}
