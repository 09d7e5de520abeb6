package capture

import (
	"fmt"
	"slices"
)

// DefaultTimeout is the RUN phase bound in cycles (12^6, about 250ms at 12MHz).
const DefaultTimeout uint32 = 12 * 12 * 12 * 12 * 12 * 12

// DefaultCounterBits is the width of the counter and of each capdata word.
const DefaultCounterBits = 32

// CounterWidths lists the supported counter widths, one to four bytes.
var CounterWidths = []int{8, 16, 24, 32}

// Config holds the device parameters.
//
// Lines, Columns and Timeout are the parameters of the original core.
// The rest default to the original behavior except ClearOnStart, which
// resets every latch cell on entry to RUN.
type Config struct {
	// Lines is the number of measured sensing lines (N).
	Lines int

	// Columns is the number of bias channels driven high during IDLE and RUN.
	Columns int

	// Timeout is the counter value at which RUN force-terminates.
	Timeout uint32

	// FIFODepth is the result queue capacity. Zero selects Lines*Columns
	// (or Lines when there are no columns).
	FIFODepth int

	// SyncStages is the length of the flip-flop chain between the pads and
	// the line inputs. Each stage delays every latched value by one cycle.
	SyncStages int

	// ClearOnStart clears all latch cells when a batch starts.
	ClearOnStart bool

	// CounterBits is the counter width; Timeout must fit in it.
	CounterBits int
}

// DefaultConfig returns the parameters of the original core for the
// given geometry.
func DefaultConfig(lines, columns int) Config {
	return Config{
		Lines:        lines,
		Columns:      columns,
		Timeout:      DefaultTimeout,
		ClearOnStart: true,
		CounterBits:  DefaultCounterBits,
	}
}

// QueueDepth returns the effective result queue capacity.
func (c Config) QueueDepth() int {
	if c.FIFODepth > 0 {
		return c.FIFODepth
	}
	if c.Columns > 0 {
		return c.Lines * c.Columns
	}
	return c.Lines
}

// Validate checks the configuration.
// A queue shallower than Lines is rejected so that one batch can never
// overflow it.
func (c Config) Validate() error {
	if c.Lines < 1 || c.Lines > MaxLines {
		return NewConfigError("lines", fmt.Sprintf("must be between 1 and %d, got %d", MaxLines, c.Lines))
	}
	if c.Columns < 0 || c.Columns > MaxLines {
		return NewConfigError("columns", fmt.Sprintf("must be between 0 and %d, got %d", MaxLines, c.Columns))
	}
	if c.Timeout == 0 {
		return NewConfigError("timeout", "must be at least 1 cycle")
	}
	bits := c.CounterBits
	if bits == 0 {
		bits = DefaultCounterBits
	}
	if !slices.Contains(CounterWidths, bits) {
		return NewConfigError("counter_bits", fmt.Sprintf("must be one of %v, got %d", CounterWidths, bits))
	}
	if bits < 32 && uint64(c.Timeout) >= uint64(1)<<uint(bits) {
		return NewConfigError("timeout", fmt.Sprintf("%d does not fit in a %d-bit counter", c.Timeout, bits))
	}
	if c.FIFODepth < 0 {
		return NewConfigError("fifo_depth", "must not be negative")
	}
	if depth := c.QueueDepth(); depth < c.Lines {
		return NewConfigError("fifo_depth", fmt.Sprintf("%d is smaller than the %d samples of one batch", depth, c.Lines))
	}
	if c.SyncStages < 0 {
		return NewConfigError("sync_stages", "must not be negative")
	}
	return nil
}
