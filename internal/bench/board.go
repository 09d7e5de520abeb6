package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
)

// ErrCycleLimit is returned when a wait runs out of clock cycles.
var ErrCycleLimit = errors.New("cycle limit reached")

// DefaultCycleLimit bounds waits when no explicit limit is given.
const DefaultCycleLimit = 1 << 26

// Board is the clock and pad wiring around one capture device.
//
// Each Tick evaluates, in order: the device pad drivers, the sensing
// network, the input synchronizer, and finally the device edge. The ISR,
// if attached, runs once per rising edge of the interrupt line.
type Board struct {
	dev  *capture.Device
	net  *Network
	sync *Synchronizer

	isr func()
	irq bool
}

// NewBoard wires dev to net. The synchronizer length comes from the
// device configuration.
func NewBoard(dev *capture.Device, net *Network) *Board {
	return &Board{
		dev:  dev,
		net:  net,
		sync: NewSynchronizer(dev.Config().SyncStages),
	}
}

// Device returns the capture device.
func (b *Board) Device() *capture.Device {
	return b.dev
}

// Network returns the sensing network.
func (b *Board) Network() *Network {
	return b.net
}

// AttachISR installs the interrupt handler. A nil handler detaches it.
func (b *Board) AttachISR(isr func()) {
	b.isr = isr
}

// Tick applies one clock edge.
func (b *Board) Tick() capture.Outputs {
	levels := b.sync.Shift(b.net.Sample(b.dev.Drive()))
	out := b.dev.Tick(levels)

	irq := b.dev.Events().IRQ()
	if irq && !b.irq && b.isr != nil {
		b.isr()
	}
	b.irq = irq
	return out
}

// RunUntil ticks until cond holds, the context is cancelled, or limit
// cycles have elapsed (limit <= 0 means DefaultCycleLimit). cond is checked
// before every tick. Returns the number of ticks applied.
func (b *Board) RunUntil(ctx context.Context, cond func() bool, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultCycleLimit
	}
	for n := 0; ; n++ {
		if cond() {
			return n, nil
		}
		if n == limit {
			return n, fmt.Errorf("run until: %w after %d cycles", ErrCycleLimit, n)
		}
		// Checking the context every cycle dominates the loop cost.
		if n&0xff == 0 {
			if err := ctx.Err(); err != nil {
				return n, fmt.Errorf("run until: %w", err)
			}
		}
		b.Tick()
	}
}
