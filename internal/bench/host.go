package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
)

// Host plays the firmware side of the register interface.
type Host struct {
	board  *Board
	limit  int
	logger *slog.Logger

	interrupts uint64
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithCycleLimit bounds every wait inside ReadCapture.
func WithCycleLimit(n int) HostOption {
	return func(h *Host) {
		h.limit = n
	}
}

// WithHostLogger sets the logger. Default: slog.Default().
func WithHostLogger(l *slog.Logger) HostOption {
	return func(h *Host) {
		h.logger = l
	}
}

// NewHost creates a host driving board.
func NewHost(board *Board, opts ...HostOption) *Host {
	h := &Host{
		board:  board,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Board returns the board the host drives.
func (h *Host) Board() *Board {
	return h.board
}

// Init clears any stale event, enables the interrupt and attaches the ISR.
func (h *Host) Init() {
	ev := h.board.Device().Events()
	ev.Clear()
	ev.SetEnabled(true)
	h.board.AttachISR(h.isr)
	h.logger.Debug("capture interrupt enabled")
}

func (h *Host) isr() {
	h.interrupts++
}

// Interrupts returns how many times the ISR has run.
func (h *Host) Interrupts() uint64 {
	return h.interrupts
}

// ReadCapture runs one batch with the given crossing delays and returns
// one sample per line in line order.
//
// It writes ctrl, waits for the queue event, reads capdata once per line
// (ticking while fifo_empty is set), acknowledges the event and lets the
// sequencer settle back to IDLE. A nil delays slice keeps the current
// network delays.
func (h *Host) ReadCapture(ctx context.Context, delays []int) ([]uint32, error) {
	dev := h.board.Device()
	if delays != nil {
		if err := h.board.Network().SetDelays(delays); err != nil {
			return nil, fmt.Errorf("read capture: %w", err)
		}
	}
	if _, err := h.board.RunUntil(ctx, func() bool { return !dev.Busy() }, h.limit); err != nil {
		return nil, fmt.Errorf("read capture: wait idle: %w", err)
	}

	dev.WriteCtrl(1)
	if _, err := h.board.RunUntil(ctx, dev.Events().Pending, h.limit); err != nil {
		return nil, fmt.Errorf("read capture: wait event: %w", err)
	}

	lines := dev.Config().Lines
	samples := make([]uint32, 0, lines)
	ready := func() bool { return !dev.ReadStatus().FIFOEmpty() }
	for len(samples) < lines {
		if _, err := h.board.RunUntil(ctx, ready, h.limit); err != nil {
			return samples, fmt.Errorf("read capture: wait sample %d: %w", len(samples), err)
		}
		v, err := dev.ReadCapdata()
		if err != nil {
			return samples, fmt.Errorf("read capture: %w", err)
		}
		samples = append(samples, v)
	}
	dev.Events().Clear()

	if _, err := h.board.RunUntil(ctx, func() bool { return !dev.Busy() }, h.limit); err != nil {
		return samples, fmt.Errorf("read capture: settle: %w", err)
	}
	return samples, nil
}

// AbortCapture starts a batch, lets it run for the given number of RUN
// cycles and aborts it. No samples are produced. Returns an error if the
// batch leaves RUN on its own before the abort lands.
func (h *Host) AbortCapture(ctx context.Context, delays []int, after int) error {
	dev := h.board.Device()
	if delays != nil {
		if err := h.board.Network().SetDelays(delays); err != nil {
			return fmt.Errorf("abort capture: %w", err)
		}
	}
	if _, err := h.board.RunUntil(ctx, func() bool { return !dev.Busy() }, h.limit); err != nil {
		return fmt.Errorf("abort capture: wait idle: %w", err)
	}

	dev.WriteCtrl(1)
	h.board.Tick()
	for i := 0; i < after && dev.State() == capture.StateRun; i++ {
		h.board.Tick()
	}
	if dev.State() != capture.StateRun {
		return fmt.Errorf("abort capture: batch left RUN before abort (state %s)", dev.State())
	}

	dev.Abort()
	h.board.Tick()
	h.logger.Debug("capture aborted", "cycle", dev.Cycle())
	return nil
}

// DumpRegisters prints the register file. capdata is not read since
// reading it pops a sample; the queue level it would drain is shown
// instead.
func (h *Host) DumpRegisters(w io.Writer) error {
	dev := h.board.Device()
	ev := dev.Events()
	status := dev.ReadStatus()
	q := dev.Queue()

	_, err := fmt.Fprintf(w,
		"status     : 0x%08x (%s)\nctrl       : 0x%08x\nev_status  : 0x%08x\nev_pending : 0x%08x\nev_enable  : 0x%08x\nfifo level : %d/%d\nstate      : %s\ncycle      : %d\ninterrupts : %d\n",
		uint32(status), status,
		dev.ReadCtrl(),
		bit(ev.Status()),
		bit(ev.Pending()),
		bit(ev.Enabled()),
		q.Len(), q.Capacity(),
		dev.State(),
		dev.Cycle(),
		h.interrupts,
	)
	return err
}

func bit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
