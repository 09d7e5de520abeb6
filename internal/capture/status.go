package capture

import "strings"

// Status is the 3-bit status register.
type Status uint8

const (
	// StatusDone is set while the result queue has a sample ready.
	StatusDone Status = 1 << iota
	// StatusFIFOEmpty is set while no sample is ready to read.
	StatusFIFOEmpty
	// StatusFIFOFull is set while the queue cannot accept another push.
	StatusFIFOFull
)

// Done reports the done bit.
func (s Status) Done() bool { return s&StatusDone != 0 }

// FIFOEmpty reports the fifo_empty bit.
func (s Status) FIFOEmpty() bool { return s&StatusFIFOEmpty != 0 }

// FIFOFull reports the fifo_full bit.
func (s Status) FIFOFull() bool { return s&StatusFIFOFull != 0 }

// String lists the set bits, e.g. "done|fifo_full".
func (s Status) String() string {
	var parts []string
	if s.Done() {
		parts = append(parts, "done")
	}
	if s.FIFOEmpty() {
		parts = append(parts, "fifo_empty")
	}
	if s.FIFOFull() {
		parts = append(parts, "fifo_full")
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

// statusOf derives the status register from the queue.
func statusOf(q *ResultQueue) Status {
	var s Status
	if q.Empty() {
		s |= StatusFIFOEmpty
	} else {
		s |= StatusDone
	}
	if q.Full() {
		s |= StatusFIFOFull
	}
	return s
}

// EventManager holds the single "queue became non-empty" event.
//
// The source level is sampled once per clock edge. A rising edge sets
// pending; pending stays set until the host clears it, whatever happens
// to the queue afterwards. The interrupt line is pending AND enabled.
type EventManager struct {
	level   bool
	pending bool
	enabled bool
	raised  uint64
}

// sample feeds the current source level and reports a rising edge.
func (e *EventManager) sample(level bool) bool {
	rising := level && !e.level
	e.level = level
	if rising {
		e.pending = true
		e.raised++
	}
	return rising
}

// Status returns the source level seen on the last edge (ev_status).
func (e *EventManager) Status() bool { return e.level }

// Pending returns the latched event flag (ev_pending).
func (e *EventManager) Pending() bool { return e.pending }

// Enabled returns the interrupt enable bit (ev_enable).
func (e *EventManager) Enabled() bool { return e.enabled }

// SetEnabled writes the interrupt enable bit.
func (e *EventManager) SetEnabled(on bool) { e.enabled = on }

// Clear acknowledges the event (write 1 to ev_pending).
func (e *EventManager) Clear() { e.pending = false }

// IRQ returns the interrupt line level.
func (e *EventManager) IRQ() bool { return e.pending && e.enabled }

// Raised returns how many rising edges have been seen.
func (e *EventManager) Raised() uint64 { return e.raised }
