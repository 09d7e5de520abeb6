// Package capture implements the MutCapTouch capture engine.
//
// The engine is a multi-channel time-to-digital converter: every sensing
// line is raced against one shared cycle counter and the counter value at
// which the line is first seen high is latched as that line's charge time.
//
// ARCHITECTURE:
//
// Single Tick Function:
// The hardware this models is fully synchronous. Device.Tick is the one
// authoritative clock edge: it samples inputs, runs the Sequencer transition
// function, applies the queue write and updates the event edge detector.
// There are no per-line goroutines; all line comparisons in a tick read the
// same counter value, so simultaneous crossings latch identical values.
//
// Components (leaves first):
//  1. Counter     - shared time base, reset in IDLE, saturates at timeout
//  2. LatchBank   - one "first crossing" cell per line
//  3. Sequencer   - IDLE -> RUN -> SAVE -> WAIT state machine
//  4. ResultQueue - bounded FIFO of samples, popped by host reads
//  5. EventManager + Status - host visible flags and the completion event
//
// Register Surface:
// Device exposes the bus registers of the original core: ctrl (self clearing
// start pulse), status ({done, fifo_empty, fifo_full}), capdata (pop on read)
// and the ev_status/ev_pending/ev_enable event registers.
//
// Thread-safety: a Device is owned by exactly one goroutine. Independent
// devices may run in parallel.
package capture
