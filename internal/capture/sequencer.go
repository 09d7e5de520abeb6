package capture

import "fmt"

// State is a Sequencer phase.
type State int

const (
	// StateIdle pre-charges: lines driven low, columns driven high, counter at 0.
	StateIdle State = iota
	// StateRun releases the lines and races them against the counter.
	StateRun
	// StateSave drains the latch bank into the result queue, one line per cycle.
	StateSave
	// StateWait drops the write strobe for one cycle before returning to IDLE.
	StateWait
)

// String returns the state name used in logs and traces.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRun:
		return "RUN"
	case StateSave:
		return "SAVE"
	case StateWait:
		return "WAIT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Inputs are the signals sampled by the sequencer on one clock edge.
type Inputs struct {
	// Start is the latched ctrl start bit.
	Start bool

	// Abort requests that a RUN phase be abandoned.
	Abort bool

	// Lines holds the input level of every line (after synchronization).
	Lines Mask

	// QueueReady is true when the result queue can accept a write.
	QueueReady bool
}

// Outputs are the signals the sequencer drives during one cycle.
type Outputs struct {
	LinesOE Mask // 1 = line driven by the core
	LinesO  Mask // level driven on lines with OE set
	ColsOE  Mask // 1 = column driven by the core
	ColsO   Mask // level driven on columns with OE set

	// WriteValid strobes WriteData into the result queue this cycle.
	WriteValid bool
	WriteData  uint32
	WriteLine  int

	// StartAck clears the ctrl start latch.
	StartAck bool
}

// RunResult summarizes the most recent RUN phase.
type RunResult struct {
	// Elapsed is the counter value when RUN ended.
	Elapsed uint32

	// TimedOut is true when RUN ended on the timeout bound rather than
	// on every line being high.
	TimedOut bool

	// Fired is the set of lines latched during the RUN phase.
	Fired Mask

	// Aborted is true when RUN was abandoned; no samples follow.
	Aborted bool
}

// Sequencer is the capture state machine.
//
// It owns the Counter and the LatchBank; nothing else writes them.
// Step is the transition function (State, Inputs) -> (State, Outputs)
// and must be called exactly once per clock edge.
//
// INVARIANTS:
//   - Exactly one queue write per SAVE cycle that is not stalled
//   - Writes within a batch are in ascending line order 0..N-1
//   - drain index is 0 whenever the state is not SAVE
type Sequencer struct {
	lines        int
	allLines     Mask
	allCols      Mask
	clearOnStart bool

	state   State
	counter *Counter
	bank    *LatchBank
	drain   int
	last    RunResult
}

// NewSequencer creates a sequencer in IDLE for the given configuration.
// The configuration is assumed valid.
func NewSequencer(cfg Config) *Sequencer {
	return &Sequencer{
		lines:        cfg.Lines,
		allLines:     FullMask(cfg.Lines),
		allCols:      FullMask(cfg.Columns),
		clearOnStart: cfg.ClearOnStart,
		state:        StateIdle,
		counter:      NewCounter(cfg.Timeout),
		bank:         NewLatchBank(cfg.Lines),
	}
}

// State returns the current phase.
func (s *Sequencer) State() State {
	return s.state
}

// Counter returns the current timing counter value.
func (s *Sequencer) Counter() uint32 {
	return s.counter.Value()
}

// Latch returns line a's latch cell.
func (s *Sequencer) Latch(a int) (uint32, bool) {
	return s.bank.Get(a)
}

// LastRun returns the summary of the most recent RUN phase.
func (s *Sequencer) LastRun() RunResult {
	return s.last
}

// Drive returns the pad outputs for the current state.
// They depend only on the state, so the board can evaluate the sensing
// network before the edge is applied.
func (s *Sequencer) Drive() Outputs {
	switch s.state {
	case StateIdle:
		return Outputs{
			LinesOE: s.allLines,
			LinesO:  0,
			ColsOE:  s.allCols,
			ColsO:   s.allCols,
		}
	case StateRun:
		return Outputs{
			LinesOE: 0,
			ColsOE:  s.allCols,
			ColsO:   s.allCols,
		}
	default:
		return Outputs{}
	}
}

// Step applies one clock edge and returns the outputs of the cycle that
// just ended.
func (s *Sequencer) Step(in Inputs) Outputs {
	out := s.Drive()

	switch s.state {
	case StateIdle:
		s.counter.Reset()
		if in.Start {
			out.StartAck = true
			if s.clearOnStart {
				s.bank.Clear()
			}
			s.last = RunResult{}
			s.state = StateRun
		}

	case StateRun:
		if in.Abort {
			s.last = RunResult{Elapsed: s.counter.Value(), Aborted: true}
			s.state = StateIdle
			break
		}
		// The counter is read once; every comparison this cycle uses it.
		now := s.counter.Value()
		s.bank.Observe(in.Lines, now)
		switch {
		case in.Lines&s.allLines == s.allLines:
			s.endRun(now, false)
		case s.counter.Expired():
			s.endRun(now, true)
		default:
			s.counter.Advance()
		}

	case StateSave:
		if !in.QueueReady {
			// Stall: hold the drain index until the host makes room.
			break
		}
		v, ok := s.bank.Take(s.drain)
		if !ok {
			// A line that never fired reports the saturated counter.
			v = s.counter.Value()
		}
		out.WriteValid = true
		out.WriteData = v
		out.WriteLine = s.drain
		if s.drain == s.lines-1 {
			s.drain = 0
			s.state = StateWait
		} else {
			s.drain++
		}

	case StateWait:
		out.StartAck = true
		s.state = StateIdle
	}

	return out
}

func (s *Sequencer) endRun(now uint32, timedOut bool) {
	s.last = RunResult{
		Elapsed:  now,
		TimedOut: timedOut,
		Fired:    s.bank.Latched(),
	}
	s.state = StateSave
}
