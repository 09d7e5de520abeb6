package harness

import "github.com/Acathla-fr/MutCapTouch/internal/record"

// Trace event kinds.
const (
	KindTransition = "transition"
	KindPush       = "push"
	KindEvent      = "event"
	KindBatch      = "batch"
)

func validKind(k string) bool {
	switch k {
	case KindTransition, KindPush, KindEvent, KindBatch:
		return true
	}
	return false
}

// TraceEvent is one observable device event, stamped with its clock cycle.
// Only the fields relevant to Type are set.
type TraceEvent struct {
	Type  string `json:"type"`
	Cycle uint64 `json:"cycle"`

	// transition
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// push
	Line  int    `json:"line,omitempty"`
	Value uint32 `json:"value,omitempty"`

	// batch
	Index      uint64 `json:"index,omitempty"`
	StartCycle uint64 `json:"start_cycle,omitempty"`
	Elapsed    uint32 `json:"elapsed,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	Aborted    bool   `json:"aborted,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// RunID is the run the batches were stored under.
	RunID string `json:"run_id"`

	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every device event in order.
	Trace []TraceEvent `json:"trace"`

	// Batches are the drained batches as read back from the store.
	Batches []record.Batch `json:"batches"`

	// Events is the number of queue events raised.
	Events uint64 `json:"events"`

	// Interrupts is the number of ISR invocations.
	Interrupts uint64 `json:"interrupts"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:    name,
		Pass:    true,
		Trace:   []TraceEvent{},
		Batches: []record.Batch{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns the number of trace events of the given kind.
func (r *Result) Count(kind string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Type == kind {
			n++
		}
	}
	return n
}
