// Package harness runs capture scenarios against a simulated board.
//
// A scenario fixes a device configuration and a sequence of batches, each
// with per-line crossing delays. The harness drives the batches through the
// host driver exactly as firmware would, records every sequencer
// transition, queue push and event as a trace, persists the drained
// batches to a fresh in-memory store and reads them back, then evaluates
// the scenario's expectations.
//
// # Scenario Format
//
//	name: timeout_example
//	description: "A line that never crosses reports the timeout"
//	device:
//	  lines: 4
//	  columns: 4
//	  timeout: 10
//	batches:
//	  - delays: [3, 7, null, 9]
//	    expect:
//	      samples: [3, 7, 10, 9]
//	      timed_out: true
//	assertions:
//	  - type: event_count
//	    count: 1
//
// A null delay is a line that never crosses. A batch with abort_after set
// is aborted after that many RUN cycles and produces no samples.
//
// # Golden Traces
//
// RunWithGolden compares the trace with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
