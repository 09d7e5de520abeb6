// Package bench wires a capture.Device to a simulated sensing network and
// a host driver.
//
// The capture core never touches pads directly. On hardware, tri-state
// buffers and a two-flop synchronizer sit between the pads and the core,
// and firmware on the SoC CPU programs the registers. This package models
// those collaborators so batches can be run end to end:
//
//   - Network: lines that discharge while driven low and cross threshold a
//     fixed number of cycles after release
//   - Synchronizer: optional flip-flop chain on the line inputs
//   - Board: the clock; one Tick evaluates pads, synchronizer and core
//   - Host: the firmware routine that starts a capture and drains it
package bench
