// Package config loads capture device configurations written in CUE.
//
// A configuration file declares a single "device" struct:
//
//	package captouch
//
//	device: {
//		lines:   4
//		columns: 4
//		timeout: 1000
//	}
//
// The embedded schema (schema.cue) supplies defaults and bounds; the
// decoded value is then checked again by capture.Config.Validate, which
// also enforces cross-field rules such as fifo_depth >= lines.
package config
