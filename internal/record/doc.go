// Package record defines the persisted form of capture runs and batches.
//
// A run is one session of batches on one device configuration. It gets a
// time-sortable UUIDv7 identifier. A batch is identified by its content:
// the run it belongs to, its position in the run and the samples it
// produced, hashed over canonical JSON with a versioned domain prefix.
// Recomputing a batch ID from stored fields always yields the same value,
// so duplicate writes are detected by primary key.
//
// Canonical JSON here follows RFC 8785 for the value types a record can
// hold: strings (NFC normalized), integers, booleans, arrays and objects.
// Floats and null are rejected.
package record
