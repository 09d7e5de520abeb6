// Package store provides SQLite-backed storage for capture history.
//
// Tables:
//   - runs: one row per capture session, with its device configuration
//   - batches: one row per drained batch, keyed by content-addressed ID
//   - samples: one row per line per batch
//
// Writes are idempotent. A batch written twice is stored once, because its
// ID is derived from its content (see internal/record).
//
// Ordering never uses timestamps. Runs come back in insertion order and
// batches in sequence order, so reading a run is deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
