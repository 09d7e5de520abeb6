package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the hashed layout to change later.
const (
	DomainBatch  = "captouch/batch/v1"
	DomainConfig = "captouch/config/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BatchID computes the content-addressed ID of a batch. The ID field of b
// is ignored.
func BatchID(b Batch) (string, error) {
	obj := Object{
		"run_id":      b.RunID,
		"seq":         b.Seq,
		"start_cycle": b.StartCycle,
		"end_cycle":   b.EndCycle,
		"elapsed":     b.Elapsed,
		"timed_out":   b.TimedOut,
		"samples":     b.Samples,
	}
	if b.Samples == nil {
		obj["samples"] = []uint32{}
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("BatchID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBatch, canonical), nil
}

// ConfigObject is the canonical form of a configuration, with defaults
// resolved.
func ConfigObject(cfg capture.Config) Object {
	bits := cfg.CounterBits
	if bits == 0 {
		bits = capture.DefaultCounterBits
	}
	return Object{
		"lines":          cfg.Lines,
		"columns":        cfg.Columns,
		"timeout":        cfg.Timeout,
		"fifo_depth":     cfg.QueueDepth(),
		"sync_stages":    cfg.SyncStages,
		"clear_on_start": cfg.ClearOnStart,
		"counter_bits":   bits,
	}
}

// ConfigHash hashes the parameters that change what a batch measures.
// Equal configurations always hash equal, so runs can be grouped by it.
func ConfigHash(cfg capture.Config) (string, error) {
	canonical, err := MarshalCanonical(ConfigObject(cfg))
	if err != nil {
		return "", fmt.Errorf("ConfigHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainConfig, canonical), nil
}

// MustBatchID is like BatchID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBatchID(b Batch) string {
	id, err := BatchID(b)
	if err != nil {
		panic(err)
	}
	return id
}
