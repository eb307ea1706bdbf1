// Package metrics holds process-wide counters for conditions that are
// counted rather than surfaced as errors: depth overflow, allocator
// exhaustion, a full available-memory LIFO, and torn-snapshot retries.
//
// A plain struct of counters read via a Snapshot method, rather than a
// metrics framework for four counters.
package metrics

import "sync/atomic"

// DepthOverflows counts Tracker.Push calls that exceeded stack_slots.
var DepthOverflows atomic.Uint64

// AllocatorFallbacks counts times the persistent allocator was exhausted
// and a tracker fell back to transient heap memory.
var AllocatorFallbacks atomic.Uint64

// LIFOFull counts times a dying goroutine's region reference was dropped
// because the available-memory LIFO was full.
var LIFOFull atomic.Uint64

// TornSnapshotRetries counts Tracker.Snapshot retries caused by a
// concurrent pop or region recycle.
var TornSnapshotRetries atomic.Uint64

// Stats is a point-in-time read of every counter.
type Stats struct {
	DepthOverflows      uint64
	AllocatorFallbacks  uint64
	LIFOFull            uint64
	TornSnapshotRetries uint64
}

// Snapshot returns the current value of every counter.
func Snapshot() Stats {
	return Stats{
		DepthOverflows:      DepthOverflows.Load(),
		AllocatorFallbacks:  AllocatorFallbacks.Load(),
		LIFOFull:            LIFOFull.Load(),
		TornSnapshotRetries: TornSnapshotRetries.Load(),
	}
}

// Reset zeroes every counter. Intended for test setup only.
func Reset() {
	DepthOverflows.Store(0)
	AllocatorFallbacks.Store(0)
	LIFOFull.Store(0)
	TornSnapshotRetries.Store(0)
}
