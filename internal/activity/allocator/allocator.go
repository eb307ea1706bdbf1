// Package allocator implements the minimal persistent-memory-allocator
// contract a tracker region needs from its backing store: Allocate,
// GetAsObject, ChangeType, MakeIterable, GetAllocSize, and an iterator
// over "made iterable" records. Blocks are never freed and no internal
// free-list algorithm is attempted, so both implementations here are
// deliberately simple bump allocators.
package allocator

import "errors"

// Reference is an opaque handle that resolves to a memory base address
// and a type tag. The zero value means "no reference".
type Reference uint64

// ErrExhausted is returned by Allocate when a segment has no room left
// for the requested size. Callers (internal/activity/global) are
// expected to fall back to transient heap memory on this error.
var ErrExhausted = errors.New("allocator: segment exhausted")

// Type IDs used by this repo's only client, internal/activity/global.
// Values are arbitrary small sentinels.
const (
	// TypeIDFree marks a record as not currently holding a live
	// activity-tracker region. It is also the allocator's own sentinel
	// for "no type assigned yet".
	TypeIDFree uint32 = 0
	// TypeIDActivityTrackerInUse marks a record as a live per-thread
	// activity-tracker region, discoverable by iteration.
	TypeIDActivityTrackerInUse uint32 = 0x5A54
)

// Iterator walks records an allocator has been told are iterable via
// MakeIterable, in allocation order. It is not safe for concurrent use
// by multiple goroutines; each caller should obtain its own.
type Iterator interface {
	// Next returns the next iterable record, or ok == false when
	// exhausted.
	Next() (ref Reference, typeID uint32, ok bool)
}

// Allocator is the persistent-memory-allocator contract a tracker
// region's backing store must satisfy. Implementations must be safe for
// concurrent use by multiple goroutines; the allocator is responsible
// for its own internal locking.
type Allocator interface {
	// Allocate reserves size bytes tagged with typeID and returns a
	// Reference to them. The returned block's bytes are zeroed.
	Allocate(size uint32, typeID uint32) (Reference, error)

	// GetAsObject resolves ref to its backing bytes, but only if its
	// current type tag equals typeID; otherwise ok is false. Callers use
	// it both to validate and to narrow a reference to a concrete type
	// at once.
	GetAsObject(ref Reference, typeID uint32) (data []byte, ok bool)

	// ChangeType atomically swaps ref's type tag from oldType to
	// newType, returning whether the swap succeeded.
	ChangeType(ref Reference, newType, oldType uint32) bool

	// MakeIterable marks ref as discoverable by Iterator.Next. Until
	// called, a fresh allocation is invisible to iteration -- this is
	// what lets a writer finish initializing a region before another
	// process can observe it.
	MakeIterable(ref Reference)

	// GetAllocSize returns the byte size originally requested for ref.
	GetAllocSize(ref Reference) uint32

	// NewIterator returns a fresh iterator over every record this
	// allocator has ever made iterable, regardless of current type.
	NewIterator() Iterator
}

// align8 rounds n up to the next multiple of 8, the alignment every
// Activity and the Header as a whole require.
func align8(n uint32) uint32 {
	return (n + 7) &^ 7
}
