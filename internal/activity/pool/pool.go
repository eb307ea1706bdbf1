// Package pool implements the available-memory LIFO: a bounded
// lock-free stack of allocator references freed by dying goroutines and
// reused by new ones.
package pool

import (
	"runtime"
	"sync/atomic"

	"github.com/kolkov/activitytracker/internal/activity/metrics"
)

// Reference is an opaque allocator reference. The zero value means
// "empty slot"; a real reference is never zero (allocator.Reference
// shares this contract).
type Reference uint64

// LIFO is a fixed-capacity lock-free stack of Reference values, backed
// by an array of atomic words and an atomic count. The fixed-array
// scheme trades an unbounded-leak risk (a full LIFO just drops the
// reference) for O(1) worst-case push and pop.
type LIFO struct {
	slots []atomic.Uint64
	count atomic.Int32
}

// New creates a LIFO with room for capacity references.
func New(capacity int) *LIFO {
	return &LIFO{slots: make([]atomic.Uint64, capacity)}
}

// Push returns a reference to the pool for later reuse. If the pool is
// full the reference is dropped -- irrecoverable (that memory is never
// reused again) but harmless; the drop is recorded in metrics.LIFOFull.
func (p *LIFO) Push(ref Reference) {
	for {
		count := p.count.Load()
		if int(count) >= len(p.slots) {
			metrics.LIFOFull.Add(1)
			return
		}

		if !p.slots[count].CompareAndSwap(0, uint64(ref)) {
			runtime.Gosched()
			continue
		}

		if !p.count.CompareAndSwap(count, count+1) {
			p.slots[count].Store(0)
			continue
		}
		return
	}
}

// Pop removes and returns the most recently pushed reference, or reports
// ok == false if the pool is empty.
func (p *LIFO) Pop() (ref Reference, ok bool) {
	count := p.count.Load()
	for count > 0 {
		got := p.slots[count-1].Swap(0)
		if got == 0 {
			// Another goroutine claimed this slot but hasn't yet
			// decremented count. Give it a chance to finish.
			runtime.Gosched()
			count = p.count.Load()
			continue
		}

		if !p.count.CompareAndSwap(count, count-1) {
			// Lost the race to decrement; restore and retry with the
			// now-current count.
			p.slots[count-1].Store(got)
			count = p.count.Load()
			continue
		}
		return Reference(got), true
	}
	return 0, false
}

// Len returns the current count of available references. Intended for
// diagnostics and tests; not synchronized with any other operation.
func (p *LIFO) Len() int { return int(p.count.Load()) }

// Cap returns the pool's fixed capacity.
func (p *LIFO) Cap() int { return len(p.slots) }
