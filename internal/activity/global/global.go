// Package global implements the GlobalActivityTracker singleton: the
// per-process owner of a persistent allocator and an available-memory
// LIFO, handing every goroutine its own tracker.Tracker region on
// first use and recycling that region when the goroutine is done with
// it.
package global

import (
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/kolkov/activitytracker/internal/activity/allocator"
	"github.com/kolkov/activitytracker/internal/activity/gid"
	"github.com/kolkov/activitytracker/internal/activity/metrics"
	"github.com/kolkov/activitytracker/internal/activity/pool"
	"github.com/kolkov/activitytracker/internal/activity/tracker"
)

// DefaultMaxThreads is the available-memory LIFO's default capacity,
// chosen generously above any realistic live-goroutine count for a
// single process.
const DefaultMaxThreads = 16384

// DefaultStackDepth is the default number of Activity slots given to
// each new thread tracker region.
const DefaultStackDepth = 10

// ErrAlreadyInitialized is returned by every New* constructor once a
// process-wide instance already exists; only one GlobalTracker may be
// live at a time, matching the original's Set()-once singleton.
var ErrAlreadyInitialized = errors.New("global: activity tracker already initialized")

// Config customizes a GlobalTracker's construction.
type Config struct {
	// MaxThreads bounds the available-memory LIFO. Zero means
	// DefaultMaxThreads.
	MaxThreads int
	// StackDepth is the number of Activity slots per thread region.
	// Zero means DefaultStackDepth.
	StackDepth int
}

func (c Config) withDefaults() Config {
	if c.MaxThreads <= 0 {
		c.MaxThreads = DefaultMaxThreads
	}
	if c.StackDepth <= 0 {
		c.StackDepth = DefaultStackDepth
	}
	return c
}

// GlobalTracker is the process-wide owner of a persistent allocator and
// the available-memory LIFO that recycles thread regions between dying
// and newly-created goroutines.
type GlobalTracker struct {
	alloc      allocator.Allocator
	lifo       *pool.LIFO
	stackDepth int

	threadTrackerCount atomic.Int32
	perGoroutine        gid.Cache[*ManagedTracker]
}

var instance atomic.Pointer[GlobalTracker]

// Get returns the process-wide instance, or nil if none has been
// created yet.
func Get() *GlobalTracker { return instance.Load() }

// NewWithAllocator creates the process-wide instance backed by an
// already-open allocator. Exactly one instance may exist per process;
// subsequent calls to any New* function return ErrAlreadyInitialized
// until Shutdown is called.
func NewWithAllocator(alloc allocator.Allocator, cfg Config) (*GlobalTracker, error) {
	cfg = cfg.withDefaults()
	gt := &GlobalTracker{
		alloc:      alloc,
		lifo:       pool.New(cfg.MaxThreads),
		stackDepth: cfg.StackDepth,
	}
	if !instance.CompareAndSwap(nil, gt) {
		return nil, ErrAlreadyInitialized
	}
	return gt, nil
}

// NewWithFile creates the process-wide instance backed by a
// file-mapped persistent segment, for crash-survivable or
// cross-process use.
func NewWithFile(path string, size int64, name string, cfg Config) (*GlobalTracker, error) {
	fa, err := allocator.OpenFile(path, size, name, false)
	if err != nil {
		return nil, err
	}
	gt, err := NewWithAllocator(fa, cfg)
	if err != nil {
		fa.Close()
		return nil, err
	}
	return gt, nil
}

// NewWithLocalMemory creates the process-wide instance backed by a
// heap allocator, for tests and in-process-only diagnostics.
func NewWithLocalMemory(cfg Config) (*GlobalTracker, error) {
	return NewWithAllocator(allocator.NewLocal(), cfg)
}

// Shutdown tears down the process-wide instance. It assumes quiescence:
// callers must have released every ManagedTracker first; Shutdown does
// not itself wait for that.
func Shutdown() {
	gt := instance.Swap(nil)
	if gt == nil {
		return
	}
	if closer, ok := gt.alloc.(interface{ Close() error }); ok {
		closer.Close()
	}
}

// ManagedTracker pairs a bound tracker.Tracker with the allocator
// reference it occupies, so the region can be returned to the LIFO on
// Release. Callers obtain one via CreateTrackerForCurrentThread and
// should call Release when the owning goroutine is done with it.
//
// Go has no per-goroutine destructor hook, so Release is not automatic.
// As a backstop, runtime.AddCleanup is registered on the handle so the
// region still returns to the LIFO if the caller forgets and the handle
// is garbage collected -- this is a backstop, not the primary release
// path.
type ManagedTracker struct {
	*tracker.Tracker

	owner *GlobalTracker
	ref   allocator.Reference
	local []byte // non-nil when this region is heap-backed, not pool-recyclable
}

// CreateTrackerForCurrentThread returns the calling goroutine's
// tracker, creating one on first use for this goroutine. The returned
// handle is cached: subsequent calls from the same goroutine return the
// same *ManagedTracker until Release is called.
func (gt *GlobalTracker) CreateTrackerForCurrentThread(threadName string) *ManagedTracker {
	return gt.perGoroutine.LoadOrCreate(func() *ManagedTracker {
		mt := gt.acquireTracker(threadName)
		runtime.AddCleanup(mt, func(owner *GlobalTracker) {
			owner.release(mt)
		}, gt)
		return mt
	})
}

func (gt *GlobalTracker) acquireTracker(threadName string) *ManagedTracker {
	size := tracker.SizeForStackDepth(gt.stackDepth)

	if ref, ok := gt.lifo.Pop(); ok {
		aref := allocator.Reference(ref)
		if region, ok := gt.alloc.GetAsObject(aref, allocator.TypeIDFree); ok && uintptr(len(region)) >= size {
			gt.alloc.ChangeType(aref, allocator.TypeIDActivityTrackerInUse, allocator.TypeIDFree)
			t := tracker.Construct(region, threadName)
			gt.alloc.MakeIterable(aref)
			gt.threadTrackerCount.Add(1)
			return &ManagedTracker{Tracker: t, owner: gt, ref: aref}
		}
		// Region didn't fit or was already claimed; fall through to a
		// fresh allocation instead of losing the goroutine's tracker.
	}

	ref, err := gt.alloc.Allocate(uint32(size), allocator.TypeIDActivityTrackerInUse)
	if err != nil {
		metrics.AllocatorFallbacks.Add(1)
		region := make([]byte, size)
		t := tracker.Construct(region, threadName)
		gt.threadTrackerCount.Add(1)
		return &ManagedTracker{Tracker: t, owner: gt, ref: 0, local: region}
	}

	region, _ := gt.alloc.GetAsObject(ref, allocator.TypeIDActivityTrackerInUse)
	t := tracker.Construct(region, threadName)
	gt.alloc.MakeIterable(ref)
	gt.threadTrackerCount.Add(1)
	return &ManagedTracker{Tracker: t, owner: gt, ref: ref}
}

// Release returns mt's region to the available-memory LIFO (or simply
// drops it, for heap-backed fallback regions) and forgets the cached
// handle for the current goroutine. Calling Release twice, or from a
// goroutine other than the one that created mt, is a programmer error;
// Release does not attempt to detect it.
func (mt *ManagedTracker) Release() {
	mt.owner.perGoroutine.Delete()
	mt.owner.release(mt)
}

func (gt *GlobalTracker) release(mt *ManagedTracker) {
	if mt.local != nil {
		gt.threadTrackerCount.Add(-1)
		return
	}
	if mt.ref == 0 {
		return
	}
	// Zero the region so the next goroutine that pops it from the LIFO
	// finds an all-zero header and initializes it afresh.
	if region, ok := gt.alloc.GetAsObject(mt.ref, allocator.TypeIDActivityTrackerInUse); ok {
		clear(region)
	}
	gt.alloc.ChangeType(mt.ref, allocator.TypeIDFree, allocator.TypeIDActivityTrackerInUse)
	gt.lifo.Push(pool.Reference(mt.ref))
	gt.threadTrackerCount.Add(-1)
}

// ThreadTrackerCount returns the number of currently live thread
// tracker regions, for diagnostics and for callers checking quiescence
// before Shutdown (Shutdown itself does not check it).
func (gt *GlobalTracker) ThreadTrackerCount() int32 { return gt.threadTrackerCount.Load() }

// Walk visits a Snapshot of every currently iterable, in-use thread
// region, stopping early if visit returns false. Readers must tolerate
// a region in any state -- zero, in-use-valid, or in-use-invalid --
// because a writer can crash or recycle a region between MakeIterable
// and the moment Walk gets to it; a failed Snapshot for one region is
// simply skipped.
func (gt *GlobalTracker) Walk(visit func(tracker.Snapshot) bool) {
	it := gt.alloc.NewIterator()
	for {
		ref, typeID, ok := it.Next()
		if !ok {
			return
		}
		if typeID != allocator.TypeIDActivityTrackerInUse {
			continue
		}
		region, ok := gt.alloc.GetAsObject(ref, allocator.TypeIDActivityTrackerInUse)
		if !ok {
			continue
		}
		t := tracker.Bind(region)
		var snap tracker.Snapshot
		if !t.Snapshot(&snap) {
			continue
		}
		if !visit(snap) {
			return
		}
	}
}

// Go launches f in a new goroutine and guarantees its
// CreateTrackerForCurrentThread handle, if any, is released when f
// returns. Go has no per-goroutine destructor hook to do this
// automatically, so this helper is the primary release path; callers
// who launch goroutines by hand must call Release themselves.
func (gt *GlobalTracker) Go(f func()) {
	go func() {
		defer func() {
			if mt, ok := gt.perGoroutine.Load(); ok {
				mt.Release()
			}
		}()
		f()
	}()
}
