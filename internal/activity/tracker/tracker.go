// Package tracker implements ThreadActivityTracker: the owner of one
// header+stack region, exposing Push/Change/Pop for the owning goroutine
// and Snapshot for any reader.
package tracker

import (
	"math"
	"unsafe"

	"github.com/kolkov/activitytracker/internal/activity/assert"
	"github.com/kolkov/activitytracker/internal/activity/calltrace"
	"github.com/kolkov/activitytracker/internal/activity/gid"
	"github.com/kolkov/activitytracker/internal/activity/header"
	"github.com/kolkov/activitytracker/internal/activity/metrics"
	"github.com/kolkov/activitytracker/internal/activity/record"
)

// MinStackDepth is the minimum number of Activity slots a region must be
// able to hold for Construct to accept it.
const MinStackDepth = 2

// headerSize is the byte size of header.Header, used to locate the stack
// slots that follow it in a region.
const headerSize = unsafe.Sizeof(header.Header{})

// maxSnapshotAttempts bounds the torn-read retry loop in Snapshot.
const maxSnapshotAttempts = 10

// Tracker binds a header.Header and its following record.Activity slots
// to a caller-owned byte region and implements the push/change/pop/
// snapshot protocol over them. A Tracker with a nil or undersized region
// is "unbound": every method becomes a no-op and Snapshot returns false,
// so that production code driven by external inputs cannot crash on a
// corrupt or truncated region.
type Tracker struct {
	hdr   *header.Header
	stack []record.Activity
	slots uint32
	bound bool
}

// SizeForStackDepth returns the byte size of a region able to hold n
// Activity slots plus its header.
func SizeForStackDepth(n int) uintptr {
	return headerSize + uintptr(n)*record.Size
}

// Construct binds a Tracker to region, initializing its header if region
// is all zero, or validating an existing header otherwise. Construct
// never panics: on a null or undersized region, one whose computed
// slot count would overflow a uint32, or a non-zero region whose header
// fails IsValid, it returns an unbound Tracker (IsValid() == false,
// every operation a no-op).
func Construct(region []byte, threadName string) *Tracker {
	t := &Tracker{}
	if region == nil ||
		uintptr(len(region)) < SizeForStackDepth(MinStackDepth) {
		return t
	}

	slotCount := (uint64(len(region)) - uint64(headerSize)) / uint64(record.Size)
	if slotCount > math.MaxUint32 {
		return t
	}

	t.hdr = (*header.Header)(unsafe.Pointer(&region[0]))
	t.stack = unsafe.Slice((*record.Activity)(unsafe.Pointer(&region[headerSize])), int(slotCount))
	t.slots = uint32(slotCount)
	t.bound = true

	if t.hdr.Cookie == 0 {
		t.initialize(threadName)
	} else if !t.IsValid() {
		return &Tracker{}
	}
	return t
}

// Bind attaches a Tracker to region without writing to it, for callers
// that only read a region, such as internal/activity/reader looking at
// a segment written by another (possibly crashed) process. Unlike
// Construct, Bind never initializes an all-zero region. Snapshot on the
// result still stores to the header's tear-detection word, so region
// must be writable memory; reader therefore binds a private copy of
// each region rather than its read-only mapping.
func Bind(region []byte) *Tracker {
	t := &Tracker{}
	if region == nil ||
		uintptr(len(region)) < SizeForStackDepth(MinStackDepth) {
		return t
	}

	slotCount := (uint64(len(region)) - uint64(headerSize)) / uint64(record.Size)
	if slotCount > math.MaxUint32 {
		return t
	}

	t.hdr = (*header.Header)(unsafe.Pointer(&region[0]))
	t.stack = unsafe.Slice((*record.Activity)(unsafe.Pointer(&region[headerSize])), int(slotCount))
	t.slots = uint32(slotCount)
	t.bound = true
	return t
}

// initialize writes a fresh header in a fixed order: thread ref,
// start time/ticks, stack slots, thread name, cookie (plain store), and
// finally process id via a release-ordered atomic store so that any
// observer reading it non-zero sees every field above already
// initialized.
func (t *Tracker) initialize(threadName string) {
	t.hdr.ThreadRef = gid.Current()
	t.hdr.StartTime = nowWall()
	t.hdr.StartTicks = nowTicks()
	t.hdr.StackSlots = t.slots
	t.hdr.ThreadName = header.NameBytes(threadName)
	t.hdr.Cookie = header.Cookie
	t.hdr.ProcessID.Store(currentProcessID())
}

// IsValid reports whether the bound region currently holds a fully
// initialized, recognized-version header.
func (t *Tracker) IsValid() bool {
	if !t.bound {
		return false
	}
	h := t.hdr
	return h.Cookie == header.Cookie &&
		h.ProcessID.Load() != 0 &&
		h.ThreadRef != 0 &&
		h.StartTime != 0 &&
		h.StartTicks != 0 &&
		h.StackSlots == t.slots &&
		h.ThreadName[header.NameSize-1] == 0
}

// Push records the start of a new activity at the top of the stack. It
// is wait-free: at most one relaxed load, a handful of plain stores, and
// one release store.
//
// Precondition: the caller is the region's owning goroutine, UNLESS type
// is CategoryLockAcquire -- a re-entrant exception needed because the
// goroutine-identity primitive on the assertion path may itself need to
// push a CategoryLockAcquire activity.
func (t *Tracker) Push(origin uintptr, typ record.ActivityType, data record.Data) {
	if !t.bound {
		return
	}
	if assert.Enabled && typ.Category() != record.CategoryLockAcquire {
		assert.That(gid.Current() == t.hdr.ThreadRef, "tracker: Push called from non-owner goroutine")
	}

	depth := t.hdr.CurrentDepth.Load()
	if depth >= t.slots {
		// Overflow: the frame is counted but not stored.
		t.hdr.CurrentDepth.Store(depth + 1)
		metrics.DepthOverflows.Add(1)
		return
	}

	act := &t.stack[depth]
	act.TimeInternal = nowTicks()
	act.OriginAddress = origin
	act.ActivityType = typ
	act.Data = data
	act.CallStack = calltrace.Capture(2)

	// Publishes the slot written above; must be release-ordered.
	t.hdr.CurrentDepth.Store(depth + 1)
}

// Change mutates the top-of-stack activity in place. A nil typ pointer
// semantics is expressed by passing record.ActNull for typ (meaning
// "don't change the category/action") and a nil data for "don't change
// the payload" -- Go has no by-address sentinel the way the original's
// kNullActivityData comparison does, so Change takes *record.Data and
// treats nil as "no update".
//
// Precondition: depth > 0, and if typ is not ActNull its category must
// match the existing top activity's category.
func (t *Tracker) Change(typ record.ActivityType, data *record.Data) {
	if !t.bound {
		return
	}
	if assert.Enabled {
		assert.That(gid.Current() == t.hdr.ThreadRef, "tracker: Change called from non-owner goroutine")
	}

	depth := t.hdr.CurrentDepth.Load()
	if assert.Enabled {
		assert.That(depth > 0, "tracker: Change with empty stack")
	}
	if depth == 0 || depth > t.slots {
		return
	}

	act := &t.stack[depth-1]
	if typ != record.ActNull {
		if assert.Enabled {
			assert.That(typ.Category() == act.ActivityType.Category(), "tracker: Change category mismatch")
		}
		act.ActivityType = typ
	}
	if data != nil {
		act.Data = *data
	}
}

// Pop closes out the top-of-stack activity.
//
// Precondition: depth > 0, and the caller is the region's owning
// goroutine UNLESS the closing activity's category is
// CategoryLockAcquire (same re-entrant exception as Push).
func (t *Tracker) Pop() {
	if !t.bound {
		return
	}

	// fetch_sub: Add(-1) returns the new value, so the pre-decrement depth
	// (the value before this decrement) is newDepth+1.
	newDepth := t.hdr.CurrentDepth.Add(^uint32(0))
	depth := newDepth + 1

	if assert.Enabled {
		lockPop := depth-1 < uint32(len(t.stack)) && t.stack[depth-1].ActivityType.Category() == record.CategoryLockAcquire
		assert.That(depth > 0, "tracker: Pop with empty stack")
		assert.That(lockPop || gid.Current() == t.hdr.ThreadRef, "tracker: Pop called from non-owner goroutine")
	}

	// Informs any in-progress Snapshot that it may have observed torn
	// data; must happen after the depth decrement above, release-ordered.
	t.hdr.StackUnchanged.Store(0)
}

// Snapshot copies an activity stack's current visible contents; see
// snapshot.go for the type and retry loop.
