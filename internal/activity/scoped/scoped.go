// Package scoped provides RAII-style wrappers over tracker.Tracker's
// Push/Change/Pop protocol, one per activity category, matching the
// original's ScopedActivity family. Go has no destructors, so each
// wrapper's Close method plays the role of the original's destructor;
// the idiomatic call shape is:
//
//	act := scoped.NewTaskRun(t, origin, sequenceID)
//	defer act.Close()
//
// A wrapper built over an unbound tracker (one that tracker.Construct
// rejected) degrades to a harmless no-op, the same "fails gracefully"
// contract tracker.Tracker itself provides. A nil *tracker.Tracker is
// not handled: the wrappers call its methods, which dereference it.
package scoped

import (
	"github.com/kolkov/activitytracker/internal/activity/assert"
	"github.com/kolkov/activitytracker/internal/activity/record"
	"github.com/kolkov/activitytracker/internal/activity/tracker"
)

// Generic wraps a CategoryGeneric activity, the only category whose
// action bits are meaningful and whose Data is free-form (id, info).
type Generic struct {
	t *tracker.Tracker
}

// NewGeneric pushes a CategoryGeneric activity with the given action,
// id, and info, returning a handle whose Close pops it.
func NewGeneric(t *tracker.Tracker, origin uintptr, action record.ActivityType, id uint32, info int32) Generic {
	if assert.Enabled {
		assert.That(action.Category() == 0, "scoped: Generic action must not set category bits")
	}
	typ := record.CategoryGeneric | action.Action()
	t.Push(origin, typ, record.ForGeneric(id, info))
	return Generic{t: t}
}

// ChangeAction updates the in-flight activity's action without
// changing its id/info payload.
func (g Generic) ChangeAction(action record.ActivityType) {
	if assert.Enabled {
		assert.That(action.Category() == 0, "scoped: Generic action must not set category bits")
	}
	typ := record.CategoryGeneric | action.Action()
	g.t.Change(typ, nil)
}

// ChangeInfo updates the in-flight activity's id/info payload without
// changing its action.
func (g Generic) ChangeInfo(id uint32, info int32) {
	data := record.ForGeneric(id, info)
	g.t.Change(record.ActNull, &data)
}

// ChangeActionAndInfo updates both the action and the id/info payload
// in one call.
func (g Generic) ChangeActionAndInfo(action record.ActivityType, id uint32, info int32) {
	if assert.Enabled {
		assert.That(action.Category() == 0, "scoped: Generic action must not set category bits")
	}
	typ := record.CategoryGeneric | action.Action()
	data := record.ForGeneric(id, info)
	g.t.Change(typ, &data)
}

// Close pops the activity this Generic pushed.
func (g Generic) Close() { g.t.Pop() }

// TaskRun wraps a CategoryTaskRun activity for the duration a queued
// task is running.
type TaskRun struct{ t *tracker.Tracker }

// NewTaskRun pushes a CategoryTaskRun activity identified by
// sequenceID.
func NewTaskRun(t *tracker.Tracker, origin uintptr, sequenceID uint64) TaskRun {
	t.Push(origin, record.CategoryTaskRun, record.ForTask(sequenceID))
	return TaskRun{t: t}
}

// Close pops the activity this TaskRun pushed.
func (r TaskRun) Close() { r.t.Pop() }

// LockAcquire wraps a CategoryLockAcquire activity for the duration a
// goroutine waits to acquire a lock. This is the one category exempt
// from the "caller must be the region's owning goroutine" precondition
// on Push/Pop, since the goroutine-identity primitive itself may need
// to push one while resolving who "the owner" even is.
type LockAcquire struct{ t *tracker.Tracker }

// NewLockAcquire pushes a CategoryLockAcquire activity identified by
// lockAddress, an opaque identifier for the lock being waited on.
func NewLockAcquire(t *tracker.Tracker, origin uintptr, lockAddress uint64) LockAcquire {
	t.Push(origin, record.CategoryLockAcquire, record.ForLock(lockAddress))
	return LockAcquire{t: t}
}

// Close pops the activity this LockAcquire pushed.
func (l LockAcquire) Close() { l.t.Pop() }

// EventWait wraps a CategoryEventWait activity for the duration a
// goroutine blocks on a condition variable or channel.
type EventWait struct{ t *tracker.Tracker }

// NewEventWait pushes a CategoryEventWait activity identified by
// eventAddress, an opaque identifier for the event being waited on.
func NewEventWait(t *tracker.Tracker, origin uintptr, eventAddress uint64) EventWait {
	t.Push(origin, record.CategoryEventWait, record.ForEvent(eventAddress))
	return EventWait{t: t}
}

// Close pops the activity this EventWait pushed.
func (e EventWait) Close() { e.t.Pop() }

// ThreadJoin wraps a CategoryThreadJoin activity for the duration a
// goroutine waits for another to finish.
type ThreadJoin struct{ t *tracker.Tracker }

// NewThreadJoin pushes a CategoryThreadJoin activity identified by the
// joined goroutine's thread reference.
func NewThreadJoin(t *tracker.Tracker, origin uintptr, threadRef uint64) ThreadJoin {
	t.Push(origin, record.CategoryThreadJoin, record.ForThread(threadRef))
	return ThreadJoin{t: t}
}

// Close pops the activity this ThreadJoin pushed.
func (j ThreadJoin) Close() { j.t.Pop() }

// ProcessWait wraps a CategoryProcessWait activity for the duration a
// goroutine waits for another process to exit.
type ProcessWait struct{ t *tracker.Tracker }

// NewProcessWait pushes a CategoryProcessWait activity identified by
// the waited-on process id.
func NewProcessWait(t *tracker.Tracker, origin uintptr, pid uint64) ProcessWait {
	t.Push(origin, record.CategoryProcessWait, record.ForProcess(pid))
	return ProcessWait{t: t}
}

// Close pops the activity this ProcessWait pushed.
func (w ProcessWait) Close() { w.t.Pop() }
