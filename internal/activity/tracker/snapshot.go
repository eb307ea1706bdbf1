package tracker

import (
	"github.com/kolkov/activitytracker/internal/activity/header"
	"github.com/kolkov/activitytracker/internal/activity/metrics"
	"github.com/kolkov/activitytracker/internal/activity/record"
)

// Snapshot is a consistent copy of a region's identity, depth, and
// visible stack slots as of some instant between Tracker.Snapshot's
// start and end.
type Snapshot struct {
	ActivityStack      []record.Activity
	ActivityStackDepth uint32
	ThreadName         string
	ThreadID           int64
	ProcessID          int64
}

// snapshotAfterCopy, when non-nil, runs once per attempt immediately
// after the stack copy below and before the torn-read check. Production
// code never sets it; tests use it to deterministically land a
// concurrent Pop or region recycle inside the window Snapshot is meant
// to detect.
var snapshotAfterCopy func()

// Snapshot attempts to obtain a consistent copy of the tracker's stack,
// retrying up to 10 times on torn reads or a recycled region. It is
// obstruction-free and callable from any goroutine in any process that
// can see the region's memory.
func (t *Tracker) Snapshot(out *Snapshot) bool {
	if !t.IsValid() {
		return false
	}
	if cap(out.ActivityStack) < int(t.slots) {
		out.ActivityStack = make([]record.Activity, t.slots)
	}

	for attempt := 0; attempt < maxSnapshotAttempts; attempt++ {
		startingPID := t.hdr.ProcessID.Load()
		startingTID := t.hdr.ThreadRef

		// Must precede the depth load and copy below; seq_cst per the
		// ordering table, to totally order with the writer's Pop release.
		t.hdr.StackUnchanged.Store(1)

		depth := t.hdr.CurrentDepth.Load()
		count := depth
		if count > t.slots {
			count = t.slots
		}
		out.ActivityStack = out.ActivityStack[:count]
		if count > 0 {
			copy(out.ActivityStack, t.stack[:count])
		}

		if snapshotAfterCopy != nil {
			snapshotAfterCopy()
		}

		if t.hdr.StackUnchanged.Load() == 0 {
			// The writer popped mid-copy; retry.
			metrics.TornSnapshotRetries.Add(1)
			continue
		}

		out.ActivityStackDepth = depth
		out.ThreadName = header.NameString(t.hdr.ThreadName)
		out.ThreadID = t.hdr.ThreadRef
		out.ProcessID = t.hdr.ProcessID.Load()

		if out.ProcessID != startingPID || out.ThreadID != startingTID {
			// The region was recycled by a different thread mid-snapshot.
			metrics.TornSnapshotRetries.Add(1)
			continue
		}
		if !t.IsValid() {
			return false
		}

		startTime := t.hdr.StartTime
		startTicks := t.hdr.StartTicks
		for i := range out.ActivityStack {
			out.ActivityStack[i].TimeInternal = ticksToWall(startTime, startTicks, out.ActivityStack[i].TimeInternal)
		}
		return true
	}
	return false
}
