package scoped

import (
	"testing"

	"github.com/kolkov/activitytracker/internal/activity/record"
	"github.com/kolkov/activitytracker/internal/activity/tracker"
)

func newBoundTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	region := make([]byte, tracker.SizeForStackDepth(4))
	tr := tracker.Construct(region, "scoped-test")
	if !tr.IsValid() {
		t.Fatal("Construct() over a fresh region must be valid")
	}
	return tr
}

func TestGenericPushCloseBalancesDepth(t *testing.T) {
	tr := newBoundTracker(t)

	act := NewGeneric(tr, 0x100, 0, 1, 2)
	var mid tracker.Snapshot
	tr.Snapshot(&mid)
	if mid.ActivityStackDepth != 1 {
		t.Fatalf("depth while Generic is open = %d, want 1", mid.ActivityStackDepth)
	}

	act.Close()
	var after tracker.Snapshot
	tr.Snapshot(&after)
	if after.ActivityStackDepth != 0 {
		t.Fatalf("depth after Close() = %d, want 0", after.ActivityStackDepth)
	}
}

func TestGenericChangeActionAndInfo(t *testing.T) {
	tr := newBoundTracker(t)
	act := NewGeneric(tr, 0x100, 3, 1, 2)
	defer act.Close()

	act.ChangeActionAndInfo(9, 42, -1)

	var snap tracker.Snapshot
	tr.Snapshot(&snap)
	id, info := snap.ActivityStack[0].Data.Generic()
	if id != 42 || info != -1 {
		t.Fatalf("Generic() after ChangeActionAndInfo = (%d, %d), want (42, -1)", id, info)
	}
	if got := snap.ActivityStack[0].ActivityType.Action(); got != 9 {
		t.Fatalf("Action() after ChangeActionAndInfo = %d, want 9", got)
	}
}

func TestEveryCategoryWrapperPushesAndClosesCorrectly(t *testing.T) {
	cases := []struct {
		name string
		open func(tr *tracker.Tracker) interface{ Close() }
		want record.ActivityType
	}{
		{"task run", func(tr *tracker.Tracker) interface{ Close() } { return NewTaskRun(tr, 1, 7) }, record.CategoryTaskRun},
		{"lock acquire", func(tr *tracker.Tracker) interface{ Close() } { return NewLockAcquire(tr, 1, 7) }, record.CategoryLockAcquire},
		{"event wait", func(tr *tracker.Tracker) interface{ Close() } { return NewEventWait(tr, 1, 7) }, record.CategoryEventWait},
		{"thread join", func(tr *tracker.Tracker) interface{ Close() } { return NewThreadJoin(tr, 1, 7) }, record.CategoryThreadJoin},
		{"process wait", func(tr *tracker.Tracker) interface{ Close() } { return NewProcessWait(tr, 1, 7) }, record.CategoryProcessWait},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newBoundTracker(t)
			act := tc.open(tr)

			var snap tracker.Snapshot
			tr.Snapshot(&snap)
			if snap.ActivityStackDepth != 1 {
				t.Fatalf("depth while %s is open = %d, want 1", tc.name, snap.ActivityStackDepth)
			}
			if got := snap.ActivityStack[0].ActivityType.Category(); got != tc.want {
				t.Fatalf("category = %v, want %v", got, tc.want)
			}

			act.Close()
			tr.Snapshot(&snap)
			if snap.ActivityStackDepth != 0 {
				t.Fatalf("depth after closing %s = %d, want 0", tc.name, snap.ActivityStackDepth)
			}
		})
	}
}
