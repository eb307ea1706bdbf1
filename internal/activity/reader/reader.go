// Package reader supports post-mortem and cross-process inspection of a
// persisted activity-tracker file: mapping it read-only and walking its
// live thread regions without any cooperation from (or even liveness
// of) the process that wrote it.
package reader

import (
	"github.com/kolkov/activitytracker/internal/activity/allocator"
	"github.com/kolkov/activitytracker/internal/activity/tracker"
)

// Reader holds a read-only mapping of a persisted segment.
type Reader struct {
	alloc *allocator.FileAllocator
}

// OpenFile maps path read-only and returns a Reader over it. size must
// match (or be no larger than) the size the writer created the file
// with.
func OpenFile(path string, size int64, name string) (*Reader, error) {
	fa, err := allocator.OpenFile(path, size, name, true)
	if err != nil {
		return nil, err
	}
	return &Reader{alloc: fa}, nil
}

// Close unmaps the underlying file.
func (r *Reader) Close() error { return r.alloc.Close() }

// Walk visits a Snapshot of every iterable, in-use thread region found
// in the segment, stopping early if visit returns false. A region may
// be in any of zero, in-use-valid, or in-use-invalid state -- including
// mid-write by a writer that has since crashed -- and a failed Snapshot
// for one region is simply skipped rather than treated as fatal to the
// whole walk.
//
// The mapping is read-only and Snapshot stores to the region's
// tear-detection word, so each region is first copied out of the
// mapping and Snapshot runs over that private copy. The copy itself is
// not synchronized with a live writer: a pop that lands while the bytes
// are being copied is not detected by the tear-detection word.
func (r *Reader) Walk(visit func(tracker.Snapshot) bool) {
	it := r.alloc.NewIterator()
	for {
		ref, typeID, ok := it.Next()
		if !ok {
			return
		}
		if typeID != allocator.TypeIDActivityTrackerInUse {
			continue
		}
		region, ok := r.alloc.GetAsObject(ref, allocator.TypeIDActivityTrackerInUse)
		if !ok {
			continue
		}
		region = append([]byte(nil), region...)
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
