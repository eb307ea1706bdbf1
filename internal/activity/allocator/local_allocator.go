package allocator

import "sync"

// LocalAllocator is a heap-backed Allocator for process-local use:
// tests, the fallback path when a persistent segment is exhausted, and
// any caller that never needs cross-process visibility. References are
// 1-based indices into an internal slice; index 0 stays reserved so the
// zero Reference remains invalid.
type LocalAllocator struct {
	mu      sync.Mutex
	records []*localRecord
}

type localRecord struct {
	typeID   uint32
	size     uint32
	iterable bool
	data     []byte
}

// NewLocal returns an empty LocalAllocator.
func NewLocal() *LocalAllocator {
	return &LocalAllocator{records: make([]*localRecord, 1, 64)}
}

func (a *LocalAllocator) Allocate(size uint32, typeID uint32) (Reference, error) {
	rec := &localRecord{typeID: typeID, size: size, data: make([]byte, align8(size))}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return Reference(len(a.records) - 1), nil
}

func (a *LocalAllocator) GetAsObject(ref Reference, typeID uint32) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.recordLocked(ref)
	if rec == nil || rec.typeID != typeID {
		return nil, false
	}
	return rec.data[:rec.size], true
}

func (a *LocalAllocator) ChangeType(ref Reference, newType, oldType uint32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.recordLocked(ref)
	if rec == nil || rec.typeID != oldType {
		return false
	}
	rec.typeID = newType
	return true
}

func (a *LocalAllocator) MakeIterable(ref Reference) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rec := a.recordLocked(ref); rec != nil {
		rec.iterable = true
	}
}

func (a *LocalAllocator) GetAllocSize(ref Reference) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if rec := a.recordLocked(ref); rec != nil {
		return rec.size
	}
	return 0
}

func (a *LocalAllocator) NewIterator() Iterator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &localIterator{owner: a, next: 1}
}

func (a *LocalAllocator) recordLocked(ref Reference) *localRecord {
	idx := int(ref)
	if idx <= 0 || idx >= len(a.records) {
		return nil
	}
	return a.records[idx]
}

type localIterator struct {
	owner *LocalAllocator
	next  int
}

func (it *localIterator) Next() (Reference, uint32, bool) {
	it.owner.mu.Lock()
	defer it.owner.mu.Unlock()
	for it.next < len(it.owner.records) {
		idx := it.next
		it.next++
		rec := it.owner.records[idx]
		if rec != nil && rec.iterable {
			return Reference(idx), rec.typeID, true
		}
	}
	return 0, 0, false
}
