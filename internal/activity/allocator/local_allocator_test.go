package allocator

import "testing"

func TestLocalAllocatorAllocateAndGet(t *testing.T) {
	a := NewLocal()

	ref, err := a.Allocate(16, TypeIDActivityTrackerInUse)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if ref == 0 {
		t.Fatal("Allocate() returned the zero reference")
	}

	data, ok := a.GetAsObject(ref, TypeIDActivityTrackerInUse)
	if !ok {
		t.Fatal("GetAsObject() with the correct type should succeed")
	}
	if len(data) != 16 {
		t.Fatalf("len(data) = %d, want 16", len(data))
	}

	if _, ok := a.GetAsObject(ref, TypeIDFree); ok {
		t.Fatal("GetAsObject() with the wrong type should fail")
	}
}

func TestLocalAllocatorChangeType(t *testing.T) {
	a := NewLocal()
	ref, _ := a.Allocate(8, TypeIDActivityTrackerInUse)

	if !a.ChangeType(ref, TypeIDFree, TypeIDActivityTrackerInUse) {
		t.Fatal("ChangeType() with the correct old type should succeed")
	}
	if a.ChangeType(ref, TypeIDActivityTrackerInUse, TypeIDActivityTrackerInUse) {
		t.Fatal("ChangeType() with the wrong old type should fail")
	}
}

func TestLocalAllocatorIteratorOnlyVisitsIterable(t *testing.T) {
	a := NewLocal()
	ref1, _ := a.Allocate(8, TypeIDActivityTrackerInUse)
	ref2, _ := a.Allocate(8, TypeIDActivityTrackerInUse)

	a.MakeIterable(ref1)

	it := a.NewIterator()
	got, typeID, ok := it.Next()
	if !ok || got != ref1 || typeID != TypeIDActivityTrackerInUse {
		t.Fatalf("Next() = (%v, %v, %v), want (%v, %v, true)", got, typeID, ok, ref1, TypeIDActivityTrackerInUse)
	}
	if _, _, ok := it.Next(); ok {
		t.Fatal("iterator should not yield a record that was never made iterable")
	}
	_ = ref2
}

func TestLocalAllocatorGetAllocSize(t *testing.T) {
	a := NewLocal()
	ref, _ := a.Allocate(24, TypeIDActivityTrackerInUse)
	if got := a.GetAllocSize(ref); got != 24 {
		t.Fatalf("GetAllocSize() = %d, want 24", got)
	}
}
