package allocator

import (
	"path/filepath"
	"testing"
)

func TestFileAllocatorAllocateAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.dat")

	fa, err := OpenFile(path, 4096, "test-segment", false)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer fa.Close()

	ref, err := fa.Allocate(32, TypeIDActivityTrackerInUse)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	data, ok := fa.GetAsObject(ref, TypeIDActivityTrackerInUse)
	if !ok {
		t.Fatal("GetAsObject() with the correct type should succeed")
	}
	if len(data) != 32 {
		t.Fatalf("len(data) = %d, want 32", len(data))
	}
	for _, b := range data {
		if b != 0 {
			t.Fatal("freshly allocated bytes must be zeroed")
		}
	}
}

func TestFileAllocatorPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.dat")

	fa, err := OpenFile(path, 4096, "persist", false)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	ref, _ := fa.Allocate(16, TypeIDActivityTrackerInUse)
	fa.MakeIterable(ref)
	if err := fa.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenFile(path, 4096, "persist", false)
	if err != nil {
		t.Fatalf("reopen OpenFile() error = %v", err)
	}
	defer reopened.Close()

	if got := reopened.Name(); got != "persist" {
		t.Fatalf("Name() after reopen = %q, want %q", got, "persist")
	}

	it := reopened.NewIterator()
	_, typeID, ok := it.Next()
	if !ok || typeID != TypeIDActivityTrackerInUse {
		t.Fatalf("iterator after reopen = (%v, %v), want the record allocated before close", typeID, ok)
	}
}

func TestFileAllocatorRejectsCorruptHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.dat")

	fa, err := OpenFile(path, 4096, "will-be-corrupted", false)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	fa.cookieWord().Store(0xBADC0DE)
	fa.Close()

	if _, err := OpenFile(path, 4096, "will-be-corrupted", true); err != ErrBadCookie {
		t.Fatalf("OpenFile() over a corrupt cookie = %v, want ErrBadCookie", err)
	}
}

func TestFileAllocatorReadOnlyOnUninitializedFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "never-created.dat")

	// A read-only open of a file that was created (so it exists) but never
	// initialized by a writer must fail with ErrBadCookie, not silently
	// treat an all-zero header as valid.
	writer, err := OpenFile(path, 4096, "n/a", false)
	if err != nil {
		t.Fatalf("OpenFile(readOnly=false) error = %v", err)
	}
	writer.Close()

	// Reset the cookie to simulate a segment that was created but whose
	// header write never completed.
	raw, err := OpenFile(path, 4096, "n/a", false)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	raw.cookieWord().Store(0)
	raw.Close()

	if _, err := OpenFile(path, 4096, "n/a", true); err != ErrBadCookie {
		t.Fatalf("OpenFile(readOnly=true) over an uninitialized header = %v, want ErrBadCookie", err)
	}
}

func TestFileAllocatorAllocateExhaustsSegment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.dat")

	fa, err := OpenFile(path, fileHeaderSize+recordHeaderSize+8, "tiny", false)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer fa.Close()

	if _, err := fa.Allocate(8, TypeIDActivityTrackerInUse); err != nil {
		t.Fatalf("first Allocate() should fit exactly, got error: %v", err)
	}
	if _, err := fa.Allocate(8, TypeIDActivityTrackerInUse); err != ErrExhausted {
		t.Fatalf("second Allocate() error = %v, want ErrExhausted", err)
	}
}
