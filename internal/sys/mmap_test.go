package sys

import (
	"path/filepath"
	"testing"
)

func TestMapFileRejectsNonPositiveSize(t *testing.T) {
	if _, err := MapFile(filepath.Join(t.TempDir(), "x"), 0, false); err != ErrInvalidSize {
		t.Fatalf("MapFile(size=0) error = %v, want ErrInvalidSize", err)
	}
	if _, err := MapFile(filepath.Join(t.TempDir(), "x"), -1, false); err != ErrInvalidSize {
		t.Fatalf("MapFile(size=-1) error = %v, want ErrInvalidSize", err)
	}
}

func TestMapFileCreatesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapped.dat")

	m, err := MapFile(path, 4096, false)
	if err != nil {
		t.Fatalf("MapFile() error = %v", err)
	}
	if len(m.Data) != 4096 {
		t.Fatalf("len(Data) = %d, want 4096", len(m.Data))
	}
	m.Data[0] = 0x42
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := MapFile(path, 4096, true)
	if err != nil {
		t.Fatalf("reopen MapFile(readOnly) error = %v", err)
	}
	defer reopened.Close()
	if reopened.Data[0] != 0x42 {
		t.Fatalf("Data[0] after reopen = %#x, want 0x42", reopened.Data[0])
	}
}

func TestMappingCloseIsIdempotent(t *testing.T) {
	m, err := MapFile(filepath.Join(t.TempDir(), "once.dat"), 1024, false)
	if err != nil {
		t.Fatalf("MapFile() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close() error = %v, want nil (idempotent)", err)
	}
}
