// Package sys wraps the platform mmap call behind a single MapFile
// function, isolating platform differences into build-tag-selected
// files the same way goroutine-id extraction is isolated behind its own
// per-platform files. internal/activity's file-backed allocator is the
// only caller; every other package in this module only ever sees a
// []byte.
package sys

import "errors"

// ErrInvalidSize is returned when MapFile is asked to map zero or a
// negative number of bytes.
var ErrInvalidSize = errors.New("sys: size must be positive")

// Mapping is an open memory-mapped file. Data is valid until Close
// returns; using it afterward is undefined behavior, exactly as with any
// mmap'd view.
type Mapping struct {
	Data []byte

	unmap func() error
}

// Close unmaps the region and closes the underlying file descriptor.
func (m *Mapping) Close() error {
	if m.unmap == nil {
		return nil
	}
	err := m.unmap()
	m.unmap = nil
	m.Data = nil
	return err
}

// MapFile opens path (creating it if absent), extends it to size bytes
// if it is smaller, and returns a read-write memory-mapped view of the
// first size bytes. When readOnly is true, the file is opened read-only
// and never extended -- used by internal/activity/reader to map a
// segment a writer (possibly a crashed one) produced.
func MapFile(path string, size int64, readOnly bool) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return mapFile(path, size, readOnly)
}
