package allocator

import (
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/kolkov/activitytracker/internal/sys"
)

// fileCookie marks the start of a segment this allocator owns, the same
// role header.Cookie plays for a single tracker region but one level up:
// it guards the whole mapped file, not one thread's slice of it.
const fileCookie uint64 = 0xA97F4D2B8116C3E1

// fileHeaderSize is the fixed segment header: cookie (0-8), segment size
// (8-16), free offset (16-24), a caller-supplied id (24-32), name length
// (32-36), 4 bytes padding, then a 56-byte name field (40-96).
const fileHeaderSize = 96

// ErrBadCookie is returned by OpenFile when an existing file's header
// does not carry fileCookie, meaning it was never initialized by this
// package or is corrupt.
var ErrBadCookie = errors.New("allocator: file has no valid header")

// recordHeaderSize is the fixed prefix written before every record's
// payload: typeID, size, iterable, and 4 bytes of padding to keep the
// payload 8-byte aligned.
const recordHeaderSize = 16

// FileAllocator is an Allocator backed by a single memory-mapped file.
// It never frees: Allocate bump-allocates from a monotonic FreeOffset,
// and reused regions flow back through internal/activity/pool instead.
// Iteration is a linear scan of the record stream -- every record
// carries its own size, so no side index is needed, mirroring how the
// original's PersistentMemoryAllocator::Iterator walks allocated blocks
// by following each block's embedded length.
type FileAllocator struct {
	mapping *sys.Mapping
	buf     []byte

	// mu serializes Allocate; persistent allocation only ever happens
	// from the process that owns the segment, so this is a convenience
	// lock, not a cross-process one.
	mu sync.Mutex
}

// OpenFile opens or creates a file-backed segment of the given size and
// name. A freshly created segment gets its header initialized with
// fileCookie last, after every other field, so a concurrent reader can
// use the cookie's presence as a "safe to read the rest" signal.
func OpenFile(path string, size int64, name string, readOnly bool) (*FileAllocator, error) {
	m, err := sys.MapFile(path, size, readOnly)
	if err != nil {
		return nil, err
	}
	if uintptr(len(m.Data)) < fileHeaderSize {
		m.Close()
		return nil, ErrBadCookie
	}

	fa := &FileAllocator{mapping: m, buf: m.Data}

	cookie := binary.LittleEndian.Uint64(fa.buf[0:8])
	if cookie == 0 {
		if readOnly {
			m.Close()
			return nil, ErrBadCookie
		}
		fa.initialize(size, name)
		return fa, nil
	}
	if cookie != fileCookie {
		m.Close()
		return nil, ErrBadCookie
	}
	return fa, nil
}

func (fa *FileAllocator) initialize(size int64, name string) {
	binary.LittleEndian.PutUint64(fa.buf[8:16], uint64(size))
	nameBytes := []byte(name)
	if len(nameBytes) > 56 {
		nameBytes = nameBytes[:56]
	}
	binary.LittleEndian.PutUint32(fa.buf[32:36], uint32(len(nameBytes)))
	copy(fa.buf[40:40+len(nameBytes)], nameBytes)
	fa.freeOffset().Store(fileHeaderSize)
	fa.cookieWord().Store(fileCookie)
}

// Close unmaps the underlying file.
func (fa *FileAllocator) Close() error { return fa.mapping.Close() }

func (fa *FileAllocator) cookieWord() *atomic.Uint64 { return atomicU64At(fa.buf, 0) }
func (fa *FileAllocator) freeOffset() *atomic.Uint64 { return atomicU64At(fa.buf, 16) }

// SetID stores a caller-supplied identifier (e.g. a process id) in the
// segment header. Not interpreted by this package.
func (fa *FileAllocator) SetID(id uint64) { atomicU64At(fa.buf, 24).Store(id) }

// ID returns the value last stored by SetID, or zero if never set.
func (fa *FileAllocator) ID() uint64 { return atomicU64At(fa.buf, 24).Load() }

// Name returns the segment name recorded at initialization time.
func (fa *FileAllocator) Name() string {
	n := binary.LittleEndian.Uint32(fa.buf[32:36])
	if n > 56 {
		n = 56
	}
	return string(fa.buf[40 : 40+n])
}

func (fa *FileAllocator) Allocate(size uint32, typeID uint32) (Reference, error) {
	need := recordHeaderSize + align8(size)

	fa.mu.Lock()
	defer fa.mu.Unlock()

	off := fa.freeOffset().Load()
	if off+uint64(need) > uint64(len(fa.buf)) {
		return 0, ErrExhausted
	}
	fa.freeOffset().Store(off + uint64(need))

	base := uint32(off)
	for i := base + recordHeaderSize; i < base+need; i++ {
		fa.buf[i] = 0
	}
	atomicU32At(fa.buf, base+8).Store(0) // iterable = false until MakeIterable
	atomicU32At(fa.buf, base+4).Store(size)
	atomicU32At(fa.buf, base).Store(typeID)

	return Reference(base + recordHeaderSize), nil
}

func (fa *FileAllocator) recordHeaderOffset(ref Reference) uint32 {
	return uint32(ref) - recordHeaderSize
}

func (fa *FileAllocator) GetAsObject(ref Reference, typeID uint32) ([]byte, bool) {
	if !fa.validRef(ref) {
		return nil, false
	}
	hdr := fa.recordHeaderOffset(ref)
	if atomicU32At(fa.buf, hdr).Load() != typeID {
		return nil, false
	}
	size := atomicU32At(fa.buf, hdr+4).Load()
	start := uint32(ref)
	return fa.buf[start : start+size], true
}

func (fa *FileAllocator) ChangeType(ref Reference, newType, oldType uint32) bool {
	if !fa.validRef(ref) {
		return false
	}
	word := atomicU32At(fa.buf, fa.recordHeaderOffset(ref))
	return word.CompareAndSwap(oldType, newType)
}

func (fa *FileAllocator) MakeIterable(ref Reference) {
	if !fa.validRef(ref) {
		return
	}
	atomicU32At(fa.buf, fa.recordHeaderOffset(ref)+8).Store(1)
}

func (fa *FileAllocator) GetAllocSize(ref Reference) uint32 {
	if !fa.validRef(ref) {
		return 0
	}
	return atomicU32At(fa.buf, fa.recordHeaderOffset(ref)+4).Load()
}

func (fa *FileAllocator) validRef(ref Reference) bool {
	return ref >= fileHeaderSize+recordHeaderSize && uint64(ref) < uint64(len(fa.buf))
}

func (fa *FileAllocator) NewIterator() Iterator {
	return &fileIterator{fa: fa, next: fileHeaderSize}
}

type fileIterator struct {
	fa   *FileAllocator
	next uint32
}

func (it *fileIterator) Next() (Reference, uint32, bool) {
	limit := uint32(it.fa.freeOffset().Load())
	for it.next+recordHeaderSize <= limit {
		hdr := it.next
		typeID := atomicU32At(it.fa.buf, hdr).Load()
		size := atomicU32At(it.fa.buf, hdr+4).Load()
		iterable := atomicU32At(it.fa.buf, hdr+8).Load()
		it.next = hdr + recordHeaderSize + align8(size)

		if iterable != 0 {
			return Reference(hdr + recordHeaderSize), typeID, true
		}
	}
	return 0, 0, false
}

// atomicU64At and atomicU32At cast directly into the mapped buffer so
// field access goes through sync/atomic's typed wrappers without
// copying bytes out first -- the same technique the seqlock-over-mmap
// reference code uses.
func atomicU64At(buf []byte, off uint32) *atomic.Uint64 {
	return (*atomic.Uint64)(unsafe.Pointer(&buf[off]))
}

func atomicU32At(buf []byte, off uint32) *atomic.Uint32 {
	return (*atomic.Uint32)(unsafe.Pointer(&buf[off]))
}
