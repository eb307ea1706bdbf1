// Package header defines the fixed binary preamble that precedes every
// per-thread activity stack: identity, timing origin, depth, and the
// tear-detection word a snapshot reader uses. The layout is bit-exact and
// shared with external readers.
package header

import "sync/atomic"

// Cookie is the magic value identifying an initialized region
// (0xC0029B240D4A3092 plus one for schema version 1); the low bit of the
// cookie is the schema version a reader must check.
const Cookie uint64 = 0xC0029B240D4A3093

// NameSize is the fixed size of the NUL-terminated thread-name field.
const NameSize = 32

// Header precedes a contiguous array of record.Activity slots in a
// region. Every field is either plain (private to the owning goroutine
// until published) or atomic, depending on whether a reader may observe
// it concurrently with the owner's writes.
type Header struct {
	Cookie uint64

	// ProcessID is the last field written during initialization; any
	// reader that observes it non-zero with acquire ordering is
	// guaranteed to see every other field already initialized.
	ProcessID atomic.Int64

	// ThreadRef holds the goroutine identity (Go has no native thread
	// handle; see internal/activity/gid). All writes go through this
	// 64-bit field directly, so there is no narrower alias to worry
	// about zeroing, unlike the C++ union across 32/64-bit builds.
	ThreadRef int64

	StartTime  int64
	StartTicks int64

	StackSlots uint32

	// CurrentDepth is written only by the owning goroutine, except for
	// the pop-decrement (also owner-only); readers never write it.
	CurrentDepth atomic.Uint32

	// StackUnchanged is the tear-detection word: writable by the owner
	// (cleared to 0 on pop) and by a reader (set to 1 before copying).
	StackUnchanged atomic.Uint32

	ThreadName [NameSize]byte
}

// SchemaVersion returns the schema version encoded in the cookie's low
// bit.
func SchemaVersion(cookie uint64) int {
	return int(cookie & 1)
}

// KnownVersion reports whether a cookie's schema version is one this
// package understands. Only version 1 (this package's Cookie) is known
// today; future schema changes should extend this, not silently accept
// unknown cookies.
func KnownVersion(cookie uint64) bool {
	return cookie == Cookie
}

// NameBytes truncates and NUL-terminates name into a fixed NameSize
// buffer, strlcpy-style: a name of exactly NameSize characters is stored
// as NameSize-1 chars plus a terminating NUL.
func NameBytes(name string) (out [NameSize]byte) {
	n := copy(out[:NameSize-1], name)
	out[n] = 0
	return out
}

// NameString reads a NUL-terminated name back out of a fixed buffer,
// tolerating a missing terminator by treating the whole buffer as the
// name.
func NameString(buf [NameSize]byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf[:])
}
