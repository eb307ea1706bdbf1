package gid

import "sync"

// Cache maps goroutine ids to caller-supplied handles: a lock-free read
// path for the common case (goroutine already seen) and a locked slow
// path the first time a goroutine is seen.
//
// This is the mechanism global.GlobalTracker uses in place of real
// thread-local storage: CreateTrackerForCurrentThread's result is stored
// here keyed by the calling goroutine's id, and (*GlobalTracker).Go and
// ManagedTracker.Release look it up the same way.
type Cache[T any] struct {
	m sync.Map // int64 goroutine id -> T
}

// Load returns the handle cached for the current goroutine, if any.
func (c *Cache[T]) Load() (value T, ok bool) {
	v, found := c.m.Load(Current())
	if !found {
		return value, false
	}
	return v.(T), true
}

// Store caches value for the current goroutine.
func (c *Cache[T]) Store(value T) {
	c.m.Store(Current(), value)
}

// Delete removes any cached value for the current goroutine.
func (c *Cache[T]) Delete() {
	c.m.Delete(Current())
}

// LoadOrCreate returns the cached value for the current goroutine,
// creating one via new if absent. new may run more than once if two
// goroutines race to populate the same key is impossible here (the key
// is always the calling goroutine's own id), so no duplicate-create race
// exists despite sync.Map's LoadOrStore semantics being used for safety.
func (c *Cache[T]) LoadOrCreate(new func() T) T {
	id := Current()
	if v, ok := c.m.Load(id); ok {
		return v.(T)
	}
	v, _ := c.m.LoadOrStore(id, new())
	return v.(T)
}
