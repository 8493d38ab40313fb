// Package cache provides a generic, bounded in-memory cache.
//
// LRU keeps at most `capacity` entries; when full, the least recently used
// entry is dropped. Entries older than `maxAge` are treated as absent and
// removed on the next touch or Prune call.
//
// Thread safety: every method takes the same mutex, so compound operations
// such as Update are atomic with respect to each other.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// entry is one cached record.
type entry[K comparable, V any] struct {
	key      K
	value    V
	storedAt time.Time
}

// LRU is a bounded least-recently-used cache with optional max age.
//
//	c := cache.New[string, int](1000, time.Hour, clock.New())
//	c.Set("key", 42)
//	v, ok := c.Get("key")
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	maxAge   time.Duration
	clock    clock.Clock
	order    *list.List
	items    map[K]*list.Element
	onEvict  func(key K, value V)
}

// New creates an LRU. capacity <= 0 means unbounded and maxAge <= 0 means
// entries never expire. A nil clock uses the wall clock.
func New[K comparable, V any](capacity int, maxAge time.Duration, clk clock.Clock) *LRU[K, V] {
	if clk == nil {
		clk = clock.New()
	}
	return &LRU[K, V]{
		capacity: capacity,
		maxAge:   maxAge,
		clock:    clk,
		order:    list.New(),
		items:    make(map[K]*list.Element),
	}
}

// OnEvict registers fn to run when capacity pushes out an entry that had
// not expired yet. fn runs with the cache locked and must not call back into
// the cache.
func (c *LRU[K, V]) OnEvict(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key, c.clock.Now())
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store(key, value, c.clock.Now())
}

// Swap stores value under key and returns what was there before.
// The read and the write happen under one lock.
func (c *LRU[K, V]) Swap(key K, value V) (prev V, found bool) {
	return c.Update(key, func(V, bool) (V, bool) { return value, true })
}

// Update runs fn with the current value for key (found=false when absent or
// expired) and stores the value fn returns when fn's second result is true.
// It returns the value that was present before the call.
//
// fn runs with the cache locked and must not call back into the cache.
func (c *LRU[K, V]) Update(key K, fn func(current V, found bool) (V, bool)) (prev V, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if e, ok := c.lookup(key, now); ok {
		prev, found = e.value, true
	}

	if next, keep := fn(prev, found); keep {
		c.store(key, next, now)
	}
	return prev, found
}

// Delete removes key.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Len returns the number of stored entries, expired ones included until pruned.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Clear drops every entry.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[K]*list.Element)
}

// Prune removes expired entries and returns how many were dropped.
func (c *LRU[K, V]) Prune() int {
	if c.maxAge <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	dropped := 0
	// Oldest entries sit at the back, but a Get refreshes order without
	// refreshing age, so the whole list has to be checked.
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*entry[K, V]), now) {
			c.remove(el)
			dropped++
		}
		el = prev
	}
	return dropped
}

// ─── Helpers (caller holds mu) ───

func (c *LRU[K, V]) lookup(key K, now time.Time) (*entry[K, V], bool) {
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e, now) {
		c.remove(el)
		return nil, false
	}
	c.order.MoveToFront(el)
	return e, true
}

func (c *LRU[K, V]) store(key K, value V, now time.Time) {
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.storedAt = now
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&entry[K, V]{key: key, value: value, storedAt: now})
	c.items[key] = el

	if c.capacity > 0 && c.order.Len() > c.capacity {
		back := c.order.Back()
		c.remove(back)
		if e := back.Value.(*entry[K, V]); c.onEvict != nil && !c.expired(e, now) {
			c.onEvict(e.key, e.value)
		}
	}
}

func (c *LRU[K, V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}

func (c *LRU[K, V]) expired(e *entry[K, V], now time.Time) bool {
	return c.maxAge > 0 && now.Sub(e.storedAt) >= c.maxAge
}
