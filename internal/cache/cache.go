// Package cache implements C2, the configuration cache (spec.md 4.2): a
// bounded, write-through, in-memory map over category values, evicting by
// least-recent access once it reaches capacity.
//
// The data-structure pairing (a map for O(1) lookup plus a doubly linked
// list to track access recency) follows Krishna8167/tempuscache, trimmed
// to this package's narrower contract: no TTL, no janitor goroutine —
// spec.md's cache has neither — and an explicit LastAccess/HitCount pair
// per entry because invariant 1 and the LRU tie-break rule are specified
// directly in terms of last-access timestamps, not list position.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/edgeplane/corectl/internal/types"
)

// Capacity is the fixed bound on the number of cached categories
// (spec.md 4.2).
const Capacity = 10

// entry is the value stored at each LRU list element.
type entry struct {
	key         string
	value       types.Items
	displayName string
	lastAccess  time.Time
	hitCount    int64
}

// Cache is C2's bounded write-through category cache.
type Cache struct {
	mu   sync.Mutex
	data map[string]*list.Element
	lru  *list.List // front = most recently accessed
	miss int64
}

// New returns an empty cache at the fixed capacity.
func New() *Cache {
	return &Cache{
		data: make(map[string]*list.Element, Capacity),
		lru:  list.New(),
	}
}

// Contains reports whether name is cached, bumping its recency and hit
// count on a hit and the cache-wide miss counter on a miss, exactly as
// spec.md 4.2 describes.
func (c *Cache) Contains(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.data[name]
	if !ok {
		c.miss++
		return false
	}
	e := elem.Value.(*entry)
	e.lastAccess = time.Now()
	e.hitCount++
	c.lru.MoveToFront(elem)
	return true
}

// Get returns the cached value for name and whether it was present,
// without mutating recency (callers that want the Contains side-effects
// should call Contains first, per the read paths in spec.md 4.3.2).
func (c *Cache) Get(name string) (types.Items, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.data[name]
	if !ok {
		return nil, "", false
	}
	e := elem.Value.(*entry)
	return e.value, e.displayName, true
}

// Put inserts or overwrites name's cached value. When absent and the
// cache is already at Capacity, the entry with the minimum last-access
// time is evicted first. displayName of "" leaves an existing entry's
// display name untouched; a new entry with displayName "" stores "".
func (c *Cache) Put(name string, value types.Items, displayName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if elem, ok := c.data[name]; ok {
		e := elem.Value.(*entry)
		e.value = value
		if displayName != "" {
			e.displayName = displayName
		}
		e.lastAccess = now
		c.lru.MoveToFront(elem)
		return
	}

	if len(c.data) >= Capacity {
		c.evictOldest()
	}

	e := &entry{key: name, value: value, displayName: displayName, lastAccess: now}
	elem := c.lru.PushFront(e)
	c.data[name] = elem
}

// PutItem patches a single item into an already-cached category's value,
// used by get_category_item's cache-miss-then-populate path (spec.md
// 4.3.2) and by set_category_item_value_entry's refresh step (4.3.3). It
// is a no-op if the category is not cached.
func (c *Cache) PutItem(name, item string, spec types.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.data[name]
	if !ok {
		return
	}
	e := elem.Value.(*entry)
	if e.value == nil {
		e.value = types.Items{}
	}
	e.value[item] = spec
	e.lastAccess = time.Now()
}

// Remove evicts name if present; a no-op otherwise.
func (c *Cache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.data[name]; ok {
		c.lru.Remove(elem)
		delete(c.data, name)
	}
}

// Len reports the current number of cached categories. Always <= Capacity
// (invariant 1, spec.md 8).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// evictOldest removes the entry with the minimum last-access time. Ties
// are broken by list order (the element closest to the back was pushed
// or touched earliest among the tied entries), giving deterministic,
// exact-LRU-on-timestamp eviction as spec.md 4.2 requires.
func (c *Cache) evictOldest() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	oldest := back
	for e := back; e != nil; e = e.Prev() {
		if e.Value.(*entry).lastAccess.Before(oldest.Value.(*entry).lastAccess) {
			oldest = e
		}
	}
	delete(c.data, oldest.Value.(*entry).key)
	c.lru.Remove(oldest)
}
