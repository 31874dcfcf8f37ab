// Package cache provides a bounded LRU cache from expression source text
// to its parsed AST, so repeated expressions skip the lexer and parser.
package cache

import (
	"container/list"
	"sync"

	"github.com/sambeau/tumble/pkg/tumble/ast"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 100

// Stats tracks cache statistics.
type Stats struct {
	Hits      int64 // Number of cache hits
	Misses    int64 // Number of cache misses
	Evictions int64 // Number of cache evictions
}

// Cache is a thread-safe LRU cache keyed by exact source text. Trees are
// immutable once parsed, so a cached tree can be shared between callers.
type Cache struct {
	mu        sync.Mutex
	items     map[string]*list.Element // map for O(1) lookup
	evictList *list.List               // doubly linked list for LRU order
	capacity  int
	stats     Stats
}

// cacheEntry represents a single cache entry.
type cacheEntry struct {
	key  string
	tree ast.Expression
}

// New creates a cache bounded to capacity entries. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		capacity:  capacity,
	}
}

// Get retrieves the tree parsed for key, if present.
func (c *Cache) Get(key string) (ast.Expression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*cacheEntry).tree, true
}

// Put stores the tree parsed for key, evicting the least recently used
// entry once the capacity bound is exceeded.
func (c *Cache) Put(key string, tree ast.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*cacheEntry).tree = tree
		return
	}

	ent := c.evictList.PushFront(&cacheEntry{key: key, tree: tree})
	c.items[key] = ent

	if c.evictList.Len() > c.capacity {
		c.evictOldest()
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Purge empties the cache without touching the statistics.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

// evictOldest removes the least recently used entry. Callers must hold mu.
func (c *Cache) evictOldest() {
	ent := c.evictList.Back()
	if ent == nil {
		return
	}

	c.evictList.Remove(ent)
	delete(c.items, ent.Value.(*cacheEntry).key)
	c.stats.Evictions++
}
