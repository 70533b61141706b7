// Package cache provides a thread-safe LRU cache of compiled Metapath
// expressions.
//
// Compiling is pure, so an expression text always compiles to an equivalent
// tree and can be shared. The cache is used by metapath.Eval and by the
// constraint validator, which test the same rule expressions against many
// documents.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.Compile("group[@id = 'g1']/title")
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/sandrolain/metapath/pkg/parser"
	"github.com/sandrolain/metapath/pkg/types"
)

// DefaultCapacity is used when New is given a capacity <= 0.
const DefaultCapacity = 256

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key  string
	expr *types.Expression
}

// Cache is a thread-safe LRU (Least Recently Used) cache for compiled expressions.
// Once the capacity is reached, the least recently accessed entry is evicted.
type Cache struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
	opts     []parser.CompileOption

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Len      int
	Capacity int
}

// New creates a new LRU cache with the given capacity. opts are applied to
// every compilation done through Compile.
func New(capacity int, opts ...parser.CompileOption) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
		opts:     opts,
	}
}

// Get retrieves a compiled expression from the cache and marks it as most
// recently used.
func (c *Cache) Get(text string) (*types.Expression, bool) {
	c.mu.RLock()
	el, ok := c.items[text]
	alreadyFront := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if !alreadyFront {
		// Promote under the write lock; the entry may have been evicted meanwhile.
		c.mu.Lock()
		el, ok = c.items[text]
		if ok {
			c.ll.MoveToFront(el)
		}
		c.mu.Unlock()

		if !ok {
			c.misses.Add(1)
			return nil, false
		}
	}
	c.hits.Add(1)
	return el.Value.(*entry).expr, true
}

// Set inserts or replaces an expression in the cache.
// If at capacity, the least recently used entry is evicted first.
func (c *Cache) Set(text string, expr *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[text]; ok {
		el.Value.(*entry).expr = expr
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	el := c.ll.PushFront(&entry{key: text, expr: expr})
	c.items[text] = el
}

// Compile returns the cached expression for text, compiling and caching it
// on a miss. Compile errors are not cached.
func (c *Cache) Compile(text string) (*types.Expression, error) {
	if expr, ok := c.Get(text); ok {
		return expr, nil
	}
	expr, err := parser.Compile(text, c.opts...)
	if err != nil {
		return nil, err
	}
	c.Set(text, expr)
	return expr, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.items)
	c.mu.RUnlock()
	return n
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Len:      c.Len(),
		Capacity: c.capacity,
	}
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[text]; ok {
		c.ll.Remove(el)
		delete(c.items, text)
	}
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held for writing.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
