// Package blockcache is a byte-capacity LRU cache of snapshot blocks.
//
// It backs the caching blob store wrapper so that repeated ranged reads
// against remote snapshots hit memory instead of the network.
package blockcache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Key identifies one block of one blob.
type Key struct {
	Name  string
	Block int64
}

type entry struct {
	key   Key
	value []byte
}

// Cache is a thread-safe LRU keyed by (blob name, block index), bounded by
// total cached bytes.
type Cache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache with the given capacity in bytes.
func New(capacity int64) *Cache {
	return &Cache{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached block.
func (c *Cache) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a block. Blocks larger than the whole capacity are not cached.
func (c *Cache) Set(key Key, b []byte) {
	itemSize := int64(len(b))
	if itemSize > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		c.size += itemSize - int64(len(ent.Value.(*entry).value))
		ent.Value.(*entry).value = b
	} else {
		c.items[key] = c.evictList.PushFront(&entry{key, b})
		c.size += itemSize
	}

	for c.size > c.capacity {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}
}

// InvalidateName drops every cached block of the named blob.
func (c *Cache) InvalidateName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, element := range c.items {
		if key.Name == name {
			toRemove = append(toRemove, element)
		}
	}
	for _, e := range toRemove {
		c.removeElement(e)
	}
}

// Size returns the current cached bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	c.size -= int64(len(kv.value))
}
