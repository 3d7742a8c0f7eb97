package blockdev

import (
	"sync"

	"config"
)

type entry struct {
	id    uint64
	data  [config.BlockSize]byte
	dirty bool
}

// Cache is the bounded, pinned LRU block cache sitting in front of a
// Device (spec §4.6): reads populate it, writes mark entries dirty and
// only hit the device on eviction or SyncAll. Access is serialised by a
// single global lock, because the block device itself is serialised
// (spec §4.6, §5).
type Cache struct {
	mu  sync.Mutex
	dev Device
	cap int
	// lru holds entries in most-recently-used-first order.
	lru []*entry
}

// NewCache wraps dev with a cache holding at most capacity blocks.
func NewCache(dev Device, capacity int) *Cache {
	return &Cache{dev: dev, cap: capacity}
}

func (c *Cache) find(id uint64) (*entry, int) {
	for i, e := range c.lru {
		if e.id == id {
			return e, i
		}
	}
	return nil, -1
}

// touch moves the entry at index i to the front (most-recently-used).
func (c *Cache) touch(i int) {
	e := c.lru[i]
	copy(c.lru[1:i+1], c.lru[:i])
	c.lru[0] = e
}

// fetch returns the cache entry for id, loading it from the device and
// evicting the least-recently-used entry (writing it back first if dirty)
// if the cache is full.
func (c *Cache) fetch(id uint64) *entry {
	if e, i := c.find(id); i >= 0 {
		c.touch(i)
		return e
	}
	if len(c.lru) >= c.cap {
		victim := c.lru[len(c.lru)-1]
		if victim.dirty {
			c.dev.WriteBlock(victim.id, victim.data[:])
		}
		c.lru = c.lru[:len(c.lru)-1]
	}
	e := &entry{id: id}
	c.dev.ReadBlock(id, e.data[:])
	c.lru = append([]*entry{e}, c.lru...)
	return e
}

// Read copies the cached contents of block id into buf.
func (c *Cache) Read(id uint64, buf []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.fetch(id)
	copy(buf, e.data[:])
}

// Write overwrites the cached contents of block id and marks it dirty;
// the device is not touched until eviction or SyncAll.
func (c *Cache) Write(id uint64, buf []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.fetch(id)
	copy(e.data[:], buf)
	e.dirty = true
}

// SyncAll writes every dirty cached block back to the device.
func (c *Cache) SyncAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.lru {
		if e.dirty {
			c.dev.WriteBlock(e.id, e.data[:])
			e.dirty = false
		}
	}
}
