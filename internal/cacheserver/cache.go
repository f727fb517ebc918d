package cacheserver

import (
	"container/list"
	"fmt"
	"sync"
)

// Stats is the service-side statistics shape reported per cache.
type Stats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
}

type entry struct {
	key   string
	value []byte
}

// Cache is a bounded in-memory key/value store. Eviction order depends on
// the cache type: lru evicts the least recently used entry, mru the most
// recently used, fifo the oldest insertion.
type Cache struct {
	mu       sync.Mutex
	typ      string
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used/inserted
	hits     uint64
	misses   uint64
}

func newCache(typ string, capacity int) (*Cache, error) {
	switch typ {
	case "lru", "fifo", "mru":
	default:
		return nil, fmt.Errorf("unknown cache type %q", typ)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	return &Cache{
		typ:      typ,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}, nil
}

// Get returns the value for key, recording a hit or miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	if c.typ != "fifo" {
		c.order.MoveToFront(el)
	}
	return el.Value.(*entry).value, true
}

// Set stores value under key, evicting one entry if the cache is full.
func (c *Cache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).value = value
		if c.typ != "fifo" {
			c.order.MoveToFront(el)
		}
		return
	}

	if len(c.items) >= c.capacity {
		victim := c.order.Back()
		if c.typ == "mru" {
			victim = c.order.Front()
		}
		if victim != nil {
			c.order.Remove(victim)
			delete(c.items, victim.Value.(*entry).key)
		}
	}
	c.items[key] = c.order.PushFront(&entry{key: key, value: value})
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:     c.hits,
		Misses:   c.misses,
		Size:     len(c.items),
		Capacity: c.capacity,
	}
}
