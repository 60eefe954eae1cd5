package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

type localItem struct {
	key       string
	entry     Entry
	expiresAt time.Time
}

// Local is the in-process L1 tier: a thread-safe LRU with a short TTL.
// When the cache reaches its capacity, the least recently used item is
// evicted. Expired items are dropped lazily on read.
type Local struct {
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	eviction *list.List
	mu       sync.Mutex
}

// NewLocal creates an in-process cache tier with the given capacity and TTL.
// The capacity must be positive, otherwise it panics.
func NewLocal(capacity int, ttl time.Duration) *Local {
	if capacity <= 0 {
		panic("cache: local tier capacity must be positive")
	}
	return &Local{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

func (c *Local) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return Entry{}, false, nil
	}

	item := elem.Value.(*localItem)
	if c.ttl > 0 && time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return Entry{}, false, nil
	}

	c.eviction.MoveToFront(elem)
	return item.entry, true, nil
}

func (c *Local) Put(_ context.Context, key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(c.ttl)

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		item := elem.Value.(*localItem)
		item.entry = entry
		item.expiresAt = expiresAt
		return nil
	}

	elem := c.eviction.PushFront(&localItem{key: key, entry: entry, expiresAt: expiresAt})
	c.items[key] = elem

	if c.eviction.Len() > c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
	return nil
}

func (c *Local) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	return nil
}

func (c *Local) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, elem := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(elem)
		}
	}
	return nil
}

func (c *Local) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Must be called with lock held.
func (c *Local) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	item := elem.Value.(*localItem)
	delete(c.items, item.key)
}
