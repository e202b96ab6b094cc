package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryCache is an in-process LRU response cache with per-entry TTL.
// Doubly-linked list keeps every operation O(1).
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*lruNode
	head     *lruNode // most recently used
	tail     *lruNode // least recently used
	now      func() time.Time
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

type lruNode struct {
	key   string
	entry *Entry
	prev  *lruNode
	next  *lruNode
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock injects a clock for deterministic expiry tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) { c.now = now }
}

// WithJanitor starts a background sweep of expired entries at the given
// interval. Expiry stays correct without it; the sweep is memory hygiene.
func WithJanitor(interval time.Duration) MemoryOption {
	return func(c *MemoryCache) {
		go c.janitor(interval)
	}
}

// NewMemoryCache creates an in-memory response cache holding at most
// capacity entries.
func NewMemoryCache(capacity int, logger *zap.Logger, opts ...MemoryOption) *MemoryCache {
	if capacity <= 0 {
		capacity = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*lruNode),
		now:      time.Now,
		logger:   logger.With(zap.String("component", "memory_cache")),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get implements ResponseCache. Expiry is checked lazily at read time.
func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !c.now().Before(node.entry.ExpiresAt) {
		c.removeNode(node)
		delete(c.items, key)
		return nil, ErrCacheMiss
	}

	c.moveToHead(node)
	node.entry.HitCount++
	return node.entry, nil
}

// Put implements ResponseCache, overwriting any existing entry.
func (c *MemoryCache) Put(_ context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	t := c.now()
	entry := &Entry{
		Payload:   payload,
		CreatedAt: t,
		ExpiresAt: t.Add(ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		node.entry = entry
		c.moveToHead(node)
		return nil
	}

	if len(c.items) >= c.capacity {
		c.evictTail()
	}
	node := &lruNode{key: key, entry: entry}
	c.items[key] = node
	c.addToHead(node)
	return nil
}

// Invalidate implements ResponseCache.
func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.items[key]; ok {
		c.removeNode(node)
		delete(c.items, key)
	}
	return nil
}

// Clear implements ResponseCache.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*lruNode)
	c.head = nil
	c.tail = nil
	return nil
}

// Stats returns current size and capacity.
func (c *MemoryCache) Stats() (size, capacity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items), c.capacity
}

// Close stops the janitor goroutine, if one was started.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

// sweep evicts every expired entry.
func (c *MemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now()
	swept := 0
	for key, node := range c.items {
		if !t.Before(node.entry.ExpiresAt) {
			c.removeNode(node)
			delete(c.items, key)
			swept++
		}
	}
	if swept > 0 {
		c.logger.Debug("swept expired cache entries",
			zap.Int("swept", swept),
			zap.Int("remaining", len(c.items)),
		)
	}
}

func (c *MemoryCache) addToHead(node *lruNode) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *MemoryCache) removeNode(node *lruNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
}

func (c *MemoryCache) moveToHead(node *lruNode) {
	if node == c.head {
		return
	}
	c.removeNode(node)
	c.addToHead(node)
}

func (c *MemoryCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.key)
	c.removeNode(c.tail)
}
