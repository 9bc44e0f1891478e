package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache bounded by item count. It backs the CLI
// when no Valkey server is configured and is the L1 of MultiLevelCache.
type MemoryCache struct {
	items    map[string]cacheItem
	maxItems int
	now      func() time.Time
	mu       sync.RWMutex
}

type cacheItem struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// NewMemoryCache creates an in-process cache holding at most maxItems entries
func NewMemoryCache(maxItems int) *MemoryCache {
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &MemoryCache{
		items:    make(map[string]cacheItem),
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Get returns the stored value, or nil on a miss or expiry
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, nil
	}
	if item.expired(c.now()) {
		c.mu.Lock()
		// Double-check after acquiring write lock
		if item, exists := c.items[key]; exists && item.expired(c.now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return item.data, nil
}

// Set stores a copy of value, evicting the entry closest to expiry when full
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictLocked()
	}

	item := cacheItem{data: append([]byte(nil), value...)}
	if expiration > 0 {
		item.expiresAt = c.now().Add(expiration)
	}
	c.items[key] = item
	return nil
}

// Delete removes a key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Exists reports whether a live entry is stored under key
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, exists := c.items[key]
	return exists && !item.expired(c.now()), nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.items = make(map[string]cacheItem)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Health(ctx context.Context) error {
	return nil
}

// evictLocked drops expired entries, or failing that the entry that expires
// soonest. Entries without expiry are evicted last.
func (c *MemoryCache) evictLocked() {
	now := c.now()
	oldestKey := ""
	var oldest time.Time
	for k, item := range c.items {
		if item.expired(now) {
			delete(c.items, k)
			continue
		}
		if item.expiresAt.IsZero() {
			if oldestKey == "" {
				oldestKey = k
			}
			continue
		}
		if oldest.IsZero() || item.expiresAt.Before(oldest) {
			oldestKey = k
			oldest = item.expiresAt
		}
	}
	if len(c.items) < c.maxItems {
		return
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
