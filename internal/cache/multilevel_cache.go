package cache

import (
	"context"
	"time"
)

// MultiLevelCache implements a multi-level cache with in-memory L1 and a
// shared L2
type MultiLevelCache struct {
	l1 *MemoryCache
	l2 Cache
}

// maxL1TTL caps how long a value lives in process memory
const maxL1TTL = time.Hour

// NewMultiLevelCache layers an in-memory cache over l2
func NewMultiLevelCache(l2 Cache, l1MaxItems int) *MultiLevelCache {
	return &MultiLevelCache{
		l1: NewMemoryCache(l1MaxItems),
		l2: l2,
	}
}

// NewValkeyMultiLevelCache connects to Valkey and fronts it with an L1
func NewValkeyMultiLevelCache(valkeyURL string, l1MaxItems int) (Cache, error) {
	l2, err := NewValkeyCache(valkeyURL)
	if err != nil {
		return nil, err
	}
	return NewMultiLevelCache(l2, l1MaxItems), nil
}

// Get retrieves from L1 first, then L2
func (c *MultiLevelCache) Get(ctx context.Context, key string) ([]byte, error) {
	if data, _ := c.l1.Get(ctx, key); data != nil {
		return data, nil
	}

	data, err := c.l2.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if data != nil {
		_ = c.l1.Set(ctx, key, data, maxL1TTL)
	}
	return data, nil
}

// Set stores in both L1 and L2
func (c *MultiLevelCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := c.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}

	l1Expiration := expiration
	if l1Expiration <= 0 || l1Expiration > maxL1TTL {
		l1Expiration = maxL1TTL
	}
	return c.l1.Set(ctx, key, value, l1Expiration)
}

// Delete removes from both levels
func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = c.l1.Delete(ctx, key)
	return c.l2.Delete(ctx, key)
}

// Exists checks both levels
func (c *MultiLevelCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := c.l1.Exists(ctx, key); ok {
		return true, nil
	}
	return c.l2.Exists(ctx, key)
}

// Close closes L2 connection
func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()
	return c.l2.Close()
}

// Health checks L2 health
func (c *MultiLevelCache) Health(ctx context.Context) error {
	return c.l2.Health(ctx)
}
