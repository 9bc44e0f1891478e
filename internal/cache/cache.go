package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from cache; a miss returns nil, nil
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// Close closes the cache connection
	Close() error

	// Health checks cache health
	Health(ctx context.Context) error
}

// CacheError represents a cache operation error
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return "cache " + e.Operation + " failed for key '" + e.Key + "': " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// NullMarker is stored for keys whose upstream lookup found nothing
var NullMarker = []byte("null")

// IsNull reports whether a cached value is the not-found marker
func IsNull(data []byte) bool {
	return string(data) == string(NullMarker)
}

// GetJSON decodes a cached value into dst. It returns false on a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, &CacheError{Operation: "decode", Key: key, Err: err}
	}
	return true, nil
}

// SetJSON encodes value and stores it under key
func SetJSON(ctx context.Context, c Cache, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &CacheError{Operation: "encode", Key: key, Err: err}
	}
	return c.Set(ctx, key, data, expiration)
}
