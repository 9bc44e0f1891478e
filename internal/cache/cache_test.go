package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingCache is an L2 whose every operation fails
type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, &CacheError{Operation: "get", Err: f.err}
}
func (f failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return &CacheError{Operation: "set", Err: f.err}
}
func (f failingCache) Delete(context.Context, string) error { return nil }
func (f failingCache) Exists(context.Context, string) (bool, error) {
	return false, f.err
}
func (f failingCache) Close() error                   { return nil }
func (f failingCache) Health(context.Context) error { return f.err }

func TestMemoryCache_Basic(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10)
	defer cache.Close()

	require.NoError(t, cache.Set(ctx, "key1", []byte("value1"), time.Hour))

	value, err := cache.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), value)

	exists, err := cache.Exists(ctx, "key1")
	require.NoError(t, err)
	assert.True(t, exists)

	// Missing keys are a miss, not an error
	value, err = cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10)

	require.NoError(t, cache.Set(ctx, "key1", []byte("value1"), time.Hour))
	require.NoError(t, cache.Delete(ctx, "key1"))

	exists, err := cache.Exists(ctx, "key1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, cache.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(2 * time.Minute)

	value, err := cache.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Equal(t, 1, cache.Len())

	value, err = cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), value)
}

func TestMemoryCache_EvictsSoonestExpiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(2)

	require.NoError(t, cache.Set(ctx, "long", []byte("1"), time.Hour))
	require.NoError(t, cache.Set(ctx, "short", []byte("2"), time.Minute))
	require.NoError(t, cache.Set(ctx, "new", []byte("3"), time.Hour))

	assert.Equal(t, 2, cache.Len())
	short, _ := cache.Get(ctx, "short")
	assert.Nil(t, short)
	long, _ := cache.Get(ctx, "long")
	assert.Equal(t, []byte("1"), long)
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10)

	data := []byte{0x00, 0x01, 0xFF}
	require.NoError(t, cache.Set(ctx, "binary", data, time.Hour))
	data[0] = 0x7F

	value, err := cache.Get(ctx, "binary")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0xFF}, value)
}

func TestMultiLevelCache_PopulatesL1(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache(10)
	cache := NewMultiLevelCache(l2, 10)

	require.NoError(t, l2.Set(ctx, "key", []byte("from-l2"), time.Hour))

	value, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-l2"), value)

	// Served from L1 after L2 loses it
	require.NoError(t, l2.Delete(ctx, "key"))
	value, err = cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-l2"), value)

	require.NoError(t, cache.Delete(ctx, "key"))
	value, err = cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestMultiLevelCache_L2Failure(t *testing.T) {
	ctx := context.Background()
	cache := NewMultiLevelCache(failingCache{err: assert.AnError}, 10)

	_, err := cache.Get(ctx, "key")
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "get", cacheErr.Operation)

	err = cache.Set(ctx, "key", []byte("v"), time.Minute)
	assert.ErrorIs(t, err, assert.AnError)

	assert.ErrorIs(t, cache.Health(ctx), assert.AnError)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10)

	type payload struct {
		Name   string   `json:"name"`
		Genres []string `json:"genres"`
	}

	var got payload
	hit, err := GetJSON(ctx, cache, "p", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, SetJSON(ctx, cache, "p", payload{Name: "Blue", Genres: []string{"jazz"}}, time.Hour))
	hit, err = GetJSON(ctx, cache, "p", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Name: "Blue", Genres: []string{"jazz"}}, got)

	require.NoError(t, cache.Set(ctx, "bad", []byte("{"), time.Hour))
	_, err = GetJSON(ctx, cache, "bad", &got)
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "decode", cacheErr.Operation)
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull([]byte("null")))
	assert.False(t, IsNull([]byte("{}")))
	assert.False(t, IsNull(nil))
}

func TestParseValkeyURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		user     string
		password string
		db       int
		wantErr  bool
	}{
		{name: "plain", url: "valkey://localhost:6379", addr: "localhost:6379"},
		{name: "redis scheme with password", url: "redis://:secret@cache:6380", addr: "cache:6380", password: "secret"},
		{name: "user and db", url: "valkey://app:pw@cache:6379/3", addr: "cache:6379", user: "app", password: "pw", db: 3},
		{name: "bad scheme", url: "http://localhost:6379", wantErr: true},
		{name: "missing host", url: "valkey://", wantErr: true},
		{name: "bad db", url: "valkey://localhost:6379/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseValkeyURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.addr}, opts.InitAddress)
			assert.Equal(t, tt.user, opts.Username)
			assert.Equal(t, tt.password, opts.Password)
			assert.Equal(t, tt.db, opts.SelectDB)
		})
	}
}

func TestCacheError(t *testing.T) {
	err := &CacheError{
		Operation: "get",
		Key:       "test-key",
		Err:       assert.AnError,
	}

	assert.Equal(t, "cache get failed for key 'test-key': assert.AnError general error for testing", err.Error())
	assert.True(t, errors.Is(err, assert.AnError))
}

func BenchmarkMemoryCache_Get(b *testing.B) {
	ctx := context.Background()
	cache := NewMemoryCache(1000)
	data := []byte("benchmark test data")

	for i := 0; i < 1000; i++ {
		cache.Set(ctx, "key"+string(rune(i)), data, time.Hour)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get(ctx, "key"+string(rune(i%1000)))
	}
}
