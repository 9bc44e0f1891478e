package cache

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// KeyPrefix namespaces every key this service writes to a shared server
const KeyPrefix = "spotiscience:"

// valkeyCache implements Cache interface using Valkey
type valkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache creates a new Valkey-backed cache. The URL path selects the
// database, e.g. valkey://:secret@localhost:6379/2.
func NewValkeyCache(valkeyURL string) (Cache, error) {
	opts, err := parseValkeyURL(valkeyURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Valkey URL: %w", err)
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	cache := &valkeyCache{
		client: client,
		prefix: KeyPrefix,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cache.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return cache, nil
}

// Get retrieves a value from Valkey
func (c *valkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.B().Get().Key(c.prefix + key).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, &CacheError{Operation: "get", Key: key, Err: err}
	}
	return data, nil
}

// Set stores a value in Valkey with expiration
func (c *valkeyCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	var cmd valkey.Completed
	if expiration > 0 {
		cmd = c.client.B().Set().Key(c.prefix + key).Value(valkey.BinaryString(value)).Ex(expiration).Build()
	} else {
		cmd = c.client.B().Set().Key(c.prefix + key).Value(valkey.BinaryString(value)).Build()
	}

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return &CacheError{Operation: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes a key from Valkey
func (c *valkeyCache) Delete(ctx context.Context, key string) error {
	cmd := c.client.B().Del().Key(c.prefix + key).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return &CacheError{Operation: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists checks if a key exists in Valkey
func (c *valkeyCache) Exists(ctx context.Context, key string) (bool, error) {
	cmd := c.client.B().Exists().Key(c.prefix + key).Build()
	count, err := c.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &CacheError{Operation: "exists", Key: key, Err: err}
	}
	return count > 0, nil
}

// Close closes the Valkey connection
func (c *valkeyCache) Close() error {
	c.client.Close()
	return nil
}

// Health checks Valkey health
func (c *valkeyCache) Health(ctx context.Context) error {
	cmd := c.client.B().Ping().Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("Valkey health check failed: %w", err)
	}
	return nil
}

// parseValkeyURL turns a valkey:// or redis:// URL into client options
func parseValkeyURL(valkeyURL string) (valkey.ClientOption, error) {
	var opts valkey.ClientOption

	u, err := url.Parse(valkeyURL)
	if err != nil {
		return opts, fmt.Errorf("invalid URL format: %w", err)
	}
	switch u.Scheme {
	case "valkey", "redis", "rediss", "valkeys":
	default:
		return opts, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return opts, fmt.Errorf("missing host in URL")
	}
	opts.InitAddress = []string{u.Host}

	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}

	if db := strings.Trim(u.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid database %q", db)
		}
		opts.SelectDB = n
	}

	return opts, nil
}
