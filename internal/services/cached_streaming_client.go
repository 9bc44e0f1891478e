package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spotiscience/internal/cache"
	"spotiscience/internal/models"
)

// cachedStreamingClient wraps a StreamingClient with caching
type cachedStreamingClient struct {
	client StreamingClient
	cache  cache.Cache
}

// NewCachedStreamingClient creates a caching decorator. Cache failures never
// fail a lookup; they are logged and the wrapped client is asked instead.
func NewCachedStreamingClient(client StreamingClient, c cache.Cache) StreamingClient {
	return &cachedStreamingClient{client: client, cache: c}
}

// Cache key generators
func trackKey(id string) string        { return "spotify:track:" + id }
func featuresKey(id string) string     { return "spotify:features:" + id }
func albumKey(id string) string        { return "spotify:album:" + id }
func albumTracksKey(id string) string  { return "spotify:album_tracks:" + id }
func artistKey(id string) string       { return "spotify:artist:" + id }
func artistAlbumsKey(id string) string { return "spotify:artist_albums:" + id }
func playlistKey(id string) string     { return "spotify:playlist:" + id }
func artistSearchKey(q string) string  { return "spotify:search_artist:" + strings.ToLower(q) }
func playlistPageKey(id string, limit, offset int) string {
	return "spotify:playlist_tracks:" + id + ":" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

// Cache TTL constants
const (
	trackCacheTTL    = 24 * time.Hour // track metadata and audio features rarely change
	albumCacheTTL    = 12 * time.Hour
	artistCacheTTL   = 6 * time.Hour
	playlistCacheTTL = 10 * time.Minute // playlists are edited by their owners
	searchCacheTTL   = 1 * time.Hour
	negativeCacheTTL = 5 * time.Minute // For not-found results
)

func (c *cachedStreamingClient) GetTrack(ctx context.Context, id string) (*Track, error) {
	return cachedLookup(ctx, c.cache, trackKey(id), trackCacheTTL, func() (*Track, error) {
		return c.client.GetTrack(ctx, id)
	})
}

func (c *cachedStreamingClient) GetAudioFeatures(ctx context.Context, id string) (*AudioFeatures, error) {
	return cachedLookup(ctx, c.cache, featuresKey(id), trackCacheTTL, func() (*AudioFeatures, error) {
		return c.client.GetAudioFeatures(ctx, id)
	})
}

func (c *cachedStreamingClient) GetAlbum(ctx context.Context, id string) (*Album, error) {
	return cachedLookup(ctx, c.cache, albumKey(id), albumCacheTTL, func() (*Album, error) {
		return c.client.GetAlbum(ctx, id)
	})
}

func (c *cachedStreamingClient) GetAlbumTrackIDs(ctx context.Context, id string) ([]string, error) {
	return cachedLookup(ctx, c.cache, albumTracksKey(id), albumCacheTTL, func() ([]string, error) {
		return c.client.GetAlbumTrackIDs(ctx, id)
	})
}

func (c *cachedStreamingClient) GetArtist(ctx context.Context, id string) (*Artist, error) {
	return cachedLookup(ctx, c.cache, artistKey(id), artistCacheTTL, func() (*Artist, error) {
		return c.client.GetArtist(ctx, id)
	})
}

func (c *cachedStreamingClient) GetArtistAlbumIDs(ctx context.Context, id string) ([]string, error) {
	return cachedLookup(ctx, c.cache, artistAlbumsKey(id), artistCacheTTL, func() ([]string, error) {
		return c.client.GetArtistAlbumIDs(ctx, id)
	})
}

func (c *cachedStreamingClient) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	return cachedLookup(ctx, c.cache, playlistKey(id), playlistCacheTTL, func() (*Playlist, error) {
		return c.client.GetPlaylist(ctx, id)
	})
}

func (c *cachedStreamingClient) GetPlaylistTrackIDs(ctx context.Context, id string, limit, offset int) ([]string, error) {
	return cachedLookup(ctx, c.cache, playlistPageKey(id, limit, offset), playlistCacheTTL, func() ([]string, error) {
		return c.client.GetPlaylistTrackIDs(ctx, id, limit, offset)
	})
}

func (c *cachedStreamingClient) SearchArtist(ctx context.Context, name string) (*Artist, error) {
	return cachedLookup(ctx, c.cache, artistSearchKey(name), searchCacheTTL, func() (*Artist, error) {
		return c.client.SearchArtist(ctx, name)
	})
}

// Health checks the wrapped client; the cache is optional
func (c *cachedStreamingClient) Health(ctx context.Context) error {
	if err := c.cache.Health(ctx); err != nil {
		slog.Warn("Streaming cache unhealthy", "error", err)
	}
	return c.client.Health(ctx)
}

// cachedLookup serves key from cache or calls fetch and stores its result.
// Upstream not-found results are remembered with the null marker.
func cachedLookup[T any](ctx context.Context, c cache.Cache, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	var zero T

	data, err := c.Get(ctx, key)
	switch {
	case err != nil:
		slog.Warn("Cache read failed", "key", key, "error", err)
	case cache.IsNull(data):
		return zero, &PlatformError{
			Platform:   spotifyPlatform,
			Operation:  "cache",
			Message:    "cached not found",
			URL:        key,
			StatusCode: http.StatusNotFound,
			Err:        models.ErrNotFound,
		}
	case data != nil:
		var value T
		if err := json.Unmarshal(data, &value); err == nil {
			return value, nil
		}
		slog.Error("Failed to unmarshal cached value", "key", key)
		// Delete corrupted cache entry
		_ = c.Delete(ctx, key)
	}

	value, err := fetch()
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if setErr := c.Set(ctx, key, cache.NullMarker, negativeCacheTTL); setErr != nil {
				slog.Warn("Failed to cache not-found result", "key", key, "error", setErr)
			}
		}
		return zero, err
	}

	if err := cache.SetJSON(ctx, c, key, value, ttl); err != nil {
		slog.Warn("Failed to cache value", "key", key, "error", err)
	}
	return value, nil
}
