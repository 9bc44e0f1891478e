package services

import (
	"context"
	"testing"
	"time"

	"spotiscience/internal/cache"
	"spotiscience/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// brokenCache fails every operation
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, &cache.CacheError{Operation: "get", Key: key, Err: assert.AnError}
}
func (brokenCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return &cache.CacheError{Operation: "set", Key: key, Err: assert.AnError}
}
func (brokenCache) Delete(ctx context.Context, key string) error         { return nil }
func (brokenCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (brokenCache) Close() error                                         { return nil }
func (brokenCache) Health(ctx context.Context) error                     { return assert.AnError }

func TestCachedStreamingClient_CachesHits(t *testing.T) {
	ctx := context.Background()
	inner := new(MockStreamingClient)
	inner.On("GetTrack", mock.Anything, "t1").Return(StubTrack("t1", "Song A", "Alb", "X"), nil).Once()
	inner.On("GetAlbumTrackIDs", mock.Anything, "a1").Return([]string{"t1", "t2"}, nil).Once()

	client := NewCachedStreamingClient(inner, cache.NewMemoryCache(100))

	for i := 0; i < 3; i++ {
		track, err := client.GetTrack(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "Song A", track.Name)

		ids, err := client.GetAlbumTrackIDs(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2"}, ids)
	}

	inner.AssertExpectations(t)
}

func TestCachedStreamingClient_NegativeCache(t *testing.T) {
	ctx := context.Background()
	notFound := &PlatformError{Platform: "spotify", Operation: "get_track", Err: models.ErrNotFound}

	inner := new(MockStreamingClient)
	inner.On("GetTrack", mock.Anything, "gone").Return(nil, notFound).Once()

	c := cache.NewMemoryCache(100)
	client := NewCachedStreamingClient(inner, c)

	_, err := client.GetTrack(ctx, "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)

	data, _ := c.Get(ctx, trackKey("gone"))
	assert.True(t, cache.IsNull(data))

	// Second lookup is answered from the marker
	_, err = client.GetTrack(ctx, "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)

	inner.AssertExpectations(t)
}

func TestCachedStreamingClient_OtherErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := new(MockStreamingClient)
	inner.On("GetAlbum", mock.Anything, "a1").Return(nil, assert.AnError).Once()
	inner.On("GetAlbum", mock.Anything, "a1").Return(&Album{ID: "a1", Name: "Alb"}, nil).Once()

	client := NewCachedStreamingClient(inner, cache.NewMemoryCache(100))

	_, err := client.GetAlbum(ctx, "a1")
	assert.ErrorIs(t, err, assert.AnError)

	album, err := client.GetAlbum(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Alb", album.Name)

	inner.AssertExpectations(t)
}

func TestCachedStreamingClient_CorruptEntryRefetched(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(100)
	require.NoError(t, c.Set(ctx, artistKey("ar1"), []byte("{broken"), time.Hour))

	inner := new(MockStreamingClient)
	inner.On("GetArtist", mock.Anything, "ar1").Return(&Artist{ID: "ar1", Name: "Lorde"}, nil).Once()

	client := NewCachedStreamingClient(inner, c)
	artist, err := client.GetArtist(ctx, "ar1")
	require.NoError(t, err)
	assert.Equal(t, "Lorde", artist.Name)

	inner.AssertExpectations(t)
}

func TestCachedStreamingClient_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	inner := new(MockStreamingClient)
	inner.On("GetPlaylistTrackIDs", mock.Anything, "p1", 10, 0).Return([]string{"t1"}, nil).Twice()
	inner.On("Health", mock.Anything).Return(nil)

	client := NewCachedStreamingClient(inner, brokenCache{})

	for i := 0; i < 2; i++ {
		ids, err := client.GetPlaylistTrackIDs(ctx, "p1", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"t1"}, ids)
	}
	assert.NoError(t, client.Health(ctx))

	inner.AssertExpectations(t)
}

func TestArtistSearchKeyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, artistSearchKey("Lorde"), artistSearchKey("LORDE"))
}
