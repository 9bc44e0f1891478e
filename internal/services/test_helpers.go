package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStreamingClient is a mock implementation of StreamingClient for testing
type MockStreamingClient struct {
	mock.Mock
}

func (m *MockStreamingClient) GetTrack(ctx context.Context, id string) (*Track, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Track), args.Error(1)
}

func (m *MockStreamingClient) GetAudioFeatures(ctx context.Context, id string) (*AudioFeatures, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AudioFeatures), args.Error(1)
}

func (m *MockStreamingClient) GetAlbum(ctx context.Context, id string) (*Album, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Album), args.Error(1)
}

func (m *MockStreamingClient) GetAlbumTrackIDs(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStreamingClient) GetArtist(ctx context.Context, id string) (*Artist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Artist), args.Error(1)
}

func (m *MockStreamingClient) GetArtistAlbumIDs(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStreamingClient) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Playlist), args.Error(1)
}

func (m *MockStreamingClient) GetPlaylistTrackIDs(ctx context.Context, id string, limit, offset int) ([]string, error) {
	args := m.Called(ctx, id, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStreamingClient) SearchArtist(ctx context.Context, name string) (*Artist, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Artist), args.Error(1)
}

func (m *MockStreamingClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockLyricsClient is a mock implementation of LyricsClient for testing
type MockLyricsClient struct {
	mock.Mock
}

func (m *MockLyricsClient) SearchSong(ctx context.Context, title, artist string) (string, error) {
	args := m.Called(ctx, title, artist)
	return args.String(0), args.Error(1)
}

// StubTrack builds a track whose album is credited to albumArtist
func StubTrack(id, name, album, albumArtist string) *Track {
	return &Track{
		ID:         id,
		Name:       name,
		Artists:    []ArtistRef{{ID: "artist-" + albumArtist, Name: albumArtist}},
		Album:      AlbumSummary{ID: "album-" + album, Name: album, ReleaseDate: "2020-01-01", Artists: []ArtistRef{{ID: "artist-" + albumArtist, Name: albumArtist}}},
		DurationMs: 200000,
		Popularity: 50,
	}
}

// StubFeatures builds audio features with every descriptor derived from seed
func StubFeatures(id string, seed float64) *AudioFeatures {
	return &AudioFeatures{
		ID:               id,
		Acousticness:     seed * 0.1,
		Danceability:     seed * 0.2,
		Energy:           seed * 0.3,
		Instrumentalness: seed * 0.01,
		Liveness:         seed * 0.05,
		Valence:          seed * 0.4,
		Loudness:         -seed,
		Speechiness:      seed * 0.02,
		Tempo:            100 + seed,
		Key:              5,
		TimeSignature:    4,
	}
}
