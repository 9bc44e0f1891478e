package services

import "context"

// StreamingClient is the narrow surface of the streaming platform that
// acquisition depends on
type StreamingClient interface {
	GetTrack(ctx context.Context, id string) (*Track, error)
	GetAudioFeatures(ctx context.Context, id string) (*AudioFeatures, error)
	GetAlbum(ctx context.Context, id string) (*Album, error)
	GetAlbumTrackIDs(ctx context.Context, id string) ([]string, error)
	GetArtist(ctx context.Context, id string) (*Artist, error)
	GetArtistAlbumIDs(ctx context.Context, id string) ([]string, error)
	GetPlaylist(ctx context.Context, id string) (*Playlist, error)
	GetPlaylistTrackIDs(ctx context.Context, id string, limit, offset int) ([]string, error)
	SearchArtist(ctx context.Context, name string) (*Artist, error)
	Health(ctx context.Context) error
}

// LyricsClient looks up song lyrics by title and artist
type LyricsClient interface {
	SearchSong(ctx context.Context, title, artist string) (string, error)
}

// Streaming platform API response structures
type Track struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Artists    []ArtistRef  `json:"artists"`
	Album      AlbumSummary `json:"album"`
	DurationMs int          `json:"duration_ms"`
	Popularity int          `json:"popularity"`
}

type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AlbumSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ReleaseDate string      `json:"release_date"`
	Artists     []ArtistRef `json:"artists"`
}

type Album struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ReleaseDate string      `json:"release_date"`
	Genres      []string    `json:"genres"`
	Artists     []ArtistRef `json:"artists"`
	Popularity  int         `json:"popularity"`
}

type Artist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Genres     []string  `json:"genres"`
	Popularity int       `json:"popularity"`
	Followers  Followers `json:"followers"`
}

type Followers struct {
	Total int `json:"total"`
}

type Playlist struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Owner       PlaylistOwner `json:"owner"`
	Tracks      PlaylistTotal `json:"tracks"`
}

type PlaylistOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type PlaylistTotal struct {
	Total int `json:"total"`
}

type AudioFeatures struct {
	ID               string  `json:"id"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	Key              float64 `json:"key"`
	TimeSignature    float64 `json:"time_signature"`
	DurationMs       int     `json:"duration_ms"`
}

// Values returns the descriptors in the record feature order
func (f AudioFeatures) Values() []float64 {
	return []float64{
		f.Acousticness,
		f.Danceability,
		f.Energy,
		f.Instrumentalness,
		f.Liveness,
		f.Valence,
		f.Loudness,
		f.Speechiness,
		f.Tempo,
		f.Key,
		f.TimeSignature,
	}
}

type idItem struct {
	ID string `json:"id"`
}

type idPage struct {
	Items []idItem `json:"items"`
	Next  string   `json:"next"`
}

type playlistItem struct {
	Track *idItem `json:"track"`
}

type playlistPage struct {
	Items []playlistItem `json:"items"`
	Next  string         `json:"next"`
}

type artistSearchResult struct {
	Artists struct {
		Items []Artist `json:"items"`
	} `json:"artists"`
}
