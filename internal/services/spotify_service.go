package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/clientcredentials"

	"spotiscience/internal/models"
)

// spotifyService implements StreamingClient for Spotify
type spotifyService struct {
	client      *resty.Client
	tokenSource *clientcredentials.Config
	timeout     time.Duration
	accessToken string
	tokenExpiry time.Time
	mu          sync.RWMutex
}

// Spotify API endpoints
const (
	DefaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"
	DefaultSpotifyAPIURL   = "https://api.spotify.com/v1"
)

const (
	spotifyPlatform = "spotify"
	spotifyPageSize = 50
)

// SpotifyOptions configures the Spotify client
type SpotifyOptions struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	TokenURL     string
	Timeout      time.Duration
	// RetryCount is the number of extra attempts resty makes on 429 and 5xx.
	// Zero keeps acquisition at a single attempt per item.
	RetryCount int
}

// NewSpotifyService creates a new Spotify client
func NewSpotifyService(opts SpotifyOptions) StreamingClient {
	if opts.APIURL == "" {
		opts.APIURL = DefaultSpotifyAPIURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultSpotifyTokenURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	tokenSource := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	client := resty.New().
		SetBaseURL(opts.APIURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError)
		})

	return &spotifyService{
		client:      client,
		tokenSource: tokenSource,
		timeout:     opts.Timeout,
	}
}

// GetTrack fetches track metadata
func (s *spotifyService) GetTrack(ctx context.Context, id string) (*Track, error) {
	var track Track
	if err := s.get(ctx, "get_track", "/tracks/"+url.PathEscape(id), nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// GetAudioFeatures fetches the audio descriptors of a track
func (s *spotifyService) GetAudioFeatures(ctx context.Context, id string) (*AudioFeatures, error) {
	var features AudioFeatures
	if err := s.get(ctx, "get_audio_features", "/audio-features/"+url.PathEscape(id), nil, &features); err != nil {
		return nil, err
	}
	return &features, nil
}

// GetAlbum fetches album metadata including genres
func (s *spotifyService) GetAlbum(ctx context.Context, id string) (*Album, error) {
	var album Album
	if err := s.get(ctx, "get_album", "/albums/"+url.PathEscape(id), nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// GetAlbumTrackIDs lists every track id of an album, following pagination
func (s *spotifyService) GetAlbumTrackIDs(ctx context.Context, id string) ([]string, error) {
	return s.collectIDs(ctx, "get_album_tracks", "/albums/"+url.PathEscape(id)+"/tracks", nil)
}

// GetArtist fetches artist metadata including genres
func (s *spotifyService) GetArtist(ctx context.Context, id string) (*Artist, error) {
	var artist Artist
	if err := s.get(ctx, "get_artist", "/artists/"+url.PathEscape(id), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// GetArtistAlbumIDs lists every album id of an artist, following pagination
func (s *spotifyService) GetArtistAlbumIDs(ctx context.Context, id string) ([]string, error) {
	return s.collectIDs(ctx, "get_artist_albums", "/artists/"+url.PathEscape(id)+"/albums",
		map[string]string{"include_groups": "album,single"})
}

// GetPlaylist fetches playlist metadata
func (s *spotifyService) GetPlaylist(ctx context.Context, id string) (*Playlist, error) {
	var playlist Playlist
	query := map[string]string{"fields": "id,name,description,owner(id,display_name),tracks(total)"}
	if err := s.get(ctx, "get_playlist", "/playlists/"+url.PathEscape(id), query, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// GetPlaylistTrackIDs returns one page of playlist track ids. Local and
// unavailable entries carry no track and are skipped.
func (s *spotifyService) GetPlaylistTrackIDs(ctx context.Context, id string, limit, offset int) ([]string, error) {
	if limit < 1 || limit > 100 {
		return nil, fmt.Errorf("playlist page limit %d outside [1, 100]: %w", limit, models.ErrUnsupportedOption)
	}

	var page playlistPage
	query := map[string]string{
		"limit":  strconv.Itoa(limit),
		"offset": strconv.Itoa(offset),
	}
	if err := s.get(ctx, "get_playlist_tracks", "/playlists/"+url.PathEscape(id)+"/tracks", query, &page); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		ids = append(ids, item.Track.ID)
	}
	return ids, nil
}

// SearchArtist returns the best artist match for a name
func (s *spotifyService) SearchArtist(ctx context.Context, name string) (*Artist, error) {
	var result artistSearchResult
	query := map[string]string{
		"q":     name,
		"type":  "artist",
		"limit": "1",
	}
	if err := s.get(ctx, "search_artist", "/search", query, &result); err != nil {
		return nil, err
	}
	if len(result.Artists.Items) == 0 {
		return nil, &PlatformError{
			Platform:   spotifyPlatform,
			Operation:  "search_artist",
			Message:    "no artist found for " + name,
			StatusCode: http.StatusNotFound,
			Err:        models.ErrNotFound,
		}
	}
	return &result.Artists.Items[0], nil
}

// Health checks Spotify API health
func (s *spotifyService) Health(ctx context.Context) error {
	return s.ensureValidToken(ctx)
}

func (s *spotifyService) collectIDs(ctx context.Context, operation, path string, extra map[string]string) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += spotifyPageSize {
		query := map[string]string{
			"limit":  strconv.Itoa(spotifyPageSize),
			"offset": strconv.Itoa(offset),
		}
		for k, v := range extra {
			query[k] = v
		}

		var page idPage
		if err := s.get(ctx, operation, path, query, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			ids = append(ids, item.ID)
		}
		if page.Next == "" || len(page.Items) == 0 {
			return ids, nil
		}
	}
}

// get performs one authenticated GET bounded by the per-call timeout
func (s *spotifyService) get(ctx context.Context, operation, path string, query map[string]string, result any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ensureValidToken(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	token := s.accessToken
	s.mu.RUnlock()

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(query).
		SetResult(result).
		Get(path)

	if err != nil {
		return &PlatformError{
			Platform:  spotifyPlatform,
			Operation: operation,
			Message:   "request failed",
			URL:       path,
			Err:       err,
		}
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return &PlatformError{
			Platform:   spotifyPlatform,
			Operation:  operation,
			Message:    "resource not found",
			URL:        path,
			StatusCode: resp.StatusCode(),
			Err:        models.ErrNotFound,
		}
	case http.StatusUnauthorized:
		s.invalidateToken()
	}

	return &PlatformError{
		Platform:   spotifyPlatform,
		Operation:  operation,
		Message:    fmt.Sprintf("API returned status %d", resp.StatusCode()),
		URL:        path,
		StatusCode: resp.StatusCode(),
	}
}

// ensureValidToken ensures we have a valid access token
func (s *spotifyService) ensureValidToken(ctx context.Context) error {
	s.mu.RLock()
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return nil
	}

	token, err := s.tokenSource.Token(ctx)
	if err != nil {
		return &PlatformError{
			Platform:  spotifyPlatform,
			Operation: "auth",
			Message:   "failed to get access token",
			Err:       err,
		}
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = token.Expiry
	if s.tokenExpiry.IsZero() {
		s.tokenExpiry = time.Now().Add(time.Hour)
	}

	slog.Info("Spotify access token refreshed", "expires_at", s.tokenExpiry)

	return nil
}

func (s *spotifyService) invalidateToken() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

// IsNotFound reports whether err is an upstream not-found
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
