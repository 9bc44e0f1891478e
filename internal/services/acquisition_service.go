package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spotiscience/internal/models"
)

// DefaultPlaylistSongs is the number of playlist songs fetched when the
// caller does not say otherwise
const DefaultPlaylistSongs = 100

const playlistPageSize = 100

// AcquisitionService turns platform identifiers into feature records and
// collections. Every remote call is spaced by the throttle and made once.
type AcquisitionService struct {
	streaming StreamingClient
	lyrics    LyricsClient
	throttle  *Throttle
	reporter  ProgressReporter
	now       func() time.Time
}

// AcquisitionOption configures an AcquisitionService
type AcquisitionOption func(*AcquisitionService)

// WithThrottle sets the minimum interval between remote calls
func WithThrottle(interval time.Duration) AcquisitionOption {
	return func(s *AcquisitionService) {
		s.throttle = NewThrottle(interval)
	}
}

// WithReporter sets the batch progress reporter
func WithReporter(r ProgressReporter) AcquisitionOption {
	return func(s *AcquisitionService) {
		if r != nil {
			s.reporter = r
		}
	}
}

// NewAcquisitionService creates a new acquisition service. lyrics may be nil
// when no lyrics provider is configured.
func NewAcquisitionService(streaming StreamingClient, lyrics LyricsClient, opts ...AcquisitionOption) *AcquisitionService {
	s := &AcquisitionService{
		streaming: streaming,
		lyrics:    lyrics,
		throttle:  NewThrottle(DefaultRequestInterval),
		reporter:  NewLogReporter(slog.Default()),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SongFeatures fetches one song's metadata and audio descriptors
func (s *AcquisitionService) SongFeatures(ctx context.Context, song string) (models.FeatureRecord, error) {
	id, err := ResolveID(song)
	if err != nil {
		return models.FeatureRecord{}, err
	}

	if err := s.throttle.Wait(ctx); err != nil {
		return models.FeatureRecord{}, err
	}
	track, err := s.streaming.GetTrack(ctx, id)
	if err != nil {
		return models.FeatureRecord{}, err
	}

	if err := s.throttle.Wait(ctx); err != nil {
		return models.FeatureRecord{}, err
	}
	features, err := s.streaming.GetAudioFeatures(ctx, id)
	if err != nil {
		return models.FeatureRecord{}, err
	}

	return buildRecord(track, features, s.now()), nil
}

// buildRecord merges track metadata with its audio features. The artist is
// the album's first artist so compilations group under one name.
func buildRecord(track *Track, features *AudioFeatures, fetchedAt time.Time) models.FeatureRecord {
	artist := ""
	switch {
	case len(track.Album.Artists) > 0:
		artist = track.Album.Artists[0].Name
	case len(track.Artists) > 0:
		artist = track.Artists[0].Name
	}

	record := models.FeatureRecord{
		ID:          track.ID,
		Name:        track.Name,
		Artist:      artist,
		Album:       track.Album.Name,
		ReleaseDate: track.Album.ReleaseDate,
		Popularity:  track.Popularity,
		Length:      track.DurationMs,
		FetchedAt:   fetchedAt.UTC(),
	}
	// Values always has FeatureCount entries
	_ = record.SetFeatures(features.Values())
	return record
}

// AlbumSongFeatures downloads every song of one or more albums, grouped by
// album name. Failed songs are reported in a *BatchError next to the
// partial collection.
func (s *AcquisitionService) AlbumSongFeatures(ctx context.Context, albums Identifier) (*models.Collection, error) {
	ids, err := albums.Resolve()
	if err != nil {
		return nil, err
	}
	return s.downloadAlbums(ctx, models.CollectionAlbums, ids)
}

// ArtistSongFeatures downloads every album of an artist
func (s *AcquisitionService) ArtistSongFeatures(ctx context.Context, artist string) (*models.Collection, error) {
	id, err := ResolveID(artist)
	if err != nil {
		return nil, err
	}

	if err := s.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	albumIDs, err := s.streaming.GetArtistAlbumIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.downloadAlbums(ctx, models.CollectionArtist, albumIDs)
}

func (s *AcquisitionService) downloadAlbums(ctx context.Context, kind string, albumIDs []string) (*models.Collection, error) {
	collection := models.NewCollection(kind)
	batch := &BatchError{}
	s.reporter.Report(Progress{RunID: collection.ID, Kind: kind, Total: len(albumIDs), Status: ProgressStarted})

	for _, albumID := range albumIDs {
		if err := ctx.Err(); err != nil {
			return collection, errors.Join(err, batch.errOrNil())
		}

		group, trackIDs, err := s.albumTracks(ctx, albumID)
		if err != nil {
			batch.add(albumID, albumID, err)
			s.reporter.Report(Progress{RunID: collection.ID, Kind: kind, Group: albumID, ItemID: albumID, Status: ProgressItemFailed, Err: err})
			continue
		}

		s.downloadGroup(ctx, collection, group, trackIDs, batch)
	}

	s.reporter.Report(Progress{RunID: collection.ID, Kind: kind, Total: collection.Len(), Status: ProgressFinished, Err: batch.errOrNil()})
	return collection, batch.errOrNil()
}

func (s *AcquisitionService) albumTracks(ctx context.Context, albumID string) (string, []string, error) {
	if err := s.throttle.Wait(ctx); err != nil {
		return "", nil, err
	}
	album, err := s.streaming.GetAlbum(ctx, albumID)
	if err != nil {
		return "", nil, err
	}

	if err := s.throttle.Wait(ctx); err != nil {
		return "", nil, err
	}
	trackIDs, err := s.streaming.GetAlbumTrackIDs(ctx, albumID)
	if err != nil {
		return "", nil, err
	}
	return album.Name, trackIDs, nil
}

// downloadGroup appends every fetchable song to the named group
func (s *AcquisitionService) downloadGroup(ctx context.Context, collection *models.Collection, group string, trackIDs []string, batch *BatchError) {
	for i, trackID := range trackIDs {
		progress := Progress{
			RunID:  collection.ID,
			Kind:   collection.Kind,
			Group:  group,
			ItemID: trackID,
			Index:  i + 1,
			Total:  len(trackIDs),
		}

		record, err := s.SongFeatures(ctx, trackID)
		if err != nil {
			batch.add(group, trackID, err)
			progress.Status, progress.Err = ProgressItemFailed, err
			s.reporter.Report(progress)
			if ctx.Err() != nil {
				return
			}
			continue
		}

		collection.Append(group, record)
		progress.Status = ProgressItemDone
		s.reporter.Report(progress)
	}

	s.reporter.Report(Progress{RunID: collection.ID, Kind: collection.Kind, Group: group, Total: len(collection.Records(group)), Status: ProgressGroupDone})
}

// PlaylistSongFeatures downloads the first nSongs songs of a playlist into a
// group named after the playlist. Below one page a single request of nSongs
// is made, otherwise pages of 100.
func (s *AcquisitionService) PlaylistSongFeatures(ctx context.Context, playlist string, nSongs int) (*models.Collection, error) {
	if nSongs < 1 {
		return nil, fmt.Errorf("n_songs must be positive, got %d: %w", nSongs, models.ErrUnsupportedOption)
	}
	id, err := ResolveID(playlist)
	if err != nil {
		return nil, err
	}

	if err := s.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	info, err := s.streaming.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}

	trackIDs, err := s.playlistTrackIDs(ctx, id, nSongs, info.Tracks.Total)
	if err != nil {
		return nil, err
	}

	collection := models.NewCollection(models.CollectionPlaylist)
	batch := &BatchError{}
	s.reporter.Report(Progress{RunID: collection.ID, Kind: collection.Kind, Group: info.Name, Total: len(trackIDs), Status: ProgressStarted})

	s.downloadGroup(ctx, collection, info.Name, trackIDs, batch)

	s.reporter.Report(Progress{RunID: collection.ID, Kind: collection.Kind, Total: collection.Len(), Status: ProgressFinished, Err: batch.errOrNil()})
	return collection, batch.errOrNil()
}

// playlistTrackIDs pages until nSongs or the playlist's total is reached.
// Pages may come back short or empty when they hold only local tracks, so an
// empty page ends paging only when the total is unknown.
func (s *AcquisitionService) playlistTrackIDs(ctx context.Context, id string, nSongs, total int) ([]string, error) {
	if nSongs < playlistPageSize {
		if err := s.throttle.Wait(ctx); err != nil {
			return nil, err
		}
		return s.streaming.GetPlaylistTrackIDs(ctx, id, nSongs, 0)
	}

	limit := nSongs
	if total > 0 {
		limit = min(nSongs, total)
	}

	var ids []string
	for offset := 0; offset < limit; offset += playlistPageSize {
		if err := s.throttle.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := s.streaming.GetPlaylistTrackIDs(ctx, id, playlistPageSize, offset)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page...)
		if len(page) == 0 && total == 0 {
			break
		}
	}
	if len(ids) > nSongs {
		ids = ids[:nSongs]
	}
	return ids, nil
}

// SongGenres returns the album's genres, falling back to the genres of the
// song's first artist when the album has none
func (s *AcquisitionService) SongGenres(ctx context.Context, song string) ([]string, error) {
	id, err := ResolveID(song)
	if err != nil {
		return nil, err
	}

	if err := s.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	track, err := s.streaming.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	album, err := s.streaming.GetAlbum(ctx, track.Album.ID)
	if err != nil {
		return nil, err
	}
	if len(album.Genres) > 0 {
		return album.Genres, nil
	}

	if len(track.Artists) == 0 {
		return []string{}, nil
	}
	if err := s.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	artist, err := s.streaming.GetArtist(ctx, track.Artists[0].ID)
	if err != nil {
		return nil, err
	}
	if artist.Genres == nil {
		return []string{}, nil
	}
	return artist.Genres, nil
}

// SongLyrics returns the lyrics of a song
func (s *AcquisitionService) SongLyrics(ctx context.Context, title, artist string) (string, error) {
	if s.lyrics == nil {
		return "", fmt.Errorf("lyrics provider not configured: %w", models.ErrUnsupportedOption)
	}
	if err := s.throttle.Wait(ctx); err != nil {
		return "", err
	}
	return s.lyrics.SearchSong(ctx, title, artist)
}

// ArtistInformation searches the platform for an artist by name
func (s *AcquisitionService) ArtistInformation(ctx context.Context, name string) (*Artist, error) {
	if err := s.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	return s.streaming.SearchArtist(ctx, name)
}

// PlaylistInformation returns a playlist's metadata
func (s *AcquisitionService) PlaylistInformation(ctx context.Context, playlist string) (*Playlist, error) {
	id, err := ResolveID(playlist)
	if err != nil {
		return nil, err
	}
	if err := s.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	return s.streaming.GetPlaylist(ctx, id)
}

// Health checks the streaming platform
func (s *AcquisitionService) Health(ctx context.Context) error {
	return s.streaming.Health(ctx)
}
