package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"spotiscience/internal/models"
	"spotiscience/internal/repositories"
	"spotiscience/internal/services"
)

// GenresResponse lists the genres found for a track
type GenresResponse struct {
	ID     string   `json:"id"`
	Genres []string `json:"genres"`
}

// LyricsResponse carries the cleaned lyrics of a song
type LyricsResponse struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Lyrics string `json:"lyrics"`
}

// TrackHandler serves per-song lookups
type TrackHandler struct {
	acquisition *services.AcquisitionService
	records     repositories.RecordRepository
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(acquisition *services.AcquisitionService, records repositories.RecordRepository) *TrackHandler {
	return &TrackHandler{acquisition: acquisition, records: records}
}

// GetGenres handles GET /api/v1/tracks/:id/genres. A stored record with
// genres answers directly; otherwise the platform is asked and the stored
// record, if any, is updated.
func (h *TrackHandler) GetGenres(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := services.ResolveID(c.Param("id"))
	if err != nil {
		respondError(c, "genre lookup", err)
		return
	}

	stored, err := h.records.FindRecord(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		slog.Warn("Record lookup failed, asking platform", "id", id, "error", err)
	}
	if stored != nil && len(stored.Genres) > 0 {
		c.JSON(http.StatusOK, GenresResponse{ID: id, Genres: stored.Genres})
		return
	}

	genres, err := h.acquisition.SongGenres(ctx, id)
	if err != nil {
		respondError(c, "genre lookup", err)
		return
	}

	if stored != nil {
		if err := h.records.UpdateGenres(ctx, id, genres); err != nil {
			slog.Warn("Failed to store genres", "id", id, "error", err)
		}
	}

	c.JSON(http.StatusOK, GenresResponse{ID: id, Genres: genres})
}

// GetLyrics handles GET /api/v1/lyrics?title=&artist=
func (h *TrackHandler) GetLyrics(c *gin.Context) {
	title := c.Query("title")
	artist := c.Query("artist")
	if title == "" || artist == "" {
		badRequest(c, "title and artist are required", nil)
		return
	}

	lyrics, err := h.acquisition.SongLyrics(c.Request.Context(), title, artist)
	if err != nil {
		respondError(c, "lyrics lookup", err)
		return
	}

	c.JSON(http.StatusOK, LyricsResponse{Title: title, Artist: artist, Lyrics: lyrics})
}
