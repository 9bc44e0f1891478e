package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spotiscience/internal/config"
	"spotiscience/internal/models"
	"spotiscience/internal/repositories"
	"spotiscience/internal/services"
)

// AlbumsRequest downloads either a list of albums or every album of an artist
type AlbumsRequest struct {
	IDs    []string `json:"ids,omitempty"`
	Artist string   `json:"artist,omitempty"`
}

// PlaylistRequest downloads the first NSongs songs of a playlist
type PlaylistRequest struct {
	ID     string `json:"id" binding:"required"`
	NSongs int    `json:"n_songs,omitempty"`
}

// CollectionResponse is a stored collection plus the items that failed
type CollectionResponse struct {
	Collection *models.Collection `json:"collection"`
	Failures   []ItemFailure      `json:"failures,omitempty"`
}

// CollectionHandler downloads, stores and serves collections
type CollectionHandler struct {
	acquisition *services.AcquisitionService
	records     repositories.RecordRepository
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(acquisition *services.AcquisitionService, records repositories.RecordRepository) *CollectionHandler {
	return &CollectionHandler{acquisition: acquisition, records: records}
}

// DownloadAlbums handles POST /api/v1/collections/albums
func (h *CollectionHandler) DownloadAlbums(c *gin.Context) {
	var req AlbumsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if (len(req.IDs) == 0) == (req.Artist == "") {
		badRequest(c, "Exactly one of ids or artist is required", nil)
		return
	}

	h.download(c, "album download", func(ctx context.Context) (*models.Collection, error) {
		if req.Artist != "" {
			return h.acquisition.ArtistSongFeatures(ctx, req.Artist)
		}
		if len(req.IDs) == 1 {
			return h.acquisition.AlbumSongFeatures(ctx, services.Single(req.IDs[0]))
		}
		return h.acquisition.AlbumSongFeatures(ctx, services.Many(req.IDs...))
	})
}

// DownloadPlaylist handles POST /api/v1/collections/playlists
func (h *CollectionHandler) DownloadPlaylist(c *gin.Context) {
	var req PlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	if req.NSongs == 0 {
		req.NSongs = config.GetModelDefaults().PlaylistSongs
	}

	h.download(c, "playlist download", func(ctx context.Context) (*models.Collection, error) {
		return h.acquisition.PlaylistSongFeatures(ctx, req.ID, req.NSongs)
	})
}

// download runs an acquisition, keeps whatever was fetched and reports the
// failed items next to it
func (h *CollectionHandler) download(c *gin.Context, operation string, fetch func(context.Context) (*models.Collection, error)) {
	ctx := c.Request.Context()

	collection, err := fetch(ctx)
	failures, fatal := splitBatchError(err)
	if fatal != nil || collection == nil {
		if fatal == nil {
			fatal = fmt.Errorf("%s returned no collection", operation)
		}
		respondError(c, operation, fatal)
		return
	}

	if err := h.records.SaveCollection(ctx, collection); err != nil {
		respondError(c, operation, fmt.Errorf("failed to store collection: %w", err))
		return
	}

	slog.Info("Collection stored",
		"id", collection.ID,
		"kind", collection.Kind,
		"groups", len(collection.Groups),
		"records", collection.Len(),
		"failures", len(failures))

	c.JSON(http.StatusCreated, CollectionResponse{Collection: collection, Failures: failures})
}

// ListCollections handles GET /api/v1/collections
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer", err)
			return
		}
		limit = n
	}

	summaries, err := h.records.ListCollections(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "collection listing", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collections": summaries})
}

// GetCollection handles GET /api/v1/collections/:id
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	collection, err := h.records.FindCollection(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "collection lookup", err)
		return
	}

	c.JSON(http.StatusOK, collection)
}
