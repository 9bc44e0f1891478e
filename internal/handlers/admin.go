package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"spotiscience/internal/repositories"
)

// StoreStats summarises what the record store holds
type StoreStats struct {
	Records     int64          `json:"records"`
	Collections int            `json:"collections"`
	LatestRun   *time.Time     `json:"latest_run,omitempty"`
	Database    *DatabaseStats `json:"database,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`
}

// DatabaseStats are the server-side figures reported by MongoDB
type DatabaseStats struct {
	DatabaseName string            `json:"database_name"`
	TotalSize    float64           `json:"total_size_mb"`
	StorageSize  float64           `json:"storage_size_mb"`
	IndexSize    float64           `json:"index_size_mb"`
	Collections  []CollectionStats `json:"collections"`
}

// CollectionStats represents statistics for a single MongoDB collection
type CollectionStats struct {
	Name       string  `json:"name"`
	Documents  int64   `json:"documents"`
	DataSize   float64 `json:"data_size_mb"`
	AvgDocSize float64 `json:"avg_doc_size_bytes"`
}

// AdminHandler handles administrative requests
type AdminHandler struct {
	records  repositories.RecordRepository
	database *mongo.Database
}

// NewAdminHandler creates a new admin handler. database is nil unless the
// mongo store is in use.
func NewAdminHandler(records repositories.RecordRepository, database *mongo.Database) *AdminHandler {
	return &AdminHandler{records: records, database: database}
}

// listAll is large enough to count every stored run
const listAll = 1 << 20

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	count, err := h.records.Count(ctx)
	if err != nil {
		respondError(c, "store statistics", err)
		return
	}
	summaries, err := h.records.ListCollections(ctx, listAll)
	if err != nil {
		respondError(c, "store statistics", err)
		return
	}

	stats := StoreStats{
		Records:     count,
		Collections: len(summaries),
		LastUpdated: time.Now(),
	}
	if len(summaries) > 0 {
		latest := summaries[0].CreatedAt
		stats.LatestRun = &latest
	}

	if h.database != nil {
		dbStats, err := h.collectDatabaseStats(ctx)
		if err != nil {
			slog.Warn("Failed to collect database stats", "error", err)
		} else {
			stats.Database = dbStats
		}
	}

	c.JSON(http.StatusOK, stats)
}

// collectDatabaseStats reads dbStats and collStats from MongoDB
func (h *AdminHandler) collectDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	var dbStats bson.M
	if err := h.database.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&dbStats); err != nil {
		return nil, fmt.Errorf("failed to get database stats: %w", err)
	}

	stats := &DatabaseStats{
		DatabaseName: h.database.Name(),
		TotalSize:    megabytes(dbStats["dataSize"]),
		StorageSize:  megabytes(dbStats["storageSize"]),
		IndexSize:    megabytes(dbStats["indexSize"]),
	}

	names, err := h.database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range names {
		var collStats bson.M
		if err := h.database.RunCommand(ctx, bson.D{{Key: "collStats", Value: name}}).Decode(&collStats); err != nil {
			slog.Warn("Failed to get collection stats", "collection", name, "error", err)
			continue
		}

		entry := CollectionStats{
			Name:      name,
			Documents: int64(number(collStats["count"])),
			DataSize:  megabytes(collStats["size"]),
		}
		if entry.Documents > 0 {
			entry.AvgDocSize = number(collStats["size"]) / float64(entry.Documents)
		}
		stats.Collections = append(stats.Collections, entry)
	}

	return stats, nil
}

// number reads the numeric types MongoDB uses for statistics
func number(v any) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func megabytes(v any) float64 {
	return number(v) / 1024 / 1024
}
