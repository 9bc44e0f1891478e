package repositories

import (
	"context"

	"spotiscience/internal/models"
)

// RecordRepository defines the interface for feature record and collection storage
type RecordRepository interface {
	// Collections
	SaveCollection(ctx context.Context, collection *models.Collection) error
	FindCollection(ctx context.Context, id string) (*models.Collection, error)
	ListCollections(ctx context.Context, limit int) ([]models.CollectionSummary, error)

	// Records
	FindRecord(ctx context.Context, id string) (*models.FeatureRecord, error)
	SaveRecords(ctx context.Context, records []models.FeatureRecord) error

	// Maintenance operations
	FindRecordsMissingGenres(ctx context.Context, limit int) ([]models.FeatureRecord, error)
	UpdateGenres(ctx context.Context, id string, genres []string) error
	Count(ctx context.Context) (int64, error)
}

// DefaultListLimit bounds ListCollections when the caller passes no limit
const DefaultListLimit = 50

func listLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultListLimit
	}
	return limit
}
