package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"spotiscience/internal/cache"
	"spotiscience/internal/models"
)

// cachedRecordRepository wraps a RecordRepository with caching
type cachedRecordRepository struct {
	repository RecordRepository
	cache      cache.Cache
}

// NewCachedRecordRepository creates a new cached record repository
func NewCachedRecordRepository(repository RecordRepository, c cache.Cache) RecordRepository {
	return &cachedRecordRepository{
		repository: repository,
		cache:      c,
	}
}

// Cache key generators
func recordIDKey(id string) string       { return "record:id:" + id }
func collectionIDKey(id string) string   { return "collection:id:" + id }
func collectionListKey(limit int) string { return "collection:list:" + strconv.Itoa(limit) }

// Cache TTL constants
const (
	recordCacheTTL     = 24 * time.Hour
	collectionCacheTTL = 1 * time.Hour
	listCacheTTL       = 1 * time.Minute
	negativeCacheTTL   = 5 * time.Minute // For not-found results
)

// commonListLimits are the list sizes the API and CLI ask for
var commonListLimits = []int{0, 10, 20, DefaultListLimit, 100}

// SaveCollection saves to the repository and invalidates affected entries
func (r *cachedRecordRepository) SaveCollection(ctx context.Context, collection *models.Collection) error {
	if err := r.repository.SaveCollection(ctx, collection); err != nil {
		return err
	}

	r.delete(ctx, collectionIDKey(collection.ID))
	for _, record := range collection.AllRecords() {
		r.delete(ctx, recordIDKey(record.ID))
	}
	r.invalidateLists(ctx)
	return nil
}

// FindCollection checks cache first, then repository
func (r *cachedRecordRepository) FindCollection(ctx context.Context, id string) (*models.Collection, error) {
	key := collectionIDKey(id)

	var collection models.Collection
	hit, notFound := r.getFromCache(ctx, key, &collection)
	if notFound {
		return nil, fmt.Errorf("collection %s: %w", id, models.ErrNotFound)
	}
	if hit {
		return &collection, nil
	}

	found, err := r.repository.FindCollection(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.cacheNotFound(ctx, key)
		}
		return nil, err
	}

	r.cacheResult(ctx, key, found, collectionCacheTTL)
	return found, nil
}

// ListCollections checks cache first, then repository
func (r *cachedRecordRepository) ListCollections(ctx context.Context, limit int) ([]models.CollectionSummary, error) {
	key := collectionListKey(limit)

	var summaries []models.CollectionSummary
	if hit, _ := r.getFromCache(ctx, key, &summaries); hit {
		return summaries, nil
	}

	summaries, err := r.repository.ListCollections(ctx, limit)
	if err != nil {
		return nil, err
	}

	r.cacheResult(ctx, key, summaries, listCacheTTL)
	return summaries, nil
}

// FindRecord checks cache first, then repository
func (r *cachedRecordRepository) FindRecord(ctx context.Context, id string) (*models.FeatureRecord, error) {
	key := recordIDKey(id)

	var record models.FeatureRecord
	hit, notFound := r.getFromCache(ctx, key, &record)
	if notFound {
		return nil, fmt.Errorf("record %s: %w", id, models.ErrNotFound)
	}
	if hit {
		return &record, nil
	}

	found, err := r.repository.FindRecord(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.cacheNotFound(ctx, key)
		}
		return nil, err
	}

	r.cacheResult(ctx, key, found, recordCacheTTL)
	return found, nil
}

// SaveRecords invalidates the cached copies and saves to repository
func (r *cachedRecordRepository) SaveRecords(ctx context.Context, records []models.FeatureRecord) error {
	if err := r.repository.SaveRecords(ctx, records); err != nil {
		return err
	}
	for _, record := range records {
		r.delete(ctx, recordIDKey(record.ID))
	}
	return nil
}

// FindRecordsMissingGenres always reads the repository
func (r *cachedRecordRepository) FindRecordsMissingGenres(ctx context.Context, limit int) ([]models.FeatureRecord, error) {
	return r.repository.FindRecordsMissingGenres(ctx, limit)
}

// UpdateGenres invalidates the cached record and updates in repository
func (r *cachedRecordRepository) UpdateGenres(ctx context.Context, id string, genres []string) error {
	if err := r.repository.UpdateGenres(ctx, id, genres); err != nil {
		return err
	}
	r.delete(ctx, recordIDKey(id))
	return nil
}

// Count always reads the repository
func (r *cachedRecordRepository) Count(ctx context.Context) (int64, error) {
	return r.repository.Count(ctx)
}

// getFromCache decodes a cached value into dst. notFound reports a cached
// negative result.
func (r *cachedRecordRepository) getFromCache(ctx context.Context, key string, dst any) (hit, notFound bool) {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return false, false
	}
	if data == nil {
		return false, false
	}

	// Handle negative cache (null result marker)
	if cache.IsNull(data) {
		return false, true
	}

	if err := json.Unmarshal(data, dst); err != nil {
		slog.Error("Failed to unmarshal cached value", "key", key, "error", err)
		// Delete corrupted cache entry
		r.delete(ctx, key)
		return false, false
	}
	return true, false
}

func (r *cachedRecordRepository) cacheResult(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := cache.SetJSON(ctx, r.cache, key, value, ttl); err != nil {
		slog.Error("Failed to cache value", "key", key, "error", err)
	}
}

func (r *cachedRecordRepository) cacheNotFound(ctx context.Context, key string) {
	if err := r.cache.Set(ctx, key, cache.NullMarker, negativeCacheTTL); err != nil {
		slog.Error("Failed to cache not-found result", "key", key, "error", err)
	}
}

func (r *cachedRecordRepository) delete(ctx context.Context, key string) {
	if err := r.cache.Delete(ctx, key); err != nil {
		slog.Warn("Failed to invalidate cache entry", "key", key, "error", err)
	}
}

// invalidateLists drops the cached list pages a new collection would change
func (r *cachedRecordRepository) invalidateLists(ctx context.Context) {
	for _, limit := range commonListLimits {
		r.delete(ctx, collectionListKey(limit))
	}
	slog.Debug("Invalidated collection list cache")
}
