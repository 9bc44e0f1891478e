package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spotiscience/internal/models"
)

// mongoRecordRepository implements RecordRepository interface using MongoDB
type mongoRecordRepository struct {
	records     *mongo.Collection
	collections *mongo.Collection
}

// NewMongoRecordRepository creates a new MongoDB-backed record repository
func NewMongoRecordRepository(db *models.Database) RecordRepository {
	return &mongoRecordRepository{
		records:     db.DB.Collection(models.RecordsCollection),
		collections: db.DB.Collection(models.CollectionsCollection),
	}
}

// SaveCollection stores the collection and upserts its records
func (r *mongoRecordRepository) SaveCollection(ctx context.Context, collection *models.Collection) error {
	collection.SchemaVersion = models.CurrentSchemaVersion
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = time.Now().UTC()
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collections.ReplaceOne(ctx, bson.M{"_id": collection.ID}, collection, opts); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}

	return r.SaveRecords(ctx, collection.AllRecords())
}

// FindCollection finds a collection by its id
func (r *mongoRecordRepository) FindCollection(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	err := r.collections.FindOne(ctx, bson.M{"_id": id}).Decode(&collection)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("collection %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find collection: %w", err)
	}

	r.handleSchemaEvolution(&collection)
	return &collection, nil
}

// ListCollections returns the newest collections first
func (r *mongoRecordRepository) ListCollections(ctx context.Context, limit int) ([]models.CollectionSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(listLimit(limit)))

	cursor, err := r.collections.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := make([]models.CollectionSummary, 0)
	for cursor.Next(ctx) {
		var collection models.Collection
		if err := cursor.Decode(&collection); err != nil {
			slog.Error("Failed to decode collection", "error", err)
			continue
		}
		summaries = append(summaries, collection.Summary())
	}

	return summaries, cursor.Err()
}

// FindRecord finds a record by its platform id
func (r *mongoRecordRepository) FindRecord(ctx context.Context, id string) (*models.FeatureRecord, error) {
	var record models.FeatureRecord
	err := r.records.FindOne(ctx, bson.M{"id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("record %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return &record, nil
}

// SaveRecords upserts records by platform id in one bulk write. Genres
// already stored survive a re-download that carries none.
func (r *mongoRecordRepository) SaveRecords(ctx context.Context, records []models.FeatureRecord) error {
	if len(records) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(records))
	for _, record := range records {
		if record.FetchedAt.IsZero() {
			record.FetchedAt = time.Now().UTC()
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": record.ID}).
			SetUpdate(bson.M{"$set": record}).
			SetUpsert(true))
	}

	_, err := r.records.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to save records in bulk: %w", err)
	}
	return nil
}

// FindRecordsMissingGenres returns records whose genres were never looked up
func (r *mongoRecordRepository) FindRecordsMissingGenres(ctx context.Context, limit int) ([]models.FeatureRecord, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"genres": bson.M{"$exists": false}},
			{"genres": nil},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "fetched_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.records.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find records without genres: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.FeatureRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// UpdateGenres sets the genres of one record. An empty list marks the record
// as looked up.
func (r *mongoRecordRepository) UpdateGenres(ctx context.Context, id string, genres []string) error {
	if genres == nil {
		genres = []string{}
	}
	result, err := r.records.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"genres": genres}})
	if err != nil {
		return fmt.Errorf("failed to update genres: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("record %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Count returns the total number of stored records
func (r *mongoRecordRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.records.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// handleSchemaEvolution upgrades collections written by older versions
func (r *mongoRecordRepository) handleSchemaEvolution(collection *models.Collection) {
	if collection.SchemaVersion >= models.CurrentSchemaVersion {
		return
	}

	switch collection.SchemaVersion {
	case 0:
		// version 0 stored no kind
		if collection.Kind == "" {
			collection.Kind = models.CollectionAlbums
		}
		fallthrough
	default:
		collection.SchemaVersion = models.CurrentSchemaVersion
	}

	// Lazy update the document in the database
	go func(c models.Collection) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := r.collections.ReplaceOne(ctx, bson.M{"_id": c.ID}, c); err != nil {
			slog.Error("Failed to update collection schema version", "collectionID", c.ID, "error", err)
		}
	}(*collection)
}
