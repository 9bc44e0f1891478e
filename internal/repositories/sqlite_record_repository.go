package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"spotiscience/internal/models"
)

// recordRow is the records table
type recordRow struct {
	ID               string `gorm:"primaryKey"`
	Name             string `gorm:"index:idx_records_name_artist"`
	Artist           string `gorm:"index:idx_records_name_artist"`
	Album            string
	ReleaseDate      string
	Popularity       int
	Length           int
	Acousticness     float64
	Danceability     float64
	Energy           float64
	Instrumentalness float64
	Liveness         float64
	Valence          float64
	Loudness         float64
	Speechiness      float64
	Tempo            float64
	Key              float64
	TimeSignature    float64
	Genres           []string `gorm:"serializer:json"`
	GenresLookedUp   bool     `gorm:"index"`
	FetchedAt        time.Time `gorm:"index"`
}

func (recordRow) TableName() string { return "records" }

// collectionRow is the collections table
type collectionRow struct {
	ID            string `gorm:"primaryKey"`
	SchemaVersion int
	Kind          string
	CreatedAt     time.Time `gorm:"index"`
}

func (collectionRow) TableName() string { return "collections" }

// memberRow places one record at a position of a collection group
type memberRow struct {
	CollectionID string `gorm:"primaryKey"`
	Position     int    `gorm:"primaryKey;autoIncrement:false"`
	GroupName    string
	RecordID     string `gorm:"index"`
}

func (memberRow) TableName() string { return "collection_members" }

// upsertColumns are overwritten when a record is downloaded again; genres are
// kept.
var upsertColumns = []string{
	"name", "artist", "album", "release_date", "popularity", "length",
	"acousticness", "danceability", "energy", "instrumentalness", "liveness",
	"valence", "loudness", "speechiness", "tempo", "key", "time_signature",
	"fetched_at",
}

func toRow(r models.FeatureRecord) recordRow {
	row := recordRow{
		ID:               r.ID,
		Name:             r.Name,
		Artist:           r.Artist,
		Album:            r.Album,
		ReleaseDate:      r.ReleaseDate,
		Popularity:       r.Popularity,
		Length:           r.Length,
		Acousticness:     r.Acousticness,
		Danceability:     r.Danceability,
		Energy:           r.Energy,
		Instrumentalness: r.Instrumentalness,
		Liveness:         r.Liveness,
		Valence:          r.Valence,
		Loudness:         r.Loudness,
		Speechiness:      r.Speechiness,
		Tempo:            r.Tempo,
		Key:              r.Key,
		TimeSignature:    r.TimeSignature,
		Genres:           r.Genres,
		GenresLookedUp:   r.Genres != nil,
		FetchedAt:        r.FetchedAt,
	}
	if row.FetchedAt.IsZero() {
		row.FetchedAt = time.Now().UTC()
	}
	return row
}

func (row recordRow) toRecord() models.FeatureRecord {
	record := models.FeatureRecord{
		ID:          row.ID,
		Name:        row.Name,
		Artist:      row.Artist,
		Album:       row.Album,
		ReleaseDate: row.ReleaseDate,
		Popularity:  row.Popularity,
		Length:      row.Length,
		FetchedAt:   row.FetchedAt.UTC(),
	}
	_ = record.SetFeatures([]float64{
		row.Acousticness, row.Danceability, row.Energy, row.Instrumentalness, row.Liveness,
		row.Valence, row.Loudness, row.Speechiness, row.Tempo, row.Key, row.TimeSignature,
	})
	if row.GenresLookedUp {
		record.Genres = row.Genres
		if record.Genres == nil {
			record.Genres = []string{}
		}
	}
	return record
}

// sqliteRecordRepository implements RecordRepository on an embedded SQLite
// file through gorm
type sqliteRecordRepository struct {
	db *gorm.DB
}

// NewSQLiteRecordRepository opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteRecordRepository(path string) (RecordRepository, func() error, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access sqlite handle: %w", err)
	}
	// one connection keeps an in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&recordRow{}, &collectionRow{}, &memberRow{}); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}

	return &sqliteRecordRepository{db: db}, sqlDB.Close, nil
}

// SaveCollection stores the collection, its group layout and its records in
// one transaction
func (r *sqliteRecordRepository) SaveCollection(ctx context.Context, collection *models.Collection) error {
	collection.SchemaVersion = models.CurrentSchemaVersion
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := collectionRow{
			ID:            collection.ID,
			SchemaVersion: collection.SchemaVersion,
			Kind:          collection.Kind,
			CreatedAt:     collection.CreatedAt,
		}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save collection: %w", err)
		}
		if err := tx.Where("collection_id = ?", collection.ID).Delete(&memberRow{}).Error; err != nil {
			return fmt.Errorf("failed to reset collection members: %w", err)
		}

		members := make([]memberRow, 0, collection.Len())
		for _, group := range collection.Groups {
			for _, record := range group.Records {
				members = append(members, memberRow{
					CollectionID: collection.ID,
					Position:     len(members),
					GroupName:    group.Name,
					RecordID:     record.ID,
				})
			}
		}
		if len(members) > 0 {
			if err := tx.CreateInBatches(members, 200).Error; err != nil {
				return fmt.Errorf("failed to save collection members: %w", err)
			}
		}

		return upsertRecords(tx, collection.AllRecords())
	})
}

// FindCollection rebuilds a collection in its stored group order
func (r *sqliteRecordRepository) FindCollection(ctx context.Context, id string) (*models.Collection, error) {
	db := r.db.WithContext(ctx)

	var row collectionRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("collection %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find collection: %w", err)
	}

	var members []memberRow
	if err := db.Where("collection_id = ?", id).Order("position").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to load collection members: %w", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.RecordID)
	}
	var rows []recordRow
	if len(ids) > 0 {
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to load collection records: %w", err)
		}
	}
	byID := make(map[string]models.FeatureRecord, len(rows))
	for _, rec := range rows {
		byID[rec.ID] = rec.toRecord()
	}

	collection := &models.Collection{
		ID:            row.ID,
		SchemaVersion: row.SchemaVersion,
		Kind:          row.Kind,
		Groups:        make([]models.Group, 0),
		CreatedAt:     row.CreatedAt.UTC(),
	}
	for _, m := range members {
		if record, ok := byID[m.RecordID]; ok {
			collection.Append(m.GroupName, record)
		}
	}
	return collection, nil
}

// ListCollections returns the newest collections first
func (r *sqliteRecordRepository) ListCollections(ctx context.Context, limit int) ([]models.CollectionSummary, error) {
	db := r.db.WithContext(ctx)

	var rows []collectionRow
	if err := db.Order("created_at DESC").Limit(listLimit(limit)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	summaries := make([]models.CollectionSummary, 0, len(rows))
	for _, row := range rows {
		var members []memberRow
		if err := db.Where("collection_id = ?", row.ID).Order("position").Find(&members).Error; err != nil {
			return nil, fmt.Errorf("failed to load collection members: %w", err)
		}

		summary := models.CollectionSummary{
			ID:        row.ID,
			Kind:      row.Kind,
			Groups:    make([]string, 0),
			Records:   len(members),
			CreatedAt: row.CreatedAt.UTC(),
		}
		seen := make(map[string]bool)
		for _, m := range members {
			if !seen[m.GroupName] {
				seen[m.GroupName] = true
				summary.Groups = append(summary.Groups, m.GroupName)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// FindRecord finds a record by its platform id
func (r *sqliteRecordRepository) FindRecord(ctx context.Context, id string) (*models.FeatureRecord, error) {
	var row recordRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	record := row.toRecord()
	return &record, nil
}

// SaveRecords upserts records by platform id
func (r *sqliteRecordRepository) SaveRecords(ctx context.Context, records []models.FeatureRecord) error {
	return upsertRecords(r.db.WithContext(ctx), records)
}

func upsertRecords(db *gorm.DB, records []models.FeatureRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]recordRow, 0, len(records))
	seen := make(map[string]int, len(records))
	for _, record := range records {
		// a record may appear in several groups; the last copy wins
		if i, ok := seen[record.ID]; ok {
			rows[i] = toRow(record)
			continue
		}
		seen[record.ID] = len(rows)
		rows = append(rows, toRow(record))
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).CreateInBatches(rows, 200).Error
	if err != nil {
		return fmt.Errorf("failed to save records in bulk: %w", err)
	}
	return nil
}

// FindRecordsMissingGenres returns records whose genres were never looked up
func (r *sqliteRecordRepository) FindRecordsMissingGenres(ctx context.Context, limit int) ([]models.FeatureRecord, error) {
	query := r.db.WithContext(ctx).Where("genres_looked_up = ?", false).Order("fetched_at")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []recordRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find records without genres: %w", err)
	}

	records := make([]models.FeatureRecord, len(rows))
	for i, row := range rows {
		records[i] = row.toRecord()
	}
	return records, nil
}

// UpdateGenres sets the genres of one record
func (r *sqliteRecordRepository) UpdateGenres(ctx context.Context, id string, genres []string) error {
	if genres == nil {
		genres = []string{}
	}
	result := r.db.WithContext(ctx).Model(&recordRow{ID: id}).Updates(recordRow{
		Genres:         genres,
		GenresLookedUp: true,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update genres: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("record %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Count returns the total number of stored records
func (r *sqliteRecordRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&recordRow{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
