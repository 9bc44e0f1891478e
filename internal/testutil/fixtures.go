package testutil

import (
	"time"

	"spotiscience/internal/models"
)

// RecordBuilder provides a fluent interface for creating test records
type RecordBuilder struct {
	record models.FeatureRecord
}

// NewRecordBuilder creates a new record builder with default values
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		record: models.FeatureRecord{
			ID:               "test-track",
			Name:             "Test Song",
			Artist:           "Test Artist",
			Album:            "Test Album",
			ReleaseDate:      "2020-01-01",
			Popularity:       50,
			Length:           200000,
			Acousticness:     0.1,
			Danceability:     0.5,
			Energy:           0.6,
			Instrumentalness: 0.01,
			Liveness:         0.1,
			Valence:          0.5,
			Loudness:         -6,
			Speechiness:      0.05,
			Tempo:            120,
			Key:              5,
			TimeSignature:    4,
			FetchedAt:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

// WithID sets the record id
func (b *RecordBuilder) WithID(id string) *RecordBuilder {
	b.record.ID = id
	return b
}

// WithName sets the song name
func (b *RecordBuilder) WithName(name string) *RecordBuilder {
	b.record.Name = name
	return b
}

// WithArtist sets the artist
func (b *RecordBuilder) WithArtist(artist string) *RecordBuilder {
	b.record.Artist = artist
	return b
}

// WithAlbum sets the album
func (b *RecordBuilder) WithAlbum(album string) *RecordBuilder {
	b.record.Album = album
	return b
}

// WithFeatures sets the 11 descriptors in feature order
func (b *RecordBuilder) WithFeatures(values ...float64) *RecordBuilder {
	if err := b.record.SetFeatures(values); err != nil {
		panic(err)
	}
	return b
}

// Scaled multiplies every descriptor by factor
func (b *RecordBuilder) Scaled(factor float64) *RecordBuilder {
	features := b.record.Features()
	for i := range features {
		features[i] *= factor
	}
	return b.WithFeatures(features...)
}

// WithGenres sets the genres
func (b *RecordBuilder) WithGenres(genres ...string) *RecordBuilder {
	b.record.Genres = genres
	return b
}

// Build returns the record
func (b *RecordBuilder) Build() models.FeatureRecord {
	return b.record
}

// CollectionBuilder provides a fluent interface for creating test collections
type CollectionBuilder struct {
	collection *models.Collection
}

// NewCollectionBuilder creates an empty collection of the given kind
func NewCollectionBuilder(kind string) *CollectionBuilder {
	return &CollectionBuilder{collection: models.NewCollection(kind)}
}

// WithID overrides the generated id
func (b *CollectionBuilder) WithID(id string) *CollectionBuilder {
	b.collection.ID = id
	return b
}

// WithGroup appends records to a group
func (b *CollectionBuilder) WithGroup(name string, records ...models.FeatureRecord) *CollectionBuilder {
	b.collection.Append(name, records...)
	return b
}

// Build returns the collection
func (b *CollectionBuilder) Build() *models.Collection {
	return b.collection
}

// CreateTestRecord creates a basic test record
func CreateTestRecord() models.FeatureRecord {
	return NewRecordBuilder().Build()
}

// CreateTestCollection creates an album collection with two groups
func CreateTestCollection() *models.Collection {
	return NewCollectionBuilder(models.CollectionAlbums).
		WithGroup("First Album",
			NewRecordBuilder().WithID("t1").WithName("Opening").WithAlbum("First Album").Build(),
			NewRecordBuilder().WithID("t2").WithName("Closing").WithAlbum("First Album").WithFeatures(0.9, 0.2, 0.1, 0.5, 0.1, 0.1, -20, 0.03, 70, 2, 3).Build(),
		).
		WithGroup("Second Album",
			NewRecordBuilder().WithID("t3").WithName("Single").WithAlbum("Second Album").WithFeatures(0.2, 0.6, 0.7, 0.0, 0.2, 0.6, -5, 0.06, 125, 7, 4).Build(),
		).
		Build()
}
