package models

import (
	"fmt"
	"time"
)

const CurrentSchemaVersion = 1

// FeatureCount is the number of audio descriptors carried by every record.
const FeatureCount = 11

// HeaderFields is the number of metadata fields that precede the audio
// features in a record's positional layout.
const HeaderFields = 6

// FeatureNames lists the audio descriptors in their load-bearing order.
// The mood artifact and the similarity engine both index into this order.
var FeatureNames = [FeatureCount]string{
	"acousticness",
	"danceability",
	"energy",
	"instrumentalness",
	"liveness",
	"valence",
	"loudness",
	"speechiness",
	"tempo",
	"key",
	"time_signature",
}

// FieldNames is the positional layout used when a caller slices a record by a
// skip count: the metadata header followed by FeatureNames.
var FieldNames = append([]string{"id", "name", "artist", "album", "release_date", "popularity"}, FeatureNames[:]...)

// FeatureRecord represents one song's metadata and audio descriptors
type FeatureRecord struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Artist      string `bson:"artist" json:"artist"`
	Album       string `bson:"album" json:"album"`
	ReleaseDate string `bson:"release_date" json:"release_date"`
	Popularity  int    `bson:"popularity" json:"popularity"`
	Length      int    `bson:"length" json:"length"` // milliseconds

	Acousticness     float64 `bson:"acousticness" json:"acousticness"`
	Danceability     float64 `bson:"danceability" json:"danceability"`
	Energy           float64 `bson:"energy" json:"energy"`
	Instrumentalness float64 `bson:"instrumentalness" json:"instrumentalness"`
	Liveness         float64 `bson:"liveness" json:"liveness"`
	Valence          float64 `bson:"valence" json:"valence"`
	Loudness         float64 `bson:"loudness" json:"loudness"`
	Speechiness      float64 `bson:"speechiness" json:"speechiness"`
	Tempo            float64 `bson:"tempo" json:"tempo"`
	Key              float64 `bson:"key" json:"key"`
	TimeSignature    float64 `bson:"time_signature" json:"time_signature"`

	// Genres is filled on demand by the genre lookup; it is not a model input.
	Genres []string `bson:"genres,omitempty" json:"genres,omitempty"`

	FetchedAt time.Time `bson:"fetched_at" json:"fetched_at"`
}

// Features returns the 11 audio descriptors in FeatureNames order.
func (r FeatureRecord) Features() []float64 {
	return []float64{
		r.Acousticness,
		r.Danceability,
		r.Energy,
		r.Instrumentalness,
		r.Liveness,
		r.Valence,
		r.Loudness,
		r.Speechiness,
		r.Tempo,
		r.Key,
		r.TimeSignature,
	}
}

// SetFeatures assigns descriptors given in FeatureNames order.
func (r *FeatureRecord) SetFeatures(values []float64) error {
	if len(values) != FeatureCount {
		return fmt.Errorf("expected %d features, got %d: %w", FeatureCount, len(values), ErrInsufficientData)
	}
	r.Acousticness = values[0]
	r.Danceability = values[1]
	r.Energy = values[2]
	r.Instrumentalness = values[3]
	r.Liveness = values[4]
	r.Valence = values[5]
	r.Loudness = values[6]
	r.Speechiness = values[7]
	r.Tempo = values[8]
	r.Key = values[9]
	r.TimeSignature = values[10]
	return nil
}

// Values returns the record in FieldNames order.
func (r FeatureRecord) Values() []any {
	values := []any{r.ID, r.Name, r.Artist, r.Album, r.ReleaseDate, r.Popularity}
	for _, f := range r.Features() {
		values = append(values, f)
	}
	return values
}

// Vector returns the numeric tail of the positional layout after skipping
// the first skip fields. Only skips that leave purely numeric descriptors
// are accepted, so skip must fall in [HeaderFields, len(FieldNames)).
func (r FeatureRecord) Vector(skip int) ([]float64, error) {
	if skip < HeaderFields || skip >= len(FieldNames) {
		return nil, fmt.Errorf("skip fields %d outside [%d, %d): %w", skip, HeaderFields, len(FieldNames), ErrUnsupportedOption)
	}
	return r.Features()[skip-HeaderFields:], nil
}
