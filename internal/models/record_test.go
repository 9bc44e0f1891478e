package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() FeatureRecord {
	return FeatureRecord{
		ID:               "a",
		Name:             "Song A",
		Artist:           "X",
		Album:            "Alb",
		ReleaseDate:      "2020",
		Popularity:       50,
		Length:           200000,
		Acousticness:     0.1,
		Danceability:     0.2,
		Energy:           0.3,
		Instrumentalness: 0.4,
		Liveness:         0.5,
		Valence:          0.6,
		Loudness:         -7,
		Speechiness:      0.8,
		Tempo:            120,
		Key:              5,
		TimeSignature:    4,
	}
}

func TestFeatureRecord_FeaturesOrder(t *testing.T) {
	r := sampleRecord()

	features := r.Features()
	require.Len(t, features, FeatureCount)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, -7, 0.8, 120, 5, 4}, features)
	assert.Equal(t, "acousticness", FeatureNames[0])
	assert.Equal(t, "time_signature", FeatureNames[FeatureCount-1])
}

func TestFeatureRecord_SetFeaturesRoundTrip(t *testing.T) {
	var r FeatureRecord
	require.NoError(t, r.SetFeatures(sampleRecord().Features()))
	assert.Equal(t, sampleRecord().Features(), r.Features())

	err := r.SetFeatures([]float64{1, 2})
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestFeatureRecord_ValuesLayout(t *testing.T) {
	r := sampleRecord()

	values := r.Values()
	require.Len(t, values, len(FieldNames))
	assert.Equal(t, "a", values[0])
	assert.Equal(t, "Song A", values[1])
	assert.Equal(t, "X", values[2])
	assert.Equal(t, 50, values[5])
	// the default skip of six fields lands on acousticness
	assert.Equal(t, "acousticness", FieldNames[HeaderFields])
	assert.Equal(t, 0.1, values[HeaderFields])
}

func TestFeatureRecord_Vector(t *testing.T) {
	r := sampleRecord()

	tests := []struct {
		name    string
		skip    int
		want    []float64
		wantErr bool
	}{
		{name: "default skip", skip: 6, want: r.Features()},
		{name: "skip into features", skip: 9, want: r.Features()[3:]},
		{name: "last feature only", skip: 16, want: []float64{4}},
		{name: "header not numeric", skip: 5, wantErr: true},
		{name: "nothing left", skip: 17, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Vector(tt.skip)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedOption)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoodFromClass(t *testing.T) {
	for i, want := range []MoodLabel{MoodCalm, MoodEnergy, MoodHappy, MoodSad} {
		got, err := MoodFromClass(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := MoodFromClass(4)
	assert.ErrorIs(t, err, ErrUnsupportedOption)
	_, err = MoodFromClass(-1)
	assert.ErrorIs(t, err, ErrUnsupportedOption)
}

func TestMoodLabels_ReturnsCopy(t *testing.T) {
	labels := MoodLabels()
	assert.Equal(t, []MoodLabel{MoodCalm, MoodEnergy, MoodHappy, MoodSad}, labels)

	labels[0] = "angry"

	got, err := MoodFromClass(0)
	require.NoError(t, err)
	assert.Equal(t, MoodCalm, got)
	assert.Equal(t, MoodCalm, MoodLabels()[0])
}

func TestCollection_AppendKeepsOrder(t *testing.T) {
	c := NewCollection(CollectionAlbums)
	assert.NotEmpty(t, c.ID)

	a := sampleRecord()
	b := sampleRecord()
	b.ID = "b"

	c.Append("Second Album", a)
	c.Append("First Album", b)
	c.Append("Second Album", b)

	assert.Equal(t, []string{"Second Album", "First Album"}, c.Names())
	require.Len(t, c.Records("Second Album"), 2)
	assert.Equal(t, "a", c.Records("Second Album")[0].ID)
	assert.Equal(t, "b", c.Records("Second Album")[1].ID)
	assert.Nil(t, c.Records("missing"))
	assert.Equal(t, 3, c.Len())
}

func TestCollection_Merge(t *testing.T) {
	c := NewCollection(CollectionAlbums)
	c.Append("One", sampleRecord())

	other := NewCollection(CollectionAlbums)
	other.Append("Two", sampleRecord())
	other.Append("One", sampleRecord())

	c.Merge(other)
	c.Merge(nil)

	assert.Equal(t, []string{"One", "Two"}, c.Names())
	assert.Len(t, c.Records("One"), 2)
}

func TestCollection_Summary(t *testing.T) {
	c := NewCollection(CollectionPlaylist)
	b := sampleRecord()
	b.ID = "b"
	c.Append("Mix", sampleRecord(), b)
	c.Append("Other", sampleRecord())

	summary := c.Summary()
	assert.Equal(t, c.ID, summary.ID)
	assert.Equal(t, CollectionPlaylist, summary.Kind)
	assert.Equal(t, []string{"Mix", "Other"}, summary.Groups)
	assert.Equal(t, 3, summary.Records)

	all := c.AllRecords()
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[1].ID)
}
