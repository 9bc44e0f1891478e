package similarity

import (
	"testing"

	"spotiscience/internal/models"
	"spotiscience/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name, artist string, features ...float64) models.FeatureRecord {
	r := models.FeatureRecord{ID: name, Name: name, Artist: artist, Album: "Alb", ReleaseDate: "2020", Popularity: 50, Length: 200000}
	if err := r.SetFeatures(features); err != nil {
		panic(err)
	}
	return r
}

var baseFeatures = []float64{0.1, 0.5, 0.7, 0.0, 0.1, 0.6, -6, 0.05, 120, 5, 4}

func scaled(c float64, values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * c
	}
	return out
}

func shifted(values []float64, idx int, delta float64) []float64 {
	out := append([]float64(nil), values...)
	out[idx] += delta
	return out
}

func TestFindSimilar_ExcludesSelfAndZeroDistance(t *testing.T) {
	source := record("Song A", "X", baseFeatures...)

	target := models.NewCollection(models.CollectionAlbums)
	target.Append("Alb",
		record("Song A (Remaster)", "X", baseFeatures...),
		record("Twin", "Y", baseFeatures...),
		record("Other", "Z", shifted(baseFeatures, 8, 10)...),
	)

	result, err := FindSimilar(source, target, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "Song A", result.Source)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Other", result.Matches[0].Name)
	assert.Equal(t, "Z", result.Matches[0].Artist)
	assert.Greater(t, result.Matches[0].Distance, 0.0)
}

func TestFindSimilar_AscendingAcrossGroupsAndTopN(t *testing.T) {
	source := record("Seed", "X", baseFeatures...)

	target := models.NewCollection(models.CollectionPlaylist)
	target.Append("First", record("Far", "A", shifted(baseFeatures, 8, 60)...), record("Near", "B", shifted(baseFeatures, 8, 5)...))
	target.Append("Second", record("Closest", "C", shifted(baseFeatures, 8, 1)...), record("Middle", "D", shifted(baseFeatures, 8, 20)...))

	opts := DefaultOptions()
	opts.TopN = 3
	result, err := FindSimilar(source, target, opts)
	require.NoError(t, err)

	require.Len(t, result.Matches, 3)
	assert.Equal(t, "Closest", result.Matches[0].Name)
	assert.Equal(t, "Near", result.Matches[1].Name)
	assert.Equal(t, "Middle", result.Matches[2].Name)
	for i := 1; i < len(result.Matches); i++ {
		assert.Less(t, result.Matches[i-1].Distance, result.Matches[i].Distance)
	}
}

func TestFindSimilar_NameGuardIsContainment(t *testing.T) {
	source := record("Love", "X", baseFeatures...)

	target := models.NewCollection(models.CollectionAlbums)
	target.Append("Alb",
		record("Lovely Day", "A", shifted(baseFeatures, 8, 3)...),
		record("Love Story", "B", shifted(baseFeatures, 8, 3)...),
		record("Glove", "C", shifted(baseFeatures, 8, 3)...),
		record("Lov", "D", shifted(baseFeatures, 8, 3)...),
	)

	result, err := FindSimilar(source, target, DefaultOptions())
	require.NoError(t, err)

	// containment is case-sensitive
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "Glove", result.Matches[0].Name)
	assert.Equal(t, "Lov", result.Matches[1].Name)
}

func TestBetween_ScaleInvariant(t *testing.T) {
	other := shifted(baseFeatures, 2, 0.2)

	for _, d := range []Distance{L1, L2} {
		want, err := Between(baseFeatures, other, d)
		require.NoError(t, err)

		for _, c := range []float64{0.5, 3, 1000} {
			got, err := Between(scaled(c, baseFeatures), scaled(c, other), d)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-12)
		}
	}
}

func TestFindSimilar_ScaledRecordsRankTheSame(t *testing.T) {
	source := testutil.NewRecordBuilder().WithName("Seed").Build()
	near := testutil.NewRecordBuilder().WithName("Near").WithArtist("A").WithAlbum("Live").
		WithFeatures(0.1, 0.5, 0.6, 0.01, 0.1, 0.5, -6, 0.05, 125, 5, 4)
	far := testutil.NewRecordBuilder().WithName("Far").WithArtist("B").WithAlbum("Live").
		WithFeatures(0.9, 0.1, 0.2, 0.5, 0.8, 0.1, -20, 0.4, 70, 1, 3)

	plain := models.NewCollection(models.CollectionAlbums)
	plain.Append("Live", near.Build(), far.Build())
	want, err := FindSimilar(source, plain, DefaultOptions())
	require.NoError(t, err)

	scaledSource := testutil.NewRecordBuilder().WithName("Seed").Scaled(4).Build()
	big := models.NewCollection(models.CollectionAlbums)
	big.Append("Live", near.Scaled(4).Build(), far.Scaled(4).Build())
	got, err := FindSimilar(scaledSource, big, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, got.Matches, 2)
	assert.Equal(t, "Near", got.Matches[0].Name)
	assert.Equal(t, "A", got.Matches[0].Artist)
	for i := range want.Matches {
		assert.InDelta(t, want.Matches[i].Distance, got.Matches[i].Distance, 1e-12)
	}
}

func TestBetween_IdenticalIsZeroForBothNorms(t *testing.T) {
	for _, d := range []Distance{L1, L2} {
		got, err := Between(baseFeatures, scaled(2, baseFeatures), d)
		require.NoError(t, err)
		assert.InDelta(t, 0, got, 1e-15)
	}
}

func TestBetween_L1AndL2(t *testing.T) {
	a := []float64{1, 1, 2}
	b := []float64{2, 1, 1}

	l1, err := Between(a, b, L1)
	require.NoError(t, err)
	l2, err := Between(a, b, L2)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, l1, 1e-12)
	assert.InDelta(t, 0.35355339059327373, l2, 1e-12)
}

func TestNormalize_ZeroSum(t *testing.T) {
	_, err := Normalize([]float64{1, -1, 0})
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	out, err := Normalize([]float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, out)
}

func TestFindSimilar_ZeroSumCandidateFails(t *testing.T) {
	source := record("Seed", "X", baseFeatures...)
	target := models.NewCollection(models.CollectionAlbums)
	target.Append("Alb", record("Silent", "A", 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0))

	_, err := FindSimilar(source, target, DefaultOptions())
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestFindSimilar_Options(t *testing.T) {
	source := record("Seed", "X", baseFeatures...)
	target := models.NewCollection(models.CollectionAlbums)
	target.Append("Alb", record("Near", "A", shifted(baseFeatures, 8, 5)...))

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "unknown distance", opts: Options{Distance: "cosine", TopN: 1}, wantErr: models.ErrUnsupportedOption},
		{name: "skip into header", opts: Options{Distance: L1, SkipFields: 3, TopN: 1}, wantErr: models.ErrUnsupportedOption},
		{name: "zero top n", opts: Options{Distance: L2}, wantErr: models.ErrUnsupportedOption},
		{name: "skip subset", opts: Options{Distance: L2, SkipFields: 8, TopN: 1}},
		{name: "defaults fill zero fields", opts: Options{TopN: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FindSimilar(source, target, tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Matches, 1)
		})
	}
}

func TestFindSimilar_NilTarget(t *testing.T) {
	result, err := FindSimilar(record("Seed", "X", baseFeatures...), nil, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestParseDistance(t *testing.T) {
	d, err := ParseDistance("L1")
	require.NoError(t, err)
	assert.Equal(t, L1, d)

	_, err = ParseDistance("l3")
	assert.ErrorIs(t, err, models.ErrUnsupportedOption)
}
