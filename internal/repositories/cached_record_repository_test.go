package repositories_test

import (
	"context"
	"testing"

	"spotiscience/internal/cache"
	"spotiscience/internal/models"
	"spotiscience/internal/repositories"
	"spotiscience/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedRecordRepository_FindRecordCaches(t *testing.T) {
	ctx := context.Background()
	inner := new(testutil.MockRecordRepository)
	record := testutil.NewRecordBuilder().WithID("t1").Build()
	inner.On("FindRecord", mock.Anything, "t1").Return(&record, nil).Once()

	repo := repositories.NewCachedRecordRepository(inner, cache.NewMemoryCache(100))

	for i := 0; i < 3; i++ {
		found, err := repo.FindRecord(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
		assert.Equal(t, record.Features(), found.Features())
	}
	inner.AssertExpectations(t)
}

func TestCachedRecordRepository_NegativeCache(t *testing.T) {
	ctx := context.Background()
	inner := new(testutil.MockRecordRepository)
	inner.On("FindCollection", mock.Anything, "gone").Return(nil, models.ErrNotFound).Once()

	repo := repositories.NewCachedRecordRepository(inner, cache.NewMemoryCache(100))

	_, err := repo.FindCollection(ctx, "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = repo.FindCollection(ctx, "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)

	inner.AssertExpectations(t)
}

func TestCachedRecordRepository_SaveInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := new(testutil.MockRecordRepository)
	collection := testutil.CreateTestCollection()

	inner.On("FindCollection", mock.Anything, collection.ID).Return(collection, nil).Twice()
	inner.On("ListCollections", mock.Anything, 0).Return([]models.CollectionSummary{collection.Summary()}, nil).Twice()
	testutil.ExpectSaveCollection(inner, nil)

	repo := repositories.NewCachedRecordRepository(inner, cache.NewMemoryCache(100))

	_, err := repo.FindCollection(ctx, collection.ID)
	require.NoError(t, err)
	_, err = repo.ListCollections(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, repo.SaveCollection(ctx, collection))

	// both reads go back to the repository after the save
	found, err := repo.FindCollection(ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, collection.Names(), found.Names())
	summaries, err := repo.ListCollections(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, summaries, 1)

	inner.AssertExpectations(t)
}

func TestCachedRecordRepository_UpdateGenresInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := new(testutil.MockRecordRepository)
	before := testutil.NewRecordBuilder().WithID("t1").Build()
	after := testutil.NewRecordBuilder().WithID("t1").WithGenres("jazz").Build()

	inner.On("FindRecord", mock.Anything, "t1").Return(&before, nil).Once()
	inner.On("UpdateGenres", mock.Anything, "t1", []string{"jazz"}).Return(nil).Once()
	inner.On("FindRecord", mock.Anything, "t1").Return(&after, nil).Once()

	repo := repositories.NewCachedRecordRepository(inner, cache.NewMemoryCache(100))

	found, err := repo.FindRecord(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, found.Genres)

	require.NoError(t, repo.UpdateGenres(ctx, "t1", []string{"jazz"}))

	found, err = repo.FindRecord(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"jazz"}, found.Genres)

	inner.AssertExpectations(t)
}

func TestCachedRecordRepository_PassThrough(t *testing.T) {
	ctx := context.Background()
	inner := new(testutil.MockRecordRepository)
	inner.On("Count", mock.Anything).Return(int64(7), nil)
	inner.On("FindRecordsMissingGenres", mock.Anything, 5).Return([]models.FeatureRecord{testutil.CreateTestRecord()}, nil)

	repo := repositories.NewCachedRecordRepository(inner, cache.NewMemoryCache(100))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	missing, err := repo.FindRecordsMissingGenres(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, missing, 1)
}
