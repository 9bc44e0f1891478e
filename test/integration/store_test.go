//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotiscience/internal/cache"
	"spotiscience/internal/handlers"
	"spotiscience/internal/models"
	"spotiscience/internal/repositories"
	"spotiscience/internal/testutil"
)

func requireEnv(t *testing.T, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

func mongoDatabase(t *testing.T, ctx context.Context) *models.Database {
	t.Helper()
	url := requireEnv(t, "MONGODB_URL")

	// a throwaway database per run
	db, err := models.NewDatabase(ctx, url, "spotiscience_it_"+uuid.NewString()[:8])
	require.NoError(t, err)
	require.NoError(t, db.CreateIndexes(ctx))

	t.Cleanup(func() {
		_ = db.DB.Drop(context.Background())
		_ = db.Close(context.Background())
	})
	return db
}

func TestMongoRecordRepository_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := repositories.NewMongoRecordRepository(mongoDatabase(t, ctx))
	collection := testutil.CreateTestCollection()

	require.NoError(t, repo.SaveCollection(ctx, collection))

	found, err := repo.FindCollection(ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, collection.Names(), found.Names())
	assert.Equal(t, collection.Len(), found.Len())

	record, err := repo.FindRecord(ctx, "t3")
	require.NoError(t, err)
	assert.Equal(t, "Single", record.Name)

	missing, err := repo.FindRecordsMissingGenres(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, missing, 3)

	require.NoError(t, repo.UpdateGenres(ctx, "t3", []string{"pop"}))
	missing, err = repo.FindRecordsMissingGenres(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, missing, 2)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	_, err = repo.FindCollection(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAdminStats_Mongo(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := mongoDatabase(t, ctx)
	repo := repositories.NewMongoRecordRepository(db)
	require.NoError(t, repo.SaveCollection(ctx, testutil.CreateTestCollection()))

	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(handlers.NewRouter(handlers.Router{Admin: handlers.NewAdminHandler(repo, db.DB)}))

	var stats handlers.StoreStats
	helper.AssertJSONResponse(helper.GetJSON("/api/v1/admin/stats"), 200, &stats)
	assert.Equal(t, int64(3), stats.Records)
	require.NotNil(t, stats.Database)
}

func TestValkeyMultiLevelCache(t *testing.T) {
	url := requireEnv(t, "VALKEY_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := cache.NewValkeyMultiLevelCache(url, 10)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Health(ctx))

	key := "it:" + uuid.NewString()
	require.NoError(t, c.Set(ctx, key, []byte(`{"ok":true}`), time.Minute))

	data, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	require.NoError(t, c.Delete(ctx, key))
	exists, err := c.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}
