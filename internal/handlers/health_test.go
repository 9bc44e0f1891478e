package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"spotiscience/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")
	env.records.On("Count", mock.Anything).Return(int64(42), nil)
	env.streaming.On("Health", mock.Anything).Return(nil)

	var response struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	env.http.AssertJSONResponse(env.http.GetJSON("/health"), http.StatusOK, &response)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "ok", response.Checks["platform"])
	assert.EqualValues(t, 42, response.Checks["records"])
}

func TestHealth_Degraded(t *testing.T) {
	env := newTestEnv(t, "")
	env.records.On("Count", mock.Anything).Return(int64(0), nil)
	env.streaming.On("Health", mock.Anything).Return(errors.New("token endpoint unreachable"))

	var response struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	env.http.AssertJSONResponse(env.http.GetJSON("/health"), http.StatusServiceUnavailable, &response)
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "token endpoint unreachable", response.Checks["platform"])
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t, "")
	newest := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	env.records.On("Count", mock.Anything).Return(int64(7), nil)
	env.records.On("ListCollections", mock.Anything, listAll).Return([]models.CollectionSummary{
		{ID: "new", CreatedAt: newest},
		{ID: "old", CreatedAt: newest.Add(-time.Hour)},
	}, nil)

	var stats StoreStats
	env.http.AssertJSONResponse(env.http.GetJSON("/api/v1/admin/stats"), http.StatusOK, &stats)
	assert.EqualValues(t, 7, stats.Records)
	assert.Equal(t, 2, stats.Collections)
	require.NotNil(t, stats.LatestRun)
	assert.True(t, newest.Equal(*stats.LatestRun))
	assert.Nil(t, stats.Database)
}

func TestMongoStatNumbers(t *testing.T) {
	assert.Equal(t, 2.0, megabytes(int64(2*1024*1024)))
	assert.Equal(t, 1.0, megabytes(int32(1024*1024)))
	assert.Equal(t, 0.5, megabytes(float64(512*1024)))
	assert.Equal(t, 0.0, megabytes("n/a"))
}
