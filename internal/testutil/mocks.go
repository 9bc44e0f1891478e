package testutil

import (
	"context"

	"spotiscience/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockRecordRepository is a mock implementation of RecordRepository for testing
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) SaveCollection(ctx context.Context, collection *models.Collection) error {
	args := m.Called(ctx, collection)
	return args.Error(0)
}

func (m *MockRecordRepository) FindCollection(ctx context.Context, id string) (*models.Collection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collection), args.Error(1)
}

func (m *MockRecordRepository) ListCollections(ctx context.Context, limit int) ([]models.CollectionSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CollectionSummary), args.Error(1)
}

func (m *MockRecordRepository) FindRecord(ctx context.Context, id string) (*models.FeatureRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeatureRecord), args.Error(1)
}

func (m *MockRecordRepository) SaveRecords(ctx context.Context, records []models.FeatureRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockRecordRepository) FindRecordsMissingGenres(ctx context.Context, limit int) ([]models.FeatureRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeatureRecord), args.Error(1)
}

func (m *MockRecordRepository) UpdateGenres(ctx context.Context, id string, genres []string) error {
	args := m.Called(ctx, id, genres)
	return args.Error(0)
}

func (m *MockRecordRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// Helper functions for setting up common mock expectations

// ExpectFindCollection sets up a mock expectation for FindCollection
func ExpectFindCollection(mockRepo *MockRecordRepository, id string, collection *models.Collection, err error) {
	mockRepo.On("FindCollection", mock.Anything, id).Return(collection, err)
}

// ExpectFindRecord sets up a mock expectation for FindRecord
func ExpectFindRecord(mockRepo *MockRecordRepository, id string, record *models.FeatureRecord, err error) {
	mockRepo.On("FindRecord", mock.Anything, id).Return(record, err)
}

// ExpectSaveCollection sets up a mock expectation for SaveCollection
func ExpectSaveCollection(mockRepo *MockRecordRepository, err error) {
	mockRepo.On("SaveCollection", mock.Anything, mock.AnythingOfType("*models.Collection")).Return(err)
}
