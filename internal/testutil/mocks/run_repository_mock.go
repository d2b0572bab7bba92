package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/quizflash/internal/models"
)

// MockRunRepository is a mock implementation of repository.RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) InsertSummary(ctx context.Context, summary models.RunSummary) (int64, error) {
	args := m.Called(ctx, summary)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRunRepository) ListSummaries(ctx context.Context, filter models.RunFilter) ([]models.RunSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RunSummary), args.Error(1)
}

func (m *MockRunRepository) CountSummaries(ctx context.Context, filter models.RunFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}
