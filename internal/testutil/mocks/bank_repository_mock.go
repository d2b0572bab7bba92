package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/quizflash/internal/models"
)

// MockBankRepository is a mock implementation of repository.BankRepository
type MockBankRepository struct {
	mock.Mock
}

func (m *MockBankRepository) Insert(ctx context.Context, bank models.StoredBank) (int64, error) {
	args := m.Called(ctx, bank)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankRepository) Get(ctx context.Context, id int64) (*models.StoredBank, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoredBank), args.Error(1)
}

func (m *MockBankRepository) LatestForSession(ctx context.Context, sessionID string) (*models.StoredBank, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoredBank), args.Error(1)
}
