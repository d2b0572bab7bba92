package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/quizflash/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueRunSummary(summary models.RunSummary) error {
	args := m.Called(summary)
	return args.Error(0)
}
