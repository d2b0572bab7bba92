package repository

import (
	"context"

	"github.com/vytor/quizflash/internal/models"
)

// BankRepository handles loaded question bank storage
type BankRepository interface {
	Insert(ctx context.Context, bank models.StoredBank) (int64, error)
	Get(ctx context.Context, id int64) (*models.StoredBank, error)
	LatestForSession(ctx context.Context, sessionID string) (*models.StoredBank, error)
}

// RunRepository handles finished run summaries
type RunRepository interface {
	InsertSummary(ctx context.Context, summary models.RunSummary) (int64, error)
	ListSummaries(ctx context.Context, filter models.RunFilter) ([]models.RunSummary, error)
	CountSummaries(ctx context.Context, filter models.RunFilter) (int, error)
}
