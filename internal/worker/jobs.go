package worker

import (
	"context"
	"fmt"

	"github.com/vytor/quizflash/internal/logger"
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/repository"
)

// RecordRunJob stores the summary of a run that reached a terminal phase.
type RecordRunJob struct {
	RunRepo repository.RunRepository
	Summary models.RunSummary
}

func (j *RecordRunJob) Name() string { return "record_run" }

func (j *RecordRunJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"session_id": j.Summary.SessionID,
		"outcome":    j.Summary.Outcome,
	})

	id, err := j.RunRepo.InsertSummary(ctx, j.Summary)
	if err != nil {
		return fmt.Errorf("record run summary: %w", err)
	}
	log.Info("run summary recorded: id=%d, answered=%d, mastered=%d/%d",
		id, j.Summary.Answered, j.Summary.Mastered, j.Summary.TotalQuestions)
	return nil
}
