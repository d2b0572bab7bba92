package jobs

import "github.com/vytor/quizflash/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueRunSummary(summary models.RunSummary) error
}
