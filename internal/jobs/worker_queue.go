package jobs

import (
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/repository"
	"github.com/vytor/quizflash/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	recorderPool *worker.Pool
	runRepo      repository.RunRepository
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(recorderPool *worker.Pool, runRepo repository.RunRepository) JobQueue {
	return &WorkerQueue{
		recorderPool: recorderPool,
		runRepo:      runRepo,
	}
}

func (q *WorkerQueue) EnqueueRunSummary(summary models.RunSummary) error {
	return q.recorderPool.Submit(&worker.RecordRunJob{
		RunRepo: q.runRepo,
		Summary: summary,
	})
}
