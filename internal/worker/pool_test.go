package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/testutil/mocks"
	"github.com/vytor/quizflash/internal/worker"
)

type countingJob struct {
	wg    *sync.WaitGroup
	count *atomic.Int32
	err   error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	defer j.wg.Done()
	j.count.Add(1)
	return j.err
}

type blockingJob struct{ release chan struct{} }

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(context.Context) error {
	<-j.release
	return nil
}

func TestPool_RunsSubmittedJobs(t *testing.T) {
	p := worker.NewPool("test", 2, 8)
	p.Start(context.Background())
	defer p.Stop()

	var wg sync.WaitGroup
	var count atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		var err error
		if i == 0 {
			err = errors.New("boom")
		}
		require.NoError(t, p.Submit(&countingJob{wg: &wg, count: &count, err: err}))
	}
	wg.Wait()
	assert.Equal(t, int32(5), count.Load())
}

func TestPool_StopDrainsQueue(t *testing.T) {
	p := worker.NewPool("test", 1, 8)
	p.Start(context.Background())

	var wg sync.WaitGroup
	var count atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(&countingJob{wg: &wg, count: &count}))
	}
	p.Stop()
	assert.Equal(t, int32(4), count.Load())

	assert.ErrorIs(t, p.Submit(&countingJob{wg: &wg, count: &count}), worker.ErrPoolStopped)
	p.Stop()
}

func TestPool_QueueFull(t *testing.T) {
	p := worker.NewPool("test", 1, 1)
	p.Start(context.Background())

	release := make(chan struct{})
	require.NoError(t, p.Submit(&blockingJob{release: release}))
	// Wait for the worker to pick up the first job so the queue is empty.
	require.Eventually(t, func() bool { return p.QueueSize() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Submit(&blockingJob{release: release}))
	assert.ErrorIs(t, p.Submit(&blockingJob{release: release}), worker.ErrQueueFull)

	close(release)
	p.Stop()
}

func TestRecordRunJob(t *testing.T) {
	repo := new(mocks.MockRunRepository)
	summary := models.RunSummary{SessionID: "s", BankID: 1, Outcome: models.OutcomeEnded}
	repo.On("InsertSummary", mock.Anything, summary).Return(int64(9), nil).Once()

	job := &worker.RecordRunJob{RunRepo: repo, Summary: summary}
	assert.Equal(t, "record_run", job.Name())
	require.NoError(t, job.Run(context.Background()))
	repo.AssertExpectations(t)

	failing := new(mocks.MockRunRepository)
	failing.On("InsertSummary", mock.Anything, summary).Return(int64(0), errors.New("locked"))
	err := (&worker.RecordRunJob{RunRepo: failing, Summary: summary}).Run(context.Background())
	assert.ErrorContains(t, err, "locked")
}
