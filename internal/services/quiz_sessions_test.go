package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizflash/internal/bank"
	"github.com/vytor/quizflash/internal/jobs"
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/repository/sqlite"
	"github.com/vytor/quizflash/internal/run"
	"github.com/vytor/quizflash/internal/testutil"
	"github.com/vytor/quizflash/internal/testutil/mocks"
	"github.com/vytor/quizflash/internal/worker"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func (f *quizFixture) withClock() (*quizService, *fakeClock) {
	svc := f.service.(*quizService)
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.now
	return svc, clock
}

func heldSessions(svc *quizService) []string {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	ids := make([]string, 0, len(svc.sessions))
	for id := range svc.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func TestQuizService_ReadsDoNotHoldSessions(t *testing.T) {
	f := newQuizFixture(t)
	svc := f.service.(*quizService)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("client-%d", i)
		_, err := f.service.Current(ctx, id)
		require.NoError(t, err)
		_, err = f.service.Answer(ctx, id, 0)
		require.NoError(t, err)
		_, err = f.service.Next(ctx, id)
		require.NoError(t, err)
		_, err = f.service.CancelRun(ctx, id)
		require.NoError(t, err)
		_, err = f.service.StartRun(ctx, id, 1, 1)
		require.Error(t, err)
	}
	assert.Empty(t, heldSessions(svc))

	f.loadBank(t, "s", 7)
	assert.Equal(t, []string{"s"}, heldSessions(svc))
}

func TestQuizService_EvictsIdleSessions(t *testing.T) {
	f := newQuizFixture(t)
	svc, clock := f.withClock()

	f.loadBank(t, "a", 1)
	clock.advance(time.Hour)
	f.loadBank(t, "b", 2)
	assert.Equal(t, []string{"a", "b"}, heldSessions(svc))

	// a has been idle for longer than the timeout, b has not.
	clock.advance(DefaultSessionIdleTimeout - time.Minute)
	f.loadBank(t, "c", 3)
	assert.Equal(t, []string{"b", "c"}, heldSessions(svc))
}

func TestQuizService_ActivityKeepsSessionAlive(t *testing.T) {
	f := newQuizFixture(t)
	svc, clock := f.withClock()

	f.loadBank(t, "a", 1)
	for i := 0; i < 3; i++ {
		clock.advance(DefaultSessionIdleTimeout / 2)
		_, err := f.service.Current(context.Background(), "a")
		require.NoError(t, err)
	}
	f.loadBank(t, "b", 2)
	assert.Equal(t, []string{"a", "b"}, heldSessions(svc))
}

func TestQuizService_SessionCapEvictsLeastRecentlyUsed(t *testing.T) {
	f := newQuizFixture(t)
	svc, clock := f.withClock()
	svc.maxSessions = 2

	f.loadBank(t, "a", 1)
	clock.advance(time.Second)
	f.loadBank(t, "b", 2)
	clock.advance(time.Second)
	_, err := f.service.Current(context.Background(), "a")
	require.NoError(t, err)

	clock.advance(time.Second)
	f.loadBank(t, "c", 3)
	assert.Equal(t, []string{"a", "c"}, heldSessions(svc))
}

func TestQuizService_EvictionRecordsActiveRun(t *testing.T) {
	f := newQuizFixture(t)
	_, clock := f.withClock()
	ctx := context.Background()

	f.loadBank(t, "a", 1)
	_, err := f.service.StartRun(ctx, "a", 2, 2)
	require.NoError(t, err)
	_, err = f.service.Answer(ctx, "a", 1)
	require.NoError(t, err)

	f.queue.On("EnqueueRunSummary", mock.MatchedBy(func(s models.RunSummary) bool {
		return s.SessionID == "a" && s.BankID == 1 && s.Outcome == models.OutcomeCancelled && s.Answered == 1
	})).Return(nil).Once()

	clock.advance(DefaultSessionIdleTimeout + time.Minute)
	f.loadBank(t, "b", 2)
	f.queue.AssertExpectations(t)

	// The evicted client starts over with an empty session.
	view, err := f.service.Current(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, run.PhaseIdle, view.Phase)
	assert.Nil(t, view.Bank)
}

func TestQuizService_RecordsRunWhenBankWasNotStored(t *testing.T) {
	database := testutil.NewTestDB(t)
	defer testutil.MustClose(t, database)
	runs := sqlite.NewRunRepository(database.DB)

	pool := worker.NewPool("recorder", 1, 8)
	pool.Start(context.Background())
	defer pool.Stop()

	banks := new(mocks.MockBankRepository)
	banks.On("Insert", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))
	service := NewQuizService(banks, runs, jobs.NewWorkerQueue(pool, runs), QuizSettings{
		MaxUploadBytes: 1024,
		Policy:         bank.StrictPolicy(),
	})
	ctx := context.Background()

	view, err := service.LoadBank(ctx, "s", upload(testutil.BankJSON))
	require.NoError(t, err)
	require.Equal(t, int64(0), view.ID)

	_, err = service.StartRun(ctx, "s", 1, 1)
	require.NoError(t, err)
	answer, err := service.Answer(ctx, "s", 1)
	require.NoError(t, err)
	require.Equal(t, run.PhaseEnded, answer.Run.Phase)

	// Stop drains the queue before the summaries are read back.
	pool.Stop()

	stored, err := runs.ListSummaries(ctx, models.RunFilter{SessionID: "s"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, int64(0), stored[0].BankID)
	assert.Equal(t, models.OutcomeEnded, stored[0].Outcome)
	assert.Equal(t, 1, stored[0].Correct)
}
