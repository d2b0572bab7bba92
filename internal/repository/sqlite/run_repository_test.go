package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/quizflash/internal/db"
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/repository"
	"github.com/vytor/quizflash/internal/repository/sqlite"
	"github.com/vytor/quizflash/internal/testutil"
)

type RunRepositorySuite struct {
	suite.Suite
	db    *db.DB
	banks repository.BankRepository
	repo  repository.RunRepository
}

func (s *RunRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.banks = sqlite.NewBankRepository(s.db.DB)
	s.repo = sqlite.NewRunRepository(s.db.DB)
}

func (s *RunRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *RunRepositorySuite) insertBank(sessionID string) int64 {
	id, err := s.banks.Insert(context.Background(), models.StoredBank{
		SessionID:     sessionID,
		Filename:      "bank.json",
		QuestionCount: 3,
		Payload:       testutil.BankJSON,
		LoadedAt:      time.Now(),
	})
	s.Require().NoError(err)
	return id
}

func (s *RunRepositorySuite) summary(sessionID string, bankID int64, outcome string, finished time.Time) models.RunSummary {
	return models.RunSummary{
		SessionID:      sessionID,
		BankID:         bankID,
		Outcome:        outcome,
		TotalQuestions: 3,
		Threshold:      2,
		Answered:       7,
		Correct:        6,
		Incorrect:      1,
		Mastered:       3,
		Cycles:         1,
		StartedAt:      finished.Add(-time.Minute),
		FinishedAt:     finished,
	}
}

func (s *RunRepositorySuite) TestInsertAndList() {
	ctx := context.Background()
	bankID := s.insertBank("sess-a")
	now := time.Now().UTC().Truncate(time.Second)

	id, err := s.repo.InsertSummary(ctx, s.summary("sess-a", bankID, models.OutcomeEnded, now))
	s.Require().NoError(err)
	s.Assert().Greater(id, int64(0))

	list, err := s.repo.ListSummaries(ctx, models.RunFilter{SessionID: "sess-a"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	got := list[0]
	s.Assert().Equal(id, got.ID)
	s.Assert().Equal(bankID, got.BankID)
	s.Assert().Equal(models.OutcomeEnded, got.Outcome)
	s.Assert().Equal(6, got.Correct)
	s.Assert().Equal(3, got.Mastered)
	s.Assert().True(now.Equal(got.FinishedAt), "finished_at round-trips")
	s.Assert().InDelta(6.0/7.0, got.Accuracy(), 1e-9)
}

func (s *RunRepositorySuite) TestFiltersAndOrdering() {
	ctx := context.Background()
	bankA := s.insertBank("sess-a")
	bankB := s.insertBank("sess-b")
	base := time.Now().UTC().Truncate(time.Second)

	_, err := s.repo.InsertSummary(ctx, s.summary("sess-a", bankA, models.OutcomeEnded, base.Add(-2*time.Hour)))
	s.Require().NoError(err)
	_, err = s.repo.InsertSummary(ctx, s.summary("sess-a", bankA, models.OutcomeCancelled, base.Add(-1*time.Hour)))
	s.Require().NoError(err)
	_, err = s.repo.InsertSummary(ctx, s.summary("sess-b", bankB, models.OutcomeEnded, base))
	s.Require().NoError(err)

	list, err := s.repo.ListSummaries(ctx, models.RunFilter{SessionID: "sess-a"})
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Assert().Equal(models.OutcomeCancelled, list[0].Outcome, "newest first")

	list, err = s.repo.ListSummaries(ctx, models.RunFilter{Outcome: models.OutcomeEnded})
	s.Require().NoError(err)
	s.Assert().Len(list, 2)

	list, err = s.repo.ListSummaries(ctx, models.RunFilter{BankID: bankB})
	s.Require().NoError(err)
	s.Assert().Len(list, 1)

	list, err = s.repo.ListSummaries(ctx, models.RunFilter{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Assert().Len(list, 1)

	count, err := s.repo.CountSummaries(ctx, models.RunFilter{SessionID: "sess-a"})
	s.Require().NoError(err)
	s.Assert().Equal(2, count)

	count, err = s.repo.CountSummaries(ctx, models.RunFilter{})
	s.Require().NoError(err)
	s.Assert().Equal(3, count)
}

func (s *RunRepositorySuite) TestRejectsUnknownOutcome() {
	bankID := s.insertBank("sess-a")
	_, err := s.repo.InsertSummary(context.Background(), s.summary("sess-a", bankID, "paused", time.Now()))
	s.Assert().Error(err)
}

func (s *RunRepositorySuite) TestInsertWithoutStoredBank() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	id, err := s.repo.InsertSummary(ctx, s.summary("sess-a", 0, models.OutcomeEnded, now))
	s.Require().NoError(err)
	s.Assert().Greater(id, int64(0))

	list, err := s.repo.ListSummaries(ctx, models.RunFilter{SessionID: "sess-a"})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Assert().Equal(int64(0), list[0].BankID)
}

func (s *RunRepositorySuite) TestRejectsMissingBank() {
	_, err := s.repo.InsertSummary(context.Background(), s.summary("sess-a", 404, models.OutcomeEnded, time.Now()))
	s.Assert().Error(err)
}

func TestRunRepositorySuite(t *testing.T) {
	suite.Run(t, new(RunRepositorySuite))
}
