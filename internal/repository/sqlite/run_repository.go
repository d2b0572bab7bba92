package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/quizflash/internal/logger"
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/repository"
)

type runRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository implementation
func NewRunRepository(db *sql.DB) repository.RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) InsertSummary(ctx context.Context, s models.RunSummary) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("run_repo")
	log.Debug("inserting run summary: session_id=%s, bank_id=%d, outcome=%s", s.SessionID, s.BankID, s.Outcome)

	query, args, err := sqlBuilder.
		Insert("run_summaries").
		Columns("session_id", "bank_id", "outcome", "total_questions", "threshold",
			"answered", "correct", "incorrect", "mastered", "cycles", "started_at", "finished_at").
		Values(s.SessionID, nullableID(s.BankID), s.Outcome, s.TotalQuestions, s.Threshold,
			s.Answered, s.Correct, s.Incorrect, s.Mastered, s.Cycles, s.StartedAt, s.FinishedAt).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert run summary: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get run summary id: %v", err)
		return 0, err
	}
	log.Debug("run summary inserted: id=%d", id)
	return id, nil
}

func (r *runRepository) ListSummaries(ctx context.Context, filter models.RunFilter) ([]models.RunSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("run_repo")
	log.Debug("listing run summaries: session_id=%s, bank_id=%d, outcome=%s", filter.SessionID, filter.BankID, filter.Outcome)

	query := sqlBuilder.Select(
		"id", "session_id", "bank_id", "outcome", "total_questions", "threshold",
		"answered", "correct", "incorrect", "mastered", "cycles", "started_at", "finished_at",
	).From("run_summaries")
	query = applyRunFilter(query, filter).OrderBy("finished_at DESC", "id DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list run summaries: %v", err)
		return nil, err
	}
	defer rows.Close()
	var out []models.RunSummary
	for rows.Next() {
		var s models.RunSummary
		var bankID sql.NullInt64
		if err := rows.Scan(&s.ID, &s.SessionID, &bankID, &s.Outcome, &s.TotalQuestions, &s.Threshold,
			&s.Answered, &s.Correct, &s.Incorrect, &s.Mastered, &s.Cycles, &s.StartedAt, &s.FinishedAt); err != nil {
			log.Error("failed to scan run summary row: %v", err)
			return nil, err
		}
		s.BankID = bankID.Int64
		out = append(out, s)
	}
	log.Debug("found %d run summaries", len(out))
	return out, rows.Err()
}

func (r *runRepository) CountSummaries(ctx context.Context, filter models.RunFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("run_repo")

	sqlStr, args, err := applyRunFilter(sqlBuilder.Select("COUNT(*)").From("run_summaries"), filter).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count run summaries: %v", err)
		return 0, err
	}
	return count, nil
}
