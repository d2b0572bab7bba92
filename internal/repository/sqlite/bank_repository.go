package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/quizflash/internal/logger"
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/repository"
)

type bankRepository struct {
	db *sql.DB
}

// NewBankRepository creates a new BankRepository implementation
func NewBankRepository(db *sql.DB) repository.BankRepository {
	return &bankRepository{db: db}
}

func (r *bankRepository) Insert(ctx context.Context, b models.StoredBank) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("bank_repo")
	log.Debug("inserting bank: session_id=%s, filename=%s, questions=%d", b.SessionID, b.Filename, b.QuestionCount)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO banks (session_id, filename, question_count, payload, loaded_at)
VALUES (?, ?, ?, ?, ?)
`, b.SessionID, b.Filename, b.QuestionCount, b.Payload, b.LoadedAt)
	if err != nil {
		log.Error("failed to insert bank: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get bank id: %v", err)
		return 0, err
	}
	log.Debug("bank inserted: id=%d", id)
	return id, nil
}

func (r *bankRepository) Get(ctx context.Context, id int64) (*models.StoredBank, error) {
	log := logger.FromContext(ctx).WithPrefix("bank_repo")
	log.Debug("getting bank: id=%d", id)

	query, args, err := sqlBuilder.
		Select(bankColumns...).
		From("banks").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	return r.scanOne(ctx, log, query, args...)
}

func (r *bankRepository) LatestForSession(ctx context.Context, sessionID string) (*models.StoredBank, error) {
	log := logger.FromContext(ctx).WithPrefix("bank_repo")
	log.Debug("getting latest bank: session_id=%s", sessionID)

	query, args, err := sqlBuilder.
		Select(bankColumns...).
		From("banks").
		Where("session_id = ?", sessionID).
		OrderBy("loaded_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	return r.scanOne(ctx, log, query, args...)
}

var bankColumns = []string{"id", "session_id", "filename", "question_count", "payload", "loaded_at"}

func (r *bankRepository) scanOne(ctx context.Context, log *logger.Logger, query string, args ...any) (*models.StoredBank, error) {
	var b models.StoredBank
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&b.ID, &b.SessionID, &b.Filename, &b.QuestionCount, &b.Payload, &b.LoadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("bank not found")
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get bank: %v", err)
		return nil, err
	}
	return &b, nil
}
