package sqlite

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/quizflash/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// applyRunFilter adds the WHERE clauses shared by listing and counting runs.
func applyRunFilter(q squirrel.SelectBuilder, filter models.RunFilter) squirrel.SelectBuilder {
	if filter.SessionID != "" {
		q = q.Where(squirrel.Eq{"session_id": filter.SessionID})
	}
	if filter.BankID != 0 {
		q = q.Where(squirrel.Eq{"bank_id": filter.BankID})
	}
	if filter.Outcome != "" {
		q = q.Where(squirrel.Eq{"outcome": filter.Outcome})
	}
	return q
}

// nullableID stores 0 as NULL, for references to rows that were never saved.
func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
