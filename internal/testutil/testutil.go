package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vytor/quizflash/internal/db"
	"github.com/vytor/quizflash/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// Each call returns an isolated database.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open("file::memory:")
	require.NoError(t, err)
	return database
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Bank builds n questions with four answers; question i has id i+1 and its
// correct answer at i%4.
func Bank(n int) models.Bank {
	b := make(models.Bank, n)
	for i := range b {
		b[i] = models.Question{
			ID:           int64(i + 1),
			Prompt:       "Question " + string(rune('A'+i%26)),
			Options:      []string{"w", "x", "y", "z"},
			CorrectIndex: i % 4,
		}
	}
	return b
}

// BankJSON is a valid three-question bank in upload format.
const BankJSON = `[
  {"id": 1, "question": "Largest planet?", "answers": ["Mars", "Jupiter"], "correctIndex": 1},
  {"id": 2, "question": "Boiling point of water at sea level?", "answers": ["90°C", "100°C", "110°C"], "correctIndex": 1},
  {"id": 3, "question": "Smallest prime?", "answers": ["1", "2", "3", "5"], "correctIndex": 1}
]`
