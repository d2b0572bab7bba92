package models

import "time"

const (
	OutcomeEnded     = "ended"
	OutcomeCancelled = "cancelled"
)

// RunSummary is the record kept for a run that reached a terminal phase.
type RunSummary struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	BankID         int64     `json:"bank_id"` // 0 when the bank could not be stored
	Outcome        string    `json:"outcome"` // "ended" or "cancelled"
	TotalQuestions int       `json:"total_questions"`
	Threshold      int       `json:"threshold"`
	Answered       int       `json:"answered"`
	Correct        int       `json:"correct"`
	Incorrect      int       `json:"incorrect"`
	Mastered       int       `json:"mastered"`
	Cycles         int       `json:"cycles"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Accuracy is the share of correct submissions, 0 when nothing was answered.
func (s RunSummary) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}

type RunFilter struct {
	SessionID string
	BankID    int64
	Outcome   string
	Limit     int
	Offset    int
}
