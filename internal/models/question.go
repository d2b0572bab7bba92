package models

import "time"

// Question is one multiple-choice entry of a validated bank.
type Question struct {
	ID           int64    `json:"id"`
	Prompt       string   `json:"question"`
	Options      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
}

// CorrectOption returns the text of the correct answer.
func (q Question) CorrectOption() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// Clone returns a copy that shares no memory with q.
func (q Question) Clone() Question {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	q.Options = opts
	return q
}

// Bank is an ordered, validated set of questions.
type Bank []Question

type StoredBank struct {
	ID            int64     `json:"id"`
	SessionID     string    `json:"session_id"`
	Filename      string    `json:"filename"`
	QuestionCount int       `json:"question_count"`
	Payload       string    `json:"-"`
	LoadedAt      time.Time `json:"loaded_at"`
}
