// Package bank turns untrusted question bank input into a models.Bank.
package bank

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/vytor/quizflash/internal/models"
)

// JSON field names of a question entry, in the order they are checked.
const (
	FieldID           = "id"
	FieldQuestion     = "question"
	FieldAnswers      = "answers"
	FieldCorrectIndex = "correctIndex"
)

var requiredFields = []string{FieldID, FieldQuestion, FieldAnswers, FieldCorrectIndex}

// Policy selects between the validation variants a bank may be checked with.
type Policy struct {
	// TrimPrompts rejects prompts that are empty after trimming whitespace.
	TrimPrompts bool
	// RejectDuplicateIDs rejects a bank where two entries share an id.
	RejectDuplicateIDs bool
	// ExactOptions, when positive, requires exactly that many answers.
	ExactOptions int
}

// StrictPolicy is the default: trimmed prompts, unique ids, two or more answers.
func StrictPolicy() Policy {
	return Policy{TrimPrompts: true, RejectDuplicateIDs: true}
}

// Validate checks raw, as produced by encoding/json, and returns a copy of it
// as a Bank. Validation stops at the first problem found.
func Validate(raw any, policy Policy) (models.Bank, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, &Error{Kind: KindFormat, Reason: ReasonNotASequence, Detail: "question bank must be a JSON array"}
	}
	if len(items) == 0 {
		return nil, &Error{Kind: KindFormat, Reason: ReasonEmpty, Detail: "question bank is empty"}
	}

	out := make(models.Bank, 0, len(items))
	var seen map[int64]struct{}
	if policy.RejectDuplicateIDs {
		seen = make(map[int64]struct{}, len(items))
	}
	for i, item := range items {
		q, err := validateEntry(item, i+1, policy, seen)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// validateEntry checks one entry. seen collects ids already used and is nil
// when duplicates are allowed.
func validateEntry(item any, pos int, policy Policy, seen map[int64]struct{}) (models.Question, error) {
	rec, ok := item.(map[string]any)
	if !ok || rec == nil {
		return models.Question{}, schemaErr(ReasonNotARecord, pos, nil, "", "is not an object")
	}
	for _, f := range requiredFields {
		if _, ok := rec[f]; !ok {
			return models.Question{}, schemaErr(ReasonMissingField, pos, nil, f, "is missing")
		}
	}

	id, ok := integer(rec[FieldID])
	if !ok {
		return models.Question{}, schemaErr(ReasonInvalidField, pos, nil, FieldID, "must be an integer")
	}
	idRef := &id
	if seen != nil {
		if _, dup := seen[id]; dup {
			return models.Question{}, schemaErr(ReasonDuplicateID, pos, idRef, FieldID, "is used by more than one question")
		}
		seen[id] = struct{}{}
	}

	prompt, ok := rec[FieldQuestion].(string)
	if !ok {
		return models.Question{}, schemaErr(ReasonInvalidField, pos, idRef, FieldQuestion, "must be a string")
	}
	check := prompt
	if policy.TrimPrompts {
		check = strings.TrimSpace(prompt)
	}
	if check == "" {
		return models.Question{}, schemaErr(ReasonInvalidField, pos, idRef, FieldQuestion, "must not be empty")
	}

	rawOpts, ok := rec[FieldAnswers].([]any)
	if !ok {
		return models.Question{}, schemaErr(ReasonInvalidField, pos, idRef, FieldAnswers, "must be an array of strings")
	}
	if policy.ExactOptions > 0 && len(rawOpts) != policy.ExactOptions {
		return models.Question{}, schemaErr(ReasonInvalidField, pos, idRef, FieldAnswers,
			fmt.Sprintf("must contain exactly %d answers", policy.ExactOptions))
	}
	if len(rawOpts) < 2 {
		return models.Question{}, schemaErr(ReasonInvalidField, pos, idRef, FieldAnswers, "must contain at least 2 answers")
	}
	opts := make([]string, len(rawOpts))
	for j, o := range rawOpts {
		s, ok := o.(string)
		if !ok {
			return models.Question{}, schemaErr(ReasonInvalidField, pos, idRef,
				fmt.Sprintf("%s[%d]", FieldAnswers, j), "must be a string")
		}
		opts[j] = s
	}

	ci, ok := integer(rec[FieldCorrectIndex])
	if !ok {
		return models.Question{}, schemaErr(ReasonInvalidField, pos, idRef, FieldCorrectIndex, "must be an integer")
	}
	if ci < 0 || ci >= int64(len(opts)) {
		return models.Question{}, schemaErr(ReasonInvalidField, pos, idRef, FieldCorrectIndex,
			fmt.Sprintf("must be between 0 and %d", len(opts)-1))
	}

	return models.Question{
		ID:           id,
		Prompt:       prompt,
		Options:      opts,
		CorrectIndex: int(ci),
	}, nil
}

// integer accepts the numeric shapes encoding/json produces and reports
// whether v holds a finite whole number that fits in an int64.
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return wholeFloat(f)
	case float64:
		return wholeFloat(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func wholeFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
