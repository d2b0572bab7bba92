package bank

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/vytor/quizflash/internal/models"
)

// DefaultMaxBytes caps an uploaded bank at 5 MiB.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// Upload is a question bank file as handed over by the presentation layer.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64 // declared size, -1 when unknown
	Body        io.Reader
}

// Loader gates, decodes and validates uploads.
type Loader struct {
	MaxBytes int64
	Policy   Policy
}

func NewLoader(maxBytes int64, policy Policy) Loader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return Loader{MaxBytes: maxBytes, Policy: policy}
}

// Load checks size and type, reads the body and validates its content.
func (l Loader) Load(u Upload) (models.Bank, error) {
	limit := l.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if u.Size > limit {
		return nil, tooLarge(limit)
	}
	if !looksLikeJSON(u.Filename, u.ContentType) {
		return nil, &Error{Kind: KindCapacity, Reason: ReasonWrongType, Detail: "only JSON files are accepted"}
	}
	if u.Body == nil {
		return nil, &Error{Kind: KindIO, Reason: ReasonUnreadable, Detail: "file could not be read", Err: errors.New("empty body")}
	}

	data, err := io.ReadAll(io.LimitReader(u.Body, limit+1))
	if err != nil {
		return nil, &Error{Kind: KindIO, Reason: ReasonUnreadable, Detail: "file could not be read", Err: err}
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}
	return Parse(data, l.Policy)
}

// Parse decodes a JSON document and validates it.
func Parse(data []byte, policy Policy) (models.Bank, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &Error{Kind: KindFormat, Reason: ReasonMalformed, Detail: "file is not valid JSON", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &Error{Kind: KindFormat, Reason: ReasonMalformed, Detail: "file contains data after the question array"}
	}
	return Validate(raw, policy)
}

func looksLikeJSON(filename, contentType string) bool {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
			return true
		}
	}
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

func tooLarge(limit int64) *Error {
	return &Error{
		Kind:   KindCapacity,
		Reason: ReasonTooLarge,
		Detail: fmt.Sprintf("file is too large (max %d bytes)", limit),
	}
}
