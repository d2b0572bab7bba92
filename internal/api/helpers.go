package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vytor/quizflash/internal/bank"
	"github.com/vytor/quizflash/internal/errors"
	"github.com/vytor/quizflash/internal/logger"
)

// multipartOverhead is the room left for multipart framing on top of the
// file size limit.
const multipartOverhead = 64 * 1024

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response: %v", err)
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

// lenientIntParam reads an optional integer that the engine clamps anyway.
// Values that are not integers read as 0. ok is false when the field is absent.
func lenientIntParam(r *http.Request, name string) (v int, ok bool) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true
	}
	return v, true
}

func requiredIntParam(r *http.Request, name string) (int, error) {
	if strings.TrimSpace(r.FormValue(name)) == "" {
		return 0, errors.NewValidationError(name, "is required")
	}
	return intParam(r, name, 0)
}

// readUpload extracts the "file" part of a multipart request. The returned
// func closes the file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (bank.Upload, func(), error) {
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = bank.DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return bank.Upload{}, nil, errors.NewCapacityError(stderrors.New("file is too large"))
		case stderrors.Is(err, http.ErrMissingFile), stderrors.Is(err, http.ErrNotMultipart):
			return bank.Upload{}, nil, errors.NewBadRequestError("a question bank file is required in the \"file\" field")
		}
		return bank.Upload{}, nil, errors.NewIOError(err)
	}

	upload := bank.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return upload, func() { _ = file.Close() }, nil
}
