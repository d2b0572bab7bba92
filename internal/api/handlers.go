package api

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/vytor/quizflash/internal/errors"
	"github.com/vytor/quizflash/internal/logger"
	"github.com/vytor/quizflash/internal/models"
	"github.com/vytor/quizflash/internal/services"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	QuizService    services.QuizService
	Sessions       sessions.Store
	DB             Pinger
	MaxUploadBytes int64
}

type loadResponse struct {
	Bank *services.BankView `json:"bank"`
	Run  *services.RunView  `json:"run"`
}

func (s *Server) handleLoadBank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := sessionIDFromContext(ctx)

	upload, closeFile, err := s.readUpload(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer closeFile()

	view, err := s.QuizService.LoadBank(ctx, sessionID, upload)
	if err != nil {
		handleError(w, r, err)
		return
	}
	current, err := s.QuizService.Current(ctx, sessionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, loadResponse{Bank: view, Run: current})
}

func (s *Server) handleCurrentRun(w http.ResponseWriter, r *http.Request) {
	view, err := s.QuizService.Current(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	count, ok := lenientIntParam(r, "count")
	if !ok {
		count = services.WholeBank
	}
	threshold, _ := lenientIntParam(r, "threshold")

	view, err := s.QuizService.StartRun(r.Context(), sessionIDFromContext(r.Context()), count, threshold)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	index, err := requiredIntParam(r, "index")
	if err != nil {
		handleError(w, r, err)
		return
	}

	view, err := s.QuizService.Answer(r.Context(), sessionIDFromContext(r.Context()), index)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	view, err := s.QuizService.Next(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	view, err := s.QuizService.CancelRun(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultHistoryLimit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if offset < 0 {
		offset = 0
	}
	bankID, err := intParam(r, "bank_id", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}

	outcome := strings.TrimSpace(r.FormValue("outcome"))
	switch outcome {
	case "", models.OutcomeEnded, models.OutcomeCancelled:
	default:
		handleError(w, r, errors.NewValidationError("outcome", "must be \"ended\" or \"cancelled\""))
		return
	}

	page, err := s.QuizService.History(r.Context(), sessionIDFromContext(r.Context()), services.HistoryQuery{
		Limit:   limit,
		Offset:  offset,
		Outcome: outcome,
		BankID:  int64(bankID),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}

// handleDownloadBank returns a stored bank in the format it was uploaded in.
func (s *Server) handleDownloadBank(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		handleError(w, r, errors.NewValidationError("id", "must be a positive integer"))
		return
	}

	stored, err := s.QuizService.StoredBank(r.Context(), sessionIDFromContext(r.Context()), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": stored.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, stored.Payload); err != nil {
		logger.FromContext(r.Context()).Warn("failed to write bank: %v", err)
	}
}
