package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Post("/bank", s.handleLoadBank)
		r.Get("/run", s.handleCurrentRun)
		r.Post("/run/start", s.handleStartRun)
		r.Post("/run/answer", s.handleAnswer)
		r.Post("/run/next", s.handleNext)
		r.Post("/run/cancel", s.handleCancelRun)
		r.Get("/runs", s.handleHistory)
		r.Get("/banks/{id}", s.handleDownloadBank)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFound(r))
	})
	return r
}
