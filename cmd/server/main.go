package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/vytor/quizflash/internal/api"
	"github.com/vytor/quizflash/internal/bank"
	"github.com/vytor/quizflash/internal/config"
	"github.com/vytor/quizflash/internal/db"
	"github.com/vytor/quizflash/internal/jobs"
	"github.com/vytor/quizflash/internal/logger"
	"github.com/vytor/quizflash/internal/repository/sqlite"
	"github.com/vytor/quizflash/internal/services"
	"github.com/vytor/quizflash/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	if cfg.GeneratedSessionSecret {
		log.Warn("SESSION_SECRET is not set, using a random secret; sessions will not survive a restart")
	}

	log.Info("===========================================")
	log.Info("QuizFlash Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("max_upload_bytes=%d", cfg.MaxUploadBytes)
	log.Debug("threshold default=%d max=%d", cfg.DefaultThreshold, cfg.MaxThreshold)
	log.Debug("cycle_mode=%t", cfg.CycleMode)
	log.Debug("session_idle_timeout=%s max_sessions=%d", cfg.SessionIdleTimeout, cfg.MaxSessions)
	log.Debug("recorder_worker_count=%d", cfg.RecorderWorkerCount)
	log.Debug("recorder_queue_size=%d", cfg.RecorderQueueSize)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	bankRepo := sqlite.NewBankRepository(database.DB)
	runRepo := sqlite.NewRunRepository(database.DB)

	recorderPool := worker.NewPool("recorder", cfg.RecorderWorkerCount, cfg.RecorderQueueSize)
	jobQueue := jobs.NewWorkerQueue(recorderPool, runRepo)

	quizService := services.NewQuizService(bankRepo, runRepo, jobQueue, services.QuizSettings{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Policy: bank.Policy{
			TrimPrompts:        cfg.StrictPrompts,
			RejectDuplicateIDs: cfg.RejectDuplicateIDs,
			ExactOptions:       cfg.ExactOptions,
		},
		DefaultThreshold:   cfg.DefaultThreshold,
		MaxThreshold:       cfg.MaxThreshold,
		Cycling:            cfg.CycleMode,
		SessionIdleTimeout: cfg.SessionIdleTimeout,
		MaxSessions:        cfg.MaxSessions,
	})

	srv := &api.Server{
		QuizService:    quizService,
		Sessions:       api.NewSessionStore([]byte(cfg.SessionSecret), cfg.SecureCookies),
		DB:             database,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	handler := srv.Routes()
	if len(cfg.AllowedOrigins) > 0 {
		log.Info("CORS enabled for %v", cfg.AllowedOrigins)
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
		}).Handler(handler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	recorderPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Summaries still queued are written before the database closes.
	log.Debug("stopping recorder pool")
	recorderPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("QuizFlash Server Stopped")
	log.Info("===========================================")
}
