package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/vytor/quizflash/internal/logger"
)

type Config struct {
	Addr                string
	DBPath              string
	LogLevel            string
	SessionSecret       string
	SecureCookies       bool
	SessionIdleTimeout  time.Duration
	MaxSessions         int
	MaxUploadBytes      int64
	DefaultThreshold    int
	MaxThreshold        int
	CycleMode           bool
	RejectDuplicateIDs  bool
	StrictPrompts       bool
	ExactOptions        int
	RecorderWorkerCount int
	RecorderQueueSize   int
	AllowedOrigins      []string

	// GeneratedSessionSecret is set when SESSION_SECRET was empty and a random
	// secret was made up. Sessions then end when the process restarts.
	GeneratedSessionSecret bool
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	cfg := Config{
		Addr:                envOr("ADDR", ":8080"),
		DBPath:              envOr("DB_PATH", "file::memory:"),
		LogLevel:            envOr("LOG_LEVEL", "INFO"),
		SessionSecret:       os.Getenv("SESSION_SECRET"),
		SecureCookies:       envBoolOr("SECURE_COOKIES", false),
		SessionIdleTimeout:  envDurationOr("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		MaxSessions:         envIntOr("MAX_SESSIONS", 10000),
		MaxUploadBytes:      int64(envIntOr("MAX_UPLOAD_BYTES", 5*1024*1024)),
		DefaultThreshold:    envIntOr("DEFAULT_THRESHOLD", 2),
		MaxThreshold:        envIntOr("MAX_THRESHOLD", 5),
		CycleMode:           envBoolOr("CYCLE_MODE", false),
		RejectDuplicateIDs:  envBoolOr("REJECT_DUPLICATE_IDS", true),
		StrictPrompts:       envBoolOr("STRICT_PROMPTS", true),
		ExactOptions:        envIntOr("EXACT_OPTIONS", 0),
		RecorderWorkerCount: envIntOr("RECORDER_WORKER_COUNT", 1),
		RecorderQueueSize:   envIntOr("RECORDER_QUEUE_SIZE", 64),
		AllowedOrigins:      envListOr("ALLOWED_ORIGINS", nil),
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = hex.EncodeToString(securecookie.GenerateRandomKey(32))
		cfg.GeneratedSessionSecret = true
	}
	return cfg
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}
	if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("SESSION_IDLE_TIMEOUT must be positive"))
	}
	if c.MaxSessions < 1 {
		errs = append(errs, errors.New("MAX_SESSIONS must be at least 1"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.MaxThreshold < 1 {
		errs = append(errs, errors.New("MAX_THRESHOLD must be at least 1"))
	}
	if c.DefaultThreshold < 1 || c.DefaultThreshold > c.MaxThreshold {
		errs = append(errs, fmt.Errorf("DEFAULT_THRESHOLD must be between 1 and MAX_THRESHOLD (%d)", c.MaxThreshold))
	}
	if c.ExactOptions != 0 && c.ExactOptions < 2 {
		errs = append(errs, errors.New("EXACT_OPTIONS must be 0 or at least 2"))
	}
	if c.RecorderWorkerCount < 1 {
		errs = append(errs, errors.New("RECORDER_WORKER_COUNT must be at least 1"))
	}
	if c.RecorderQueueSize < 1 {
		errs = append(errs, errors.New("RECORDER_QUEUE_SIZE must be at least 1"))
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
