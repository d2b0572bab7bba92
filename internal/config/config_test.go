package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/quizflash/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:                ":8080",
		DBPath:              "file::memory:",
		LogLevel:            "INFO",
		SessionSecret:       "0123456789abcdef0123456789abcdef",
		SessionIdleTimeout:  2 * time.Hour,
		MaxSessions:         10000,
		MaxUploadBytes:      5 * 1024 * 1024,
		DefaultThreshold:    2,
		MaxThreshold:        5,
		RejectDuplicateIDs:  true,
		StrictPrompts:       true,
		RecorderWorkerCount: 1,
		RecorderQueueSize:   64,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_Thresholds(t *testing.T) {
	tests := []struct {
		name          string
		def           int
		max           int
		expectedError string
	}{
		{
			name:          "default above max",
			def:           6,
			max:           5,
			expectedError: "DEFAULT_THRESHOLD",
		},
		{
			name:          "zero default",
			def:           0,
			max:           5,
			expectedError: "DEFAULT_THRESHOLD",
		},
		{
			name:          "zero max",
			def:           1,
			max:           0,
			expectedError: "MAX_THRESHOLD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.DefaultThreshold = tt.def
			cfg.MaxThreshold = tt.max

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{level: "DEBUG", valid: true},
		{level: "debug", valid: true},
		{level: "WARN", valid: true},
		{level: "", valid: false},
		{level: "LOUD", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "LOG_LEVEL")
			}
		})
	}
}

func TestValidate_ExactOptions(t *testing.T) {
	cfg := validConfig()
	cfg.ExactOptions = 1
	assert.Error(t, cfg.Validate())

	cfg.ExactOptions = 4
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := config.Config{
		LogLevel:     "INVALID",
		MaxThreshold: 5,
	}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "ADDR cannot be empty")
	assert.Contains(t, errStr, "DB_PATH cannot be empty")
	assert.Contains(t, errStr, "LOG_LEVEL")
	assert.Contains(t, errStr, "SESSION_SECRET")
	assert.Contains(t, errStr, "MAX_UPLOAD_BYTES")
	assert.Contains(t, errStr, "DEFAULT_THRESHOLD")
	assert.Contains(t, errStr, "RECORDER_WORKER_COUNT")
	assert.Contains(t, errStr, "RECORDER_QUEUE_SIZE")
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("CYCLE_MODE", "true")
	t.Setenv("REJECT_DUPLICATE_IDS", "false")
	t.Setenv("MAX_THRESHOLD", "7")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SECURE_COOKIES", "1")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.CycleMode)
	assert.False(t, cfg.RejectDuplicateIDs)
	assert.Equal(t, 7, cfg.MaxThreshold)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.SecureCookies)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	t.Setenv("STRICT_PROMPTS", "maybe")
	t.Setenv("SESSION_IDLE_TIMEOUT", "forever")

	cfg := config.Load()

	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.True(t, cfg.StrictPrompts)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTimeout)
}

func TestLoad_SessionSettings(t *testing.T) {
	t.Setenv("SESSION_SECRET", "fedcba9876543210fedcba9876543210")
	t.Setenv("SESSION_IDLE_TIMEOUT", "45m")
	t.Setenv("MAX_SESSIONS", "50")

	cfg := config.Load()

	assert.Equal(t, "fedcba9876543210fedcba9876543210", cfg.SessionSecret)
	assert.False(t, cfg.GeneratedSessionSecret)
	assert.Equal(t, 45*time.Minute, cfg.SessionIdleTimeout)
	assert.Equal(t, 50, cfg.MaxSessions)
}

func TestLoad_GeneratesSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	first := config.Load()
	second := config.Load()

	assert.True(t, first.GeneratedSessionSecret)
	assert.Len(t, first.SessionSecret, 64)
	assert.NotEqual(t, first.SessionSecret, second.SessionSecret)
	assert.NoError(t, first.Validate())
}

func TestValidate_SessionBounds(t *testing.T) {
	cfg := validConfig()
	cfg.SessionIdleTimeout = 0
	cfg.MaxSessions = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_IDLE_TIMEOUT")
	assert.Contains(t, err.Error(), "MAX_SESSIONS")
}
