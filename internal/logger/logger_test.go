package logger_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/quizflash/internal/logger"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.WARN), logger.WithColors(false))

	log.Info("hidden")
	log.Warn("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "shown 1")
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithColors(false), logger.WithCaller(false)).
		WithPrefix("quiz").
		WithFields(map[string]any{"b": 2, "a": 1})

	log.Info("answered")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "[quiz] answered a=1 b=2")
}

func TestLogger_DerivedLoggersDoNotShareFields(t *testing.T) {
	var buf bytes.Buffer
	base := logger.New(logger.WithOutput(&buf), logger.WithColors(false))
	_ = base.WithField("session", "x")

	base.Info("plain")
	assert.NotContains(t, buf.String(), "session=")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.DEBUG, logger.ParseLevel("debug"))
	assert.Equal(t, logger.WARN, logger.ParseLevel("warning"))
	assert.Equal(t, logger.INFO, logger.ParseLevel("nonsense"))

	_, ok := logger.LookupLevel("nonsense")
	assert.False(t, ok)
}

func TestContext(t *testing.T) {
	log := logger.New(logger.WithPrefix("req"))
	ctx := logger.NewContext(context.Background(), log)

	assert.Same(t, log, logger.FromContext(ctx))
	assert.Same(t, logger.Default(), logger.FromContext(context.Background()))
}
