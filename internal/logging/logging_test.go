package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceLoggerResolvesAfterInit(t *testing.T) {
	prev := structuredLogger
	t.Cleanup(func() { structuredLogger = prev })

	// Bind before any logger is configured, as package-level vars do.
	structuredLogger = nil
	lazy := ServiceLogger("store")

	var buf bytes.Buffer
	structuredLogger = slog.New(slog.NewJSONHandler(&buf, nil))

	lazy().Warn("skipping corrupt package", "key", "pacote_245_1_100")

	out := buf.String()
	require.NotEmpty(t, out, "output reaches the configured logger, not a discard fallback")
	assert.Contains(t, out, `"service":"store"`)
	assert.Contains(t, out, "skipping corrupt package")
}

func TestServiceLoggerResolvesOnce(t *testing.T) {
	prev := structuredLogger
	t.Cleanup(func() { structuredLogger = prev })

	var buf bytes.Buffer
	structuredLogger = slog.New(slog.NewJSONHandler(&buf, nil))

	lazy := ServiceLogger("sync")
	assert.Same(t, lazy(), lazy())
}

func TestServiceLoggerWithoutInitDiscards(t *testing.T) {
	prev := structuredLogger
	t.Cleanup(func() { structuredLogger = prev })

	structuredLogger = nil
	lazy := ServiceLogger("geo")

	logger := lazy()
	require.NotNil(t, logger)
	logger.Info("dropped")
}
