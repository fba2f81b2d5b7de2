package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeghi71/tabview/logger"
)

func restore(t *testing.T) {
	t.Cleanup(func() {
		_ = logger.Configure(slog.LevelInfo, logger.FormatJSON, os.Stderr)
	})
}

func TestLoggerInitialization(t *testing.T) {
	require.NotNil(t, logger.Logger, "Logger should be initialized on package load")
}

func TestJSONFormat(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	require.NoError(t, logger.Configure(slog.LevelInfo, logger.FormatJSON, &buf))

	logger.Info("table loaded", "rows", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "table loaded", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.EqualValues(t, 3, entry["rows"])
}

func TestLevelFiltering(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	require.NoError(t, logger.Configure(slog.LevelWarn, logger.FormatJSON, &buf))

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	logger.Error("shown too")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	logger.SetLevel(slog.LevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestTextFormat(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	require.NoError(t, logger.Configure(slog.LevelInfo, logger.FormatText, &buf))

	logger.With("op", "sort").Info("view updated", "rows", 10)

	out := buf.String()
	assert.Contains(t, out, "view updated")
	assert.Contains(t, out, "op=sort")
	assert.Contains(t, out, "rows=10")
	assert.NotContains(t, out, "\x1b[", "colors are disabled for non-terminal output")
}

func TestConfigureRejectsUnknownFormat(t *testing.T) {
	restore(t)
	assert.Error(t, logger.Configure(slog.LevelInfo, "xml", nil))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := logger.ParseLevel("loud")
	assert.Error(t, err)
}
