package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// restoreDefault resets slog's default logger when the test ends.
func restoreDefault(t *testing.T) {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })
}

func parseLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "log line should be JSON: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestSetupWithWriter_Levels(t *testing.T) {
	tests := []struct {
		level       string
		debugLogged bool
		infoLogged  bool
		warnLogged  bool
	}{
		{level: "debug", debugLogged: true, infoLogged: true, warnLogged: true},
		{level: "info", debugLogged: false, infoLogged: true, warnLogged: true},
		{level: "WARN", debugLogged: false, infoLogged: false, warnLogged: true},
		{level: "error", debugLogged: false, infoLogged: false, warnLogged: false},
		{level: "bogus", debugLogged: false, infoLogged: true, warnLogged: true},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			restoreDefault(t)
			var buf bytes.Buffer

			l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: tc.level}, &buf)
			require.NoError(t, err)
			require.NotNil(t, l)

			l.Debug("debug message")
			l.Info("info message")
			l.Warn("warn message")

			out := buf.String()
			assert.Equal(t, tc.debugLogged, strings.Contains(out, "debug message"))
			assert.Equal(t, tc.infoLogged, strings.Contains(out, "info message"))
			assert.Equal(t, tc.warnLogged, strings.Contains(out, "warn message"))
		})
	}
}

func TestSetupWithWriter_SetsDefaultJSONLogger(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	_, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "info"}, &buf)
	require.NoError(t, err)

	slog.Info("through default", "task_id", "abc")

	entries := parseLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "through default", entries[0]["msg"])
	assert.Equal(t, "abc", entries[0]["task_id"])
	assert.Equal(t, "INFO", entries[0]["level"])
}

func TestParseLevel(t *testing.T) {
	level, ok := logger.ParseLevel(" Debug ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, level)

	level, ok = logger.ParseLevel("fatal")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	scoped := slog.New(slog.NewJSONHandler(&buf, nil)).With("trace_id", "t-1")
	fallback := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	t.Run("returns stored logger", func(t *testing.T) {
		ctx := logger.WithLogger(context.Background(), scoped)
		assert.Same(t, scoped, logger.FromContext(ctx))
		assert.Same(t, scoped, logger.FromContextOrDefault(ctx, fallback))
	})

	t.Run("falls back when context is empty", func(t *testing.T) {
		assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
		assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	})

	t.Run("nil fallback resolves to default", func(t *testing.T) {
		assert.Same(t, slog.Default(), logger.FromContextOrDefault(context.Background(), nil))
	})
}
