package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level, format string) (*Logger, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:      level,
		Format:     format,
		TimeFormat: time.RFC3339,
		writer:     output,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	return logger, output
}

func TestNew_JSONFormat(t *testing.T) {
	logger, output := newTestLogger(t, "debug", "json")

	logger.Debug("test debug message", slog.String("key", "value"))

	var logEntry map[string]interface{}
	err := json.Unmarshal(output.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", logEntry["level"])
	assert.Equal(t, "test debug message", logEntry["msg"])
	assert.Equal(t, "value", logEntry["key"])
	assert.Contains(t, logEntry, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name  string
		level string
		emit  func(l *Logger)
		want  string
	}{
		{
			name:  "info level drops debug",
			level: "info",
			emit: func(l *Logger) {
				l.Debug("dropped")
				l.Info("kept", slog.String("type", "test"))
			},
			want: "INFO",
		},
		{
			name:  "warn level drops info",
			level: "warn",
			emit: func(l *Logger) {
				l.Info("dropped")
				l.Warn("kept")
			},
			want: "WARN",
		},
		{
			name:  "error level drops warn",
			level: "error",
			emit: func(l *Logger) {
				l.Warn("dropped")
				l.Error("kept")
			},
			want: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, output := newTestLogger(t, tt.level, "json")
			tt.emit(logger)

			lines := strings.Split(strings.TrimSpace(output.String()), "\n")
			require.Len(t, lines, 1)

			var logEntry map[string]interface{}
			err := json.Unmarshal([]byte(lines[0]), &logEntry)
			require.NoError(t, err)

			assert.Equal(t, tt.want, logEntry["level"])
			assert.Equal(t, "kept", logEntry["msg"])
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	logger, output := newTestLogger(t, "info", "console")

	logger.Info("console test")

	// tint renders the level as "INF"
	assert.Contains(t, output.String(), "INF")
	assert.Contains(t, output.String(), "console test")
}

func TestNew_SourceLocation(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:        "info",
		Format:       "json",
		EnableSource: true,
		writer:       output,
	})
	require.NoError(t, err)

	logger.Info("message with source")

	var logEntry map[string]interface{}
	err = json.Unmarshal(output.Bytes(), &logEntry)
	require.NoError(t, err)
	assert.Contains(t, logEntry, "source")
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.level), "level %q", tt.level)
	}
}

func TestLogger_WithHelpers(t *testing.T) {
	t.Run("WithGroup", func(t *testing.T) {
		logger, output := newTestLogger(t, "info", "json")

		logger.WithGroup("import").Info("test message", slog.String("key", "value"))

		var logEntry map[string]interface{}
		err := json.Unmarshal(output.Bytes(), &logEntry)
		require.NoError(t, err)

		group, ok := logEntry["import"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "value", group["key"])
	})

	t.Run("WithAttrs", func(t *testing.T) {
		logger, output := newTestLogger(t, "info", "json")

		logger.WithAttrs(
			slog.String("request_id", "12345"),
			slog.String("user_id", "user-67890"),
		).Info("test message")

		var logEntry map[string]interface{}
		err := json.Unmarshal(output.Bytes(), &logEntry)
		require.NoError(t, err)

		assert.Equal(t, "12345", logEntry["request_id"])
		assert.Equal(t, "user-67890", logEntry["user_id"])
	})

	t.Run("With", func(t *testing.T) {
		logger, output := newTestLogger(t, "info", "json")

		logger.With(slog.String("service", "import-api")).Info("operation complete")

		var logEntry map[string]interface{}
		err := json.Unmarshal(output.Bytes(), &logEntry)
		require.NoError(t, err)

		assert.Equal(t, "import-api", logEntry["service"])
		assert.Equal(t, "operation complete", logEntry["msg"])
	})
}
