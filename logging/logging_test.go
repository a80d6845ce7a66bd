package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
		wantErr  bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"warn", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"verbose", LogLevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelDebug, Output: &buf})

	logger.WithOperation("evict").WithPath("/cache/a.lztc").WithSize(42).
		Info(context.Background(), "done")

	out := buf.String()
	assert.Contains(t, out, "operation=evict")
	assert.Contains(t, out, "path=/cache/a.lztc")
	assert.Contains(t, out, "size=42")
}

func TestLogger_WithDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LogConfig{Level: LogLevelDebug, Output: &buf})
	_ = base.WithKey("thumb")

	base.Info(context.Background(), "plain")
	assert.NotContains(t, buf.String(), "key=thumb")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		logger.Info(ctx, "ignored")
		LogEviction(ctx, logger, "/x", 1, "capacity")
	})
	assert.Same(t, logger, logger.With("a", 1))

	var nilLogger *Logger
	assert.NotPanics(t, func() {
		nilLogger.Error(ctx, "ignored")
		_ = nilLogger.WithOperation("x")
	})
}
