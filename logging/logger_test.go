package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"Warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"", LogLevelInfo},
		{"bogus", LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "input %q", tt.in)
	}
}

func TestLoomLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "text", Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoomLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.WithComponent("chain").WithRun("run-123").Info("step completed", "step", "format")

	out := buf.String()
	assert.Contains(t, out, `"component":"chain"`)
	assert.Contains(t, out, `"run_id":"run-123"`)
	assert.Contains(t, out, `"step":"format"`)
}

func TestLoomLoggerWithContextDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})
	child := parent.WithContext("branch", "restaurants")

	parent.Info("parent entry")
	child.Info("child entry")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "branch")
	assert.Contains(t, lines[1], `"branch":"restaurants"`)
}

func TestLogModelCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.LogModelCall("gpt-4o-mini", 42, 150*time.Millisecond, nil)
	logger.LogModelCall("gpt-4o-mini", 0, time.Millisecond, errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"success":true`)
	assert.Contains(t, lines[1], `"success":false`)
	assert.Contains(t, lines[1], "boom")
}

func TestZapAdapter(t *testing.T) {
	obsCore, logs := observer.New(zap.DebugLevel)
	adapter := NewZapAdapter(zap.New(obsCore))

	adapter.Info("model call completed", "model", "claude", "tokens", 17)
	adapter.Error("chain run failed", "error", "boom")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "model call completed", entry.Message)
	assert.Equal(t, "claude", entry.ContextMap()["model"])
	assert.EqualValues(t, 17, entry.ContextMap()["tokens"])
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Debug("ignored")
	l.Info("ignored")
	l.Warn("ignored")
	l.Error("ignored")
}
