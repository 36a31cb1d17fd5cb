package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"Warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromSettings_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLevel, "error")

	cfg := FromSettings("debug", "json")
	assert.Equal(t, slog.LevelError, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestFromSettings_InvalidValuesFallBack(t *testing.T) {
	t.Setenv(EnvLevel, "loud")

	cfg := FromSettings("nonsense", "xml")
	assert.Equal(t, slog.LevelInfo, cfg.Level)
	assert.Equal(t, "text", cfg.Format)
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	log.Debug("hidden")
	log.Info("visible", slog.String("component", "test"))

	out := buf.String()
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"visible"`)
	assert.Contains(t, out, `"component":"test"`)
}

func TestNewTestLogger_Level(t *testing.T) {
	assert.False(t, NewTestLogger().Enabled(context.Background(), slog.LevelInfo))

	t.Setenv(EnvTestLevel, "debug")
	assert.True(t, NewTestLogger().Enabled(context.Background(), slog.LevelDebug))
}

func TestRecorder_Find(t *testing.T) {
	log, rec := NewRecorder()
	log.Debug("first", slog.Int("n", 1))
	log.Info("second", slog.Group("events", slog.Int("applied", 2)))

	record, ok := rec.Find("second")
	require.True(t, ok)
	assert.Equal(t, "INFO", record[slog.LevelKey])
	assert.Equal(t, map[string]any{"applied": 2.0}, record["events"])

	_, ok = rec.Find("missing")
	assert.False(t, ok)
}
