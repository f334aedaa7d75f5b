package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Info("refresh committed", "height", 2.7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "refresh committed", line["msg"])
	assert.InDelta(t, 2.7, line["height"], 1e-9)
}

func TestNewLogger_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "text")

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	logger.Warn("weather unavailable")
	assert.Contains(t, buf.String(), "msg=\"weather unavailable\"")
}

func TestNewMetricsForTesting_AllSet(t *testing.T) {
	m := NewMetricsForTesting()
	assert.NotNil(t, m.RefreshCycles)
	assert.NotNil(t, m.MatchLookups)
	assert.NotNil(t, m.WeatherCache)
	assert.NotNil(t, m.Notifications)
	assert.NotNil(t, m.AnalyticsEvents)
}
