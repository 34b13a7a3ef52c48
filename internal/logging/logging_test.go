package logging

import (
	"bytes"
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
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNew_JSONWithSession(t *testing.T) {
	var buf bytes.Buffer
	logger := ForSession(New("info", "json", &buf), "s-1")

	logger.Debug("hidden")
	logger.Info("stage finished", slog.String("stage", "FILTER"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stage finished", entry["msg"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.Equal(t, "FILTER", entry["stage"])
}

func TestForSession_NilLogger(t *testing.T) {
	assert.NotNil(t, ForSession(nil, "s-1"))
}

func TestTemporal_WritesThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := Temporal(New("info", "json", &buf))

	logger.Info("Workflow started", "workflowId", "assistant-s1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Workflow started", entry["msg"])
	assert.Equal(t, "assistant-s1", entry["workflowId"])
}
