package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("Debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, level, "info is the default")

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestForAddsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	logger := For(New(LevelDebug, FormatText, &buf), "stepindex")
	logger.Warn("cache write failed", Err(errors.New("disk full")))

	assert.Contains(t, buf.String(), "subsystem=stepindex")
	assert.Contains(t, buf.String(), "disk full")
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelWarn, FormatJSON, &buf)
	logger.Info("hidden")
	assert.Zero(t, buf.Len(), "info must be filtered")
	logger.Error("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestForNilLogger(t *testing.T) {
	assert.NotPanics(t, func() { For(nil, "x").Error("dropped") })
}
