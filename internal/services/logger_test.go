package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroLoggerWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZeroLogger(zerolog.New(&buf), "directory")

	logger.Info("chat created", "chat_id", 7, "err", errors.New("boom"), "dangling")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "chat created", entry["message"])
	assert.Equal(t, "directory", entry["component"])
	assert.Equal(t, float64(7), entry["chat_id"])
	assert.Equal(t, "boom", entry["err"])
	assert.NotContains(t, entry, "dangling")
}

func TestZeroLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZeroLogger(zerolog.New(&buf).Level(zerolog.WarnLevel), "store")

	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestNewLoggerSilencedInTests(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	_, ok := NewLogger("x").(*NoOpLogger)
	assert.True(t, ok)
}
