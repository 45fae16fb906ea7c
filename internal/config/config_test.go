package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "production")
	for _, key := range []string{"SERVER_PORT", "DB_PATH", "LOG_LEVEL", "APP_NAME", "DRAFT_DEBOUNCE_MS", "SEED_ON_START"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "soliloquy.db", cfg.DBPath)
	assert.Equal(t, "soliloquy", cfg.AppName)
	assert.Equal(t, 500*time.Millisecond, cfg.DraftDebounce)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.True(t, cfg.SeedOnStart)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/notes.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_NAME", "journal")
	t.Setenv("DRAFT_DEBOUNCE_MS", "250")
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("SEED_ON_START", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "/tmp/notes.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "journal", cfg.AppName)
	assert.Equal(t, 250*time.Millisecond, cfg.DraftDebounce)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
	assert.False(t, cfg.SeedOnStart)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestMalformedNumbersFallBack(t *testing.T) {
	t.Setenv("DRAFT_DEBOUNCE_MS", "soon")
	t.Setenv("SEED_ON_START", "maybe")
	assert.Equal(t, 500, getEnvAsInt("DRAFT_DEBOUNCE_MS", 500))
	assert.True(t, getEnvAsBool("SEED_ON_START", true))
}

func TestValidate(t *testing.T) {
	cfg := &Config{ServerPort: "8080", DBPath: "x.db", AppName: "soliloquy"}
	assert.NoError(t, cfg.Validate())

	cfg.DBPath = " "
	assert.ErrorContains(t, cfg.Validate(), "DB_PATH")

	cfg.DBPath = "x.db"
	cfg.DraftDebounce = -time.Second
	assert.Error(t, cfg.Validate())
}
