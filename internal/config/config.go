// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Environment   string
	ServerPort    string
	DBPath        string
	LogLevel      string
	AppName       string
	DraftDebounce time.Duration
	// Location is used for day boundaries and exported timestamps.
	Location    *time.Location
	SeedOnStart bool
}

// Load reads configuration from environment variables or .env file.
func Load() (*Config, error) {
	env := os.Getenv("ENV")
	if !isProduction(env) {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		Environment:   env,
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "soliloquy.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AppName:       getEnv("APP_NAME", "soliloquy"),
		DraftDebounce: time.Duration(getEnvAsInt("DRAFT_DEBOUNCE_MS", 500)) * time.Millisecond,
		SeedOnStart:   getEnvAsBool("SEED_ON_START", true),
	}

	tz := getEnv("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ServerPort) == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		missing = append(missing, "DB_PATH")
	}
	if strings.TrimSpace(c.AppName) == "" {
		missing = append(missing, "APP_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	if c.DraftDebounce < 0 {
		return fmt.Errorf("DRAFT_DEBOUNCE_MS must not be negative")
	}
	return nil
}

// IsProduction enables JSON logs instead of the console writer.
func (c *Config) IsProduction() bool { return isProduction(c.Environment) }

func isProduction(env string) bool { return strings.ToLower(env) == "production" }

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Warn().Str("key", key).Msg("could not parse env var as integer, using default")
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(strValue)
	if err != nil {
		log.Warn().Str("key", key).Msg("could not parse env var as bool, using default")
		return defaultValue
	}
	return boolValue
}
