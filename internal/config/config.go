// Package config reads CLI settings from the environment, optionally seeded
// from a .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/roach88/allot/internal/money"
)

// Environment variable names.
const (
	EnvDBPath       = "ALLOT_DB_PATH"
	EnvFormat       = "ALLOT_FORMAT"
	EnvLogLevel     = "ALLOT_LOG_LEVEL"
	EnvDefaultTotal = "ALLOT_DEFAULT_TOTAL"
)

type Config struct {
	// Submission log
	DBPath string

	// Output
	Format   string
	LogLevel string

	// DefaultTotal is dollar text used when a split document names no total.
	DefaultTotal string
}

// LoadEnv loads a .env file into the process environment. Variables already
// set win. With an empty path, ./.env is loaded if present; a named file
// must exist.
func LoadEnv(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func Load() *Config {
	return &Config{
		DBPath:       getEnv(EnvDBPath, "./allot.db"),
		Format:       getEnv(EnvFormat, "text"),
		LogLevel:     getEnv(EnvLogLevel, "warn"),
		DefaultTotal: getEnv(EnvDefaultTotal, ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}

	validFormats := []string{"text", "json"}
	isValidFormat := false
	for _, f := range validFormats {
		if c.Format == f {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		errors = append(errors, fmt.Sprintf("invalid format '%s': must be one of %v", c.Format, validFormats))
	}

	if _, err := c.Level(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if c.DefaultTotal != "" {
		if !strings.ContainsAny(c.DefaultTotal, "0123456789") {
			errors = append(errors, fmt.Sprintf("invalid default total '%s': must contain an amount", c.DefaultTotal))
		} else if _, err := money.ParseAmount(c.DefaultTotal); err != nil {
			errors = append(errors, fmt.Sprintf("invalid default total '%s': %v", c.DefaultTotal, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

// DefaultTotalPennies returns DefaultTotal in pennies, and false when unset.
func (c *Config) DefaultTotalPennies() (int64, bool) {
	if c.DefaultTotal == "" {
		return 0, false
	}
	return money.Parse(c.DefaultTotal), true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
