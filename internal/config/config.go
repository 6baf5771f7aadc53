package config

import (
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"

	"tracker/internal/storage/sqlite"
	"tracker/internal/util"
)

// Config holds the settings of one tracker session.
type Config struct {
	// DBPath is ":memory:" unless a file is wanted for inspecting a
	// session with the sqlite3 shell.
	DBPath     string
	ExportPath string
	SeedFile   string
	LogLevel   string
	LogFile    string
	Strict     bool
	// Today pins the calendar date used by lifecycle operations; empty
	// means the system clock.
	Today string
}

// Load reads an optional .env file, then environment variables, then validates.
func Load() (*Config, error) {
	// A missing .env is normal; variables may come from the environment.
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:     util.EnvOrDefault("TRACKER_DB_PATH", sqlite.MemoryPath),
		ExportPath: util.EnvOrDefault("TRACKER_EXPORT_PATH", "projects_export.csv"),
		SeedFile:   util.EnvOrDefault("TRACKER_SEED_FILE", ""),
		LogLevel:   util.EnvOrDefault("TRACKER_LOG_LEVEL", "warn"),
		LogFile:    util.EnvOrDefault("TRACKER_LOG_FILE", ""),
		Strict:     util.EnvAsBool("TRACKER_STRICT", false),
		Today:      util.EnvOrDefault("TRACKER_TODAY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and formats.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("TRACKER_DB_PATH is required")
	}
	if strings.TrimSpace(c.ExportPath) == "" {
		return fmt.Errorf("TRACKER_EXPORT_PATH is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Today != "" {
		if _, err := civil.ParseDate(c.Today); err != nil {
			return fmt.Errorf("TRACKER_TODAY must be YYYY-MM-DD: %w", err)
		}
	}
	return nil
}

// Level converts LogLevel to a slog level.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("TRACKER_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// FixedToday returns the pinned date, if any.
func (c *Config) FixedToday() (civil.Date, bool) {
	if c.Today == "" {
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(c.Today)
	if err != nil {
		return civil.Date{}, false
	}
	return d, true
}
