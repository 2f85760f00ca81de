// Package config holds the process configuration and its layered loader.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/blacktop-engine/internal/db"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBDriver selects the database/sql driver: sqlite3 or postgres.
	DBDriver       string        `koanf:"db_driver"`
	DatabaseURL    string        `koanf:"database_url"`
	MigrationsPath string        `koanf:"migrations_path"`
	DBTimeout      time.Duration `koanf:"db_timeout"`

	// AdminToken guards the mutating routes. Empty disables the guard.
	AdminToken string `koanf:"admin_token"`

	MetricsEnabled  bool          `koanf:"metrics_enabled"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists the admin front-ends allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`
}

func New() *Config {
	return &Config{
		Addr:            ":8080",
		LogLevel:        "info",
		DBDriver:        db.DriverSQLite,
		DatabaseURL:     "blacktop.db?_journal_mode=WAL",
		MigrationsPath:  "file://migrations",
		DBTimeout:       5 * time.Second,
		MetricsEnabled:  true,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"http://localhost:3000"},
	}
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DBDriver != db.DriverSQLite && c.DBDriver != db.DriverPostgres {
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: database_url must not be empty", ErrInvalidConfig)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}
