// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers .env, an optional YAML file and WITARCADE_* env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text, json or pretty.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3001".
	Addr string `koanf:"addr"`

	// PublicURL is the externally visible base URL used in share links.
	// Empty means derive it from the incoming request.
	PublicURL string `koanf:"public_url"`

	// StoreDriver picks the leaderboard store: mongo or memory.
	StoreDriver string `koanf:"store_driver"`

	// MongoURI is the MongoDB connection string. Required for the mongo driver.
	MongoURI        string `koanf:"mongo_uri"`
	MongoDatabase   string `koanf:"mongo_database"`
	MongoCollection string `koanf:"mongo_collection"`

	// StoreTimeoutMS bounds each store round trip.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// DefaultLeaderboardLimit is used when ?limit is absent or invalid.
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`

	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CatalogPath points at a .json, .toml or .msgpack player catalog.
	// Empty uses the embedded sample catalog.
	CatalogPath string `koanf:"catalog_path"`

	// IdempotencySize bounds the Idempotency-Key cache.
	IdempotencySize int `koanf:"idempotency_size"`

	// SessionIdleTimeoutMS reaps play sessions without activity.
	SessionIdleTimeoutMS int `koanf:"session_idle_timeout_ms"`

	// TickIntervalMS is the elapsed-time display tick for play sessions.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// Metrics settings for the /healthz registry.
	MetricsNamespace         string `koanf:"metrics_namespace"`
	MetricsEnabled           bool   `koanf:"metrics_enabled"`
	MetricsRefreshIntervalMS int    `koanf:"metrics_refresh_interval_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":3001",
		StoreDriver:             DriverMongo,
		MongoDatabase:           "wit_arcade",
		MongoCollection:         "leaderboard",
		StoreTimeoutMS:          5000,
		DefaultLeaderboardLimit: 10,
		MaxLeaderboardLimit:     50,
		IdempotencySize:         10_000,
		SessionIdleTimeoutMS:    30 * 60 * 1000,
		TickIntervalMS:          250,

		MetricsNamespace:         "witarcade",
		MetricsEnabled:           true,
		MetricsRefreshIntervalMS: 10_000,
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// SessionIdleTimeout returns SessionIdleTimeoutMS as a duration.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleTimeoutMS) * time.Millisecond
}

// TickInterval returns TickIntervalMS as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// MetricsRefreshInterval returns MetricsRefreshIntervalMS as a duration.
func (c *Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshIntervalMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != DriverMongo && c.StoreDriver != DriverMemory:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == DriverMongo && c.MongoURI == "":
		return ErrMissingStoreURI
	case c.StoreDriver == DriverMongo && (c.MongoDatabase == "" || c.MongoCollection == ""):
		return fmt.Errorf("%w: mongo_database and mongo_collection must not be empty", ErrInvalidConfig)
	case c.DefaultLeaderboardLimit < 1:
		return fmt.Errorf("%w: default_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < c.DefaultLeaderboardLimit:
		return fmt.Errorf("%w: max_leaderboard_limit must be >= default_leaderboard_limit", ErrInvalidConfig)
	case c.StoreTimeoutMS <= 0:
		return fmt.Errorf("%w: store_timeout_ms must be positive", ErrInvalidConfig)
	case c.IdempotencySize < 1:
		return fmt.Errorf("%w: idempotency_size must be positive", ErrInvalidConfig)
	case c.TickIntervalMS <= 0 || c.SessionIdleTimeoutMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms and session_idle_timeout_ms must be positive", ErrInvalidConfig)
	case c.MetricsNamespace == "" || c.MetricsRefreshIntervalMS <= 0:
		return fmt.Errorf("%w: metrics_namespace must be set and metrics_refresh_interval_ms positive", ErrInvalidConfig)
	}
	return nil
}
