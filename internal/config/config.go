// Package config defines service configuration structures and loading hooks.
package config

import (
	"time"
)

// Config contains process configuration. Durations travel as millisecond
// integers so every layer (file, env) writes them the same way.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9790".
	Addr string `koanf:"addr"`

	// StashURL points at the media server's GraphQL endpoint base.
	StashURL string `koanf:"stash_url"`

	// StashAPIKey authenticates gateway calls. Empty means no auth header.
	StashAPIKey string `koanf:"stash_api_key"`

	// StashTimeoutMS bounds a single gateway call.
	StashTimeoutMS int `koanf:"stash_timeout_ms"`

	// DBPath locates the bbolt file holding cache and session state.
	DBPath string `koanf:"db_path"`

	// CacheMaxAgeMS is how old a cached library view may grow before
	// serves revalidate in the background.
	CacheMaxAgeMS int `koanf:"cache_max_age_ms"`

	// Breaker tuning for the media-server gateway.
	BreakerMinRequests   int     `koanf:"breaker_min_requests"`
	BreakerFailureRatio  float64 `koanf:"breaker_failure_ratio"`
	BreakerOpenTimeoutMS int     `koanf:"breaker_open_timeout_ms"`

	// QueueSize bounds the in-memory rating write queue.
	QueueSize int `koanf:"queue_size"`

	// DrainTimeoutMS is the shutdown grace period for queued writes.
	DrainTimeoutMS int `koanf:"drain_timeout_ms"`

	// WriteTimeoutMS bounds a single rating write to the media server.
	WriteTimeoutMS int `koanf:"write_timeout_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9790",
		StashURL:             "http://localhost:9999",
		StashTimeoutMS:       15_000,
		DBPath:               "stash-battle.db",
		CacheMaxAgeMS:        300_000,
		BreakerMinRequests:   5,
		BreakerFailureRatio:  0.6,
		BreakerOpenTimeoutMS: 30_000,
		QueueSize:            256,
		DrainTimeoutMS:       5_000,
		WriteTimeoutMS:       10_000,
	}
}

// StashTimeout returns the gateway call timeout.
func (c *Config) StashTimeout() time.Duration {
	return time.Duration(c.StashTimeoutMS) * time.Millisecond
}

// CacheMaxAge returns the cache revalidation age.
func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.CacheMaxAgeMS) * time.Millisecond
}

// BreakerOpenTimeout returns how long the breaker stays open before a probe.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenTimeoutMS) * time.Millisecond
}

// DrainTimeout returns the shutdown grace period for queued writes.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.DrainTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the per-write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}
