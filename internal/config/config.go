// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShardCount sets how many queues and workers sessions are spread over.
	ShardCount int `koanf:"shard_count"`

	// QueueSize bounds each shard queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the frame deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxEventsPerSession bounds the emission log kept per session.
	MaxEventsPerSession int `koanf:"max_events_per_session"`

	// StreamPingIntervalMS is the websocket keepalive period.
	StreamPingIntervalMS int `koanf:"stream_ping_interval_ms"`

	// AllowedOrigins lists the browser origins allowed to open session
	// streams. Empty means same-origin only.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// Session tunes every stage of the recognition engine.
	Session session.Config `koanf:"session"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            logger.FormatText,
		Addr:                 ":9080",
		ShardCount:           runtime.NumCPU(),
		QueueSize:            4096,
		DedupeSize:           50_000,
		MaxEventsPerSession:  1000,
		StreamPingIntervalMS: 30_000,
		Session:              session.DefaultConfig(),
	}
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.ShardCount < 1:
		return fmt.Errorf("%w: shard_count must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.MaxEventsPerSession < 1:
		return fmt.Errorf("%w: max_events_per_session must be positive", ErrInvalidConfig)
	case c.StreamPingIntervalMS < 1:
		return fmt.Errorf("%w: stream_ping_interval_ms must be positive", ErrInvalidConfig)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("%w: session: %w", ErrInvalidConfig, err)
	}
	return nil
}
