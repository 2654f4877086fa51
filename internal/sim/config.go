package sim

import (
	"io"
	"time"
)

// Defaults for a replay run.
const (
	DefaultBaseURL   = "http://localhost:9080"
	DefaultBatchSize = 25
	DefaultWorkers   = 4
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 5
	retryBackoff     = 100 * time.Millisecond
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Scenarios []string      // Scenario names to replay; empty means all
	Repeat    int           // Sessions opened per scenario
	Workers   int           // Sessions replayed concurrently
	BatchSize int           // Frames per POST
	Jitter    float64       // Keypoint noise in pixels
	Seed      uint64        // Noise seed; each replay derives its own
	FPS       float64       // Pacing in frames per second; 0 sends as fast as possible
	Resend    bool          // Post every batch twice to exercise dedupe
	Strict    bool          // Treat verification warnings as failure
	Timeout   time.Duration // HTTP request timeout
	Retries   int           // Attempts per batch on backpressure
	Output    string        // Optional JSON file for the results
	Progress  io.Writer     // Progress bar destination; nil hides it
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Repeat <= 0 {
		out.Repeat = 1
	}
	if out.Workers <= 0 {
		out.Workers = DefaultWorkers
	}
	if out.BatchSize <= 0 {
		out.BatchSize = DefaultBatchSize
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Retries <= 0 {
		out.Retries = DefaultRetries
	}
	if out.Progress == nil {
		out.Progress = io.Discard
	}
	return out
}
