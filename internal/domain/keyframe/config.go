// Package keyframe decides when a pose is worth capturing and packages the
// capture together with the motion that led up to it.
package keyframe

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid keyframe config")

// Default capture policy.
const (
	DefaultGlobalCooldownMS     = 4000
	DefaultTypeCooldownMS       = 6000
	DefaultActionConfidence     = 0.6
	DefaultCompletionConfidence = 0.7
	DefaultCompletionGapMS      = 5000
	DefaultStableConfidence     = 0.85
	DefaultStableGapMS          = 8000
	DefaultMotionWindow         = 20
	DefaultRecentActions        = 5
	DefaultHistorySize          = 50
)

// Config holds the capture policy.
type Config struct {
	GlobalCooldownMS     int64   `koanf:"global_cooldown_ms"`
	TypeCooldownMS       int64   `koanf:"type_cooldown_ms"`
	ActionConfidence     float64 `koanf:"action_confidence"`
	CompletionConfidence float64 `koanf:"completion_confidence"`
	CompletionGapMS      int64   `koanf:"completion_gap_ms"`
	StableConfidence     float64 `koanf:"stable_confidence"`
	StableGapMS          int64   `koanf:"stable_gap_ms"`
	MotionWindow         int     `koanf:"motion_window"`
	RecentActions        int     `koanf:"recent_actions"`
	HistorySize          int     `koanf:"history_size"`
}

// DefaultConfig returns the default capture policy.
func DefaultConfig() Config {
	return Config{
		GlobalCooldownMS:     DefaultGlobalCooldownMS,
		TypeCooldownMS:       DefaultTypeCooldownMS,
		ActionConfidence:     DefaultActionConfidence,
		CompletionConfidence: DefaultCompletionConfidence,
		CompletionGapMS:      DefaultCompletionGapMS,
		StableConfidence:     DefaultStableConfidence,
		StableGapMS:          DefaultStableGapMS,
		MotionWindow:         DefaultMotionWindow,
		RecentActions:        DefaultRecentActions,
		HistorySize:          DefaultHistorySize,
	}
}

// Validate reports the first nonsensical value.
func (c Config) Validate() error {
	switch {
	case c.GlobalCooldownMS < 0 || c.TypeCooldownMS < 0 || c.CompletionGapMS < 0 || c.StableGapMS < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	case c.MotionWindow < 1:
		return fmt.Errorf("%w: motion_window must be at least 1", ErrInvalidConfig)
	case c.RecentActions < 0 || c.HistorySize < 0:
		return fmt.Errorf("%w: log sizes must not be negative", ErrInvalidConfig)
	}
	return nil
}
