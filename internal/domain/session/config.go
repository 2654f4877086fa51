// Package session runs the per-session recognition pipeline: pose history,
// action detection, keyframe capture and the end-of-session report.
package session

import (
	"errors"
	"fmt"

	"github.com/okian/dojo/internal/domain/action"
	"github.com/okian/dojo/internal/domain/history"
	"github.com/okian/dojo/internal/domain/keyframe"
	"github.com/okian/dojo/internal/domain/motion"
	"github.com/okian/dojo/internal/domain/stability"
)

// DefaultRecordingCapacity bounds the poses kept for the final report,
// about a minute at 30 Hz.
const DefaultRecordingCapacity = 1800

// Config is the full tuning of one session.
type Config struct {
	HistoryCapacity   int              `koanf:"history_capacity"`
	RecordingCapacity int              `koanf:"recording_capacity"`
	Stability         stability.Config `koanf:"stability"`
	Action            action.Config    `koanf:"action"`
	Keyframe          keyframe.Config  `koanf:"keyframe"`
	Motion            motion.Config    `koanf:"motion"`
}

// DefaultConfig returns the defaults of every stage.
func DefaultConfig() Config {
	return Config{
		HistoryCapacity:   history.DefaultCapacity,
		RecordingCapacity: DefaultRecordingCapacity,
		Stability:         stability.DefaultConfig(),
		Action:            action.DefaultConfig(),
		Keyframe:          keyframe.DefaultConfig(),
		Motion:            motion.DefaultConfig(),
	}
}

// Validate checks every stage.
func (c Config) Validate() error {
	if c.HistoryCapacity < 2 || c.RecordingCapacity < 2 {
		return fmt.Errorf("%w: capacities must be at least 2", ErrInvalidConfig)
	}
	if c.Stability.StableMinFrames > c.HistoryCapacity || 2*c.Stability.CompletionMinFrames > c.HistoryCapacity {
		return fmt.Errorf("%w: history_capacity %d too small for the stability windows", ErrInvalidConfig, c.HistoryCapacity)
	}
	return errors.Join(c.Stability.Validate(), c.Action.Validate(), c.Keyframe.Validate(), c.Motion.Validate())
}
