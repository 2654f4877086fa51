// Package action recognises kicks, punches, blocks and dodges from a
// defender/attacker pose pair using per-action hysteresis counters.
package action

import "fmt"

// Default thresholds. The angle and reach values are empirical calibrations
// kept as overridable configuration.
const (
	DefaultMinConfidence = 0.3
	DefaultExtendedAngle = 150.0
	DefaultKickReachPx   = 60.0
	DefaultPunchReachPx  = 60.0
	DefaultGuardReachPx  = 50.0
	DefaultDodgeShiftPx  = 50.0

	DefaultKickFrames  = 3
	DefaultPunchFrames = 3
	DefaultBlockFrames = 2
	DefaultDodgeFrames = 2
)

// Config holds the geometric thresholds and confirmation frame counts.
type Config struct {
	MinConfidence float64 `koanf:"min_confidence"`
	ExtendedAngle float64 `koanf:"extended_angle"`
	KickReachPx   float64 `koanf:"kick_reach_px"`
	PunchReachPx  float64 `koanf:"punch_reach_px"`
	GuardReachPx  float64 `koanf:"guard_reach_px"`
	DodgeShiftPx  float64 `koanf:"dodge_shift_px"`

	KickFrames  int `koanf:"kick_frames"`
	PunchFrames int `koanf:"punch_frames"`
	BlockFrames int `koanf:"block_frames"`
	DodgeFrames int `koanf:"dodge_frames"`
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence: DefaultMinConfidence,
		ExtendedAngle: DefaultExtendedAngle,
		KickReachPx:   DefaultKickReachPx,
		PunchReachPx:  DefaultPunchReachPx,
		GuardReachPx:  DefaultGuardReachPx,
		DodgeShiftPx:  DefaultDodgeShiftPx,
		KickFrames:    DefaultKickFrames,
		PunchFrames:   DefaultPunchFrames,
		BlockFrames:   DefaultBlockFrames,
		DodgeFrames:   DefaultDodgeFrames,
	}
}

// Validate reports the first nonsensical value.
func (c Config) Validate() error {
	switch {
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("%w: min_confidence %v outside [0,1]", ErrInvalidConfig, c.MinConfidence)
	case c.ExtendedAngle <= 0 || c.ExtendedAngle >= 180:
		return fmt.Errorf("%w: extended_angle %v outside (0,180)", ErrInvalidConfig, c.ExtendedAngle)
	case c.KickReachPx <= 0 || c.PunchReachPx <= 0 || c.GuardReachPx <= 0 || c.DodgeShiftPx <= 0:
		return fmt.Errorf("%w: distances must be positive", ErrInvalidConfig)
	case c.KickFrames < 1 || c.PunchFrames < 1 || c.BlockFrames < 1 || c.DodgeFrames < 1:
		return fmt.Errorf("%w: confirmation frames must be at least 1", ErrInvalidConfig)
	}
	return nil
}

func (c Config) frames(t kind) int {
	switch t {
	case kick:
		return c.KickFrames
	case punch:
		return c.PunchFrames
	case block:
		return c.BlockFrames
	default:
		return c.DodgeFrames
	}
}
