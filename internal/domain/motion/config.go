// Package motion classifies a finished pose sequence into a motion type and
// derives coaching recommendations and performance metrics from it.
package motion

import "fmt"

// Default pattern thresholds.
const (
	DefaultLowIntensity    = 2.0 // mean motion magnitude, px per frame
	DefaultHighIntensity   = 6.0
	DefaultSmoothStdDev    = 2.0
	DefaultJerkyStdDev     = 5.0
	DefaultSymmetricRatio  = 0.1
	DefaultAsymmetricRatio = 0.25
	DefaultMinScore        = 3
	DefaultMinConfidence   = 0.3
)

// Config holds the pattern thresholds.
type Config struct {
	LowIntensity    float64 `koanf:"low_intensity"`
	HighIntensity   float64 `koanf:"high_intensity"`
	SmoothStdDev    float64 `koanf:"smooth_stddev"`
	JerkyStdDev     float64 `koanf:"jerky_stddev"`
	SymmetricRatio  float64 `koanf:"symmetric_ratio"`
	AsymmetricRatio float64 `koanf:"asymmetric_ratio"`
	MinScore        int     `koanf:"min_score"`
	MinConfidence   float64 `koanf:"min_confidence"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		LowIntensity:    DefaultLowIntensity,
		HighIntensity:   DefaultHighIntensity,
		SmoothStdDev:    DefaultSmoothStdDev,
		JerkyStdDev:     DefaultJerkyStdDev,
		SymmetricRatio:  DefaultSymmetricRatio,
		AsymmetricRatio: DefaultAsymmetricRatio,
		MinScore:        DefaultMinScore,
		MinConfidence:   DefaultMinConfidence,
	}
}

// Validate reports the first nonsensical value. Each low/high pair must be
// ordered or the pattern bands overlap.
func (c Config) Validate() error {
	switch {
	case c.LowIntensity < 0 || c.LowIntensity >= c.HighIntensity:
		return fmt.Errorf("%w: need 0 <= low_intensity < high_intensity, got %v and %v", ErrInvalidConfig, c.LowIntensity, c.HighIntensity)
	case c.SmoothStdDev < 0 || c.SmoothStdDev >= c.JerkyStdDev:
		return fmt.Errorf("%w: need 0 <= smooth_stddev < jerky_stddev, got %v and %v", ErrInvalidConfig, c.SmoothStdDev, c.JerkyStdDev)
	case c.SymmetricRatio < 0 || c.SymmetricRatio >= c.AsymmetricRatio:
		return fmt.Errorf("%w: need 0 <= symmetric_ratio < asymmetric_ratio, got %v and %v", ErrInvalidConfig, c.SymmetricRatio, c.AsymmetricRatio)
	case c.MinScore < 1:
		return fmt.Errorf("%w: min_score must be at least 1", ErrInvalidConfig)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("%w: min_confidence %v outside [0,1]", ErrInvalidConfig, c.MinConfidence)
	}
	return nil
}
