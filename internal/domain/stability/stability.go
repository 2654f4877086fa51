// Package stability scores how little a pose sequence changes frame to frame
// and detects stable stances and settled actions.
package stability

import (
	"fmt"
	"math"

	"github.com/okian/dojo/internal/domain/geometry"
	"github.com/okian/dojo/internal/domain/model"
)

// DefaultNormalizationPx is the mean keypoint displacement at which two poses
// are considered completely different. Empirical; kept overridable.
const DefaultNormalizationPx = 100.0

// Default detector parameters.
const (
	DefaultStableThreshold     = 0.85
	DefaultStableMinFrames     = 30
	DefaultMovementThreshold   = 0.3
	DefaultCompletionMinFrames = 15
	DefaultPeriodMinFrames     = 10
)

// Config holds the stability tuning knobs.
type Config struct {
	NormalizationPx     float64 `koanf:"normalization_px"`
	StableThreshold     float64 `koanf:"stable_threshold"`
	StableMinFrames     int     `koanf:"stable_min_frames"`
	MovementThreshold   float64 `koanf:"movement_threshold"`
	CompletionMinFrames int     `koanf:"completion_min_frames"`
	PeriodMinFrames     int     `koanf:"period_min_frames"`
}

// DefaultConfig returns the calibrated defaults.
func DefaultConfig() Config {
	return Config{
		NormalizationPx:     DefaultNormalizationPx,
		StableThreshold:     DefaultStableThreshold,
		StableMinFrames:     DefaultStableMinFrames,
		MovementThreshold:   DefaultMovementThreshold,
		CompletionMinFrames: DefaultCompletionMinFrames,
		PeriodMinFrames:     DefaultPeriodMinFrames,
	}
}

// Validate reports the first nonsensical value. A window shorter than two
// poses has no frame-to-frame change and would never report stability.
func (c Config) Validate() error {
	switch {
	case c.NormalizationPx < 0:
		return fmt.Errorf("%w: normalization_px must not be negative", ErrInvalidConfig)
	case c.StableThreshold <= 0 || c.StableThreshold > 1:
		return fmt.Errorf("%w: stable_threshold %v outside (0,1]", ErrInvalidConfig, c.StableThreshold)
	case c.MovementThreshold < 0 || c.MovementThreshold >= c.StableThreshold:
		return fmt.Errorf("%w: movement_threshold %v must lie in [0,stable_threshold)", ErrInvalidConfig, c.MovementThreshold)
	case c.StableMinFrames < 2 || c.CompletionMinFrames < 2 || c.PeriodMinFrames < 2:
		return fmt.Errorf("%w: frame minimums must be at least 2", ErrInvalidConfig)
	}
	return nil
}

// Source is the read side of a pose history.
type Source interface {
	Len() int
	Window(n int) []model.Pose
}

// StablePose describes the trailing window of a stability check.
type StablePose struct {
	IsStable       bool
	StabilityScore float64
	KeyPose        model.Pose
	FrameCount     int
	Timestamp      int64
}

// Completion describes a motion-then-settle check.
type Completion struct {
	Completed      bool
	MovementScore  float64 // stability of the earlier half
	StabilityScore float64 // stability of the later half
	KeyPose        model.Pose
	FrameCount     int
	Timestamp      int64
}

// Scorer computes similarity and stability scores.
type Scorer struct {
	normalization float64
}

// New creates a Scorer. A non-positive normalization falls back to the default.
func New(normalizationPx float64) *Scorer {
	if normalizationPx <= 0 {
		normalizationPx = DefaultNormalizationPx
	}
	return &Scorer{normalization: normalizationPx}
}

// Similarity maps the mean displacement of keypoints present in both poses to
// [0,1]. Poses sharing no present keypoint score 0.
func (s *Scorer) Similarity(a, b *model.Pose) float64 {
	n := min(len(a.Keypoints), len(b.Keypoints))
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		ka, kb := a.Keypoints[i], b.Keypoints[i]
		if !ka.Present() || !kb.Present() {
			continue
		}
		sum += geometry.Distance(ka.Point2D, kb.Point2D)
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Max(0, 1-(sum/float64(count))/s.normalization)
}

// Score averages Similarity over each consecutive pair. Windows shorter than
// two poses score 0.
func (s *Scorer) Score(window []model.Pose) float64 {
	if len(window) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(window); i++ {
		sum += s.Similarity(&window[i-1], &window[i])
	}
	return sum / float64(len(window)-1)
}

// DetectStablePose evaluates the trailing minFrames poses. It returns nil
// until the source holds at least minFrames poses.
func (s *Scorer) DetectStablePose(src Source, threshold float64, minFrames int) *StablePose {
	if minFrames < 2 || src.Len() < minFrames {
		return nil
	}
	window := src.Window(minFrames)
	score := s.Score(window)
	last := window[len(window)-1]
	return &StablePose{
		IsStable:       score >= threshold,
		StabilityScore: score,
		KeyPose:        last,
		FrameCount:     len(window),
		Timestamp:      last.Timestamp,
	}
}

// DetectActionCompletion splits the trailing 2*minFrames poses in half. It
// completes when the earlier half moved (stability below movementThreshold)
// and the later half settled (stability at or above stabilityThreshold).
// Each call re-evaluates from scratch; nil means not enough history.
func (s *Scorer) DetectActionCompletion(src Source, movementThreshold, stabilityThreshold float64, minFrames int) *Completion {
	if minFrames < 2 || src.Len() < 2*minFrames {
		return nil
	}
	window := src.Window(2 * minFrames)
	earlier := s.Score(window[:minFrames])
	later := s.Score(window[minFrames:])
	last := window[len(window)-1]
	return &Completion{
		Completed:      earlier < movementThreshold && later >= stabilityThreshold,
		MovementScore:  earlier,
		StabilityScore: later,
		KeyPose:        last,
		FrameCount:     len(window),
		Timestamp:      last.Timestamp,
	}
}

// StablePeriods finds maximal runs of consecutive-pair similarity at or above
// threshold that span at least minFrames poses.
func (s *Scorer) StablePeriods(poses []model.Pose, threshold float64, minFrames int) []model.StablePeriod {
	var out []model.StablePeriod
	runStart, runSum, runPairs := -1, 0.0, 0

	flush := func(end int) {
		if runStart >= 0 && runPairs+1 >= minFrames {
			out = append(out, model.StablePeriod{
				Start:     poses[runStart].Timestamp,
				End:       poses[end].Timestamp,
				Stability: runSum / float64(runPairs),
			})
		}
		runStart, runSum, runPairs = -1, 0, 0
	}

	for i := 1; i < len(poses); i++ {
		sim := s.Similarity(&poses[i-1], &poses[i])
		if sim < threshold {
			flush(i - 1)
			continue
		}
		if runStart < 0 {
			runStart = i - 1
		}
		runSum += sim
		runPairs++
	}
	flush(len(poses) - 1)
	return out
}
