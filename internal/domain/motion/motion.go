package motion

import (
	"maps"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/dojo/internal/domain/model"
)

// ErrInsufficientData is the Error text of an Analysis built from fewer than
// two poses.
const ErrInsufficientData = "insufficient data"

// Metrics are derived performance figures for a sequence.
type Metrics struct {
	DurationMS          int64              `json:"duration_ms"`
	AverageVelocity     float64            `json:"average_velocity"`
	PeakVelocity        float64            `json:"peak_velocity"`
	AverageAcceleration float64            `json:"average_acceleration"`
	JointRanges         map[string]float64 `json:"joint_ranges"`
	Structure           Structure          `json:"structure"`
}

// Analysis is the classifier's verdict on one sequence.
type Analysis struct {
	MotionType      Type     `json:"motion_type"`
	Confidence      float64  `json:"confidence"`
	Patterns        Patterns `json:"patterns"`
	Scores          []Score  `json:"scores,omitempty"`
	Metrics         Metrics  `json:"metrics"`
	Recommendations []string `json:"recommendations"`
	FrameCount      int      `json:"frame_count"`
	Error           string   `json:"error,omitempty"`
}

// Classifier analyses complete pose sequences. It holds no per-sequence
// state and is safe for concurrent use.
type Classifier struct {
	cfg Config
}

// New creates a Classifier.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Analyze classifies poses, which must belong to one track in time order.
func (c *Classifier) Analyze(poses []model.Pose) Analysis {
	if len(poses) < 2 {
		return Analysis{
			MotionType:      Unknown,
			FrameCount:      len(poses),
			Error:           ErrInsufficientData,
			Recommendations: recommend(Unknown, Patterns{}),
		}
	}

	f := c.extract(poses)
	p := c.patterns(&f)
	typ, scores := ScoreMotion(p, c.cfg.MinScore)
	return Analysis{
		MotionType:      typ,
		Confidence:      confidence(&f, &p),
		Patterns:        p,
		Scores:          scores,
		Metrics:         metrics(poses, &f),
		Recommendations: recommend(typ, p),
		FrameCount:      len(poses),
	}
}

func confidence(f *features, p *Patterns) float64 {
	c := 0.5
	if len(f.magnitudes) >= 10 {
		c += 0.2
	}
	if len(f.velocities) >= 5 {
		c += 0.2
	}
	if p.MeanMagnitude > 1 {
		c += 0.1
	}
	// round off float noise so the sums land on whole hundredths
	return math.Min(math.Round(c*100)/100, 1)
}

func metrics(poses []model.Pose, f *features) Metrics {
	m := Metrics{
		DurationMS:   poses[len(poses)-1].Timestamp - poses[0].Timestamp,
		PeakVelocity: f.peakVelocity,
		JointRanges:  make(map[string]float64, numJoints),
		Structure:    f.structure,
	}
	if len(f.velocities) > 0 {
		m.AverageVelocity = stat.Mean(f.velocities, nil)
	}
	if len(f.accelerations) > 0 {
		m.AverageAcceleration = stat.Mean(f.accelerations, nil)
	}
	for j := range numJoints {
		var series []float64
		for _, a := range f.angles {
			if a[j].OK {
				series = append(series, a[j].Value)
			}
		}
		if len(series) > 0 {
			m.JointRanges[j.String()] = floats.Max(series) - floats.Min(series)
		}
	}
	return m
}

// JointRange returns the range of motion recorded for j.
func (m Metrics) JointRange(j Joint) (float64, bool) {
	v, ok := m.JointRanges[j.String()]
	return v, ok
}

// Clone returns a deep copy safe to hand to another goroutine.
func (a Analysis) Clone() Analysis {
	out := a
	out.Patterns.DominantJoints = append([]int(nil), a.Patterns.DominantJoints...)
	out.Scores = append([]Score(nil), a.Scores...)
	out.Recommendations = append([]string(nil), a.Recommendations...)
	out.Metrics.JointRanges = maps.Clone(a.Metrics.JointRanges)
	return out
}

func recommend(typ Type, p Patterns) []string {
	var out []string
	if typ == Unknown || typ == GeneralMovement {
		out = append(out, "Movement pattern unclear; perform one technique at a time so it can be assessed")
	}
	if typ == Unknown {
		return out
	}
	if p.Intensity == IntensityLow && typ != Stance {
		out = append(out, "Increase movement intensity and commit to each technique")
	}
	if p.Symmetry == Asymmetric {
		out = append(out, "Balance your training between left and right sides")
	}
	if p.Stability < 0.5 {
		out = append(out, "Work on balance; keep your base steady between techniques")
	}
	if p.Smoothness == Jerky {
		out = append(out, "Aim for smoother transitions between movements")
	}
	return out
}
