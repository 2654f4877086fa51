package motion

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/dojo/internal/domain/model"
)

// Intensity buckets the mean motion magnitude.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Smoothness buckets the spread of motion magnitude.
type Smoothness string

const (
	Smooth   Smoothness = "smooth"
	Moderate Smoothness = "moderate"
	Jerky    Smoothness = "jerky"
)

// Symmetry buckets the left/right joint angle difference.
type Symmetry string

const (
	Symmetric           Symmetry = "symmetric"
	ModeratelySymmetric Symmetry = "moderately_symmetric"
	Asymmetric          Symmetry = "asymmetric"
	SymmetryUnknown     Symmetry = "unknown"
)

const dominantCount = 3

// Patterns summarises the kinematics of a sequence.
type Patterns struct {
	Intensity      Intensity  `json:"intensity"`
	Smoothness     Smoothness `json:"smoothness"`
	Symmetry       Symmetry   `json:"symmetry"`
	Stability      float64    `json:"stability"`
	DominantJoints []int      `json:"dominant_joints"`
	MeanMagnitude  float64    `json:"mean_magnitude"`
	Variance       float64    `json:"variance"`
	StdDev         float64    `json:"stddev"`
	PeakVelocity   float64    `json:"peak_velocity"`
}

// Dominant reports whether keypoint k is among the dominant joints.
func (p *Patterns) Dominant(k ...int) bool {
	for _, want := range k {
		if !slices.Contains(p.DominantJoints, want) {
			return false
		}
	}
	return true
}

// DominantAny reports whether any of the keypoints is dominant.
func (p *Patterns) DominantAny(k ...int) bool {
	return slices.ContainsFunc(k, func(i int) bool { return slices.Contains(p.DominantJoints, i) })
}

func (c *Classifier) patterns(f *features) Patterns {
	p := Patterns{
		Symmetry:       c.symmetry(f.angles),
		DominantJoints: dominant(f.cumulative),
		PeakVelocity:   f.peakVelocity,
	}
	if len(f.magnitudes) > 0 {
		p.MeanMagnitude = stat.Mean(f.magnitudes, nil)
		p.Variance = stat.PopVariance(f.magnitudes, nil)
		p.StdDev = stat.PopStdDev(f.magnitudes, nil)
	}
	p.Stability = 1 - math.Min(p.Variance/10, 1)

	switch {
	case p.MeanMagnitude < c.cfg.LowIntensity:
		p.Intensity = IntensityLow
	case p.MeanMagnitude < c.cfg.HighIntensity:
		p.Intensity = IntensityMedium
	default:
		p.Intensity = IntensityHigh
	}

	switch {
	case p.StdDev < c.cfg.SmoothStdDev:
		p.Smoothness = Smooth
	case p.StdDev < c.cfg.JerkyStdDev:
		p.Smoothness = Moderate
	default:
		p.Smoothness = Jerky
	}
	return p
}

// symmetry compares mirrored joint angles over the frames where both sides
// are visible. The ratio is the RMS difference in degrees over 180.
func (c *Classifier) symmetry(series []angles) Symmetry {
	var diffs []float64
	for _, a := range series {
		for _, pair := range mirrored {
			l, r := a[pair[0]], a[pair[1]]
			if l.OK && r.OK {
				diffs = append(diffs, l.Value-r.Value)
			}
		}
	}
	if len(diffs) == 0 {
		return SymmetryUnknown
	}
	ratio := math.Sqrt(floats.Dot(diffs, diffs)/float64(len(diffs))) / 180
	switch {
	case ratio < c.cfg.SymmetricRatio:
		return Symmetric
	case ratio < c.cfg.AsymmetricRatio:
		return ModeratelySymmetric
	default:
		return Asymmetric
	}
}

// dominant ranks keypoints by cumulative velocity, lower index first on ties,
// and keeps the top three that moved at all.
func dominant(cumulative [model.NumKeypoints]float64) []int {
	idx := make([]int, 0, model.NumKeypoints)
	for i, v := range cumulative {
		if v > 0 {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case cumulative[a] > cumulative[b]:
			return -1
		case cumulative[a] < cumulative[b]:
			return 1
		}
		return 0
	})
	if len(idx) > dominantCount {
		idx = idx[:dominantCount]
	}
	return idx
}
