// Package geometry holds the pure 2D helpers every detector builds on.
package geometry

import (
	"math"

	"github.com/okian/dojo/internal/domain/model"
)

// Distance returns the Euclidean distance between a and b.
func Distance(a, b model.Point2D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Angle returns the angle in degrees at vertex b formed by a-b-c, using the
// law of cosines on the three side lengths. Degenerate triangles yield 0.
func Angle(a, b, c model.Point2D) float64 {
	ab := Distance(a, b)
	bc := Distance(b, c)
	ac := Distance(a, c)
	if ab == 0 || bc == 0 || ac == 0 {
		return 0
	}
	cos := (ab*ab + bc*bc - ac*ac) / (2 * ab * bc)
	// rounding can push collinear points just outside [-1, 1]
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Sample is a per-keypoint measurement that may be missing.
type Sample struct {
	Value float64
	OK    bool
}

// Velocity returns per-keypoint speed in pixels per second between two
// poses. Keypoints missing from either pose are reported as not OK.
func Velocity(a, b *model.Pose, dtSeconds float64) []Sample {
	out := make([]Sample, model.NumKeypoints)
	if dtSeconds <= 0 || len(a.Keypoints) != model.NumKeypoints || len(b.Keypoints) != model.NumKeypoints {
		return out
	}
	for i := range out {
		ka, kb := a.Keypoints[i], b.Keypoints[i]
		if !ka.Present() || !kb.Present() {
			continue
		}
		out[i] = Sample{Value: Distance(ka.Point2D, kb.Point2D) / dtSeconds, OK: true}
	}
	return out
}

// Mean averages the OK samples. The second result is false when none are.
func Mean(samples []Sample) (float64, bool) {
	var sum float64
	var n int
	for _, s := range samples {
		if s.OK {
			sum += s.Value
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Seconds converts a millisecond timestamp delta to seconds.
func Seconds(fromMS, toMS int64) float64 {
	return float64(toMS-fromMS) / 1000
}
