// Package synth generates deterministic synthetic pose streams for tests and
// for replaying scenarios against a running service.
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/okian/dojo/internal/domain/model"
)

// Skeleton layout relative to the body centre line. Offsets are in pixels,
// image y grows downward. Side "a" is the -x side, "b" the +x side.
const (
	headY       = 100.0
	shoulderY   = 140.0
	hipY        = 220.0
	kneeY       = 280.0
	ankleY      = 340.0
	shoulderDX  = 20.0
	hipDX       = 12.0
	kneeDX      = 30.0
	defaultConf = 0.95
)

// Stance returns a fighting stance centred on cx: knees bent, hands held low
// in front of the chest, elbows bent.
func Stance(trackID string, cx float64, ts int64) model.Pose {
	kp := make([]model.Keypoint, model.NumKeypoints)
	set := func(i int, x, y float64) {
		kp[i] = model.Keypoint{Point2D: model.Point2D{X: x, Y: y}, Confidence: defaultConf}
	}
	set(model.Nose, cx, headY)
	set(model.LeftEye, cx-5, headY-5)
	set(model.RightEye, cx+5, headY-5)
	set(model.LeftEar, cx-10, headY-2)
	set(model.RightEar, cx+10, headY-2)
	set(model.LeftShoulder, cx-shoulderDX, shoulderY)
	set(model.RightShoulder, cx+shoulderDX, shoulderY)
	set(model.LeftElbow, cx-30, 185)
	set(model.RightElbow, cx+30, 185)
	set(model.LeftWrist, cx-15, 165)
	set(model.RightWrist, cx+15, 165)
	set(model.LeftHip, cx-hipDX, hipY)
	set(model.RightHip, cx+hipDX, hipY)
	set(model.LeftKnee, cx-kneeDX, kneeY)
	set(model.RightKnee, cx+kneeDX, kneeY)
	set(model.LeftAnkle, cx-hipDX, ankleY)
	set(model.RightAnkle, cx+hipDX, ankleY)
	bbox := [4]float64{cx - 40, headY - 20, cx + 40, ankleY + 10}
	return model.Pose{TrackID: trackID, Keypoints: kp, BoundingBox: &bbox, Timestamp: ts}
}

// Head returns where Stance puts the nose for a body centred on cx.
func Head(cx float64) model.Point2D { return model.Point2D{X: cx, Y: headY} }

// Chest returns the shoulder midpoint for a body centred on cx.
func Chest(cx float64) model.Point2D { return model.Point2D{X: cx, Y: shoulderY} }

// Punch returns a stance whose arm nearest target is fully extended, the
// wrist stopping short of target by gap pixels.
func Punch(trackID string, cx float64, target model.Point2D, gap float64, ts int64) model.Pose {
	p := Stance(trackID, cx, ts)
	shoulder, elbow, wrist := model.LeftShoulder, model.LeftElbow, model.LeftWrist
	if target.X > cx {
		shoulder, elbow, wrist = model.RightShoulder, model.RightElbow, model.RightWrist
	}
	extend(p.Keypoints, shoulder, elbow, wrist, target, gap)
	return p
}

// Kick returns a stance whose leg nearest target is straightened toward it,
// the ankle stopping short by gap pixels.
func Kick(trackID string, cx float64, target model.Point2D, gap float64, ts int64) model.Pose {
	p := Stance(trackID, cx, ts)
	hip, knee, ankle := model.LeftHip, model.LeftKnee, model.LeftAnkle
	if target.X > cx {
		hip, knee, ankle = model.RightHip, model.RightKnee, model.RightAnkle
	}
	extend(p.Keypoints, hip, knee, ankle, target, gap)
	return p
}

// GuardUp raises both wrists beside the head.
func GuardUp(p model.Pose) model.Pose {
	out := clonePose(p)
	nose := out.Keypoints[model.Nose]
	out.Keypoints[model.LeftWrist].Point2D = model.Point2D{X: nose.X - 10, Y: nose.Y + 25}
	out.Keypoints[model.RightWrist].Point2D = model.Point2D{X: nose.X + 10, Y: nose.Y + 25}
	return out
}

// Shift translates every present keypoint by (dx, dy).
func Shift(p model.Pose, dx, dy float64) model.Pose {
	out := clonePose(p)
	for i := range out.Keypoints {
		if out.Keypoints[i].Present() {
			out.Keypoints[i].X += dx
			out.Keypoints[i].Y += dy
		}
	}
	if out.BoundingBox != nil {
		b := *out.BoundingBox
		b[0], b[1], b[2], b[3] = b[0]+dx, b[1]+dy, b[2]+dx, b[3]+dy
		out.BoundingBox = &b
	}
	return out
}

// Jitter adds uniform noise of up to amp pixels to each present keypoint.
func Jitter(p model.Pose, rng *rand.Rand, amp float64) model.Pose {
	out := clonePose(p)
	for i := range out.Keypoints {
		if out.Keypoints[i].Present() {
			out.Keypoints[i].X += (rng.Float64()*2 - 1) * amp
			out.Keypoints[i].Y += (rng.Float64()*2 - 1) * amp
		}
	}
	return out
}

// WithConfidence returns p with keypoint i set to confidence c.
func WithConfidence(p model.Pose, i int, c float64) model.Pose {
	out := clonePose(p)
	out.Keypoints[i].Confidence = c
	return out
}

// At returns p re-stamped at ts.
func At(p model.Pose, ts int64) model.Pose {
	out := clonePose(p)
	out.Timestamp = ts
	return out
}

// SwapSides mirrors the left/right keypoint labels without moving any point.
func SwapSides(p model.Pose) model.Pose {
	out := clonePose(p)
	pairs := [][2]int{
		{model.LeftEye, model.RightEye}, {model.LeftEar, model.RightEar},
		{model.LeftShoulder, model.RightShoulder}, {model.LeftElbow, model.RightElbow},
		{model.LeftWrist, model.RightWrist}, {model.LeftHip, model.RightHip},
		{model.LeftKnee, model.RightKnee}, {model.LeftAnkle, model.RightAnkle},
	}
	for _, pr := range pairs {
		out.Keypoints[pr[0]], out.Keypoints[pr[1]] = out.Keypoints[pr[1]], out.Keypoints[pr[0]]
	}
	return out
}

// NewRand returns a seeded generator so sequences are reproducible.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// extend lays root-mid-tip out on a straight line from root toward target.
func extend(kp []model.Keypoint, root, mid, tip int, target model.Point2D, gap float64) {
	r := kp[root].Point2D
	dx, dy := target.X-r.X, target.Y-r.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	reach := math.Max(dist-gap, 1)
	ux, uy := dx/dist, dy/dist
	kp[mid].Point2D = model.Point2D{X: r.X + ux*reach/2, Y: r.Y + uy*reach/2}
	kp[tip].Point2D = model.Point2D{X: r.X + ux*reach, Y: r.Y + uy*reach}
}

func clonePose(p model.Pose) model.Pose {
	out := p
	out.Keypoints = make([]model.Keypoint, len(p.Keypoints))
	copy(out.Keypoints, p.Keypoints)
	if p.BoundingBox != nil {
		b := *p.BoundingBox
		out.BoundingBox = &b
	}
	return out
}
