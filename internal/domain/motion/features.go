package motion

import (
	"github.com/okian/dojo/internal/domain/geometry"
	"github.com/okian/dojo/internal/domain/model"
)

// Joint identifies one of the tracked joint angles.
type Joint int

const (
	LeftElbow Joint = iota
	RightElbow
	LeftKnee
	RightKnee
	LeftHip
	RightHip
	numJoints
)

var jointNames = [numJoints]string{"left_elbow", "right_elbow", "left_knee", "right_knee", "left_hip", "right_hip"}

func (j Joint) String() string {
	if j < 0 || j >= numJoints {
		return "unknown"
	}
	return jointNames[j]
}

// jointPoints lists the keypoints whose angle at the middle one is measured.
var jointPoints = [numJoints][3]int{
	LeftElbow:  {model.LeftShoulder, model.LeftElbow, model.LeftWrist},
	RightElbow: {model.RightShoulder, model.RightElbow, model.RightWrist},
	LeftKnee:   {model.LeftHip, model.LeftKnee, model.LeftAnkle},
	RightKnee:  {model.RightHip, model.RightKnee, model.RightAnkle},
	LeftHip:    {model.LeftShoulder, model.LeftHip, model.LeftKnee},
	RightHip:   {model.RightShoulder, model.RightHip, model.RightKnee},
}

// mirrored pairs each left joint with its right counterpart.
var mirrored = [][2]Joint{{LeftElbow, RightElbow}, {LeftKnee, RightKnee}, {LeftHip, RightHip}}

// angles is one frame's joint angles; a missing entry is not OK.
type angles [numJoints]geometry.Sample

// Structure averages body dimensions over the frames where they are visible.
type Structure struct {
	ShoulderWidth float64 `json:"shoulder_width"`
	HipWidth      float64 `json:"hip_width"`
	Height        float64 `json:"height"`
}

// features is the kinematic description of a sequence.
type features struct {
	angles        []angles
	magnitudes    []float64 // mean keypoint displacement per consecutive pair
	velocities    []float64 // mean keypoint speed per consecutive pair, px/s
	accelerations []float64 // change in mean speed over three frames, px/s^2
	peakVelocity  float64   // fastest single keypoint, px/s
	cumulative    [model.NumKeypoints]float64
	structure     Structure
}

func (c *Classifier) extract(poses []model.Pose) features {
	var f features
	f.angles = make([]angles, len(poses))
	for i := range poses {
		f.angles[i] = c.jointAngles(&poses[i])
	}

	var prevV float64
	prevOK := false
	for i := 1; i < len(poses); i++ {
		a, b := &poses[i-1], &poses[i]
		if m, ok := displacement(a, b); ok {
			f.magnitudes = append(f.magnitudes, m)
		}
		dt := geometry.Seconds(a.Timestamp, b.Timestamp)
		samples := geometry.Velocity(a, b, dt)
		v, ok := geometry.Mean(samples)
		if !ok {
			prevOK = false
			continue
		}
		f.velocities = append(f.velocities, v)
		for k, s := range samples {
			if !s.OK {
				continue
			}
			f.cumulative[k] += s.Value
			f.peakVelocity = max(f.peakVelocity, s.Value)
		}
		if prevOK {
			acc := v - prevV
			if acc < 0 {
				acc = -acc
			}
			f.accelerations = append(f.accelerations, acc/dt)
		}
		prevV, prevOK = v, true
	}

	f.structure = c.structure(poses)
	return f
}

func (c *Classifier) jointAngles(p *model.Pose) angles {
	var out angles
	for j, pts := range jointPoints {
		if !p.Has(c.cfg.MinConfidence, pts[0], pts[1], pts[2]) {
			continue
		}
		out[j] = geometry.Sample{
			Value: geometry.Angle(p.Point(pts[0]), p.Point(pts[1]), p.Point(pts[2])),
			OK:    true,
		}
	}
	return out
}

// displacement is the mean distance moved by keypoints present in both poses.
func displacement(a, b *model.Pose) (float64, bool) {
	var sum float64
	var n int
	for i := range min(len(a.Keypoints), len(b.Keypoints)) {
		ka, kb := a.Keypoints[i], b.Keypoints[i]
		if !ka.Present() || !kb.Present() {
			continue
		}
		sum += geometry.Distance(ka.Point2D, kb.Point2D)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func (c *Classifier) structure(poses []model.Pose) Structure {
	var s Structure
	var shoulders, hips, heights int
	conf := c.cfg.MinConfidence
	for i := range poses {
		p := &poses[i]
		if p.Has(conf, model.LeftShoulder, model.RightShoulder) {
			s.ShoulderWidth += geometry.Distance(p.Point(model.LeftShoulder), p.Point(model.RightShoulder))
			shoulders++
		}
		if p.Has(conf, model.LeftHip, model.RightHip) {
			s.HipWidth += geometry.Distance(p.Point(model.LeftHip), p.Point(model.RightHip))
			hips++
		}
		if p.Has(conf, model.Nose, model.LeftAnkle, model.RightAnkle) {
			feet := p.Point(model.LeftAnkle).Midpoint(p.Point(model.RightAnkle))
			s.Height += geometry.Distance(p.Point(model.Nose), feet)
			heights++
		}
	}
	if shoulders > 0 {
		s.ShoulderWidth /= float64(shoulders)
	}
	if hips > 0 {
		s.HipWidth /= float64(hips)
	}
	if heights > 0 {
		s.Height /= float64(heights)
	}
	return s
}
