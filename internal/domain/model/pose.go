// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
)

// Keypoint indices following the COCO 17-point body layout. Every detector
// addresses keypoints through these constants.
const (
	Nose          = 0
	LeftEye       = 1
	RightEye      = 2
	LeftEar       = 3
	RightEar      = 4
	LeftShoulder  = 5
	RightShoulder = 6
	LeftElbow     = 7
	RightElbow    = 8
	LeftWrist     = 9
	RightWrist    = 10
	LeftHip       = 11
	RightHip      = 12
	LeftKnee      = 13
	RightKnee     = 14
	LeftAnkle     = 15
	RightAnkle    = 16
	NumKeypoints  = 17
)

var keypointNames = [NumKeypoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

// KeypointName returns the anatomical name for index i.
func KeypointName(i int) string {
	if i < 0 || i >= NumKeypoints {
		return fmt.Sprintf("keypoint_%d", i)
	}
	return keypointNames[i]
}

// Point2D is a position in image pixels.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Midpoint returns the point halfway between p and q.
func (p Point2D) Midpoint(q Point2D) Point2D {
	return Point2D{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Keypoint is one anatomical landmark with its detection confidence.
type Keypoint struct {
	Point2D
	Confidence float64 `json:"confidence"`
}

// Present reports whether the keypoint was detected at all. Pose estimators
// report undetected landmarks at the origin.
func (k Keypoint) Present() bool {
	return k.X != 0 || k.Y != 0
}

// Valid reports whether the keypoint is present and at least minConfidence.
func (k Keypoint) Valid(minConfidence float64) bool {
	return k.Present() && k.Confidence >= minConfidence
}

// Pose is the full skeleton for one tracked person at one instant. A Pose is
// never mutated after it has been handed to the engine.
type Pose struct {
	TrackID     string      `json:"track_id"`
	Keypoints   []Keypoint  `json:"keypoints"`
	BoundingBox *[4]float64 `json:"bbox,omitempty"`
	Timestamp   int64       `json:"timestamp_ms"`
}

// Validate checks the keypoint count, that all coordinates are finite and
// that every confidence lies in [0,1].
func (p *Pose) Validate() error {
	if len(p.Keypoints) != NumKeypoints {
		return fmt.Errorf("%w: track %q has %d keypoints, want %d", ErrMalformedPose, p.TrackID, len(p.Keypoints), NumKeypoints)
	}
	for i, k := range p.Keypoints {
		if !finite(k.X) || !finite(k.Y) || !finite(k.Confidence) {
			return fmt.Errorf("%w: track %q keypoint %s is not finite", ErrMalformedPose, p.TrackID, KeypointName(i))
		}
		if k.Confidence < 0 || k.Confidence > 1 {
			return fmt.Errorf("%w: track %q keypoint %s confidence %v outside [0,1]", ErrMalformedPose, p.TrackID, KeypointName(i), k.Confidence)
		}
	}
	return nil
}

// Point returns the position of keypoint i.
func (p *Pose) Point(i int) Point2D {
	return p.Keypoints[i].Point2D
}

// Has reports whether every listed keypoint is valid at minConfidence.
func (p *Pose) Has(minConfidence float64, idx ...int) bool {
	for _, i := range idx {
		if i < 0 || i >= len(p.Keypoints) || !p.Keypoints[i].Valid(minConfidence) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
