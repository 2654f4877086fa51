// Package types contains the wire representations shared by the HTTP API,
// the replay tool and the service.
package types

import (
	"encoding/json"
	"math"

	"github.com/okian/dojo/internal/domain/model"
)

// PoseInput is one tracked person as sent by a pose estimator. Each keypoint
// is [x, y] or [x, y, score]; a missing score counts as fully confident
// unless the point sits at the origin.
type PoseInput struct {
	TrackID   string      `json:"track_id"`
	Keypoints [][]float64 `json:"keypoints"`
	BBox      *[4]float64 `json:"bbox,omitempty"`
}

// FrameInput is every pose observed at one instant.
type FrameInput struct {
	FrameID     string          `json:"frame_id,omitempty"`
	TimestampMS int64           `json:"timestamp_ms"`
	Poses       []PoseInput     `json:"poses"`
	Snapshot    json.RawMessage `json:"snapshot,omitempty"`
}

// FrameBatch carries several frames in one request, oldest first.
type FrameBatch struct {
	Frames []FrameInput `json:"frames"`
}

// CreateSessionRequest opens a session. All fields are optional.
type CreateSessionRequest struct {
	ID       string `json:"id,omitempty"`
	Defender string `json:"defender,omitempty"`
	Attacker string `json:"attacker,omitempty"`
}

// SessionResponse identifies a session.
type SessionResponse struct {
	ID string `json:"id"`
}

// RoleRequest assigns a track to a role. A nil Attacker keeps the current
// attacker pin; an empty one clears it.
type RoleRequest struct {
	TrackID  string  `json:"track_id"`
	Attacker *string `json:"attacker,omitempty"`
}

// FramesResponse reports how many frames of a request were queued.
type FramesResponse struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}

// ToFrame converts the wire frame to the domain model. Keypoints that cannot
// be read are turned into non-finite values so the engine rejects that pose
// with a diagnostic instead of failing the whole frame.
func (f *FrameInput) ToFrame() model.Frame {
	out := model.Frame{
		ID:        f.FrameID,
		Timestamp: f.TimestampMS,
		Poses:     make([]model.Pose, 0, len(f.Poses)),
	}
	if len(f.Snapshot) > 0 {
		out.Snapshot = f.Snapshot
	}
	for _, p := range f.Poses {
		out.Poses = append(out.Poses, p.ToPose(f.TimestampMS))
	}
	return out
}

// ToPose converts the wire pose, stamping it with ts.
func (p *PoseInput) ToPose(ts int64) model.Pose {
	kps := make([]model.Keypoint, len(p.Keypoints))
	for i, raw := range p.Keypoints {
		kps[i] = keypoint(raw)
	}
	var bbox *[4]float64
	if p.BBox != nil {
		b := *p.BBox
		bbox = &b
	}
	return model.Pose{TrackID: p.TrackID, Keypoints: kps, BoundingBox: bbox, Timestamp: ts}
}

func keypoint(raw []float64) model.Keypoint {
	switch len(raw) {
	case 2:
		k := model.Keypoint{Point2D: model.Point2D{X: raw[0], Y: raw[1]}, Confidence: 1}
		if !k.Present() {
			k.Confidence = 0
		}
		return k
	case 3:
		return model.Keypoint{Point2D: model.Point2D{X: raw[0], Y: raw[1]}, Confidence: raw[2]}
	default:
		return model.Keypoint{Point2D: model.Point2D{X: math.NaN(), Y: math.NaN()}}
	}
}

// FromPose renders a domain pose in wire form, scores included.
func FromPose(p model.Pose) PoseInput {
	kps := make([][]float64, len(p.Keypoints))
	for i, k := range p.Keypoints {
		kps[i] = []float64{k.X, k.Y, k.Confidence}
	}
	return PoseInput{TrackID: p.TrackID, Keypoints: kps, BBox: p.BoundingBox}
}

// FromFrame renders a domain frame in wire form. Snapshots are dropped.
func FromFrame(f model.Frame) FrameInput {
	out := FrameInput{FrameID: f.ID, TimestampMS: f.Timestamp, Poses: make([]PoseInput, 0, len(f.Poses))}
	for _, p := range f.Poses {
		out.Poses = append(out.Poses, FromPose(p))
	}
	return out
}
