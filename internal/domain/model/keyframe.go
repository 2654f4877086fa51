package model

// KeyFrameType tells why a keyframe was captured.
type KeyFrameType string

const (
	KeyFrameStablePose       KeyFrameType = "stable_pose"
	KeyFrameActionCompletion KeyFrameType = "action_completion"
	KeyFramePunching         KeyFrameType = "punching"
	KeyFrameKicking          KeyFrameType = "kicking"
	KeyFrameBlocking         KeyFrameType = "blocking"
)

// KeyFrame is a captured pose plus the motion that led up to it. Once
// emitted it belongs to the caller.
type KeyFrame struct {
	ID             string       `json:"id"`
	Pose           Pose         `json:"captured_pose"`
	StabilityScore float64      `json:"stability_score"`
	Type           KeyFrameType `json:"type"`
	FrameCount     int          `json:"frame_count"`
	MotionSequence []Pose       `json:"motion_sequence"`
	Timestamp      int64        `json:"timestamp_ms"`
	// Snapshot is whatever the frame source attached; never interpreted here.
	Snapshot any `json:"snapshot,omitempty"`
}
