package model

// Frame is every pose observed at one instant, as handed to a session.
type Frame struct {
	ID        string `json:"frame_id,omitempty"`
	Timestamp int64  `json:"timestamp_ms"`
	Poses     []Pose `json:"poses"`
	// Snapshot is an opaque image reference carried onto keyframes.
	Snapshot any `json:"snapshot,omitempty"`
}
