package model

// StablePeriod is a run of frames during which the pose barely changed.
type StablePeriod struct {
	Start     int64   `json:"start_ms"`
	End       int64   `json:"end_ms"`
	Stability float64 `json:"stability"`
}

// SessionAnalysis summarizes a finished session.
type SessionAnalysis struct {
	TotalFrames      int            `json:"total_frames"`
	AverageStability float64        `json:"average_stability"`
	MovementDetected bool           `json:"movement_detected"`
	StablePeriods    []StablePeriod `json:"stable_periods"`
	KeyFrames        []KeyFrame     `json:"key_frames"`
}
