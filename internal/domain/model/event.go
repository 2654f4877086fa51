package model

// ActionType names a detected martial-arts action.
type ActionType string

const (
	ActionKick  ActionType = "kick"
	ActionPunch ActionType = "punch"
	ActionBlock ActionType = "block"
	ActionDodge ActionType = "dodge"
)

// Priority tells the presentation layer how urgently to surface feedback.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ActionEvent is emitted once per confirmed action.
type ActionEvent struct {
	Type       ActionType `json:"type"`
	Confidence float64    `json:"confidence"`
	Timestamp  int64      `json:"timestamp_ms"`
	Feedback   string     `json:"feedback"`
	Priority   Priority   `json:"priority"`
}
