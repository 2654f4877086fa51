package keyframe

import "github.com/okian/dojo/internal/domain/model"

// Phase is the coarse state of the capture policy.
type Phase int

const (
	// Idle accepts a capture on the next qualifying trigger.
	Idle Phase = iota
	// Cooling rejects every capture until the global cooldown expires.
	Cooling
)

func (p Phase) String() string {
	if p == Cooling {
		return "cooling"
	}
	return "idle"
}

// State is the capture policy state: either Idle, or Cooling after a capture
// of Type until the Until timestamp.
type State struct {
	Phase Phase
	Type  model.KeyFrameType
	Until int64
}

// tick expires the global cooldown.
func (s *State) tick(now int64) {
	if s.Phase == Cooling && now >= s.Until {
		*s = State{}
	}
}

func (s *State) cool(t model.KeyFrameType, until int64) {
	*s = State{Phase: Cooling, Type: t, Until: until}
}
