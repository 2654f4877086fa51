package action

import "github.com/okian/dojo/internal/domain/model"

// kind indexes the per-action counters in evaluation order.
type kind int

const (
	kick kind = iota
	punch
	block
	dodge
	numKinds
)

var kindTypes = [numKinds]model.ActionType{
	kick:  model.ActionKick,
	punch: model.ActionPunch,
	block: model.ActionBlock,
	dodge: model.ActionDodge,
}

// SessionState is the mutable detection state of one training session: a
// consecutive-frame counter per action and the defender's dodge baseline.
type SessionState struct {
	counters    [numKinds]int
	baselineX   float64
	hasBaseline bool
}

// observe advances the counter for k. It reports true exactly when the
// counter reaches need, and starts counting again from zero afterwards.
func (s *SessionState) observe(k kind, hit bool, need int) bool {
	if !hit {
		s.counters[k] = 0
		return false
	}
	s.counters[k]++
	if s.counters[k] >= need {
		s.counters[k] = 0
		return true
	}
	return false
}

// Counter returns the current consecutive-frame count for t.
func (s *SessionState) Counter(t model.ActionType) int {
	for k, kt := range kindTypes {
		if kt == t {
			return s.counters[k]
		}
	}
	return 0
}

// Baseline returns the defender's reference torso x, if captured.
func (s *SessionState) Baseline() (float64, bool) {
	return s.baselineX, s.hasBaseline
}

// Reset returns the state to its just-created form.
func (s *SessionState) Reset() {
	*s = SessionState{}
}
