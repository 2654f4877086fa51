package action

import "github.com/okian/dojo/internal/domain/model"

// Tier grades the form of a detected action.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierBest
)

// Confidence reported for each tier.
const (
	bestConfidence   = 0.95
	mediumConfidence = 0.8
	lowConfidence    = 0.65
)

// grading describes how a metric maps to tiers. For higher-is-better metrics
// the value must exceed the cut; otherwise it must fall below it.
type grading struct {
	best, medium   float64
	higherIsBetter bool
	feedback       [3]string // indexed by Tier
}

var gradings = [numKinds]grading{
	kick: {
		best: 170, medium: 160, higherIsBetter: true,
		feedback: [3]string{
			"Extend the kicking leg fully and drive through the target",
			"Good kick, straighten the knee a little more",
			"Excellent kick, full extension",
		},
	},
	punch: {
		best: 170, medium: 160, higherIsBetter: true,
		feedback: [3]string{
			"Punch incoming, keep your guard up",
			"Punch detected, watch the straight arm",
			"Fast straight punch, move off the line",
		},
	},
	block: {
		best: 30, medium: 40, higherIsBetter: false,
		feedback: [3]string{
			"Bring your hands closer to your head",
			"Good block, tighten the guard",
			"Solid block, guard tight to the head",
		},
	},
	dodge: {
		best: 80, medium: 65, higherIsBetter: true,
		feedback: [3]string{
			"Move further off the centre line",
			"Good dodge, a little more distance",
			"Clean dodge, well out of range",
		},
	},
}

func (g grading) tier(v float64) Tier {
	beats := func(cut float64) bool {
		if g.higherIsBetter {
			return v > cut
		}
		return v < cut
	}
	switch {
	case beats(g.best):
		return TierBest
	case beats(g.medium):
		return TierMedium
	default:
		return TierLow
	}
}

// Confidence returns the event confidence attached to t.
func (t Tier) Confidence() float64 {
	switch t {
	case TierBest:
		return bestConfidence
	case TierMedium:
		return mediumConfidence
	default:
		return lowConfidence
	}
}

// Priority returns how urgently the coaching cue for t should be shown.
func (t Tier) Priority() model.Priority {
	switch t {
	case TierBest:
		return model.PriorityLow
	case TierMedium:
		return model.PriorityMedium
	default:
		return model.PriorityHigh
	}
}

func newEvent(k kind, metric float64, ts int64) model.ActionEvent {
	g := gradings[k]
	t := g.tier(metric)
	return model.ActionEvent{
		Type:       kindTypes[k],
		Confidence: t.Confidence(),
		Timestamp:  ts,
		Feedback:   g.feedback[t],
		Priority:   t.Priority(),
	}
}
