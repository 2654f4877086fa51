package motion

import "github.com/okian/dojo/internal/domain/model"

// Type is the motion type a sequence is classified as.
type Type string

const (
	Punching        Type = "punching"
	Kicking         Type = "kicking"
	Blocking        Type = "blocking"
	Stance          Type = "stance"
	Walking         Type = "walking"
	StaticPose      Type = "static_pose"
	GeneralMovement Type = "general_movement"
	Unknown         Type = "unknown"
)

// rule adds weight to a signature when it holds.
type rule struct {
	weight int
	holds  func(p *Patterns) bool
}

// signature is the ordered rule list for one motion type.
type signature struct {
	typ   Type
	rules []rule
}

func between(v, lo, hi float64) bool { return v >= lo && v <= hi }

// signatures is declared in tie-break order: on equal scores the earlier
// entry wins.
var signatures = []signature{
	{Punching, []rule{
		{3, func(p *Patterns) bool { return p.DominantAny(model.LeftWrist, model.RightWrist) }},
		{2, func(p *Patterns) bool { return p.DominantAny(model.LeftElbow, model.RightElbow) }},
		{2, func(p *Patterns) bool { return p.Intensity == IntensityHigh }},
		{2, func(p *Patterns) bool { return p.PeakVelocity > 50 }},
	}},
	{Kicking, []rule{
		{3, func(p *Patterns) bool { return p.DominantAny(model.LeftAnkle, model.RightAnkle) }},
		{2, func(p *Patterns) bool { return p.DominantAny(model.LeftKnee, model.RightKnee) }},
		{2, func(p *Patterns) bool { return p.Intensity == IntensityHigh }},
		{2, func(p *Patterns) bool { return p.PeakVelocity > 60 }},
	}},
	{Blocking, []rule{
		{2, func(p *Patterns) bool { return p.DominantAny(model.LeftWrist, model.RightWrist) }},
		{2, func(p *Patterns) bool { return p.Intensity == IntensityMedium }},
		{2, func(p *Patterns) bool { return between(p.PeakVelocity, 20, 50) }},
	}},
	{Stance, []rule{
		{3, func(p *Patterns) bool { return p.Intensity == IntensityLow }},
		{2, func(p *Patterns) bool { return p.Variance < 1.5 }},
		{3, func(p *Patterns) bool { return p.PeakVelocity >= 10 && p.PeakVelocity < 30 }},
		{1, func(p *Patterns) bool { return p.Stability > 0.8 }},
	}},
	{Walking, []rule{
		{3, func(p *Patterns) bool { return p.Dominant(model.LeftAnkle, model.RightAnkle) }},
		{2, func(p *Patterns) bool { return p.Intensity == IntensityMedium }},
		{1, func(p *Patterns) bool { return p.Smoothness == Smooth || p.Smoothness == Moderate }},
	}},
	{StaticPose, []rule{
		{3, func(p *Patterns) bool { return p.Intensity == IntensityLow }},
		{3, func(p *Patterns) bool { return p.Variance < 1.5 }},
		{3, func(p *Patterns) bool { return p.PeakVelocity < 10 }},
	}},
	{GeneralMovement, []rule{
		{1, func(p *Patterns) bool { return p.Intensity == IntensityMedium }},
	}},
}

// Score is one motion type's total.
type Score struct {
	Type  Type `json:"type"`
	Score int  `json:"score"`
}

// ScoreMotion scores every signature against p and picks the winner. The
// highest score wins if it reaches minScore; otherwise the result is
// GeneralMovement.
func ScoreMotion(p Patterns, minScore int) (Type, []Score) {
	scores := make([]Score, 0, len(signatures))
	best := Score{Type: GeneralMovement, Score: -1}
	for _, sig := range signatures {
		s := Score{Type: sig.typ}
		for _, r := range sig.rules {
			if r.holds(&p) {
				s.Score += r.weight
			}
		}
		scores = append(scores, s)
		if s.Score > best.Score {
			best = s
		}
	}
	if best.Score < minScore {
		return GeneralMovement, scores
	}
	return best.Type, scores
}
