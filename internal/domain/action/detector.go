package action

import (
	"math"

	"github.com/okian/dojo/internal/domain/geometry"
	"github.com/okian/dojo/internal/domain/model"
)

// limb is a root-joint-tip chain on one side of the body.
type limb struct{ root, joint, tip int }

var (
	arms = [2]limb{
		{model.LeftShoulder, model.LeftElbow, model.LeftWrist},
		{model.RightShoulder, model.RightElbow, model.RightWrist},
	}
	legs = [2]limb{
		{model.LeftHip, model.LeftKnee, model.LeftAnkle},
		{model.RightHip, model.RightKnee, model.RightAnkle},
	}
)

// Detector evaluates the four action predicates frame by frame. A Detector
// belongs to one session and is not safe for concurrent use.
type Detector struct {
	cfg   Config
	state *SessionState
}

// NewDetector creates a detector with fresh state.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg, state: &SessionState{}}
}

// State exposes the detector's session state.
func (d *Detector) State() *SessionState { return d.state }

// Reset clears every counter and the dodge baseline.
func (d *Detector) Reset() { d.state.Reset() }

// Evaluate feeds one frame to every detector and returns the events that
// fired, in kick, punch, block, dodge order. A nil defender or attacker makes
// every predicate false for this frame.
func (d *Detector) Evaluate(defender, attacker *model.Pose) []model.ActionEvent {
	metrics := [numKinds]float64{}
	hits := [numKinds]bool{}

	if defender != nil {
		d.captureBaseline(defender)
	}
	if defender != nil && attacker != nil {
		metrics[kick], hits[kick] = d.kick(defender, attacker)
		metrics[punch], hits[punch] = d.punch(defender, attacker)
		metrics[block], hits[block] = d.block(defender, attacker)
		metrics[dodge], hits[dodge] = d.dodge(defender, attacker)
	}

	var out []model.ActionEvent
	for k := range numKinds {
		if d.state.observe(k, hits[k], d.cfg.frames(k)) {
			out = append(out, newEvent(k, metrics[k], defender.Timestamp))
		}
	}
	return out
}

func (d *Detector) captureBaseline(defender *model.Pose) {
	if d.state.hasBaseline {
		return
	}
	if x, ok := d.torsoX(defender); ok {
		d.state.baselineX, d.state.hasBaseline = x, true
	}
}

// extended returns the largest joint angle over the given limbs that is
// above the extension threshold.
func (d *Detector) extended(p *model.Pose, limbs [2]limb) (float64, bool) {
	best, ok := 0.0, false
	for _, l := range limbs {
		if !p.Has(d.cfg.MinConfidence, l.root, l.joint, l.tip) {
			continue
		}
		a := geometry.Angle(p.Point(l.root), p.Point(l.joint), p.Point(l.tip))
		if a > d.cfg.ExtendedAngle && a > best {
			best, ok = a, true
		}
	}
	return best, ok
}

// kick: a straight defender leg with the ankle at the attacker's chest.
func (d *Detector) kick(defender, attacker *model.Pose) (float64, bool) {
	if !attacker.Has(d.cfg.MinConfidence, model.LeftShoulder, model.RightShoulder) {
		return 0, false
	}
	chest := attacker.Point(model.LeftShoulder).Midpoint(attacker.Point(model.RightShoulder))
	return d.reach(defender, legs, chest, d.cfg.KickReachPx)
}

// punch: a straight attacker arm with the wrist at the defender's head.
func (d *Detector) punch(defender, attacker *model.Pose) (float64, bool) {
	if !defender.Has(d.cfg.MinConfidence, model.Nose) {
		return 0, false
	}
	return d.reach(attacker, arms, defender.Point(model.Nose), d.cfg.PunchReachPx)
}

// reach finds the straightest limb whose tip lands within maxDist of target.
func (d *Detector) reach(p *model.Pose, limbs [2]limb, target model.Point2D, maxDist float64) (float64, bool) {
	best, ok := 0.0, false
	for _, l := range limbs {
		if !p.Has(d.cfg.MinConfidence, l.root, l.joint, l.tip) {
			continue
		}
		a := geometry.Angle(p.Point(l.root), p.Point(l.joint), p.Point(l.tip))
		if a <= d.cfg.ExtendedAngle || geometry.Distance(p.Point(l.tip), target) >= maxDist {
			continue
		}
		if a > best {
			best, ok = a, true
		}
	}
	return best, ok
}

// block: a defender wrist at the head while the attacker's arm is straight.
func (d *Detector) block(defender, attacker *model.Pose) (float64, bool) {
	if _, attacking := d.extended(attacker, arms); !attacking {
		return 0, false
	}
	if !defender.Has(d.cfg.MinConfidence, model.Nose) {
		return 0, false
	}
	head := defender.Point(model.Nose)
	best, ok := math.Inf(1), false
	for _, w := range [2]int{model.LeftWrist, model.RightWrist} {
		if !defender.Has(d.cfg.MinConfidence, w) {
			continue
		}
		if dist := geometry.Distance(defender.Point(w), head); dist < d.cfg.GuardReachPx && dist < best {
			best, ok = dist, true
		}
	}
	if !ok {
		return 0, false
	}
	return best, true
}

// dodge: the defender's torso has moved sideways from its baseline while the
// attacker has an arm or leg extended.
func (d *Detector) dodge(defender, attacker *model.Pose) (float64, bool) {
	if !d.state.hasBaseline {
		return 0, false
	}
	x, ok := d.torsoX(defender)
	if !ok {
		return 0, false
	}
	shift := math.Abs(x - d.state.baselineX)
	if shift <= d.cfg.DodgeShiftPx {
		return 0, false
	}
	_, armOut := d.extended(attacker, arms)
	_, legOut := d.extended(attacker, legs)
	if !armOut && !legOut {
		return 0, false
	}
	return shift, true
}

func (d *Detector) torsoX(p *model.Pose) (float64, bool) {
	if !p.Has(d.cfg.MinConfidence, model.LeftHip, model.RightHip) {
		return 0, false
	}
	return p.Point(model.LeftHip).Midpoint(p.Point(model.RightHip)).X, true
}
