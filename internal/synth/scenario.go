package synth

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/okian/dojo/internal/domain/model"
)

// Track IDs and positions used by the built-in scenarios.
const (
	DefenderID = "defender"
	AttackerID = "attacker"
	DefenderX  = 200.0
	AttackerX  = 320.0
)

// Default cadence for generated frames.
const DefaultStepMS = 100

// Scenario is a named, ordered list of frames.
type Scenario struct {
	Name   string
	Frames []model.Frame
}

// Phase produces the two poses for one frame at ts.
type Phase func(ts int64) (defender, attacker model.Pose)

// Builder accumulates frames at a fixed cadence.
type Builder struct {
	ts     int64
	step   int64
	frames []model.Frame
	rng    *rand.Rand
	jitter float64
	seq    int
}

// NewBuilder starts a scenario at startMS with stepMS between frames. A
// non-zero jitter perturbs every keypoint deterministically from seed.
func NewBuilder(startMS, stepMS int64, jitter float64, seed uint64) *Builder {
	if stepMS <= 0 {
		stepMS = DefaultStepMS
	}
	return &Builder{ts: startMS, step: stepMS, rng: NewRand(seed), jitter: jitter}
}

// Add appends n frames generated by phase.
func (b *Builder) Add(n int, phase Phase) *Builder {
	for range n {
		d, a := phase(b.ts)
		if b.jitter > 0 {
			d = b.perturb(d)
			a = b.perturb(a)
		}
		b.seq++
		b.frames = append(b.frames, model.Frame{
			ID:        fmt.Sprintf("f%06d", b.seq),
			Timestamp: b.ts,
			Poses:     []model.Pose{d, a},
		})
		b.ts += b.step
	}
	return b
}

// Frames returns a copy of everything added so far.
func (b *Builder) Frames() []model.Frame { return slices.Clone(b.frames) }

// Now is the timestamp the next frame will carry.
func (b *Builder) Now() int64 { return b.ts }

func (b *Builder) perturb(p model.Pose) model.Pose {
	return Jitter(p, b.rng, b.jitter)
}

// Idle has both fighters standing in stance.
func Idle(ts int64) (model.Pose, model.Pose) {
	return Stance(DefenderID, DefenderX, ts), Stance(AttackerID, AttackerX, ts)
}

// AttackerPunch has the attacker's lead hand land just short of the
// defender's head.
func AttackerPunch(ts int64) (model.Pose, model.Pose) {
	return Stance(DefenderID, DefenderX, ts), Punch(AttackerID, AttackerX, Head(DefenderX), 20, ts)
}

// DefenderKick has the defender's lead foot land just short of the
// attacker's chest.
func DefenderKick(ts int64) (model.Pose, model.Pose) {
	return Kick(DefenderID, DefenderX, Chest(AttackerX), 15, ts), Stance(AttackerID, AttackerX, ts)
}

// DefenderBlock has the defender's guard up while the attacker punches.
func DefenderBlock(ts int64) (model.Pose, model.Pose) {
	// Punch stops well short so only the block registers.
	return GuardUp(Stance(DefenderID, DefenderX, ts)), Punch(AttackerID, AttackerX, Head(DefenderX), 70, ts)
}

// DefenderDodge has the defender slip sideways by shift pixels while the
// attacker's punch misses.
func DefenderDodge(shift float64) Phase {
	return func(ts int64) (model.Pose, model.Pose) {
		d := Shift(Stance(DefenderID, DefenderX, ts), -shift, 0)
		return d, Punch(AttackerID, AttackerX, Head(DefenderX), 70, ts)
	}
}

// Walk moves the defender toward -x by speed pixels per frame with the
// ankles alternating.
func Walk(speed float64) Phase {
	var n int
	return func(ts int64) (model.Pose, model.Pose) {
		n++
		d := Shift(Stance(DefenderID, DefenderX, ts), -speed*float64(n), 0)
		swing := 10.0
		if n%2 == 0 {
			swing = -swing
		}
		d.Keypoints[model.LeftAnkle].X += swing
		d.Keypoints[model.RightAnkle].X -= swing
		return d, Stance(AttackerID, AttackerX, ts)
	}
}

// Scenarios lists the built-in scenario names in replay order.
func Scenarios() []string {
	return []string{"stance", "punch", "kick", "block", "dodge", "walk", "bout"}
}

// Build returns the named scenario. Unknown names yield an error.
func Build(name string, jitter float64, seed uint64) (Scenario, error) {
	b := NewBuilder(0, DefaultStepMS, jitter, seed)
	switch name {
	case "stance":
		b.Add(60, Idle)
	case "punch":
		b.Add(10, Idle).Add(5, AttackerPunch).Add(20, Idle)
	case "kick":
		b.Add(10, Idle).Add(5, DefenderKick).Add(20, Idle)
	case "block":
		b.Add(10, Idle).Add(4, DefenderBlock).Add(20, Idle)
	case "dodge":
		b.Add(10, Idle).Add(4, DefenderDodge(70)).Add(20, Idle)
	case "walk":
		b.Add(40, Walk(4))
	case "bout":
		b.Add(40, Idle).
			Add(5, AttackerPunch).Add(60, Idle).
			Add(4, DefenderBlock).Add(60, Idle).
			Add(5, DefenderKick).Add(60, Idle).
			Add(4, DefenderDodge(70)).Add(60, Idle)
	default:
		return Scenario{}, fmt.Errorf("unknown scenario %q", name)
	}
	return Scenario{Name: name, Frames: b.Frames()}, nil
}
