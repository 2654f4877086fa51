package keyframe

import (
	"slices"

	"github.com/google/uuid"

	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/stability"
)

// SnapshotFunc returns an opaque visual reference for a captured pose.
type SnapshotFunc func(pose model.Pose) any

// Input is everything the extractor needs to decide on one frame.
type Input struct {
	Pose     model.Pose          // the defender pose of this frame
	Actions  []model.ActionEvent // events confirmed on this frame
	History  stability.Source    // defender history including Pose
	Snapshot any                 // optional; falls back to the SnapshotFunc
}

// Extractor applies the capture policy frame by frame. It belongs to one
// session and is not safe for concurrent use.
type Extractor struct {
	cfg     Config
	stab    stability.Config
	scorer  *stability.Scorer
	snap    SnapshotFunc
	newID   func() string
	state   State
	last    int64
	hasLast bool
	byType  map[model.KeyFrameType]int64
	recent  []model.ActionType
	history []model.KeyFrame
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSnapshotFunc sets the snapshot callback.
func WithSnapshotFunc(fn SnapshotFunc) Option {
	return func(e *Extractor) { e.snap = fn }
}

// WithIDFunc overrides keyframe ID generation.
func WithIDFunc(fn func() string) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New creates an Extractor. scorer evaluates the stability triggers with the
// thresholds in stab.
func New(cfg Config, scorer *stability.Scorer, stab stability.Config, opts ...Option) *Extractor {
	e := &Extractor{
		cfg:    cfg,
		stab:   stab,
		scorer: scorer,
		newID:  uuid.NewString,
		byType: make(map[model.KeyFrameType]int64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// actionTypes maps the action events that produce keyframes.
var actionTypes = map[model.ActionType]model.KeyFrameType{
	model.ActionPunch: model.KeyFramePunching,
	model.ActionKick:  model.KeyFrameKicking,
	model.ActionBlock: model.KeyFrameBlocking,
}

// candidate is a trigger that matched its own gates.
type candidate struct {
	typ        model.KeyFrameType
	pose       model.Pose
	score      float64
	frameCount int
}

// Evaluate returns the keyframe captured on this frame, or nil. Triggers are
// tried in order (action movement, action completion, stable pose) and the
// first one that matches decides the frame; the cooldowns then apply to it.
func (e *Extractor) Evaluate(in Input) *model.KeyFrame {
	now := in.Pose.Timestamp
	e.logActions(in.Actions)
	e.state.tick(now)
	if e.state.Phase == Cooling {
		return nil
	}

	c, ok := e.match(in, now)
	if !ok || !e.allowed(c.typ, now) {
		return nil
	}
	return e.capture(in, c, now)
}

func (e *Extractor) match(in Input, now int64) (candidate, bool) {
	for _, ev := range in.Actions {
		t, ok := actionTypes[ev.Type]
		if !ok || ev.Confidence <= e.cfg.ActionConfidence {
			continue
		}
		window := in.History.Window(e.cfg.MotionWindow)
		return candidate{typ: t, pose: in.Pose, score: e.scorer.Score(window), frameCount: len(window)}, true
	}

	if e.since(now) >= e.cfg.CompletionGapMS {
		done := e.scorer.DetectActionCompletion(in.History, e.stab.MovementThreshold, e.stab.StableThreshold, e.stab.CompletionMinFrames)
		if done != nil && done.Completed && done.StabilityScore > e.cfg.CompletionConfidence {
			return candidate{typ: model.KeyFrameActionCompletion, pose: done.KeyPose, score: done.StabilityScore, frameCount: done.FrameCount}, true
		}
	}

	if e.since(now) >= e.cfg.StableGapMS {
		st := e.scorer.DetectStablePose(in.History, e.stab.StableThreshold, e.stab.StableMinFrames)
		if st != nil && st.IsStable && st.StabilityScore > e.cfg.StableConfidence {
			return candidate{typ: model.KeyFrameStablePose, pose: st.KeyPose, score: st.StabilityScore, frameCount: st.FrameCount}, true
		}
	}
	return candidate{}, false
}

// since is the time elapsed since the last capture. With no capture yet
// every gap counts as satisfied.
func (e *Extractor) since(now int64) int64 {
	if !e.hasLast {
		return 1<<62 - 1
	}
	return now - e.last
}

// allowed applies the same-type cooldown; the global one is the Cooling state.
func (e *Extractor) allowed(t model.KeyFrameType, now int64) bool {
	if last, ok := e.byType[t]; ok && now-last < e.cfg.TypeCooldownMS {
		return false
	}
	return true
}

func (e *Extractor) capture(in Input, c candidate, now int64) *model.KeyFrame {
	snapshot := in.Snapshot
	if snapshot == nil && e.snap != nil {
		snapshot = e.snap(c.pose)
	}
	kf := model.KeyFrame{
		ID:             e.newID(),
		Pose:           c.pose,
		StabilityScore: c.score,
		Type:           c.typ,
		FrameCount:     c.frameCount,
		MotionSequence: in.History.Window(e.cfg.MotionWindow),
		Timestamp:      now,
		Snapshot:       snapshot,
	}

	e.last, e.hasLast = now, true
	e.byType[c.typ] = now
	e.state.cool(c.typ, now+e.cfg.GlobalCooldownMS)
	if e.cfg.HistorySize > 0 {
		e.history = append(e.history, kf)
		if over := len(e.history) - e.cfg.HistorySize; over > 0 {
			e.history = slices.Delete(e.history, 0, over)
		}
	}
	return &kf
}

func (e *Extractor) logActions(events []model.ActionEvent) {
	if e.cfg.RecentActions <= 0 {
		return
	}
	for _, ev := range events {
		e.recent = append(e.recent, ev.Type)
	}
	if over := len(e.recent) - e.cfg.RecentActions; over > 0 {
		e.recent = slices.Delete(e.recent, 0, over)
	}
}

// State returns the current policy state.
func (e *Extractor) State() State { return e.state }

// RecentActions returns the last few action types seen, oldest first.
func (e *Extractor) RecentActions() []model.ActionType { return slices.Clone(e.recent) }

// KeyFrames returns the retained captures, oldest first.
func (e *Extractor) KeyFrames() []model.KeyFrame { return slices.Clone(e.history) }

// Reset returns the extractor to Idle and forgets every capture.
func (e *Extractor) Reset() {
	e.state = State{}
	e.last, e.hasLast = 0, false
	clear(e.byType)
	e.recent = nil
	e.history = nil
}
