package session

import (
	"context"
	"errors"
	"iter"
	"slices"

	"github.com/okian/dojo/internal/domain/action"
	"github.com/okian/dojo/internal/domain/history"
	"github.com/okian/dojo/internal/domain/keyframe"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/motion"
	"github.com/okian/dojo/internal/domain/stability"
	"github.com/okian/dojo/pkg/logger"
)

// Report is produced once when a session ends.
type Report struct {
	Analysis model.SessionAnalysis `json:"analysis"`
	Motion   motion.Analysis       `json:"motion"`
}

// Stats is a point-in-time view of a session's counters.
type Stats struct {
	Defender      string             `json:"defender,omitempty"`
	Attacker      string             `json:"attacker,omitempty"`
	Frames        int                `json:"frames"`
	Buffered      int                `json:"buffered"`
	Recorded      int                `json:"recorded"`
	Rejected      int                `json:"rejected"`
	Actions       int                `json:"actions"`
	KeyFrames     int                `json:"keyframes"`
	Phase         string             `json:"phase"`
	RecentActions []model.ActionType `json:"recent_actions"`
}

// Session owns every piece of mutable state of one training session. It has
// exactly one writer; callers serialise Process, Reset and End.
type Session struct {
	id         string
	cfg        Config
	log        logger.Logger
	scorer     *stability.Scorer
	classifier *motion.Classifier
	detector   *action.Detector
	extractor  *keyframe.Extractor
	buffer     *history.Buffer // detection window
	recording  *history.Buffer // feeds the final report

	defender string
	attacker string // fixed attacker track; empty means first other pose
	warned   bool   // no-defender diagnostic already emitted

	frames, rejected, actions, keyframes int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger injects a logger; the default discards.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSnapshotFunc sets the callback that attaches a visual reference to
// keyframes captured from frames that carry none.
func WithSnapshotFunc(fn keyframe.SnapshotFunc) Option {
	return func(s *Session) {
		s.extractor = keyframe.New(s.cfg.Keyframe, s.scorer, s.cfg.Stability, keyframe.WithSnapshotFunc(fn))
	}
}

// New creates a session. cfg is assumed valid.
func New(id string, cfg Config, opts ...Option) *Session {
	scorer := stability.New(cfg.Stability.NormalizationPx)
	s := &Session{
		id:         id,
		cfg:        cfg,
		log:        logger.Nop(),
		scorer:     scorer,
		classifier: motion.New(cfg.Motion),
		detector:   action.NewDetector(cfg.Action),
		extractor:  keyframe.New(cfg.Keyframe, scorer, cfg.Stability),
		buffer:     history.New(history.WithCapacity(cfg.HistoryCapacity)),
		recording:  history.New(history.WithCapacity(cfg.RecordingCapacity)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SetDefender designates the track whose actions are analysed. Changing the
// defender starts a fresh history.
func (s *Session) SetDefender(trackID string) error {
	if trackID == "" {
		return ErrEmptyTrackID
	}
	if trackID != s.defender {
		s.Reset()
		s.defender = trackID
	}
	return nil
}

// SetAttacker pins the opponent track. An empty ID restores the default of
// taking the first other pose in each frame.
func (s *Session) SetAttacker(trackID string) {
	s.attacker = trackID
}

// Defender returns the designated defender track, if any.
func (s *Session) Defender() string { return s.defender }

// Process runs one frame through the pipeline. The frame is fully processed
// before Process returns; the sequence only replays what it produced.
func (s *Session) Process(frame model.Frame) iter.Seq[Emission] {
	out := s.process(frame)
	return slices.Values(out)
}

func (s *Session) process(frame model.Frame) []Emission {
	ctx := context.Background()
	s.frames++

	var out []Emission
	valid := make([]model.Pose, 0, len(frame.Poses))
	for _, p := range frame.Poses {
		if p.Timestamp == 0 {
			p.Timestamp = frame.Timestamp
		}
		if err := p.Validate(); err != nil {
			s.rejected++
			s.log.Warn(ctx, "pose rejected", logger.String("session", s.id), logger.Error(err))
			out = append(out, diagnosticEmission(CodeMalformedPose, err.Error(), p.TrackID, frame.Timestamp))
			continue
		}
		valid = append(valid, p)
	}

	if s.defender == "" {
		if !s.warned {
			s.warned = true
			out = append(out, diagnosticEmission(CodeNoDefender, "no defender designated; frames are ignored", "", frame.Timestamp))
		}
		return out
	}

	var defender, attacker *model.Pose
	for i := range valid {
		p := &valid[i]
		switch {
		case p.TrackID == s.defender:
			defender = p
		case attacker == nil && (s.attacker == "" || p.TrackID == s.attacker):
			attacker = p
		}
	}
	if defender == nil {
		// the defender left the frame: every predicate is false
		s.detector.Evaluate(nil, attacker)
		return out
	}

	if err := s.buffer.Push(*defender); err != nil {
		s.rejected++
		code := CodeMalformedPose
		if errors.Is(err, history.ErrOutOfOrder) {
			code = CodeOutOfOrder
		}
		s.log.Warn(ctx, "defender pose rejected", logger.String("session", s.id), logger.Error(err))
		return append(out, diagnosticEmission(code, err.Error(), defender.TrackID, defender.Timestamp))
	}
	if err := s.recording.Push(*defender); err != nil {
		// the buffer accepted the pose, so only the report loses it
		s.log.Warn(ctx, "defender pose not recorded", logger.String("session", s.id), logger.Error(err))
	}

	events := s.detector.Evaluate(defender, attacker)
	for _, ev := range events {
		s.actions++
		out = append(out, actionEmission(ev))
	}

	kf := s.extractor.Evaluate(keyframe.Input{
		Pose:     *defender,
		Actions:  events,
		History:  s.buffer,
		Snapshot: frame.Snapshot,
	})
	if kf != nil {
		s.keyframes++
		s.log.Debug(ctx, "keyframe captured",
			logger.String("session", s.id),
			logger.String("type", string(kf.Type)),
			logger.Float64("stability", kf.StabilityScore),
			logger.Int64("timestamp_ms", kf.Timestamp))
		out = append(out, keyFrameEmission(kf))
	}
	return out
}

// Reset clears history, counters and cooldowns. The defender and attacker
// designations are kept. Reset is idempotent.
func (s *Session) Reset() {
	s.buffer.Clear()
	s.recording.Clear()
	s.detector.Reset()
	s.extractor.Reset()
	s.frames, s.rejected, s.actions, s.keyframes = 0, 0, 0, 0
	s.warned = false
}

// End builds the session report from everything recorded and then resets.
func (s *Session) End() Report {
	poses := s.recording.All()
	r := Report{
		Analysis: s.analysis(poses),
		Motion:   s.classifier.Analyze(poses),
	}
	s.log.Info(context.Background(), "session ended",
		logger.String("session", s.id),
		logger.Int("frames", r.Analysis.TotalFrames),
		logger.String("motion", string(r.Motion.MotionType)))
	s.Reset()
	return r
}

func (s *Session) analysis(poses []model.Pose) model.SessionAnalysis {
	a := model.SessionAnalysis{
		TotalFrames:      len(poses),
		AverageStability: s.scorer.Score(poses),
		KeyFrames:        s.extractor.KeyFrames(),
		StablePeriods: s.scorer.StablePeriods(poses,
			s.cfg.Stability.StableThreshold, s.cfg.Stability.PeriodMinFrames),
	}
	a.MovementDetected = len(poses) >= 2 && a.AverageStability < s.cfg.Stability.StableThreshold
	if a.KeyFrames == nil {
		a.KeyFrames = []model.KeyFrame{}
	}
	if a.StablePeriods == nil {
		a.StablePeriods = []model.StablePeriod{}
	}
	return a
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		Defender:      s.defender,
		Attacker:      s.attacker,
		Frames:        s.frames,
		Buffered:      s.buffer.Len(),
		Recorded:      s.recording.Len(),
		Rejected:      s.rejected,
		Actions:       s.actions,
		KeyFrames:     s.keyframes,
		Phase:         s.extractor.State().Phase.String(),
		RecentActions: s.extractor.RecentActions(),
	}
}
