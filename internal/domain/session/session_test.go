package session_test

import (
	"slices"
	"sync"
	"testing"

	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/motion"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func newSession() *session.Session {
	s := session.New("s1", session.DefaultConfig())
	So(s.SetDefender(synth.DefenderID), ShouldBeNil)
	return s
}

func replay(s *session.Session, name string) []session.Emission {
	sc, err := synth.Build(name, 0, 1)
	So(err, ShouldBeNil)
	var out []session.Emission
	for _, f := range sc.Frames {
		out = slices.AppendSeq(out, s.Process(f))
	}
	return out
}

func actionCounts(em []session.Emission) map[model.ActionType]int {
	out := map[model.ActionType]int{}
	for _, e := range em {
		if e.Kind == session.KindAction {
			out[e.Action.Type]++
		}
	}
	return out
}

func keyframes(em []session.Emission) []*model.KeyFrame {
	var out []*model.KeyFrame
	for _, e := range em {
		if e.Kind == session.KindKeyFrame {
			out = append(out, e.KeyFrame)
		}
	}
	return out
}

func TestProcess(t *testing.T) {
	Convey("Given a session with no defender", t, func() {
		s := session.New("s0", session.DefaultConfig())
		f := model.Frame{Timestamp: 0, Poses: []model.Pose{synth.Stance("a", 100, 0)}}

		Convey("The first frame yields one diagnostic and later ones nothing", func() {
			first := slices.Collect(s.Process(f))
			So(len(first), ShouldEqual, 1)
			So(first[0].Diagnostic.Code, ShouldEqual, session.CodeNoDefender)
			f.Timestamp = 100
			So(slices.Collect(s.Process(f)), ShouldBeEmpty)
		})

		Convey("An empty defender is refused", func() {
			So(s.SetDefender(""), ShouldEqual, session.ErrEmptyTrackID)
		})
	})

	Convey("Given a session tracking the defender", t, func() {
		s := newSession()

		Convey("A punch produces one event and a punching keyframe", func() {
			em := replay(s, "punch")
			So(actionCounts(em), ShouldResemble, map[model.ActionType]int{model.ActionPunch: 1})
			kfs := keyframes(em)
			So(len(kfs), ShouldEqual, 1)
			So(kfs[0].Type, ShouldEqual, model.KeyFramePunching)
			So(kfs[0].Timestamp, ShouldEqual, 1200)
			So(kfs[0].Pose.TrackID, ShouldEqual, synth.DefenderID)
		})

		Convey("A full bout yields every action type", func() {
			em := replay(s, "bout")
			So(actionCounts(em), ShouldResemble, map[model.ActionType]int{
				model.ActionPunch: 1,
				model.ActionBlock: 2,
				model.ActionKick:  1,
				model.ActionDodge: 2,
			})
			st := s.Stats()
			So(st.Frames, ShouldEqual, 298)
			So(st.Buffered, ShouldEqual, 100)
			So(len(st.RecentActions), ShouldEqual, 5)
		})

		Convey("A malformed pose is reported once and skipped", func() {
			bad := synth.Stance(synth.AttackerID, synth.AttackerX, 0)
			bad.Keypoints = bad.Keypoints[:5]
			f := model.Frame{Timestamp: 0, Poses: []model.Pose{synth.Stance(synth.DefenderID, synth.DefenderX, 0), bad}}
			em := slices.Collect(s.Process(f))
			So(len(em), ShouldEqual, 1)
			So(em[0].Kind, ShouldEqual, session.KindDiagnostic)
			So(em[0].Diagnostic.Code, ShouldEqual, session.CodeMalformedPose)
			So(em[0].Diagnostic.TrackID, ShouldEqual, synth.AttackerID)
			So(s.Stats().Buffered, ShouldEqual, 1)
			So(s.Stats().Rejected, ShouldEqual, 1)
		})

		Convey("A defender pose scored above 1 is rejected before it is buffered or recorded", func() {
			d := synth.WithConfidence(synth.Stance(synth.DefenderID, synth.DefenderX, 0), model.RightWrist, 1.2)
			em := slices.Collect(s.Process(model.Frame{Timestamp: 0, Poses: []model.Pose{d}}))
			So(len(em), ShouldEqual, 1)
			So(em[0].Diagnostic.Code, ShouldEqual, session.CodeMalformedPose)
			So(s.Stats().Buffered, ShouldEqual, 0)
			So(s.End().Analysis.TotalFrames, ShouldEqual, 0)
		})

		Convey("A defender pose from the past is rejected", func() {
			d, a := synth.Idle(1000)
			slices.Collect(s.Process(model.Frame{Timestamp: 1000, Poses: []model.Pose{d, a}}))
			d, a = synth.Idle(500)
			em := slices.Collect(s.Process(model.Frame{Timestamp: 500, Poses: []model.Pose{d, a}}))
			So(len(em), ShouldEqual, 1)
			So(em[0].Diagnostic.Code, ShouldEqual, session.CodeOutOfOrder)
		})

		Convey("A frame snapshot is attached to the keyframe", func() {
			b := synth.NewBuilder(0, 100, 0, 1).Add(3, synth.AttackerPunch)
			var kfs []*model.KeyFrame
			for _, f := range b.Frames() {
				f.Snapshot = "img-" + f.ID
				kfs = append(kfs, keyframes(slices.Collect(s.Process(f)))...)
			}
			So(len(kfs), ShouldEqual, 1)
			So(kfs[0].Snapshot, ShouldEqual, "img-f000003")
		})

		Convey("Reset is idempotent and clears everything", func() {
			replay(s, "punch")
			s.Reset()
			s.Reset()
			st := s.Stats()
			So(st.Frames, ShouldEqual, 0)
			So(st.Buffered, ShouldEqual, 0)
			So(st.Phase, ShouldEqual, "idle")
			So(st.Defender, ShouldEqual, synth.DefenderID)

			Convey("And detection works again from scratch", func() {
				So(actionCounts(replay(s, "punch"))[model.ActionPunch], ShouldEqual, 1)
			})
		})
	})
}

func TestEnd(t *testing.T) {
	Convey("Given a session that watched a still stance", t, func() {
		s := newSession()
		em := replay(s, "stance")
		So(len(keyframes(em)), ShouldEqual, 1)

		Convey("End reports a stable, static session and resets", func() {
			r := s.End()
			So(r.Analysis.TotalFrames, ShouldEqual, 60)
			So(r.Analysis.AverageStability, ShouldEqual, 1.0)
			So(r.Analysis.MovementDetected, ShouldBeFalse)
			So(r.Analysis.StablePeriods, ShouldResemble, []model.StablePeriod{{Start: 0, End: 5900, Stability: 1}})
			So(len(r.Analysis.KeyFrames), ShouldEqual, 1)
			So(r.Analysis.KeyFrames[0].Type, ShouldEqual, model.KeyFrameStablePose)
			So(r.Motion.MotionType, ShouldEqual, motion.StaticPose)
			So(s.Stats().Recorded, ShouldEqual, 0)
		})
	})

	Convey("Given a session that saw nothing", t, func() {
		s := newSession()

		Convey("End reports insufficient data without failing", func() {
			r := s.End()
			So(r.Analysis.TotalFrames, ShouldEqual, 0)
			So(r.Analysis.StablePeriods, ShouldBeEmpty)
			So(r.Motion.MotionType, ShouldEqual, motion.Unknown)
			So(r.Motion.Error, ShouldEqual, motion.ErrInsufficientData)
		})
	})
}

func TestIndependentSessions(t *testing.T) {
	Convey("Given sessions driven from separate goroutines", t, func() {
		names := []string{"punch", "kick", "block", "dodge"}
		results := make([]map[model.ActionType]int, len(names))
		var wg sync.WaitGroup
		for i, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s := session.New(name, session.DefaultConfig())
				_ = s.SetDefender(synth.DefenderID)
				sc, _ := synth.Build(name, 0, uint64(i))
				counts := map[model.ActionType]int{}
				for _, f := range sc.Frames {
					for e := range s.Process(f) {
						if e.Kind == session.KindAction {
							counts[e.Action.Type]++
						}
					}
				}
				results[i] = counts
			}()
		}
		wg.Wait()

		Convey("Each sees only its own actions", func() {
			So(results[0], ShouldResemble, map[model.ActionType]int{model.ActionPunch: 1})
			So(results[1], ShouldResemble, map[model.ActionType]int{model.ActionKick: 1})
			So(results[2], ShouldResemble, map[model.ActionType]int{model.ActionBlock: 2})
			So(results[3], ShouldResemble, map[model.ActionType]int{model.ActionDodge: 2})
		})
	})
}
