package motion_test

import (
	"errors"
	"testing"

	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/motion"
	"github.com/okian/dojo/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func stance(n int) []model.Pose {
	rng := synth.NewRand(11)
	out := make([]model.Pose, 0, n)
	for i := range n {
		out = append(out, synth.Jitter(synth.Stance("d", 200, int64(i)*100), rng, 0.2))
	}
	return out
}

// punch moves the right arm outward each second: wrist 60px, elbow 50px,
// shoulder 30px.
func punch(n int) []model.Pose {
	out := make([]model.Pose, 0, n)
	for i := range n {
		p := synth.Stance("d", 200, int64(i)*1000)
		p.Keypoints[model.RightWrist].X += 60 * float64(i)
		p.Keypoints[model.RightElbow].X += 50 * float64(i)
		p.Keypoints[model.RightShoulder].X += 30 * float64(i)
		out = append(out, p)
	}
	return out
}

func defenderOnly(frames []model.Frame) []model.Pose {
	var out []model.Pose
	for _, f := range frames {
		for _, p := range f.Poses {
			if p.TrackID == synth.DefenderID {
				out = append(out, p)
			}
		}
	}
	return out
}

func TestAnalyze(t *testing.T) {
	Convey("Given a classifier with default thresholds", t, func() {
		c := motion.New(motion.DefaultConfig())

		Convey("A near-still 40 frame sequence is a static pose", func() {
			a := c.Analyze(stance(40))
			So(a.Error, ShouldBeBlank)
			So(a.MotionType, ShouldEqual, motion.StaticPose)
			So(a.Patterns.Intensity, ShouldEqual, motion.IntensityLow)
			So(a.Patterns.Variance, ShouldBeLessThan, 1.5)
			So(a.Patterns.PeakVelocity, ShouldBeLessThan, 10)
			So(a.Confidence, ShouldEqual, 0.9)
			So(a.Metrics.DurationMS, ShouldEqual, 3900)
			So(a.FrameCount, ShouldEqual, 40)
		})

		Convey("A fast right arm extension is punching", func() {
			a := c.Analyze(punch(6))
			So(a.MotionType, ShouldEqual, motion.Punching)
			So(a.Patterns.Intensity, ShouldEqual, motion.IntensityHigh)
			So(a.Patterns.DominantJoints, ShouldResemble, []int{model.RightWrist, model.RightElbow, model.RightShoulder})
			So(a.Patterns.PeakVelocity, ShouldAlmostEqual, 60, 1e-9)
			So(a.Scores[0], ShouldResemble, motion.Score{Type: motion.Punching, Score: 9})
			So(a.Metrics.PeakVelocity, ShouldAlmostEqual, 60, 1e-9)
			So(a.Confidence, ShouldEqual, 0.8)
		})

		Convey("Alternating ankles while travelling is walking", func() {
			sc, err := synth.Build("walk", 0, 1)
			So(err, ShouldBeNil)
			a := c.Analyze(defenderOnly(sc.Frames))
			So(a.MotionType, ShouldEqual, motion.Walking)
			So(a.Patterns.Dominant(model.LeftAnkle, model.RightAnkle), ShouldBeTrue)
			So(a.Patterns.Intensity, ShouldEqual, motion.IntensityMedium)
		})

		Convey("A single pose is insufficient data", func() {
			a := c.Analyze(stance(1))
			So(a.MotionType, ShouldEqual, motion.Unknown)
			So(a.Error, ShouldEqual, motion.ErrInsufficientData)
			So(a.Recommendations, ShouldNotBeEmpty)

			empty := c.Analyze(nil)
			So(empty.MotionType, ShouldEqual, motion.Unknown)
		})

		Convey("Repeated analysis of the same sequence is identical", func() {
			seq := punch(8)
			first := c.Analyze(seq)
			for range 5 {
				So(c.Analyze(seq), ShouldResemble, first)
			}
		})

		Convey("Swapping left and right labels keeps the symmetry class", func() {
			for _, seq := range [][]model.Pose{punch(6), stance(20), defenderOnly(mustBuild("kick"))} {
				swapped := make([]model.Pose, len(seq))
				for i := range seq {
					swapped[i] = synth.SwapSides(seq[i])
				}
				So(c.Analyze(swapped).Patterns.Symmetry, ShouldEqual, c.Analyze(seq).Patterns.Symmetry)
			}
		})

		Convey("Joint ranges are reported per joint", func() {
			a := c.Analyze(defenderOnly(mustBuild("kick")))
			r, ok := a.Metrics.JointRange(motion.RightKnee)
			So(ok, ShouldBeTrue)
			So(r, ShouldBeGreaterThan, 30)
			l, ok := a.Metrics.JointRange(motion.LeftKnee)
			So(ok, ShouldBeTrue)
			So(l, ShouldAlmostEqual, 0, 1e-9)
		})
	})
}

func TestScoreMotion(t *testing.T) {
	Convey("Given hand-built patterns", t, func() {
		Convey("Ties go to the earlier declared type", func() {
			// punching and kicking both score 3+2+2
			p := motion.Patterns{
				Intensity:      motion.IntensityHigh,
				DominantJoints: []int{model.LeftWrist, model.LeftAnkle},
				PeakVelocity:   70,
				Variance:       5,
				Stability:      0.5,
			}
			typ, scores := motion.ScoreMotion(p, motion.DefaultMinScore)
			So(typ, ShouldEqual, motion.Punching)
			So(scores[0].Score, ShouldEqual, 7)
			So(scores[1].Score, ShouldEqual, 7)
		})

		Convey("A quiet held guard scores as stance", func() {
			p := motion.Patterns{Intensity: motion.IntensityLow, Variance: 0, Stability: 1, PeakVelocity: 15}
			typ, scores := motion.ScoreMotion(p, motion.DefaultMinScore)
			So(typ, ShouldEqual, motion.Stance)
			So(scores[3], ShouldResemble, motion.Score{Type: motion.Stance, Score: 9})
			So(scores[5], ShouldResemble, motion.Score{Type: motion.StaticPose, Score: 6})
		})

		Convey("Scores below the minimum fall back to general movement", func() {
			p := motion.Patterns{Intensity: motion.IntensityMedium, Variance: 5, Stability: 0.5, PeakVelocity: 100}
			typ, _ := motion.ScoreMotion(p, motion.DefaultMinScore)
			So(typ, ShouldEqual, motion.GeneralMovement)
		})
	})
}

func mustBuild(name string) []model.Frame {
	sc, err := synth.Build(name, 0, 1)
	So(err, ShouldBeNil)
	return sc.Frames
}

func TestConfigValidate(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := motion.DefaultConfig()
		So(cfg.Validate(), ShouldBeNil)

		Convey("Low intensity above high intensity is rejected", func() {
			cfg.LowIntensity, cfg.HighIntensity = 7, 6
			So(errors.Is(cfg.Validate(), motion.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("Equal smoothness bands are rejected", func() {
			cfg.SmoothStdDev = cfg.JerkyStdDev
			So(errors.Is(cfg.Validate(), motion.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A zero minimum score is rejected", func() {
			cfg.MinScore = 0
			So(errors.Is(cfg.Validate(), motion.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("An out-of-range confidence is rejected", func() {
			cfg.MinConfidence = -0.1
			So(errors.Is(cfg.Validate(), motion.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
