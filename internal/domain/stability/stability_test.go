package stability_test

import (
	"errors"
	"testing"

	"github.com/okian/dojo/internal/domain/history"
	"github.com/okian/dojo/internal/domain/model"
	"github.com/okian/dojo/internal/domain/stability"
	"github.com/okian/dojo/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func fill(b *history.Buffer, poses ...model.Pose) {
	for _, p := range poses {
		So(b.Push(p), ShouldBeNil)
	}
}

func still(n int, startTS int64) []model.Pose {
	out := make([]model.Pose, 0, n)
	for i := range n {
		out = append(out, synth.Stance("d", 200, startTS+int64(i)*100))
	}
	return out
}

func TestSimilarity(t *testing.T) {
	Convey("Given a scorer with default normalization", t, func() {
		s := stability.New(0)
		base := synth.Stance("d", 200, 0)

		Convey("Identical poses are fully similar", func() {
			same := synth.At(base, 100)
			So(s.Similarity(&base, &same), ShouldEqual, 1.0)
		})

		Convey("A translation beyond the normalization distance scores 0", func() {
			moved := synth.Shift(base, 80, 80)
			So(s.Similarity(&base, &moved), ShouldEqual, 0)
		})

		Convey("A partial translation scores proportionally", func() {
			moved := synth.Shift(base, 30, 40)
			So(s.Similarity(&base, &moved), ShouldAlmostEqual, 0.5, 1e-9)
		})

		Convey("Poses with no keypoints in common score 0", func() {
			empty := model.Pose{Keypoints: make([]model.Keypoint, model.NumKeypoints)}
			So(s.Similarity(&base, &empty), ShouldEqual, 0)
		})
	})
}

func TestScore(t *testing.T) {
	Convey("Given a scorer", t, func() {
		s := stability.New(stability.DefaultNormalizationPx)
		rng := synth.NewRand(7)

		Convey("Fewer than two poses score 0", func() {
			So(s.Score(nil), ShouldEqual, 0)
			So(s.Score(still(1, 0)), ShouldEqual, 0)
		})

		Convey("Identical consecutive poses score 1", func() {
			So(s.Score(still(10, 0)), ShouldEqual, 1.0)
		})

		Convey("Scores always stay within [0,1]", func() {
			poses := still(50, 0)
			for i := range poses {
				poses[i] = synth.Jitter(poses[i], rng, float64(i*5))
			}
			for n := 2; n <= len(poses); n++ {
				v := s.Score(poses[:n])
				So(v, ShouldBeBetweenOrEqual, 0, 1)
			}
		})
	})
}

func TestDetectStablePose(t *testing.T) {
	Convey("Given a history and a scorer", t, func() {
		s := stability.New(0)
		b := history.New()

		Convey("Too little history yields no result", func() {
			fill(b, still(29, 0)...)
			So(s.DetectStablePose(b, 0.85, 30), ShouldBeNil)
		})

		Convey("A still window is reported stable", func() {
			fill(b, still(30, 0)...)
			res := s.DetectStablePose(b, 0.85, 30)
			So(res, ShouldNotBeNil)
			So(res.IsStable, ShouldBeTrue)
			So(res.StabilityScore, ShouldEqual, 1.0)
			So(res.FrameCount, ShouldEqual, 30)
			So(res.Timestamp, ShouldEqual, 2900)
			So(res.KeyPose.Timestamp, ShouldEqual, 2900)
		})

		Convey("A moving window is reported unstable", func() {
			for i := range 30 {
				fill(b, synth.Shift(synth.Stance("d", 200, int64(i)*100), float64(i*40), 0))
			}
			res := s.DetectStablePose(b, 0.85, 30)
			So(res, ShouldNotBeNil)
			So(res.IsStable, ShouldBeFalse)
			So(res.StabilityScore, ShouldBeLessThan, 0.85)
		})
	})
}

func TestDetectActionCompletion(t *testing.T) {
	Convey("Given a scorer", t, func() {
		s := stability.New(0)
		b := history.New()

		Convey("Nothing is reported before 2*minFrames poses", func() {
			fill(b, still(29, 0)...)
			So(s.DetectActionCompletion(b, 0.3, 0.7, 15), ShouldBeNil)
		})

		Convey("Motion followed by a settled stance completes", func() {
			for i := range 15 {
				fill(b, synth.Shift(synth.Stance("d", 200, int64(i)*100), float64(i*100), 0))
			}
			fill(b, still(15, 1500)...)
			res := s.DetectActionCompletion(b, 0.3, 0.7, 15)
			So(res, ShouldNotBeNil)
			So(res.Completed, ShouldBeTrue)
			So(res.MovementScore, ShouldBeLessThan, 0.3)
			So(res.StabilityScore, ShouldEqual, 1.0)
			So(res.FrameCount, ShouldEqual, 30)
			So(res.Timestamp, ShouldEqual, 2900)
		})

		Convey("A still sequence does not complete", func() {
			fill(b, still(30, 0)...)
			res := s.DetectActionCompletion(b, 0.3, 0.7, 15)
			So(res, ShouldNotBeNil)
			So(res.Completed, ShouldBeFalse)
		})
	})
}

func TestStablePeriods(t *testing.T) {
	Convey("Given a recording with two still stretches split by motion", t, func() {
		s := stability.New(0)
		var poses []model.Pose
		poses = append(poses, still(12, 0)...)
		for i := range 5 {
			poses = append(poses, synth.Shift(synth.Stance("d", 200, 1200+int64(i)*100), float64((i+1)*150), 0))
		}
		poses = append(poses, still(4, 1700)...)

		Convey("Only runs spanning minFrames poses are reported", func() {
			periods := s.StablePeriods(poses, 0.85, 10)
			So(len(periods), ShouldEqual, 1)
			So(periods[0].Start, ShouldEqual, 0)
			So(periods[0].End, ShouldEqual, 1100)
			So(periods[0].Stability, ShouldEqual, 1.0)
		})

		Convey("A lower minimum admits the short run too", func() {
			periods := s.StablePeriods(poses, 0.85, 3)
			So(len(periods), ShouldEqual, 2)
			So(periods[1].Start, ShouldEqual, 1700)
			So(periods[1].End, ShouldEqual, 2000)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := stability.DefaultConfig()
		So(cfg.Validate(), ShouldBeNil)

		Convey("A stable window of one frame is rejected", func() {
			cfg.StableMinFrames = 1
			So(errors.Is(cfg.Validate(), stability.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A completion window of one frame is rejected", func() {
			cfg.CompletionMinFrames = 1
			So(errors.Is(cfg.Validate(), stability.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A movement threshold above the stable one is rejected", func() {
			cfg.MovementThreshold = 0.9
			So(errors.Is(cfg.Validate(), stability.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A stable threshold above 1 is rejected", func() {
			cfg.StableThreshold = 1.5
			So(errors.Is(cfg.Validate(), stability.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
