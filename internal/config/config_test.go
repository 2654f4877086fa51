package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/dojo/internal/config"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.ShardCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 4096)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.Session, convey.ShouldResemble, session.DefaultConfig())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":       func(c *config.Config) { c.Addr = "" },
			"bad log format":   func(c *config.Config) { c.LogFormat = "xml" },
			"no shards":        func(c *config.Config) { c.ShardCount = 0 },
			"no queue":         func(c *config.Config) { c.QueueSize = 0 },
			"negative dedupe":  func(c *config.Config) { c.DedupeSize = -1 },
			"no event log":     func(c *config.Config) { c.MaxEventsPerSession = 0 },
			"no ping interval": func(c *config.Config) { c.StreamPingIntervalMS = 0 },
			"tiny history":     func(c *config.Config) { c.Session.HistoryCapacity = 10 },
			"zero kick frames": func(c *config.Config) { c.Session.Action.KickFrames = 0 },
			"one stable frame": func(c *config.Config) { c.Session.Stability.StableMinFrames = 1 },
			"inverted intensity": func(c *config.Config) {
				c.Session.Motion.LowIntensity, c.Session.Motion.HighIntensity = 8, 6
			},
		}
		for name, mutate := range cases {
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
