package config_test

import (
	"testing"
	"time"

	"github.com/dtt-git/stash-battle/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9790")
			convey.So(cfg.StashURL, convey.ShouldEqual, "http://localhost:9999")
			convey.So(cfg.DBPath, convey.ShouldEqual, "stash-battle.db")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
			convey.So(cfg.BreakerMinRequests, convey.ShouldEqual, 5)
			convey.So(cfg.BreakerFailureRatio, convey.ShouldEqual, 0.6)
		})

		convey.Convey("Then durations resolve from their millisecond fields", func() {
			convey.So(cfg.StashTimeout(), convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.CacheMaxAge(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.BreakerOpenTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.DrainTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.WriteTimeout(), convey.ShouldEqual, 10*time.Second)
		})
	})
}
