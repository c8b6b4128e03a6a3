package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/millcert/internal/config"
	"github.com/okian/millcert/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And its scoring rules are the engine defaults", func() {
			convey.So(cfg.ScoringRules(), convey.ShouldResemble, scoring.DefaultRules())
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with several bad settings", t, func() {
		cfg := config.New()
		cfg.Addr = " "
		cfg.StoreDriver = config.StoreSQLite
		cfg.MajorWeight = -1
		cfg.GoodThreshold = 120

		convey.Convey("When it is validated", func() {
			err := cfg.Validate()

			convey.Convey("Then every problem is reported", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(err.Error(), convey.ShouldContainSubstring, "store_dsn is required for the sqlite driver")
				convey.So(err.Error(), convey.ShouldContainSubstring, "major_weight must not be negative")
				convey.So(err.Error(), convey.ShouldContainSubstring, "good_threshold must be within 0..100")
			})
		})

		convey.Convey("When the driver is unknown", func() {
			cfg = config.New()
			cfg.StoreDriver = "mongo"

			convey.Convey("Then it is rejected", func() {
				convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, `unknown store_driver "mongo"`)
			})
		})
	})
}
