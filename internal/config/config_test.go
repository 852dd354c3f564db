package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/skillhub/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.SkillsDir, convey.ShouldEqual, "skills")
			convey.So(cfg.TokenTTL, convey.ShouldEqual, 12*time.Hour)
			convey.So(cfg.ScanCount, convey.ShouldEqual, 100)
			convey.So(cfg.Backend(), convey.ShouldEqual, config.BackendNone)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When a redis address is set without a backend", func() {
			cfg.RedisAddr = "localhost:6379"

			convey.Convey("Then redis is selected", func() {
				convey.So(cfg.Backend(), convey.ShouldEqual, config.BackendRedis)
			})
		})

		convey.Convey("When sqlite is selected without a path", func() {
			cfg.KVBackend = config.BackendSQLite

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an unknown backend is named", func() {
			cfg.KVBackend = "etcd"

			convey.Convey("Then validation fails", func() {
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "unknown kv_backend")
			})
		})
	})
}
