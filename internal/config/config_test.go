package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/holotrumps/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreBackend, convey.ShouldEqual, config.BackendMemory)
			convey.So(cfg.PeopleTable, convey.ShouldEqual, "people")
			convey.So(cfg.StarshipsTable, convey.ShouldEqual, "starships")
			convey.So(cfg.DefaultListLimit, convey.ShouldEqual, 20)
			convey.So(cfg.MaxListLimit, convey.ShouldEqual, 100)
			convey.So(cfg.StatsRefreshInterval, convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs that break a constraint", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = "" },
			"unknown backend":     func(c *config.Config) { c.StoreBackend = "postgres" },
			"empty table":         func(c *config.Config) { c.PeopleTable = "" },
			"same tables":         func(c *config.Config) { c.StarshipsTable = c.PeopleTable },
			"zero max limit":      func(c *config.Config) { c.MaxListLimit = 0 },
			"default above max":   func(c *config.Config) { c.DefaultListLimit = 500 },
			"negative refresh":    func(c *config.Config) { c.StatsRefreshInterval = -time.Second },
			"sqlite without path": func(c *config.Config) { c.StoreBackend = config.BackendSQLite; c.SQLitePath = "" },
			"dynamo without region": func(c *config.Config) {
				c.StoreBackend = config.BackendDynamoDB
				c.AWSRegion = ""
			},
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}
	})
}
