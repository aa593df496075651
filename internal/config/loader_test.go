package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/dtt-git/stash-battle/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9790")
				convey.So(cfg.StashURL, convey.ShouldEqual, "http://localhost:9999")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
				convey.So(cfg.CacheMaxAgeMS, convey.ShouldEqual, 300_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BATTLE_ADDR", ":8080")
			_ = os.Setenv("BATTLE_STASH_URL", "http://stash.local:9999")
			_ = os.Setenv("BATTLE_STASH_API_KEY", "secret")
			_ = os.Setenv("BATTLE_QUEUE_SIZE", "64")
			_ = os.Setenv("BATTLE_DRAIN_TIMEOUT_MS", "2500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StashURL, convey.ShouldEqual, "http://stash.local:9999")
				convey.So(cfg.StashAPIKey, convey.ShouldEqual, "secret")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.DrainTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.DBPath, convey.ShouldEqual, "stash-battle.db")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
stash_url: "http://media-box:9999"
db_path: "/var/lib/battle/state.db"
cache_max_age_ms: 60000
breaker_failure_ratio: 0.5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BATTLE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StashURL, convey.ShouldEqual, "http://media-box:9999")
				convey.So(cfg.DBPath, convey.ShouldEqual, "/var/lib/battle/state.db")
				convey.So(cfg.CacheMaxAgeMS, convey.ShouldEqual, 60000)
				convey.So(cfg.BreakerFailureRatio, convey.ShouldEqual, 0.5)
			})

			convey.Convey("Then absent keys keep their defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
				convey.So(cfg.WriteTimeoutMS, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
stash_url: "http://media-box:9999"
queue_size: 128
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BATTLE_CONFIG", tmpFile)
			_ = os.Setenv("BATTLE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StashURL, convey.ShouldEqual, "http://media-box:9999")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 128)
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BATTLE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("BATTLE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the addr is emptied", func() {
			_ = os.Setenv("BATTLE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the breaker ratio is out of range", func() {
			_ = os.Setenv("BATTLE_BREAKER_FAILURE_RATIO", "1.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a numeric environment variable is not numeric", func() {
			_ = os.Setenv("BATTLE_QUEUE_SIZE", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"BATTLE_CONFIG",
		"BATTLE_ADDR",
		"BATTLE_STASH_URL",
		"BATTLE_STASH_API_KEY",
		"BATTLE_QUEUE_SIZE",
		"BATTLE_DRAIN_TIMEOUT_MS",
		"BATTLE_BREAKER_FAILURE_RATIO",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "battle-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
