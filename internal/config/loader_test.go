package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/wayfarer/internal/config"
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
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CatalogBackend, convey.ShouldEqual, "memory")
				convey.So(cfg.MismatchPenalty, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WAYFARER_ADDR", ":8080")
			_ = os.Setenv("WAYFARER_QUEUE_SIZE", "500")
			_ = os.Setenv("WAYFARER_WORKER_COUNT", "3")
			_ = os.Setenv("WAYFARER_MISMATCH_PENALTY", "0.3")
			_ = os.Setenv("WAYFARER_BUDGET_GRADUATED", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EnrichmentQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.MismatchPenalty, convey.ShouldEqual, 0.3)
				convey.So(cfg.BudgetGraduated, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# local overrides
addr: ":9090"
log_format: json
catalog_backend: redis
redis_addr: "cache:6379"
season_graduated: true
duration_scale: 2.5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WAYFARER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.CatalogBackend, convey.ShouldEqual, config.BackendRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "cache:6379")
				convey.So(cfg.SeasonGraduated, convey.ShouldBeTrue)
				convey.So(cfg.DurationScale, convey.ShouldEqual, 2.5)
			})
		})

		convey.Convey("When both file and env set the same key", func() {
			tmpFile := createTempConfigFile("addr: \":7000\"\nworker_count: 9\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WAYFARER_CONFIG", tmpFile)
			_ = os.Setenv("WAYFARER_ADDR", ":7100")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7100")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 9)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("WAYFARER_CONFIG", "/nonexistent/wayfarer.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the YAML file is malformed", func() {
			tmpFile := createTempConfigFile("addr: [unterminated\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WAYFARER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When loading config with an empty addr", func() {
			tmpFile := createTempConfigFile("addr: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("WAYFARER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Addr")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"WAYFARER_CONFIG",
		"WAYFARER_ADDR",
		"WAYFARER_QUEUE_SIZE",
		"WAYFARER_WORKER_COUNT",
		"WAYFARER_MISMATCH_PENALTY",
		"WAYFARER_BUDGET_GRADUATED",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "wayfarer-config-*.yaml")
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
