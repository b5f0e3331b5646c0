package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/wayfarer/internal/app"
	"github.com/okian/wayfarer/internal/config"
	"github.com/okian/wayfarer/pkg/logger"
)

const seedFile = "../internal/adapters/repository/testdata/seed.yaml"

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.CatalogSeedFile = seedFile
	cfg.WorkerCount = 2
	cfg.EnrichOnMiss = false
	return cfg
}

func TestConfigFromEnv(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv("WAYFARER_ADDR", ":8080")
		t.Setenv("WAYFARER_QUEUE_SIZE", "1000")
		t.Setenv("WAYFARER_WORKER_COUNT", "4")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.EnrichmentQueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running server on an ephemeral port", t, func() {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		base := "http://" + lis.Addr().String()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, testConfig(), lis, logger.Nop()) }()

		client := &http.Client{Timeout: 2 * time.Second}
		waitHealthy := func() bool {
			for range 100 {
				resp, err := client.Get(base + "/healthz")
				if err == nil {
					_ = resp.Body.Close()
					if resp.StatusCode == http.StatusOK {
						return true
					}
				}
				time.Sleep(20 * time.Millisecond)
			}
			return false
		}
		convey.So(waitHealthy(), convey.ShouldBeTrue)

		convey.Convey("When a recommendation is requested", func() {
			body := `{"candidate_place":["tehran-milad","isfahan-naqsh-e-jahan"],"Travel_style":"FAMILY"}`
			resp, err := client.Post(base+"/api/recommend-places", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()

			var out struct {
				ScoredPlaces []struct {
					PlaceID string  `json:"place_id"`
					Score   float64 `json:"score"`
				} `json:"scored_places"`
			}
			convey.So(json.NewDecoder(resp.Body).Decode(&out), convey.ShouldBeNil)

			convey.Convey("Then the seeded catalog should be ranked", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(len(out.ScoredPlaces), convey.ShouldEqual, 2)
				convey.So(out.ScoredPlaces[0].PlaceID, convey.ShouldEqual, "isfahan-naqsh-e-jahan")
				convey.So(out.ScoredPlaces[0].Score, convey.ShouldEqual, 1.0)
				convey.So(out.ScoredPlaces[1].Score, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When the docs are requested", func() {
			resp, err := client.Get(base + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Reset(func() {
			cancel()
			select {
			case err := <-done:
				if err != nil {
					t.Errorf("run returned %v", err)
				}
			case <-time.After(10 * time.Second):
				t.Error("run did not return after cancel")
			}
		})
	})
}

func TestRunStartFailure(t *testing.T) {
	convey.Convey("Given a config whose seed file is missing", t, func() {
		cfg := testConfig()
		cfg.CatalogSeedFile = "testdata/missing.yaml"
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then run should fail before serving", func() {
			err := run(context.Background(), cfg, lis, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "start service")
		})
	})
}

func TestUpdateServiceMetrics(t *testing.T) {
	convey.Convey("Given a service that was never started", t, func() {
		svc := service.New(testConfig())

		convey.Convey("Then updating metrics should not panic", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}
