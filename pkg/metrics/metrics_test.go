package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "wayfarer")
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})
		})

		Convey("When creating with empty or invalid option values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithRefreshInterval(-1*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "wayfarer")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
				So(manager.customLabels, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(registry))
			manager.recommendations.WithLabelValues("scored").Inc()

			Convey("Then nothing should be registered on the given registry", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording recommendation outcomes", func() {
			before := testutil.ToFloat64(globalManager.recommendations.WithLabelValues("scored"))
			RecordRecommendation("scored")
			RecordRecommendation("scored")

			Convey("Then the counter should grow", func() {
				after := testutil.ToFloat64(globalManager.recommendations.WithLabelValues("scored"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording applied filters", func() {
			before := testutil.ToFloat64(globalManager.filtersApplied.WithLabelValues("style"))
			RecordFilterApplied("style")

			Convey("Then the dimension counter should grow", func() {
				So(testutil.ToFloat64(globalManager.filtersApplied.WithLabelValues("style"))-before, ShouldEqual, 1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateQueueSize(12)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(4)
			UpdateCatalogRecords(30)
			UpdateCatalogBreakerState(2)

			Convey("Then they should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.catalogRecords), ShouldEqual, 30)
				So(testutil.ToFloat64(globalManager.catalogBreakerState), ShouldEqual, 2)
			})
		})

		Convey("When recording histograms and labelled counters", func() {
			So(func() {
				RecordCandidatesResolved(3)
				RecordScoringLatency(1.5)
				RecordCatalogLookupLatency("memory", 0.2)
				RecordCatalogCache("hit")
				RecordEnrichmentJob("enqueued")
				RecordEnrichmentLatency(250)
				RecordUpstreamRetry("wiki")
				RecordHTTPRequest("/api/recommend-places", "POST", "200")
				RecordHTTPRequestDuration("/api/recommend-places", "POST", "200", 4.2)
				RecordErrorByEndpoint("/api/recommend-places", "POST", "validation_error")
				RecordErrorByComponent("catalog", "unavailable")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
			}, ShouldNotPanic)
		})
	})
}

func TestSystemCollector(t *testing.T) {
	Convey("Given a manager with a short refresh interval", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry), WithRefreshInterval(10*time.Millisecond))

		Convey("When the collector runs until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			manager.RunSystemCollector(ctx)

			Convey("Then the system gauges should be populated", func() {
				So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(manager.systemMemoryUsage), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordRecommendation("empty")

		Convey("Then it should expose the service metrics", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			found := false
			for _, f := range families {
				if f.GetName() == "wayfarer_recommend_recommendations_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
