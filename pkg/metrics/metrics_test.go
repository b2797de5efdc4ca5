package metrics

import (
	"strings"
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

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(3*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.roundsTotal.WithLabelValues("PEOPLE", "LEFT").Inc()

			Convey("Then names and constant labels follow the options", func() {
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_pfx_rounds_total" {
						found = true
						labels := f.GetMetric()[0].GetLabel()
						var env string
						for _, l := range labels {
							if l.GetName() == "env" {
								env = l.GetValue()
							}
						}
						So(env, ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Rounds are counted by kind and outcome", func() {
			before := testutil.ToFloat64(globalManager.roundsTotal.WithLabelValues("STARSHIPS", "TIE"))
			RecordRound("STARSHIPS", "TIE")
			RecordRound("STARSHIPS", "TIE")
			after := testutil.ToFloat64(globalManager.roundsTotal.WithLabelValues("STARSHIPS", "TIE"))
			So(after-before, ShouldEqual, 2)
		})

		Convey("Entity gauges hold the last value", func() {
			UpdateEntityCount("PEOPLE", 5)
			UpdateEntityCount("PEOPLE", 7)
			So(testutil.ToFloat64(globalManager.entityCount.WithLabelValues("PEOPLE")), ShouldEqual, 7)

			UpdateStoreRecords("memory", "people", 3)
			So(testutil.ToFloat64(globalManager.storeRecords.WithLabelValues("memory", "people")), ShouldEqual, 3)
		})

		Convey("Store and GraphQL errors are counted", func() {
			before := testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("dynamodb", "scan"))
			RecordStoreError("dynamodb", "scan")
			So(testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("dynamodb", "scan"))-before, ShouldEqual, 1)

			before = testutil.ToFloat64(globalManager.graphqlErrors.WithLabelValues("NOT_FOUND"))
			RecordGraphQLError("NOT_FOUND")
			So(testutil.ToFloat64(globalManager.graphqlErrors.WithLabelValues("NOT_FOUND"))-before, ShouldEqual, 1)
		})

		Convey("Latency recorders do not panic", func() {
			So(func() {
				RecordPairingLatency(1.5)
				RecordStoreOperation("memory", "get", 0.2)
				RecordHTTPRequest("/graphql", "POST", "200")
				RecordHTTPRequestDuration("/graphql", "POST", "200", 12.0)
				RecordGraphQLOperation("query")
				RecordEntityMutation("PEOPLE", "create")
				RecordErrorByComponent("api", "bad_request")
				UpdateStatsRefreshLastUnix(float64(time.Now().Unix()))
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("The custom registry exposes the holotrumps namespace", func() {
			RecordHTTPRequest("/healthz", "GET", "200")
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var names []string
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(strings.Join(names, ","), ShouldContainSubstring, "holotrumps_game_http_requests_total")
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled global manager", t, func() {
		saved := globalManager
		globalManager = NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
		Reset(func() { globalManager = saved })

		RecordRound("PEOPLE", "LEFT")
		So(testutil.ToFloat64(globalManager.roundsTotal.WithLabelValues("PEOPLE", "LEFT")), ShouldEqual, 0)
	})
}
