package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When a manager is created with defaults", func() {
			m := NewManager(WithPrometheusRegistry(reg))

			Convey("Then it carries the service namespace", func() {
				So(m, ShouldNotBeNil)
				So(m.namespace, ShouldEqual, "verdict")
				So(m.subsystem, ShouldEqual, "evaluation")
				So(m.enabled, ShouldBeTrue)
			})

			Convey("Then all metric families are registered", func() {
				families, err := reg.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When options override the defaults", func() {
			m := NewManager(
				WithPrometheusRegistry(reg),
				WithNamespace("custom"),
				WithSubsystem("pipeline"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithRefreshInterval(30*time.Second),
			)

			Convey("Then the manager reflects them", func() {
				So(m.namespace, ShouldEqual, "custom")
				So(m.subsystem, ShouldEqual, "pipeline")
				So(m.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
				So(m.refreshInterval, ShouldEqual, 30*time.Second)
			})
		})

		Convey("When options carry zero values", func() {
			m := NewManager(
				WithPrometheusRegistry(reg),
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
			)

			Convey("Then the defaults survive", func() {
				So(m.namespace, ShouldEqual, "verdict")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(m.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		So(globalManager, ShouldNotBeNil)

		Convey("When pipeline events are recorded", func() {
			So(func() {
				RecordSubmissionCreated()
				RecordSubmissionFinalized("succeed")
				RecordEvaluationLatency(12.5)
				RecordManualScore()
				RecordFileUpload()
				RecordFileRejected("file_too_large")
			}, ShouldNotPanic)
		})

		Convey("When judge and store events are recorded", func() {
			So(func() {
				RecordJudgeLatency(40)
				RecordJudgeError("unavailable")
				RecordStoreWriteLatency(0.3)
				UpdateTotalSubmissions(7)
			}, ShouldNotPanic)
		})

		Convey("When leaderboard and realtime events are recorded", func() {
			So(func() {
				RecordLeaderboardAccept()
				RecordSnapshotRebuildLatency(1.2)
				UpdateContestFrozen("contest-1", true)
				UpdateContestFrozen("contest-1", false)
				RecordBroadcast()
				RecordBroadcastDrop()
				UpdateSubscriberCount("contest-1", 3)
			}, ShouldNotPanic)
		})

		Convey("When HTTP and error events are recorded", func() {
			So(func() {
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 0.8)
				RecordErrorByComponent("store", "not_found")
				RecordErrorByType("validation", "warning")
				RecordErrorByEndpoint("/submissions/evaluate", "POST", "bad_request")
				RecordErrorLatency("judge", "timeout", 30000)
			}, ShouldNotPanic)
		})

		Convey("When system stats are recorded", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(42)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("Then the exposition registry is available", func() {
			So(GetRegistry(), ShouldNotBeNil)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
