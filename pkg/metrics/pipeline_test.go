package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPipelineMetrics(t *testing.T) {
	Convey("Given fresh pipeline metrics", t, func() {
		m := NewPipelineMetrics(nil)

		Convey("When queries and stages are recorded", func() {
			m.RecordQuery("layer2", "completed", 0.9, time.Second)
			m.RecordQuery("layer3", "completed", 0.7, time.Second)
			m.RecordQuery("layer1", "failed", 0, time.Second)
			m.RecordStage("layer2", 10*time.Millisecond, true)
			m.RecordEscalation()

			Convey("Then the counters should reflect them", func() {
				So(testutil.ToFloat64(m.Queries.WithLabelValues("layer2", "completed")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.Queries.WithLabelValues("layer1", "failed")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.StageFailures.WithLabelValues("layer2")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.Escalations), ShouldEqual, 1)
			})

			Convey("Then the summary should average successful queries only", func() {
				summary := m.Summary()
				So(summary["total_queries"], ShouldEqual, int64(3))
				So(summary["failed_queries"], ShouldEqual, int64(1))
				So(summary["avg_confidence"], ShouldAlmostEqual, 0.8, 1e-9)
			})

			Convey("Then the handler should expose them", func() {
				rec := httptest.NewRecorder()
				m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
				So(strings.Contains(rec.Body.String(), "ukg_escalations_total 1"), ShouldBeTrue)
			})
		})

		Convey("Two instances should not collide", func() {
			So(func() { NewPipelineMetrics(nil) }, ShouldNotPanic)
		})
	})
}
