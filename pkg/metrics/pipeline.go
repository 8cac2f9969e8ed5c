package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks query outcomes, stage failures and escalations.
type PipelineMetrics struct {
	registry *prometheus.Registry

	Queries       *prometheus.CounterVec
	StageFailures *prometheus.CounterVec
	Escalations   prometheus.Counter
	Confidence    prometheus.Histogram
	StageDuration *prometheus.HistogramVec

	mu          sync.RWMutex
	total       int64
	failed      int64
	escalated   int64
	confidence  float64
	processTime time.Duration
}

// NewPipelineMetrics registers the pipeline collectors on registry. A nil
// registry gets a fresh one, so independent instances never collide.
func NewPipelineMetrics(registry *prometheus.Registry) *PipelineMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &PipelineMetrics{
		registry: registry,
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ukg",
				Name:      "queries_total",
				Help:      "Queries processed, by final processing level and status.",
			},
			[]string{"level", "status"},
		),
		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ukg",
				Name:      "stage_failures_total",
				Help:      "Stage failures recovered at the stage boundary.",
			},
			[]string{"stage"},
		),
		Escalations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ukg",
				Name:      "escalations_total",
				Help:      "Queries escalated to the agent layer.",
			},
		),
		Confidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "ukg",
				Name:      "query_confidence",
				Help:      "Final confidence of successful queries.",
				Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 0.8, 0.9, 0.95, 0.99, 1},
			},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ukg",
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each stage.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}

	registry.MustRegister(m.Queries, m.StageFailures, m.Escalations, m.Confidence, m.StageDuration)
	return m
}

// Registry returns the registry the collectors live on.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordQuery records the outcome of one query.
func (m *PipelineMetrics) RecordQuery(level, status string, confidence float64, duration time.Duration) {
	m.Queries.WithLabelValues(level, status).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.processTime += duration

	if status == "failed" {
		m.failed++
		return
	}

	m.Confidence.Observe(confidence)
	m.confidence += confidence
}

// RecordStage records the duration of a stage, and a failure when failed.
func (m *PipelineMetrics) RecordStage(stage string, duration time.Duration, failed bool) {
	m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())

	if failed {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

// RecordEscalation counts a hand-off to the agent layer.
func (m *PipelineMetrics) RecordEscalation() {
	m.Escalations.Inc()

	m.mu.Lock()
	m.escalated++
	m.mu.Unlock()
}

// Summary returns running totals for health and console output.
func (m *PipelineMetrics) Summary() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]any{
		"total_queries":     m.total,
		"failed_queries":    m.failed,
		"escalated_queries": m.escalated,
		"avg_confidence":    0.0,
		"avg_process_time":  0.0,
	}

	if succeeded := m.total - m.failed; succeeded > 0 {
		summary["avg_confidence"] = m.confidence / float64(succeeded)
	}

	if m.total > 0 {
		summary["avg_process_time"] = m.processTime.Seconds() / float64(m.total)
	}

	return summary
}
