package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SaveMetrics tracks the note save pipeline.
type SaveMetrics struct {
	saves     *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewSaveMetrics creates the save pipeline instruments.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewSaveMetrics() *SaveMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &SaveMetrics{
		saves: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "notesvc_saves_total",
				Help: "Total number of completed note saves by action",
			},
			[]string{"action"}, // "created", "updated"
		),
		conflicts: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "notesvc_save_conflicts_total",
				Help: "Total number of saves rejected with an unmergeable conflict",
			},
		),
	}
}

func (m *SaveMetrics) RecordSave(action string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(action).Inc()
}

func (m *SaveMetrics) RecordConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

// IndexerMetrics tracks the background search indexer.
type IndexerMetrics struct {
	tasks      *prometheus.CounterVec
	queueDepth prometheus.Gauge
}

// NewIndexerMetrics creates the background indexer instruments.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewIndexerMetrics() *IndexerMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &IndexerMetrics{
		tasks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "notesvc_index_tasks_total",
				Help: "Total number of background index tasks by outcome",
			},
			[]string{"status"}, // "completed", "failed", "dropped"
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "notesvc_index_queue_depth",
				Help: "Current number of queued index writes",
			},
		),
	}
}

func (m *IndexerMetrics) RecordIndexTask(status string) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(status).Inc()
}

func (m *IndexerMetrics) SetIndexQueueDepth(pending int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(pending))
}

// ReconcileMetrics tracks startup reconciliation runs.
type ReconcileMetrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewReconcileMetrics creates the reconciliation instruments.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewReconcileMetrics() *ReconcileMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &ReconcileMetrics{
		runs: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "notesvc_reconcile_runs_total",
				Help: "Total number of reconciliation runs by outcome",
			},
			[]string{"status"}, // "success", "error"
		),
		duration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "notesvc_reconcile_duration_seconds",
				Help: "Duration of reconciliation runs in seconds",
				Buckets: []float64{
					0.1, // small repositories
					0.5,
					1,
					5,
					10,
					30,
					60, // full rebuild of a large index
				},
			},
		),
	}
}

func (m *ReconcileMetrics) RecordRun(err error, duration time.Duration) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(status).Inc()
	m.duration.Observe(duration.Seconds())
}

// HTTPMetrics tracks the API server.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates the HTTP server instruments.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewHTTPMetrics() *HTTPMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &HTTPMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "notesvc_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "notesvc_http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
				Buckets: []float64{
					0.005, // cached reads
					0.01,
					0.025,
					0.05,
					0.1,
					0.25,
					0.5, // save with merge
					1,
					2.5, // history fan-out on deep files
				},
			},
			[]string{"method", "route"},
		),
	}
}

func (m *HTTPMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}
