package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DatasetsRegistered tracks how many datasets the manager currently owns.
	DatasetsRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datasetmgr_datasets_registered",
			Help: "Total number of datasets currently registered with the manager",
		},
	)

	// RebuildsTotal counts completed snapshot rebuilds, by dataset identity.
	RebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasetmgr_rebuilds_total",
			Help: "Total number of snapshot rebuilds completed, by dataset",
		},
		[]string{"dataset"},
	)

	RebuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datasetmgr_rebuild_duration_seconds",
			Help:    "Time taken to reload and publish a dataset's snapshot",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dataset"},
	)

	ApplyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasetmgr_apply_failures_total",
			Help: "Total number of mutations dropped after a storage apply failure, by dataset",
		},
		[]string{"dataset"},
	)

	InboxDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "datasetmgr_inbox_depth",
			Help: "Current number of buffered updates in a dataset's inbox channel",
		},
		[]string{"dataset"},
	)

	BackpressureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasetmgr_backpressure_total",
			Help: "Total number of sends that hit the inbox send-timeout, by dataset",
		},
		[]string{"dataset"},
	)

	DebounceCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datasetmgr_debounce_cycles_total",
			Help: "Total number of update-loop ticks processed",
		},
	)
)

func init() {
	prometheus.MustRegister(DatasetsRegistered)
	prometheus.MustRegister(RebuildsTotal)
	prometheus.MustRegister(RebuildDuration)
	prometheus.MustRegister(ApplyFailuresTotal)
	prometheus.MustRegister(InboxDepth)
	prometheus.MustRegister(BackpressureTotal)
	prometheus.MustRegister(DebounceCycles)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
