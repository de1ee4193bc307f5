// Package telemetry provides the manager's ambient logging and metrics,
// observational only — nothing here participates in fan-out correctness.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/relaychain/blobvault/blob"
)

// Metrics is a Prometheus-backed manager.MetricsRecorder.
type Metrics struct {
	storeAttempts *prometheus.CounterVec
	fetchAttempts *prometheus.CounterVec
	fanoutSeconds *prometheus.HistogramVec
}

// NewMetrics registers the manager's counters and histogram against reg. Pass
// prometheus.NewRegistry() in tests to avoid polluting the default
// registry across parallel test binaries.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		storeAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "blobvault_store_attempts_total",
			Help: "Per-backend store attempts, labeled by outcome.",
		}, []string{"backend", "outcome"}),
		fetchAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "blobvault_fetch_attempts_total",
			Help: "Per-backend fetch attempts, labeled by outcome.",
		}, []string{"backend", "outcome"}),
		fanoutSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blobvault_fanout_duration_seconds",
			Help:    "Duration of a single backend's store/fetch call during fan-out.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
	}
	return m
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveStore records one backend's store attempt.
func (m *Metrics) ObserveStore(backend blob.BackendName, ok bool, d time.Duration) {
	m.storeAttempts.WithLabelValues(string(backend), outcome(ok)).Inc()
	m.fanoutSeconds.WithLabelValues(string(backend), "store").Observe(d.Seconds())
}

// ObserveFetch records one backend's fetch attempt.
func (m *Metrics) ObserveFetch(backend blob.BackendName, ok bool, d time.Duration) {
	m.fetchAttempts.WithLabelValues(string(backend), outcome(ok)).Inc()
	m.fanoutSeconds.WithLabelValues(string(backend), "fetch").Observe(d.Seconds())
}
