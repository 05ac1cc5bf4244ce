package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records metadata for scheduled worker jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewJobMetrics registers the worker job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of worker jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful worker job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed worker job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (m *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SyncMetrics counts catalog synchronization outcomes per record.
type SyncMetrics struct {
	imported prometheus.Counter
	failed   prometheus.Counter
}

// NewSyncMetrics registers the catalog sync counters.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	imported := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_imported_total",
		Help: "Products imported or refreshed from the remote catalog.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_failed_total",
		Help: "Products that failed to persist during a sync pass.",
	})
	reg.MustRegister(imported, failed)
	return &SyncMetrics{imported: imported, failed: failed}
}

// AddImported adds to the imported-products counter.
func (m *SyncMetrics) AddImported(n int) {
	if m == nil || m.imported == nil || n <= 0 {
		return
	}
	m.imported.Add(float64(n))
}

// AddFailed adds to the failed-products counter.
func (m *SyncMetrics) AddFailed(n int) {
	if m == nil || m.failed == nil || n <= 0 {
		return
	}
	m.failed.Add(float64(n))
}

// PropagationMetrics counts inventory propagation outcomes.
type PropagationMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewPropagationMetrics registers the propagation outcome counter.
func NewPropagationMetrics(reg prometheus.Registerer) *PropagationMetrics {
	if reg == nil {
		return &PropagationMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_propagation_outcomes_total",
		Help: "Inventory adjustments propagated upstream, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &PropagationMetrics{outcomes: outcomes}
}

// IncOutcome increments the counter for the given propagation outcome.
func (m *PropagationMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
