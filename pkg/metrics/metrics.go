package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "moodtrack"

// Sync outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeDenied      = "denied"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// SyncMetrics records health sync attempts and scheduled job runs.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	syncs       *prometheus.CounterVec
	merged      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	jobSuccess  *prometheus.CounterVec
	jobFailure  *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// NewSyncMetrics registers the collectors on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	syncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "health_sync_total",
		Help:      "Health sync attempts by outcome.",
	}, []string{"outcome"})
	merged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "health_metric_merge_total",
		Help:      "Fetched health metrics by merge result.",
	}, []string{"metric", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "health_sync_duration_seconds",
		Help:      "Duration of health syncs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	jobSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_success",
		Help:      "Successful scheduled job executions.",
	}, []string{"job"})
	jobFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_failure",
		Help:      "Failed scheduled job executions.",
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of scheduled jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(syncs, merged, duration, jobSuccess, jobFailure, jobDuration)
	return &SyncMetrics{
		syncs:       syncs,
		merged:      merged,
		duration:    duration,
		jobSuccess:  jobSuccess,
		jobFailure:  jobFailure,
		jobDuration: jobDuration,
	}
}

func (m *SyncMetrics) ObserveSync(outcome string, took time.Duration) {
	if m == nil || m.syncs == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.syncs.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(took.Seconds())
}

// ObserveMerge counts one metric as applied or skipped because it was edited by hand.
func (m *SyncMetrics) ObserveMerge(metric string, applied bool) {
	if m == nil || m.merged == nil {
		return
	}
	result := "locked"
	if applied {
		result = "applied"
	}
	m.merged.WithLabelValues(normalizeLabel(metric), result).Inc()
}

func (m *SyncMetrics) ObserveJob(job string, took time.Duration, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	job = normalizeLabel(job)
	m.jobDuration.WithLabelValues(job).Observe(took.Seconds())
	if err != nil {
		m.jobFailure.WithLabelValues(job).Inc()
		return
	}
	m.jobSuccess.WithLabelValues(job).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
