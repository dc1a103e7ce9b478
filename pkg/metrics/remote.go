package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RemoteCallMetrics records attempt/retry/failure counts for gateway calls.
type RemoteCallMetrics struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRemoteCallMetrics registers the remote call metrics on the provided registerer.
func NewRemoteCallMetrics(reg prometheus.Registerer) *RemoteCallMetrics {
	if reg == nil {
		return &RemoteCallMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_call_attempts",
		Help: "Remote call attempts, including retries.",
	}, []string{"op"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_call_retries",
		Help: "Remote call retries after a failed attempt.",
	}, []string{"op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_call_failures",
		Help: "Remote calls that exhausted every attempt.",
	}, []string{"op", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_call_duration_seconds",
		Help:    "Duration of remote calls in seconds, across all attempts.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	reg.MustRegister(attempts, retries, failures, duration)
	return &RemoteCallMetrics{
		attempts: attempts,
		retries:  retries,
		failures: failures,
		duration: duration,
	}
}

// IncAttempt increments the attempt counter for the named operation.
func (m *RemoteCallMetrics) IncAttempt(op string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncRetry increments the retry counter for the named operation.
func (m *RemoteCallMetrics) IncRetry(op string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation and code.
func (m *RemoteCallMetrics) IncFailure(op, code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(op), normalizeLabel(code)).Inc()
}

// ObserveDuration records the total duration for the named operation.
func (m *RemoteCallMetrics) ObserveDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
