package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// BackendMetrics records calls made to the storefront backend.
type BackendMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// NewBackendMetrics registers the backend call metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	if reg == nil {
		return &BackendMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_backend_request_duration_seconds",
		Help:    "Duration of storefront backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_backend_requests_total",
		Help: "Storefront backend requests by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, requests)
	return &BackendMetrics{
		duration: duration,
		requests: requests,
	}
}

// Observe records one finished backend request.
func (m *BackendMetrics) Observe(operation string, duration time.Duration, err error) {
	if m == nil || m.duration == nil || m.requests == nil {
		return
	}
	op := normalizeLabel(operation)
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.requests.WithLabelValues(op, outcome).Inc()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
