package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tunegate/internal/backend"
)

// Metrics holds all Prometheus metrics for the gateway. It implements the
// observer interfaces of the session, backend, and userinit packages.
type Metrics struct {
	ValidationPassed prometheus.Counter
	ValidationFailed *prometheus.CounterVec
	BackendCalls     *prometheus.CounterVec
	BackendLatency   *prometheus.HistogramVec
	Aggregations     *prometheus.CounterVec
	AggregationTime  prometheus.Histogram
	PartialFailures  prometheus.Counter
	EndpointLatency  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ValidationPassed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tunegate_session_validations_passed_total",
			Help: "Total number of session validations that passed",
		}),
		ValidationFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tunegate_session_validations_failed_total",
			Help: "Total number of session validations that failed, labeled by error code",
		}, []string{"code"}),
		BackendCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tunegate_backend_calls_total",
			Help: "Total number of backend calls, labeled by endpoint and outcome class",
		}, []string{"endpoint", "class"}),
		BackendLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tunegate_backend_call_latency_seconds",
			Help:    "Latency of individual backend calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Aggregations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tunegate_user_init_aggregations_total",
			Help: "Total number of user-init aggregation passes, labeled by result",
		}, []string{"result"}),
		AggregationTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tunegate_user_init_aggregation_seconds",
			Help:    "Wall time of a full user-init aggregation pass in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		PartialFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tunegate_user_init_partial_failures_total",
			Help: "Total number of aggregation passes that reported partial failures",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tunegate_endpoint_latency_seconds",
			Help:    "Latency of gateway endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// SessionValidationPassed implements session.Observer.
func (m *Metrics) SessionValidationPassed() {
	m.ValidationPassed.Inc()
}

// SessionValidationFailed implements session.Observer.
func (m *Metrics) SessionValidationFailed(code string) {
	m.ValidationFailed.WithLabelValues(code).Inc()
}

// BackendCall implements backend.Observer.
func (m *Metrics) BackendCall(endpoint string, class backend.Class, duration time.Duration) {
	m.BackendCalls.WithLabelValues(endpoint, string(class)).Inc()
	m.BackendLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// AggregationCompleted implements userinit.Observer.
func (m *Metrics) AggregationCompleted(success, partial bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "critical_failure"
	}
	m.Aggregations.WithLabelValues(result).Inc()
	m.AggregationTime.Observe(duration.Seconds())
	if partial {
		m.PartialFailures.Inc()
	}
}

// ObserveEndpointLatency records the latency of a gateway endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, duration time.Duration) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}
