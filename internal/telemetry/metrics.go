package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	PipelineErrors  *prometheus.CounterVec
}

// NewMetrics creates Prometheus metrics registered against reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "labelbridge_requests_total",
				Help: "Total number of label pipeline requests by operation and status",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "labelbridge_request_duration_seconds",
				Help:    "Request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		PipelineErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "labelbridge_pipeline_errors_total",
				Help: "Total label pipeline failures by failure kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records a pipeline failure metric.
func (m *Metrics) RecordError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.PipelineErrors.WithLabelValues(kind).Inc()
}
