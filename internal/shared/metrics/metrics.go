package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the server.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	WebhookEventsIngested *prometheus.CounterVec
	ProcessingOutcomes    *prometheus.CounterVec
	ReconcilerRuns        prometheus.Counter
	ReconcilerDuration    prometheus.Histogram
	ReconcilerBacklog     prometheus.Gauge
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "packfit_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "packfit_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packfit_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		WebhookEventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "packfit_webhook_events_ingested_total",
			Help: "Webhook events ingested, by dedup result.",
		}, []string{"result"}),
		ProcessingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "packfit_processing_outcomes_total",
			Help: "Processing attempt outcomes, by status.",
		}, []string{"status"}),
		ReconcilerRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "packfit_reconciler_runs_total",
			Help: "Completed reconciliation passes.",
		}),
		ReconcilerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "packfit_reconciler_run_duration_seconds",
			Help:    "Wall-clock duration of a reconciliation pass.",
			Buckets: prometheus.DefBuckets,
		}),
		ReconcilerBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packfit_reconciler_batch_size",
			Help: "Events selected by the most recent reconciliation pass.",
		}),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.WebhookEventsIngested,
		m.ProcessingOutcomes,
		m.ReconcilerRuns,
		m.ReconcilerDuration,
		m.ReconcilerBacklog,
	)

	return m
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
