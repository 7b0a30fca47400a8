package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	provisionTotal    *prometheus.CounterVec
	provisionDuration prometheus.Histogram
	compensationTotal *prometheus.CounterVec
	orphanReconciled  *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
}

// New registers the service collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		provisionTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provision_total",
				Help: "Registration attempts by terminal outcome",
			},
			[]string{"outcome"},
		),
		provisionDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "provision_duration_seconds",
				Help:    "Duration of the registration sequence",
				Buckets: prometheus.DefBuckets,
			},
		),
		compensationTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compensation_total",
				Help: "Compensating account deletions by result",
			},
			[]string{"result"},
		),
		orphanReconciled: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orphan_reconcile_total",
				Help: "Asynchronous orphaned account cleanups by result",
			},
			[]string{"result"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
	}
}

func (m *Metrics) ObserveProvision(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.provisionTotal.WithLabelValues(outcome).Inc()
	m.provisionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCompensation(result string) {
	if m == nil {
		return
	}
	m.compensationTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReconcile(result string) {
	if m == nil {
		return
	}
	m.orphanReconciled.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(route, method, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
}
