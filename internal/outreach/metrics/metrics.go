// Package metrics exposes Prometheus collectors for the outreach service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the outreach collectors.
type Metrics struct {
	// Communications logged, by method name
	CommunicationsLogged *prometheus.CounterVec

	// Companies found overdue by the last evaluation, by rule
	OverdueCompanies *prometheus.GaugeVec

	// Time spent computing read views, by view
	ViewLatency *prometheus.HistogramVec
}

// New registers the outreach collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommunicationsLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_communications_logged_total",
			Help: "Total communications logged by method",
		}, []string{"method"}),

		OverdueCompanies: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "outreach_overdue_companies",
			Help: "Companies overdue for contact at the last evaluation, by status rule",
		}, []string{"rule"}), // rule: "quick", "scheduled"

		ViewLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outreach_view_duration_seconds",
			Help:    "Duration of read view computations including the snapshot load",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"view"}),
	}
}

// AddLogged records n communications logged with method.
func (m *Metrics) AddLogged(method string, n int) {
	if m != nil {
		m.CommunicationsLogged.WithLabelValues(method).Add(float64(n))
	}
}

// SetOverdue records the overdue count produced by rule.
func (m *Metrics) SetOverdue(rule string, n int) {
	if m != nil {
		m.OverdueCompanies.WithLabelValues(rule).Set(float64(n))
	}
}

// ObserveView records how long view took.
func (m *Metrics) ObserveView(view string, d time.Duration) {
	if m != nil {
		m.ViewLatency.WithLabelValues(view).Observe(d.Seconds())
	}
}
