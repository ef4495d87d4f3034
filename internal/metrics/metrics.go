// Package metrics exposes Prometheus collectors for the intake flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors used by the services.
type Metrics struct {
	Submissions       *prometheus.CounterVec
	PredictionLatency prometheus.Histogram
	Transfers         *prometheus.CounterVec
	WeatherLookups    *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chillerops",
			Name:      "submissions_total",
			Help:      "Intake submissions by outcome.",
		}, []string{"outcome"}),
		PredictionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chillerops",
			Name:      "prediction_duration_seconds",
			Help:      "Round trip time of prediction service calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chillerops",
			Name:      "result_transfers_total",
			Help:      "Results page receipts by outcome.",
		}, []string{"outcome"}),
		WeatherLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chillerops",
			Name:      "weather_lookups_total",
			Help:      "Weather enrichment lookups by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chillerops",
			Name:      "intake_sessions_active",
			Help:      "Intake wizards currently open.",
		}),
	}
	reg.MustRegister(m.Submissions, m.PredictionLatency, m.Transfers, m.WeatherLookups, m.ActiveSessions)
	return m
}
