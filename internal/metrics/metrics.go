// Package metrics exposes the server's Prometheus instrumentation on a
// dedicated registry so the default global registry stays untouched.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics bundles every collector the API server records.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	PlanRuns      *prometheus.CounterVec
	PlanDuration  prometheus.Histogram
	GAGenerations prometheus.Histogram
	CargoOutcomes *prometheus.CounterVec
	AlertsEmitted *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cargoplan",
		Name:      "http_requests_total",
		Help:      "HTTP requests by path, method and status class.",
	}, []string{"path", "method", "status"})

	m.HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cargoplan",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"path"})

	m.PlanRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cargoplan",
		Name:      "plan_runs_total",
		Help:      "Plan runs by outcome.",
	}, []string{"outcome"})

	m.PlanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cargoplan",
		Name:      "plan_run_duration_seconds",
		Help:      "End-to-end plan run duration.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	m.GAGenerations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cargoplan",
		Name:      "ga_generations",
		Help:      "Generations evaluated per optimization run.",
		Buckets:   []float64{1, 5, 10, 20, 40, 60, 80, 100, 120},
	})

	m.CargoOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cargoplan",
		Name:      "cargo_outcomes_total",
		Help:      "Cargo assignments by final status.",
	}, []string{"status"})

	m.AlertsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cargoplan",
		Name:      "alerts_emitted_total",
		Help:      "Alerts emitted by severity.",
	}, []string{"severity"})

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.PlanRuns,
		m.PlanDuration,
		m.GAGenerations,
		m.CargoOutcomes,
		m.AlertsEmitted,
	)
	return m
}
