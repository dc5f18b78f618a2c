// Package metrics exposes shell session activity as Prometheus metrics.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the shell session collectors on a private registry.
type Metrics struct {
	Executions *prometheus.CounterVec
	Duration   prometheus.Histogram
	Restarts   prometheus.Counter

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gshctx_shell_executions_total",
				Help: "Total number of shell command executions by outcome",
			},
			[]string{"outcome"},
		),
		Duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gshctx_shell_execution_seconds",
				Help:    "Shell command execution duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		Restarts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "gshctx_shell_restarts_total",
				Help: "Total number of shell process restarts",
			},
		),
		registry: reg,
	}
}

// ObserveExecution records one finished execution.
func (m *Metrics) ObserveExecution(outcome string, duration time.Duration) {
	m.Executions.WithLabelValues(outcome).Inc()
	m.Duration.Observe(duration.Seconds())
}

// IncRestarts records a shell restart.
func (m *Metrics) IncRestarts() {
	m.Restarts.Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteText writes every metric in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
