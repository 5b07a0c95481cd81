// Package metrics exposes solver diagnostics as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/example/climseir/internal/ports/secondary"
)

const namespace = "climseir"

// SolverMetrics implements secondary.SolverMetrics on a private registry.
type SolverMetrics struct {
	registry *prometheus.Registry

	integrations *prometheus.CounterVec
	steps        *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	evaluations  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	clamps       *prometheus.CounterVec
}

// NewSolverMetrics registers the solver collectors on a fresh registry.
func NewSolverMetrics() *SolverMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &SolverMetrics{
		registry: reg,

		// Labels: scenario, status (ok, failed)
		integrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "integrations_total",
			Help:      "Continuous integrations by outcome",
		}, []string{"scenario", "status"}),

		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "accepted_steps_total",
			Help:      "Accepted adaptive steps",
		}, []string{"scenario"}),

		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "rejected_steps_total",
			Help:      "Rejected adaptive steps",
		}, []string{"scenario"}),

		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "rhs_evaluations_total",
			Help:      "Right-hand side evaluations",
		}, []string{"scenario"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solver",
			Name:      "duration_seconds",
			Help:      "Wall time of one scenario integration",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}, []string{"scenario"}),

		// Labels: scenario, compartment (S, E, I, R)
		clamps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "weekly",
			Name:      "clamps_total",
			Help:      "Negative weekly updates forced to zero",
		}, []string{"scenario", "compartment"}),
	}
}

// ObserveIntegration records the work of one continuous integration.
func (m *SolverMetrics) ObserveIntegration(scenario string, steps, rejected, evaluations int, elapsed time.Duration, failed bool) {
	status := "ok"
	if failed {
		status = "failed"
	}
	m.integrations.WithLabelValues(scenario, status).Inc()
	m.steps.WithLabelValues(scenario).Add(float64(steps))
	m.rejected.WithLabelValues(scenario).Add(float64(rejected))
	m.evaluations.WithLabelValues(scenario).Add(float64(evaluations))
	m.duration.WithLabelValues(scenario).Observe(elapsed.Seconds())
}

// ObserveClamps records how often the weekly stepper clamped a compartment.
// Zero counts still create the series so every compartment is reported.
func (m *SolverMetrics) ObserveClamps(scenario, compartment string, count int) {
	m.clamps.WithLabelValues(scenario, compartment).Add(float64(count))
}

// Registry returns the registry holding the solver collectors.
func (m *SolverMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteText writes every gathered metric family in the Prometheus text format.
func (m *SolverMetrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Ensure SolverMetrics implements the interface
var _ secondary.SolverMetrics = (*SolverMetrics)(nil)
