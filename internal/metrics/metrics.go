// Package metrics records fit statistics in a private Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/curvefit/internal/optimization"
)

// Run outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeMissingInput = "missing_input"
	OutcomeError        = "error"
)

const namespace = "curvefit"

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	runs                 *prometheus.CounterVec
	objectiveEvaluations prometheus.Counter
	gradientEvaluations  prometheus.Counter
	iterations           prometheus.Counter
	samples              prometheus.Gauge
	finalCost            prometheus.Gauge
	duration             prometheus.Histogram
}

// New creates the collectors and registers them in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Fit runs by outcome.",
		}, []string{"outcome"}),
		objectiveEvaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Objective function evaluations requested by the optimizer.",
		}),
		gradientEvaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gradient_evaluations_total",
			Help:      "Gradient evaluations requested by the optimizer.",
		}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Major optimizer iterations.",
		}),
		samples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "samples",
			Help:      "Number of samples in the fitted dataset.",
		}),
		finalCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "final_cost",
			Help:      "Objective value at the returned parameters.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "optimization_duration_seconds",
			Help:      "Wall time spent in the optimizer.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	m.registry.MustRegister(
		m.runs,
		m.objectiveEvaluations,
		m.gradientEvaluations,
		m.iterations,
		m.samples,
		m.finalCost,
		m.duration,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSamples records the dataset size.
func (m *Metrics) ObserveSamples(n int) {
	m.samples.Set(float64(n))
}

// ObserveOutcome counts a finished run.
func (m *Metrics) ObserveOutcome(outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
}

// ObserveResult records the counters and timings of an optimizer result.
func (m *Metrics) ObserveResult(res *optimization.OptimizationResult) {
	if res == nil {
		return
	}
	m.objectiveEvaluations.Add(float64(res.FuncEvaluations))
	m.gradientEvaluations.Add(float64(res.GradEvaluations))
	m.iterations.Add(float64(res.Iterations))
	m.duration.Observe(res.Runtime.Seconds())
	if res.BestSolution != nil {
		m.finalCost.Set(res.BestSolution.Value)
	}
}

// WriteTextfile writes the registry in the Prometheus text exposition format
// to path, replacing it atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
