package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/curvefit/internal/optimization"
)

func TestObserveResult(t *testing.T) {
	m := New()
	m.ObserveResult(&optimization.OptimizationResult{
		BestSolution:    &optimization.Solution{Parameters: []float64{0.4, 0, 50}, Value: 2.5e-7},
		Iterations:      12,
		FuncEvaluations: 30,
		GradEvaluations: 14,
		Runtime:         25 * time.Millisecond,
	})
	m.ObserveResult(nil)

	assert.Equal(t, 30.0, testutil.ToFloat64(m.objectiveEvaluations))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.gradientEvaluations))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.iterations))
	assert.Equal(t, 2.5e-7, testutil.ToFloat64(m.finalCost))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestObserveOutcome(t *testing.T) {
	m := New()
	m.ObserveOutcome(OutcomeSuccess)
	m.ObserveOutcome(OutcomeFailure)
	m.ObserveOutcome(OutcomeFailure)
	m.ObserveSamples(42)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.runs.WithLabelValues(OutcomeMissingInput)))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.samples))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveOutcome(OutcomeSuccess)

	path := filepath.Join(t.TempDir(), "curvefit.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `curvefit_runs_total{outcome="success"} 1`)
	assert.Contains(t, string(data), "curvefit_final_cost")
}
