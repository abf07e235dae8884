package report

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copyleftdev/curvefit/internal/dataset"
	"github.com/copyleftdev/curvefit/internal/model"
	"github.com/copyleftdev/curvefit/internal/optimization"
)

func TestConstraintCheck(t *testing.T) {
	c := model.DefaultConstants()
	s := &dataset.Samples{X: []float64{10, 40, 70}, Y: []float64{42, 42, 42}}

	check := ConstraintCheck(s, model.Params{Theta: 0, X: 0}, c)
	assert.Equal(t, 10.0, check.MinT)
	assert.Equal(t, 70.0, check.MaxT)
	assert.False(t, check.Satisfied())

	check = ConstraintCheck(s, model.Params{Theta: 0, X: 2}, model.Constants{YOffset: 42, TMin: 6, TMax: 70})
	assert.Equal(t, 8.0, check.MinT)
	assert.Equal(t, 68.0, check.MaxT)
	assert.True(t, check.Satisfied())
}

func TestConstraintCheckPropagatesNaN(t *testing.T) {
	c := model.DefaultConstants()
	s := &dataset.Samples{X: []float64{10, math.NaN(), 70}, Y: []float64{42, 42, 42}}

	check := ConstraintCheck(s, model.Params{Theta: 0, X: 0}, c)
	assert.True(t, math.IsNaN(check.MinT))
	assert.True(t, math.IsNaN(check.MaxT))
	assert.False(t, check.Satisfied())

	res := &optimization.OptimizationResult{
		Converged:    true,
		BestSolution: &optimization.Solution{Parameters: []float64{0, 0, 0}, Value: math.NaN()},
	}
	var out bytes.Buffer
	New(&out).Result(res, s, c)
	assert.Contains(t, out.String(), "Min 't' calculated: NaN (Constraint: > 6)")
	assert.Contains(t, out.String(), "Max 't' calculated: NaN (Constraint: < 60)")
}

func TestResultSuccess(t *testing.T) {
	c := model.DefaultConstants()
	s := &dataset.Samples{X: []float64{60, 90}, Y: []float64{42, 42}}
	res := &optimization.OptimizationResult{
		Converged: true,
		BestSolution: &optimization.Solution{
			Parameters: model.Params{Theta: model.DegToRad(30), M: 0.0125, X: 50}.Slice(),
			Value:      1.2345e-9,
		},
	}

	var out bytes.Buffer
	New(&out).Result(res, s, c)
	got := out.String()

	assert.Contains(t, got, "✅ Optimization Successful!")
	assert.Contains(t, got, "Final Error (L2):  1.23e-09")
	assert.Contains(t, got, "theta (deg):  30.000000")
	assert.Contains(t, got, "theta (rad):  0.523599")
	assert.Contains(t, got, "M:            0.012500")
	assert.Contains(t, got, "X:            50.000000")
	assert.Contains(t, got, "Min 't' calculated: 8.66 (Constraint: > 6)")
	assert.Contains(t, got, "Max 't' calculated: 34.64 (Constraint: < 60)")
	assert.NotContains(t, got, "❌")
}

func TestResultFailure(t *testing.T) {
	res := &optimization.OptimizationResult{
		Converged:    false,
		Message:      "ABNORMAL TERMINATION: Failure",
		BestSolution: &optimization.Solution{Parameters: []float64{0.1, 0, 50}, Value: 3},
	}

	var out bytes.Buffer
	New(&out).Result(res, &dataset.Samples{X: []float64{1}, Y: []float64{1}}, model.DefaultConstants())

	assert.Contains(t, out.String(), "❌ Optimization failed to converge.")
	assert.Contains(t, out.String(), "ABNORMAL TERMINATION: Failure")
	assert.NotContains(t, out.String(), "Found Parameters")
}

func TestMessages(t *testing.T) {
	var out bytes.Buffer
	r := New(&out)
	r.Starting()
	r.MissingInput("xy_data.csv")
	r.LoadFailed("bad.csv", errors.New("missing required column: \"y\""))

	assert.Equal(t,
		"🚀 Starting optimization...\n"+
			"Error: 'xy_data.csv' not found. Please upload the file.\n"+
			"Error: could not load 'bad.csv': missing required column: \"y\"\n",
		out.String())
}
