// Package bounded implements a box-constrained quasi-Newton optimizer on top of
// gonum's L-BFGS.
//
// The box is removed by a smooth change of variables: each parameter is the
// logistic image of an unconstrained coordinate, so every point the method
// visits lies strictly inside its bounds and no projection step is needed.
package bounded

import (
	"context"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/curvefit/internal/errors"
	"github.com/copyleftdev/curvefit/internal/optimization"
)

const (
	defaultFTol           = 1e-15
	defaultGTol           = 1e-5
	defaultMaxIterations  = 15000
	defaultMaxEvaluations = 15000
	defaultConvergeWindow = 20
	defaultHistoryStore   = 10
)

// Optimizer minimizes a function over a box with L-BFGS.
type Optimizer struct {
	// Configuration
	config optimization.OptimizerConfig

	// Best solution found
	bestSolution *optimization.Solution

	// History of major iterations
	history []optimization.Evaluation

	// For cancellation
	cancel context.CancelFunc
}

// NewOptimizer creates a new bounded optimizer. Zero tolerances and limits are
// replaced by defaults.
func NewOptimizer(config optimization.OptimizerConfig) *Optimizer {
	return &Optimizer{config: withDefaults(config)}
}

func withDefaults(config optimization.OptimizerConfig) optimization.OptimizerConfig {
	if config.FTol <= 0 {
		config.FTol = defaultFTol
	}
	if config.GTol <= 0 {
		config.GTol = defaultGTol
	}
	if config.MaxIterations < 1 {
		config.MaxIterations = defaultMaxIterations
	}
	if config.MaxEvaluations < 1 {
		config.MaxEvaluations = defaultMaxEvaluations
	}
	return config
}

// Optimize runs L-BFGS from config.InitialGuess. A run that stops without
// meeting a convergence criterion is not an error: the result carries
// Converged == false and a message. Errors are returned for invalid
// configuration, objective failures and cancellation.
func (o *Optimizer) Optimize(ctx context.Context, config optimization.OptimizerConfig) (*optimization.OptimizationResult, error) {
	// Update config if provided
	if config.Objective != nil {
		o.config = withDefaults(config)
	}
	cfg := o.config

	if err := optimization.Validate(cfg); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, o.cancel = context.WithCancel(ctx)
	defer o.cancel()

	o.bestSolution = nil
	o.history = make([]optimization.Evaluation, 0, 64)

	dim := len(cfg.Bounds)
	box := optimization.BoxTransform{Bounds: cfg.Bounds}

	// Scratch buffers; the method calls Func and Grad sequentially.
	p := make([]float64, dim)
	gp := make([]float64, dim)

	var evalErr error
	objective := func(x []float64) float64 {
		v, err := cfg.Objective(x)
		if err != nil && evalErr == nil {
			evalErr = errors.Wrap(err, "evaluate objective").
				WithOperation("optimize").WithComponent("bounded")
		}
		return v
	}

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			box.ToBox(p, z)
			v := objective(p)
			o.observe(p, v)
			return v
		},
		Grad: func(gz, z []float64) {
			box.ToBox(p, z)
			if cfg.Gradient != nil {
				cfg.Gradient(gp, p)
			} else {
				fd.Gradient(gp, objective, p, &fd.Settings{Formula: fd.Central})
			}
			box.ChainGradient(gz, gp, z)
		},
		Status: func() (optimize.Status, error) {
			if evalErr != nil {
				return optimize.Failure, evalErr
			}
			return optimize.NotTerminated, nil
		},
	}

	z0 := make([]float64, dim)
	box.FromBox(z0, cfg.InitialGuess)

	settings := &optimize.Settings{
		GradientThreshold: cfg.GTol,
		Converger: &optimize.FunctionConverge{
			Absolute:   cfg.FTol,
			Relative:   cfg.FTol,
			Iterations: defaultConvergeWindow,
		},
		MajorIterations: cfg.MaxIterations,
		FuncEvaluations: cfg.MaxEvaluations,
		Recorder:        newRecorder(ctx, o, box, cfg),
	}

	method := &optimize.LBFGS{Store: defaultHistoryStore}

	result, err := optimize.Minimize(problem, z0, settings, method)

	if ctxErr := ctx.Err(); ctxErr != nil {
		// When context is cancelled, return nil result with the context error
		return nil, ctxErr
	}
	if evalErr != nil {
		return nil, evalErr
	}
	if result == nil {
		if err == nil {
			return nil, errors.New("minimize returned no result").
				WithOperation("optimize").WithComponent("bounded")
		}
		return nil, errors.Wrap(err, "minimize").
			WithOperation("optimize").WithComponent("bounded")
	}

	final := make([]float64, dim)
	box.ToBox(final, result.X)
	o.observe(final, result.F)

	status, converged, message := describe(result.Status, err)

	return &optimization.OptimizationResult{
		BestSolution: &optimization.Solution{
			Parameters: final,
			Value:      result.F,
		},
		History:         o.history,
		Iterations:      result.MajorIterations,
		FuncEvaluations: result.FuncEvaluations,
		GradEvaluations: result.GradEvaluations,
		Runtime:         result.Runtime,
		Converged:       converged,
		Status:          status,
		Message:         message,
	}, nil
}

// GetBestSolution returns the lowest-valued point evaluated so far.
func (o *Optimizer) GetBestSolution() *optimization.Solution {
	return o.bestSolution
}

// GetHistory returns one entry per completed major iteration.
func (o *Optimizer) GetHistory() []optimization.Evaluation {
	return o.history
}

// Stop stops the optimization process
func (o *Optimizer) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
}

// observe updates the best solution if v improves on it. NaN never does.
func (o *Optimizer) observe(params []float64, v float64) {
	if math.IsNaN(v) {
		return
	}
	if o.bestSolution == nil || v < o.bestSolution.Value {
		o.bestSolution = &optimization.Solution{
			Parameters: append([]float64(nil), params...),
			Value:      v,
		}
	}
}

// describe maps the terminal state of the method to a status, a convergence
// flag and a human-readable message.
func describe(status optimize.Status, err error) (string, bool, string) {
	if err != nil {
		return status.String(), false, err.Error()
	}
	switch status {
	case optimize.GradientThreshold:
		return status.String(), true, "CONVERGENCE: gradient norm below tolerance"
	case optimize.FunctionConvergence:
		return status.String(), true, "CONVERGENCE: relative reduction of objective below tolerance"
	case optimize.FunctionThreshold, optimize.MethodConverge, optimize.StepConvergence, optimize.Success:
		return status.String(), true, "CONVERGENCE: " + status.String()
	case optimize.IterationLimit:
		return status.String(), false, "STOP: total number of iterations reached limit"
	case optimize.FunctionEvaluationLimit, optimize.GradientEvaluationLimit:
		return status.String(), false, "STOP: total number of function evaluations reached limit"
	default:
		return status.String(), false, "ABNORMAL TERMINATION: " + status.String()
	}
}
