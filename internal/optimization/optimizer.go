package optimization

import (
	"context"
	"io"
	"time"
)

// Optimizer defines the interface for optimization algorithms
type Optimizer interface {
	// Optimize runs the optimization process
	Optimize(ctx context.Context, config OptimizerConfig) (*OptimizationResult, error)

	// GetBestSolution returns the best solution found so far
	GetBestSolution() *Solution

	// GetHistory returns the history of evaluations
	GetHistory() []Evaluation

	// Stop gracefully stops the optimization process
	Stop()
}

// OptimizerConfig contains configuration for the optimizer
type OptimizerConfig struct {
	// Objective function to minimize
	Objective ObjectiveFunction

	// Gradient of the objective. When nil, central finite differences are used.
	Gradient GradientFunction

	// Bounds for each dimension [min, max]. The search stays strictly inside.
	Bounds [][2]float64

	// Starting point; must lie strictly inside Bounds
	InitialGuess []float64

	// Convergence tolerance on the change of the objective value
	FTol float64

	// Convergence tolerance on the gradient norm
	GTol float64

	// Maximum number of major iterations
	MaxIterations int

	// Maximum number of objective evaluations
	MaxEvaluations int

	// Verbose prints per-iteration progress to Output
	Verbose bool

	// Output receives progress lines when Verbose is set
	Output io.Writer
}

// ObjectiveFunction defines the function to be optimized
type ObjectiveFunction func([]float64) (float64, error)

// GradientFunction stores the gradient of the objective at x in grad.
type GradientFunction func(grad, x []float64)

// Solution represents a solution in the optimization space
type Solution struct {
	Parameters []float64
	Value      float64
}

// Evaluation represents a single major iteration of the optimizer
type Evaluation struct {
	Iteration int
	Solution  *Solution
	Error     error
}

// OptimizationResult contains the result of an optimization run
type OptimizationResult struct {
	BestSolution    *Solution
	History         []Evaluation
	Iterations      int
	FuncEvaluations int
	GradEvaluations int
	Runtime         time.Duration

	// Converged reports whether a convergence criterion terminated the run.
	Converged bool
	// Status is the terminal status of the method.
	Status string
	// Message describes why the run terminated.
	Message string
}
