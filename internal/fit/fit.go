// Package fit runs the load, minimize and report pipeline for one dataset.
package fit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyleftdev/curvefit/internal/config"
	"github.com/copyleftdev/curvefit/internal/dataset"
	"github.com/copyleftdev/curvefit/internal/errors"
	"github.com/copyleftdev/curvefit/internal/logging"
	"github.com/copyleftdev/curvefit/internal/metrics"
	"github.com/copyleftdev/curvefit/internal/model"
	"github.com/copyleftdev/curvefit/internal/optimization"
	"github.com/copyleftdev/curvefit/internal/optimization/bounded"
	"github.com/copyleftdev/curvefit/internal/report"
)

// Outcome summarizes a finished run.
type Outcome struct {
	// RunID identifies the run in logs.
	RunID string
	// Status is one of the metrics.Outcome* values.
	Status string
	// Samples is nil when loading failed.
	Samples *dataset.Samples
	// Result is nil when the optimizer did not return one.
	Result *optimization.OptimizationResult
	// Params holds the fitted parameters when Result is set.
	Params model.Params
	// Err is set for load failures, optimizer errors and recovered panics.
	Err error
}

// Runner executes fits with a fixed configuration.
type Runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	reporter *report.Reporter
	out      io.Writer
}

// NewRunner returns a Runner printing to out. A nil logger disables logging and
// nil metrics are replaced by a private registry.
func NewRunner(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, out io.Writer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		reporter: report.New(out),
		out:      out,
	}
}

// NewProblem binds the objective and its gradient to the samples.
func NewProblem(s *dataset.Samples, c model.Constants) (optimization.ObjectiveFunction, optimization.GradientFunction) {
	objective := func(x []float64) (float64, error) {
		return model.Objective(s, model.ParamsFromSlice(x), c), nil
	}
	gradient := func(grad, x []float64) {
		model.Gradient(grad, s, model.ParamsFromSlice(x), c)
	}
	return objective, gradient
}

// OptimizerConfig assembles the optimizer settings for s from cfg.
func OptimizerConfig(cfg *config.Config, s *dataset.Samples, out io.Writer) optimization.OptimizerConfig {
	objective, gradient := NewProblem(s, cfg.Constants())
	return optimization.OptimizerConfig{
		Objective:      objective,
		Gradient:       gradient,
		Bounds:         cfg.Box(),
		InitialGuess:   cfg.InitialGuess().Slice(),
		FTol:           cfg.Optimizer.FTol,
		GTol:           cfg.Optimizer.GTol,
		MaxIterations:  cfg.Optimizer.MaxIterations,
		MaxEvaluations: cfg.Optimizer.MaxEvaluations,
		Verbose:        cfg.Optimizer.Display,
		Output:         out,
	}
}

// Run loads the samples, minimizes the objective and prints the report. It
// returns normally in every outcome; missing input and non-convergence are
// reported on the output stream, never raised.
func (r *Runner) Run(ctx context.Context) Outcome {
	outcome := Outcome{RunID: uuid.NewString()}
	logger := r.logger.With(zap.String("run_id", outcome.RunID))
	ctx = logging.WithContext(ctx, logger)

	if err := r.run(ctx, &outcome); err != nil {
		outcome.Status = metrics.OutcomeError
		outcome.Err = err
		r.reporter.Failure(err.Error())
	}

	if outcome.Err != nil {
		logger.Error("Fit failed",
			zap.String("outcome", outcome.Status),
			zap.Error(outcome.Err),
			zap.Strings("stack", errors.Stack(outcome.Err)),
		)
	}
	r.metrics.ObserveOutcome(outcome.Status)
	r.flushMetrics(logger)
	return outcome
}

// run fills outcome. Load failures are recorded in outcome and reported here;
// the returned error covers optimizer errors and panics.
func (r *Runner) run(ctx context.Context, outcome *Outcome) (err error) {
	logger := logging.FromContext(ctx)
	defer errors.Recover(logger, &err)

	path := r.cfg.Data.Path
	samples, err := dataset.Load(path, dataset.Options{Delimiter: r.cfg.Delimiter()})
	if err != nil {
		outcome.Err = err
		if errors.Is(err, dataset.ErrNotFound) {
			outcome.Status = metrics.OutcomeMissingInput
			r.reporter.MissingInput(path)
			return nil
		}
		outcome.Status = metrics.OutcomeError
		r.reporter.LoadFailed(path, err)
		return nil
	}
	outcome.Samples = samples
	r.metrics.ObserveSamples(samples.Len())

	logger.Info("Samples loaded",
		zap.String("path", path),
		zap.Int("samples", samples.Len()),
		zap.String("fingerprint", fmt.Sprintf("%016x", samples.Fingerprint())),
	)

	result, err := r.optimize(ctx, samples)
	if err != nil {
		return err
	}
	outcome.Result = result
	outcome.Params = model.ParamsFromSlice(result.BestSolution.Parameters)
	r.metrics.ObserveResult(result)

	if result.Converged {
		outcome.Status = metrics.OutcomeSuccess
	} else {
		outcome.Status = metrics.OutcomeFailure
	}

	r.reporter.Result(result, samples, r.cfg.Constants())
	return nil
}

func (r *Runner) optimize(ctx context.Context, samples *dataset.Samples) (*optimization.OptimizationResult, error) {
	logger := logging.FromContext(ctx)
	oc := OptimizerConfig(r.cfg, samples, r.out)

	r.reporter.Starting()
	logger.Info("Starting optimization",
		zap.Float64s("initial_guess", oc.InitialGuess),
		zap.Float64("ftol", oc.FTol),
		zap.Int("max_iterations", oc.MaxIterations),
	)

	start := time.Now()
	result, err := bounded.NewOptimizer(oc).Optimize(ctx, oc)
	if err != nil {
		return nil, err
	}

	logger.Info("Optimization finished",
		zap.Bool("converged", result.Converged),
		zap.String("status", result.Status),
		zap.String("message", result.Message),
		zap.Float64("cost", result.BestSolution.Value),
		zap.Float64s("params", result.BestSolution.Parameters),
		zap.Int("iterations", result.Iterations),
		zap.Int("evaluations", result.FuncEvaluations),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (r *Runner) flushMetrics(logger *zap.Logger) {
	path := r.cfg.Metrics.Path
	if path == "" {
		return
	}
	if err := r.metrics.WriteTextfile(path); err != nil {
		logger.Warn("Failed to write metrics", zap.String("path", path), zap.Error(err))
	}
}
