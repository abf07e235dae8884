package bounded

import (
	"context"
	"os"

	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/curvefit/internal/optimization"
)

// recorder appends major iterations to the optimizer history, stops the run
// when the context is done and, in verbose mode, forwards to gonum's Printer.
type recorder struct {
	ctx     context.Context
	opt     *Optimizer
	box     optimization.BoxTransform
	printer *optimize.Printer
}

func newRecorder(ctx context.Context, opt *Optimizer, box optimization.BoxTransform, cfg optimization.OptimizerConfig) *recorder {
	r := &recorder{ctx: ctx, opt: opt, box: box}
	if cfg.Verbose {
		r.printer = optimize.NewPrinter()
		r.printer.Writer = os.Stdout
		if cfg.Output != nil {
			r.printer.Writer = cfg.Output
		}
	}
	return r
}

// Init implements optimize.Recorder.
func (r *recorder) Init() error {
	if r.printer != nil {
		return r.printer.Init()
	}
	return nil
}

// Record implements optimize.Recorder.
func (r *recorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	if op == optimize.MajorIteration {
		params := make([]float64, len(loc.X))
		r.box.ToBox(params, loc.X)
		r.opt.history = append(r.opt.history, optimization.Evaluation{
			Iteration: stats.MajorIterations,
			Solution: &optimization.Solution{
				Parameters: params,
				Value:      loc.F,
			},
		})
	}

	if r.printer != nil {
		return r.printer.Record(loc, op, stats)
	}
	return nil
}
