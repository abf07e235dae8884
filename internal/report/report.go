// Package report renders fit outcomes as human-readable terminal text.
package report

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/curvefit/internal/dataset"
	"github.com/copyleftdev/curvefit/internal/model"
	"github.com/copyleftdev/curvefit/internal/optimization"
)

const rule = "-----------------------------------"

// Check compares the rotated coordinates of the fitted samples with the
// nominal t range.
type Check struct {
	MinT float64
	MaxT float64
	TMin float64
	TMax float64
}

// Satisfied reports whether every t lies within [TMin, TMax].
func (c Check) Satisfied() bool {
	return c.MinT >= c.TMin && c.MaxT <= c.TMax
}

// ConstraintCheck recomputes t for p and returns its observed range. A NaN t
// makes both ends of the range NaN, so the check is never satisfied.
func ConstraintCheck(s *dataset.Samples, p model.Params, c model.Constants) Check {
	ts := model.RotatedT(s, p, c)
	check := Check{TMin: c.TMin, TMax: c.TMax}
	if floats.HasNaN(ts) {
		check.MinT, check.MaxT = math.NaN(), math.NaN()
		return check
	}
	check.MinT = floats.Min(ts)
	check.MaxT = floats.Max(ts)
	return check
}

// Reporter writes report sections to an output stream. Write errors are
// ignored; the report is best effort.
type Reporter struct {
	w io.Writer
}

// New returns a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Starting announces the optimization.
func (r *Reporter) Starting() {
	fmt.Fprintln(r.w, "🚀 Starting optimization...")
}

// MissingInput tells the user the sample table could not be found.
func (r *Reporter) MissingInput(path string) {
	fmt.Fprintf(r.w, "Error: '%s' not found. Please upload the file.\n", path)
}

// LoadFailed reports a sample table that exists but could not be used.
func (r *Reporter) LoadFailed(path string, err error) {
	fmt.Fprintf(r.w, "Error: could not load '%s': %v\n", path, err)
}

// Result renders the outcome of an optimization run. On success it prints the
// fitted parameters and a constraint check against s; otherwise the failure
// message.
func (r *Reporter) Result(res *optimization.OptimizationResult, s *dataset.Samples, c model.Constants) {
	if !res.Converged {
		r.Failure(res.Message)
		return
	}

	p := model.ParamsFromSlice(res.BestSolution.Parameters)

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "✅ Optimization Successful!")
	fmt.Fprintln(r.w, rule)
	fmt.Fprintf(r.w, "  Final Error (L2): % .2e\n", res.BestSolution.Value)
	fmt.Fprintln(r.w, rule)
	fmt.Fprintln(r.w, "🎉 Found Parameters:")
	fmt.Fprintf(r.w, "  theta (deg): % .6f\n", p.ThetaDegrees())
	fmt.Fprintf(r.w, "  theta (rad): % .6f\n", p.Theta)
	fmt.Fprintf(r.w, "  M:           % .6f\n", p.M)
	fmt.Fprintf(r.w, "  X:           % .6f\n", p.X)
	fmt.Fprintln(r.w, rule)

	check := ConstraintCheck(s, p, c)
	fmt.Fprintln(r.w, "Constraint Check:")
	fmt.Fprintf(r.w, "  Min 't' calculated: %.2f (Constraint: > %g)\n", check.MinT, check.TMin)
	fmt.Fprintf(r.w, "  Max 't' calculated: %.2f (Constraint: < %g)\n", check.MaxT, check.TMax)
}

// Failure prints a non-convergence notice and the optimizer's message.
func (r *Reporter) Failure(message string) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "❌ Optimization failed to converge.")
	fmt.Fprintln(r.w, message)
}
