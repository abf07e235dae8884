package model

import (
	"math"

	"github.com/copyleftdev/curvefit/internal/dataset"
)

// Cost splits an objective value into its two components.
type Cost struct {
	// Residual is the sum of squared perpendicular residuals.
	Residual float64
	// Penalty is the weighted sum of squared range violations of t.
	Penalty float64
	// Total is Residual + Penalty.
	Total float64
}

// Rotate expresses the translated point (xp, yp) in a frame rotated by theta.
// t runs along the rotated axis, v perpendicular to it.
func Rotate(xp, yp, theta float64) (t, v float64) {
	sin, cos := math.Sincos(theta)
	t = xp*cos + yp*sin
	v = -xp*sin + yp*cos
	return t, v
}

// Curve evaluates the model exp(m·|t|)·sin(freq·t).
func Curve(t, m, freq float64) float64 {
	return math.Exp(m*math.Abs(t)) * math.Sin(freq*t)
}

// Violation returns how far t lies below lo and above hi. At most one of the
// two is non-zero.
func Violation(t, lo, hi float64) (below, above float64) {
	return math.Max(0, lo-t), math.Max(0, t-hi)
}

// Evaluate computes the cost of p against s. NaN samples propagate into the
// result unchanged.
func Evaluate(s *dataset.Samples, p Params, c Constants) Cost {
	var residual, below, above float64
	for i := range s.X {
		t, v := Rotate(s.X[i]-p.X, s.Y[i]-c.YOffset, p.Theta)

		r := v - Curve(t, p.M, c.Frequency)
		residual += r * r

		b, a := Violation(t, c.TMin, c.TMax)
		below += b * b
		above += a * a
	}

	penalty := c.PenaltyWeight * (below + above)
	return Cost{
		Residual: residual,
		Penalty:  penalty,
		Total:    residual + penalty,
	}
}

// Objective returns the total cost of p against s.
func Objective(s *dataset.Samples, p Params, c Constants) float64 {
	return Evaluate(s, p, c).Total
}

// Gradient stores the partial derivatives of Objective with respect to
// (Theta, M, X) in grad, which must have length NumParams.
//
// The derivative of |t| at t == 0 is taken as zero.
func Gradient(grad []float64, s *dataset.Samples, p Params, c Constants) {
	if len(grad) != NumParams {
		panic("model: gradient must have length 3")
	}
	sin, cos := math.Sincos(p.Theta)

	var gTheta, gM, gX float64
	for i := range s.X {
		t, v := Rotate(s.X[i]-p.X, s.Y[i]-c.YOffset, p.Theta)

		abs := math.Abs(t)
		amp := math.Exp(p.M * abs)
		ws, wc := math.Sincos(c.Frequency * t)
		f := amp * ws
		dfdt := amp * (p.M*sign(t)*ws + c.Frequency*wc)
		dfdm := abs * f

		// dt/dθ = v, dv/dθ = -t, dt/dX = -cos, dv/dX = sin.
		r2 := 2 * (v - f)
		gTheta += r2 * (-t - dfdt*v)
		gM += r2 * -dfdm
		gX += r2 * (sin + dfdt*cos)

		b, a := Violation(t, c.TMin, c.TMax)
		dpdt := 2 * c.PenaltyWeight * (a - b)
		gTheta += dpdt * v
		gX += dpdt * -cos
	}

	grad[IndexTheta] = gTheta
	grad[IndexM] = gM
	grad[IndexX] = gX
}

// RotatedT returns the rotated coordinate t of every sample under p.
func RotatedT(s *dataset.Samples, p Params, c Constants) []float64 {
	ts := make([]float64, s.Len())
	for i := range s.X {
		ts[i], _ = Rotate(s.X[i]-p.X, s.Y[i]-c.YOffset, p.Theta)
	}
	return ts
}

// Synthesize builds samples that lie exactly on the model curve for p, one per
// entry of ts. It is the inverse of the translate-and-rotate step.
func Synthesize(ts []float64, p Params, c Constants) *dataset.Samples {
	sin, cos := math.Sincos(p.Theta)
	s := &dataset.Samples{
		X: make([]float64, len(ts)),
		Y: make([]float64, len(ts)),
	}
	for i, t := range ts {
		v := Curve(t, p.M, c.Frequency)
		s.X[i] = t*cos - v*sin + p.X
		s.Y[i] = t*sin + v*cos + c.YOffset
	}
	return s
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
