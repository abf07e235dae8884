// Package model defines the rotated, amplitude-modulated sinusoid and the
// penalized least-squares cost used to fit it.
//
// Samples are translated by (X, YOffset), rotated by Theta into (t, v), and the
// perpendicular coordinate v is compared with exp(M·|t|)·sin(Frequency·t).
// Samples whose t leaves [TMin, TMax] add a quadratic penalty scaled by
// PenaltyWeight.
package model

import "math"

// Parameter indices in the packed vector handed to the optimizer.
const (
	IndexTheta = iota
	IndexM
	IndexX

	// NumParams is the dimension of the parameter vector.
	NumParams
)

// Params is the fitted parameter vector.
type Params struct {
	// Theta is the rotation angle in radians.
	Theta float64
	// M is the exponential growth-rate coefficient.
	M float64
	// X is the x-axis center offset.
	X float64
}

// Slice packs p in optimizer order.
func (p Params) Slice() []float64 {
	return []float64{p.Theta, p.M, p.X}
}

// ParamsFromSlice unpacks an optimizer vector. It panics if len(x) != NumParams.
func ParamsFromSlice(x []float64) Params {
	if len(x) != NumParams {
		panic("model: parameter vector must have length 3")
	}
	return Params{Theta: x[IndexTheta], M: x[IndexM], X: x[IndexX]}
}

// ThetaDegrees returns Theta converted to degrees.
func (p Params) ThetaDegrees() float64 {
	return RadToDeg(p.Theta)
}

// Constants are the fixed, non-fitted values of the model.
type Constants struct {
	// YOffset is subtracted from every y before rotation.
	YOffset float64
	// Frequency is the angular frequency of the sinusoid in t.
	Frequency float64
	// TMin and TMax bound the admissible rotated coordinate t.
	TMin float64
	TMax float64
	// PenaltyWeight scales the squared range violations of t.
	PenaltyWeight float64
}

// DefaultConstants returns the constants the model was designed with.
func DefaultConstants() Constants {
	return Constants{
		YOffset:       42.0,
		Frequency:     0.3,
		TMin:          6.0,
		TMax:          60.0,
		PenaltyWeight: 1e6,
	}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
