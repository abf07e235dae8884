package optimization

import (
	"math"

	"github.com/copyleftdev/curvefit/internal/errors"
)

// Validate checks that config describes a well-formed bounded problem.
func Validate(config OptimizerConfig) error {
	if config.Objective == nil {
		return errors.New("objective function is required").
			WithOperation("validate").WithComponent("optimizer")
	}
	if len(config.Bounds) == 0 {
		return errors.New("bounds are required").
			WithOperation("validate").WithComponent("optimizer")
	}
	if len(config.InitialGuess) != len(config.Bounds) {
		return errors.Errorf("initial guess has %d dimensions, bounds have %d",
			len(config.InitialGuess), len(config.Bounds)).
			WithOperation("validate").WithComponent("optimizer")
	}
	for i, b := range config.Bounds {
		if !(b[0] < b[1]) {
			return errors.Errorf("invalid bounds for dimension %d: [%v, %v]", i, b[0], b[1]).
				WithOperation("validate").WithComponent("optimizer")
		}
		x := config.InitialGuess[i]
		if !(x > b[0] && x < b[1]) {
			return errors.Errorf("initial value %v for dimension %d outside (%v, %v)", x, i, b[0], b[1]).
				WithOperation("validate").WithComponent("optimizer")
		}
	}
	return nil
}

// BoxTransform maps an unconstrained vector z onto the open box defined by
// Bounds through a logistic function: p = lo + (hi-lo)/(1+exp(-z)).
type BoxTransform struct {
	Bounds [][2]float64
}

// ToBox writes the box coordinates of z into p.
func (b BoxTransform) ToBox(p, z []float64) {
	for i, bd := range b.Bounds {
		p[i] = bd[0] + (bd[1]-bd[0])*sigmoid(z[i])
	}
}

// FromBox writes the unconstrained coordinates of p into z. p must lie
// strictly inside the box.
func (b BoxTransform) FromBox(z, p []float64) {
	for i, bd := range b.Bounds {
		s := (p[i] - bd[0]) / (bd[1] - bd[0])
		z[i] = math.Log(s / (1 - s))
	}
}

// ChainGradient converts the box-space gradient gp, taken at the image of z,
// into the gradient with respect to z and stores it in gz.
func (b BoxTransform) ChainGradient(gz, gp, z []float64) {
	for i, bd := range b.Bounds {
		s := sigmoid(z[i])
		gz[i] = gp[i] * (bd[1] - bd[0]) * s * (1 - s)
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
