// Package config loads curvefit settings from the environment.
package config

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/copyleftdev/curvefit/internal/errors"
	"github.com/copyleftdev/curvefit/internal/model"
)

// Config holds every tunable of a fit run. All values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	Environment string `env:"CURVEFIT_ENV" envDefault:"development"`
	Data        struct {
		Path      string `env:"CURVEFIT_DATA_PATH" envDefault:"xy_data.csv" validate:"required"`
		Delimiter string `env:"CURVEFIT_DATA_DELIMITER" envDefault:"," validate:"len=1"`
	}
	Model struct {
		YOffset       float64 `env:"CURVEFIT_Y_OFFSET" envDefault:"42.0"`
		Frequency     float64 `env:"CURVEFIT_FREQUENCY" envDefault:"0.3"`
		TMin          float64 `env:"CURVEFIT_T_MIN" envDefault:"6.0"`
		TMax          float64 `env:"CURVEFIT_T_MAX" envDefault:"60.0" validate:"gtfield=TMin"`
		PenaltyWeight float64 `env:"CURVEFIT_PENALTY_WEIGHT" envDefault:"1e6" validate:"gte=0"`
	}
	Bounds struct {
		ThetaMinDeg float64 `env:"CURVEFIT_THETA_MIN_DEG" envDefault:"0"`
		ThetaMaxDeg float64 `env:"CURVEFIT_THETA_MAX_DEG" envDefault:"50" validate:"gtfield=ThetaMinDeg"`
		MMin        float64 `env:"CURVEFIT_M_MIN" envDefault:"-0.05"`
		MMax        float64 `env:"CURVEFIT_M_MAX" envDefault:"0.05" validate:"gtfield=MMin"`
		XMin        float64 `env:"CURVEFIT_X_MIN" envDefault:"0"`
		XMax        float64 `env:"CURVEFIT_X_MAX" envDefault:"100" validate:"gtfield=XMin"`
		Epsilon     float64 `env:"CURVEFIT_BOUND_EPSILON" envDefault:"1e-6" validate:"gte=0"`
	}
	Initial struct {
		ThetaDeg float64 `env:"CURVEFIT_INITIAL_THETA_DEG" envDefault:"25"`
		M        float64 `env:"CURVEFIT_INITIAL_M" envDefault:"0"`
		X        float64 `env:"CURVEFIT_INITIAL_X" envDefault:"50"`
	}
	Optimizer struct {
		FTol           float64 `env:"CURVEFIT_FTOL" envDefault:"1e-15" validate:"gt=0"`
		GTol           float64 `env:"CURVEFIT_GTOL" envDefault:"1e-5" validate:"gt=0"`
		MaxIterations  int     `env:"CURVEFIT_MAX_ITERATIONS" envDefault:"15000" validate:"gt=0"`
		MaxEvaluations int     `env:"CURVEFIT_MAX_EVALUATIONS" envDefault:"15000" validate:"gt=0"`
		Display        bool    `env:"CURVEFIT_DISPLAY" envDefault:"true"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"warn" validate:"oneof=debug info warn error"`
		Format string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=json console"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr" validate:"required"`
	}
	Metrics struct {
		Path string `env:"CURVEFIT_METRICS_PATH"`
	}
}

// EnvFile is the optional dotenv file read before the environment is parsed.
const EnvFile = ".env"

var goValidator = validator.New()

// Load reads the configuration from the environment after applying EnvFile if
// it exists. Variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", EnvFile, err)
	}

	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with every default applied and the
// process environment ignored.
func Default() *Config {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Validate lower-cases the logging level and format, then checks field
// constraints and that the initial guess lies strictly inside the shrunken
// bounds.
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	if err := goValidator.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, e := range ve {
				msgs = append(msgs, fmt.Sprintf("%s %s", e.Namespace(), e.ActualTag()))
			}
			return fmt.Errorf("validate config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("validate config: %w", err)
	}

	names := []string{"theta", "M", "X"}
	guess := c.InitialGuess().Slice()
	for i, b := range c.Box() {
		if !(b[0] < b[1]) {
			return fmt.Errorf("validate config: bound epsilon %v empties the %s interval", c.Bounds.Epsilon, names[i])
		}
		if !(guess[i] > b[0] && guess[i] < b[1]) {
			return fmt.Errorf("validate config: initial %s %v outside (%v, %v)", names[i], guess[i], b[0], b[1])
		}
	}
	return nil
}

// Constants returns the fixed model constants.
func (c *Config) Constants() model.Constants {
	return model.Constants{
		YOffset:       c.Model.YOffset,
		Frequency:     c.Model.Frequency,
		TMin:          c.Model.TMin,
		TMax:          c.Model.TMax,
		PenaltyWeight: c.Model.PenaltyWeight,
	}
}

// Box returns the box for (theta, M, X) in optimizer order, each interval
// shrunk by the bound epsilon on both sides. Theta is in radians.
func (c *Config) Box() [][2]float64 {
	eps := c.Bounds.Epsilon
	return [][2]float64{
		{model.DegToRad(c.Bounds.ThetaMinDeg) + eps, model.DegToRad(c.Bounds.ThetaMaxDeg) - eps},
		{c.Bounds.MMin + eps, c.Bounds.MMax - eps},
		{c.Bounds.XMin + eps, c.Bounds.XMax - eps},
	}
}

// InitialGuess returns the fixed starting point. Theta is in radians.
func (c *Config) InitialGuess() model.Params {
	return model.Params{
		Theta: model.DegToRad(c.Initial.ThetaDeg),
		M:     c.Initial.M,
		X:     c.Initial.X,
	}
}

// Delimiter returns the field separator as a rune.
func (c *Config) Delimiter() rune {
	return []rune(c.Data.Delimiter)[0]
}
