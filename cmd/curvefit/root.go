package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/curvefit/internal/config"
	"github.com/copyleftdev/curvefit/internal/fit"
	"github.com/copyleftdev/curvefit/internal/logging"
	"github.com/copyleftdev/curvefit/internal/metrics"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curvefit",
		Short: "Fit a rotated, exponentially modulated sine curve to (x, y) samples",
		Long: `curvefit reads the x and y columns of a delimited table and finds the
rotation angle theta, growth rate M and offset X that best explain them.
Every setting is read from the environment or a .env file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd)
		},
	}
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger = logger.With(
		zap.String("service", "curvefit"),
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
	)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fit.NewRunner(cfg, logger, metrics.New(), cmd.OutOrStdout()).Run(ctx)
	return nil
}
