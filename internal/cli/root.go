// Package cli implements the footprint command surface.
package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

//nolint:gochecknoglobals // Required for zerolog context integration
var (
	// baseLogger is the configured logger without a component tag.
	baseLogger zerolog.Logger
	// logger is the package-level logger for CLI operations.
	logger zerolog.Logger
)

type configKey struct{}

// configFromContext returns the configuration loaded by the root command,
// or the defaults when a command runs without it.
func configFromContext(ctx context.Context) *config.Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
			return cfg
		}
	}
	return config.Default()
}

// NewRootCmd creates the root Cobra command for the footprint CLI.
// It loads configuration, wires up logging and tracing, and registers the
// calculate, serve, factors, config and version subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var (
		configPath string
		logResult  *logging.LogPathResult
	)

	cmd := &cobra.Command{
		Use:           "footprint",
		Short:         "Personal carbon footprint calculator",
		Long:          "footprint: estimate the kg CO2e of a day's trips, electricity, purchases and meals",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))

			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logResult != nil {
				return logResult.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default $FOOTPRINT_HOME/config.yaml or ~/.footprint/config.yaml)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.AddCommand(
		NewCalculateCmd(),
		NewServeCmd(),
		NewFactorsCmd(),
		newConfigCmd(),
		NewVersionCmd(ver),
	)

	return cmd
}

const rootCmdExample = `  # Estimate a commute and a day of electricity
  footprint calculate --mode car --distance 12 --unit mile --kwh 9.5

  # Estimate everything listed in an activity file, as JSON
  footprint calculate --input day.yaml --format json

  # Walk through the interactive wizard
  footprint calculate --interactive

  # Serve the HTTP API on :3000
  footprint serve

  # Show the emission factor table and routing decisions
  footprint factors --routes

  # Check configuration
  footprint config validate`

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration commands"}
	cmd.AddCommand(NewConfigValidateCmd(), NewConfigShowCmd(), NewConfigPathCmd())
	return cmd
}
