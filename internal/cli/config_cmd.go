package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/router"
)

// NewConfigValidateCmd creates the config validate command.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Validates the loaded configuration.

This includes:
- Structural validation of every section
- The estimator data_version semver constraint
- Routing: every external trip mode must have an external mapping
- Warnings for an API key that is missing or unused`,
		Example: `  # Validate current configuration
  footprint config validate

  # Validate a specific file and show details
  footprint --config ./footprint.yaml config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")
	return cmd
}

func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := configFromContext(cmd.Context())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	adapter := newAdapter(cfg)
	result := router.Validate(cfg.Routing, adapter, adapter.Configured())
	if !result.Valid {
		cmd.PrintErrln("Routing configuration errors:")
		errs := make([]error, 0, len(result.Errors))
		for _, e := range result.Errors {
			cmd.PrintErrf("  - %s\n", e.Error())
			errs = append(errs, e)
		}
		return fmt.Errorf("routing configuration has %d error(s): %w", len(result.Errors), errors.Join(errs...))
	}
	if len(result.Warnings) > 0 {
		cmd.Println("Configuration warnings:")
		for _, w := range result.Warnings {
			cmd.Printf("  - %s: %s\n", w.Field, w.Message)
		}
		cmd.Println()
	}
	cmd.Println("Configuration is valid")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}
	return nil
}

func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	path := cfg.Path()
	if path == "" {
		path = "(defaults, no file)"
	}
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", path)
	cmd.Printf("  API key loaded: %t\n", cfg.Estimator.Configured())
	cmd.Printf("  Endpoint: %s\n", cfg.Estimator.Endpoint)
	cmd.Printf("  Data version: %s\n", cfg.Estimator.DataVersion)
	cmd.Printf("  Timeout: %s (retries: %d)\n", cfg.Estimator.Timeout, cfg.Estimator.MaxRetries)
	cmd.Printf("  External modes: %v\n", cfg.Routing.ExternalModes)
	cmd.Printf("  External electricity: %t\n", cfg.Routing.ExternalElectricityEnabled())
	cmd.Printf("  Unconfigured policy: %s\n", cfg.Routing.Policy())
	cmd.Printf("  Concurrency: %d\n", cfg.Engine.Concurrency)
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
}

// NewConfigShowCmd creates the config show command. The API key is masked.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := configFromContext(cmd.Context()).Redacted().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// NewConfigPathCmd creates the config path command.
func NewConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if p := configFromContext(cmd.Context()).Path(); p != "" {
				cmd.Println(p)
				return nil
			}
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			cmd.Printf("%s (not present)\n", p)
			return nil
		},
	}
}
