package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/logging"
)

// setupLogging configures logging from cfg and the --debug flag, and
// stores the logger and a trace ID on the command context.
func setupLogging(cmd *cobra.Command, cfg *config.Config) logging.LogPathResult {
	debug, _ := cmd.Flags().GetBool("debug")
	loggingCfg := cfg.Logging.ToLoggingConfig(debug)
	loggingCfg.Format = cfg.Logging.FormatFor(cmd.Name() == "serve")
	if debug {
		loggingCfg.Format = logging.FormatConsole
	}

	result := logging.NewLoggerWithPath(loggingCfg)
	logging.SetGlobal(result.Logger)
	baseLogger = result.Logger
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = logger.WithContext(ctx)
	cmd.SetContext(ctx)

	logger.Debug().Ctx(ctx).
		Str("command", cmd.Name()).
		Str("config_path", cfg.Path()).
		Bool("api_key_loaded", cfg.Estimator.Configured()).
		Msg("command started")

	return result
}
