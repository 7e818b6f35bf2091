package config

import (
	"fmt"

	"github.com/rshade/footprint/internal/logging"
)

// LoggingConfig configures structured logging. An empty Format selects
// DefaultLogFormat for commands and DefaultServeLogFormat for the server.
type LoggingConfig struct {
	Level  string `yaml:"level"          json:"level"`
	Format string `yaml:"format"         json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	Caller bool   `yaml:"caller"         json:"caller"`
}

// Validate checks the logging section.
func (l LoggingConfig) Validate() error {
	switch l.Format {
	case logging.FormatJSON, logging.FormatConsole, "":
		return nil
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q",
			logging.FormatJSON, logging.FormatConsole, l.Format)
	}
}

// FormatFor returns the configured format, or the default for a server or
// a one-shot command when none is set.
func (l LoggingConfig) FormatFor(serving bool) string {
	switch {
	case l.Format != "":
		return l.Format
	case serving:
		return DefaultServeLogFormat
	default:
		return DefaultLogFormat
	}
}

// ToLoggingConfig converts the section into a logging.Config. debug forces
// the debug level.
func (l LoggingConfig) ToLoggingConfig(debug bool) logging.Config {
	cfg := logging.Config{
		Level:  l.Level,
		Format: l.Format,
		Output: logging.OutputStderr,
		Caller: l.Caller,
	}
	if l.File != "" {
		cfg.Output = logging.OutputFile
		cfg.File = l.File
	}
	if debug {
		cfg.Level = "debug"
		cfg.Caller = true
	}
	return cfg
}
