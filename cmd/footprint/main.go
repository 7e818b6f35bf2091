// Command footprint estimates personal carbon footprints from the command
// line, an interactive wizard, or an HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rshade/footprint/internal/cli"
	"github.com/rshade/footprint/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	err := root.ExecuteContext(context.Background())
	if err != nil {
		var partial *cli.PartialResultError
		if !errors.As(err, &partial) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	return extractExitCode(err)
}

// extractExitCode maps a command error to a process exit code.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}
	var partial *cli.PartialResultError
	if errors.As(err, &partial) {
		return partial.ExitCode
	}
	return 1
}
