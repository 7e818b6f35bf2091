package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/footprint/pkg/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(ver string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("footprint %s (commit %s)\n", ver, version.GetCommit())
		},
	}
}
