package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/factors"
	"github.com/rshade/footprint/internal/greenops"
	"github.com/rshade/footprint/internal/router"
)

// tabwriterPadding is the minimum padding between table columns.
const tabwriterPadding = 2

// NewFactorsCmd creates the factors command, which prints the emission
// factor table and optionally the routing decision for every key.
func NewFactorsCmd() *cobra.Command {
	var (
		routes bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Show emission factors and routing",
		Example: `  # Factor table
  footprint factors

  # Include local/external routing for the current configuration
  footprint factors --routes --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromContext(cmd.Context())
			table := factors.Default()

			var rules []router.Rule
			if routes {
				r, err := newRouter(cfg, newAdapter(cfg))
				if err != nil {
					return err
				}
				rules = r.Table()
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Factors []factors.Factor `json:"factors"`
					Routes  []router.Rule    `json:"routes,omitempty"`
				}{table.All(), rules})
			}
			return renderFactors(cmd, table, rules)
		},
	}

	cmd.Flags().BoolVar(&routes, "routes", false, "include the routing decision for each key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func renderFactors(cmd *cobra.Command, table *factors.Table, rules []router.Rule) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabwriterPadding, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tKEY\tKG CO2E\tPER")
	for _, f := range table.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Category, f.Key, greenops.FormatFloat(f.KgPerUnit, 4), f.Unit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}

	cmd.Println()
	tw = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabwriterPadding, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tKEY\tMETHOD\tREASON")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Category, r.Key, r.Method, r.Reason)
	}
	return tw.Flush()
}
