package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/report"
	"github.com/rshade/footprint/internal/tui"
)

// PartialExitCode is the exit code used by --fail-on-partial.
const PartialExitCode = 2

// PartialResultError reports that some records could not be estimated and
// the caller asked to treat that as a failure.
type PartialResultError struct {
	ExitCode int
	Failed   int
}

func (e *PartialResultError) Error() string {
	return fmt.Sprintf("%d record(s) could not be estimated", e.Failed)
}

// calculateFlags holds the calculate command's flag values.
type calculateFlags struct {
	input         string
	inputFormat   string
	format        string
	output        string
	interactive   bool
	failOnPartial bool
	noColor       bool

	mode        string
	distance    float64
	unit        string
	origin      string
	destination string

	kwh    float64
	region string

	diet  string
	meals int

	expenseCategory    string
	expenseAmount      float64
	expenseDescription string
}

// NewCalculateCmd creates the calculate command.
func NewCalculateCmd() *cobra.Command {
	var f calculateFlags

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Estimate the footprint of a day's activities",
		Long: `Estimates kg CO2e for trips, electricity, purchases and meals.

Activities come from an input file (--input), from the quick flags, or
from both; quick-flag records are appended after the file's records.
Records that cannot be estimated are listed separately and are never
counted as zero.`,
		Example: `  # One car trip in miles
  footprint calculate --mode car --distance 12 --unit mile

  # A full day from a YAML file, written as NDJSON
  footprint calculate --input day.yaml --format ndjson --output day.ndjson

  # Exit with code 2 if any record fails
  footprint calculate --input day.yaml --fail-on-partial`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalculate(cmd, &f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "activity file (YAML or JSON, - for stdin)")
	flags.StringVar(&f.inputFormat, "input-format", "", "input encoding: yaml or json (default from file extension)")
	flags.StringVarP(&f.format, "format", "f", "", "output format: table, json or ndjson (default from config)")
	flags.StringVarP(&f.output, "output", "o", "", "write the report to a file instead of stdout")
	flags.BoolVar(&f.interactive, "interactive", false, "run the interactive wizard")
	flags.BoolVar(&f.failOnPartial, "fail-on-partial", false,
		fmt.Sprintf("exit with code %d when any record could not be estimated", PartialExitCode))
	flags.BoolVar(&f.noColor, "no-color", false, "disable styled table output")

	flags.StringVar(&f.mode, "mode", "", "trip mode: car, electricCar, bus, train, flightShort, bike, walk")
	flags.Float64Var(&f.distance, "distance", 0, "trip distance")
	flags.StringVar(&f.unit, "unit", "km", "trip distance unit: km or mile")
	flags.StringVar(&f.origin, "from", "", "trip origin")
	flags.StringVar(&f.destination, "to", "", "trip destination")
	flags.Float64Var(&f.kwh, "kwh", 0, "electricity used in kWh")
	flags.StringVar(&f.region, "region", "", "electricity grid region (default us)")
	flags.StringVar(&f.diet, "diet", "", "meal diet: meatHeavy, mixed, vegetarian, vegan")
	flags.IntVar(&f.meals, "meals", 0, "number of meals")
	flags.StringVar(&f.expenseCategory, "expense-category", "", "purchase category: groceries, apparel, electronics, dining, other")
	flags.Float64Var(&f.expenseAmount, "expense-amount", 0, "purchase amount")
	flags.StringVar(&f.expenseDescription, "expense-description", "", "purchase description")

	return cmd
}

func runCalculate(cmd *cobra.Command, f *calculateFlags) error {
	ctx := cmd.Context()
	cfg := configFromContext(ctx)

	format := f.format
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	switch format {
	case report.FormatTable, report.FormatJSON, report.FormatNDJSON:
	default:
		return fmt.Errorf("unsupported output format %q (want table, json or ndjson)", format)
	}

	calc, err := newCalculator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building estimator: %w", err)
	}

	if f.interactive {
		if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
			return errors.New("--interactive requires a terminal")
		}
		snap, runErr := tui.Run(ctx, calc.Calculate, f.region)
		if runErr != nil {
			return fmt.Errorf("running wizard: %w", runErr)
		}
		return checkPartial(f, snap)
	}

	in, err := collectInput(cmd, f)
	if err != nil {
		return err
	}
	if !hasActivity(in) {
		return errors.New("no activities given: use --input or the quick flags (see --help)")
	}

	snap, err := calc.Calculate(ctx, in)
	if err != nil {
		return fmt.Errorf("calculating footprint: %w", err)
	}
	logger.Info().Ctx(ctx).
		Str("operation", "calculate").
		Str("snapshot_id", snap.ID).
		Float64("total_kg", snap.Totals.TotalKg).
		Int("failed", len(snap.Failures)).
		Msg("calculation complete")

	if err = writeReport(cmd, f, format, report.Build(snap)); err != nil {
		return err
	}
	return checkPartial(f, snap)
}

func checkPartial(f *calculateFlags, snap *engine.Snapshot) error {
	if f.failOnPartial && snap.Partial() {
		return &PartialResultError{ExitCode: PartialExitCode, Failed: len(snap.Failures)}
	}
	return nil
}

// hasActivity reports whether in carries anything beyond the implicit
// zero electricity record.
func hasActivity(in activity.Input) bool {
	return len(in.Trips) > 0 || len(in.Expenses) > 0 || len(in.Meals) > 0 || in.Electricity.Amount > 0
}

// collectInput reads the input file, if any, and appends quick-flag records.
func collectInput(cmd *cobra.Command, f *calculateFlags) (activity.Input, error) {
	var in activity.Input
	if f.input != "" {
		decoded, err := readInputFile(cmd, f.input, f.inputFormat)
		if err != nil {
			return activity.Input{}, err
		}
		in = decoded
	}

	flags := cmd.Flags()
	if flags.Changed("mode") || flags.Changed("distance") {
		in.Trips = append(in.Trips, activity.Trip{
			Mode:         activity.ResolveTripMode(f.mode),
			Distance:     f.distance,
			DistanceUnit: activity.ResolveDistanceUnit(f.unit),
			Origin:       f.origin,
			Destination:  f.destination,
		})
	}
	if flags.Changed("kwh") {
		in.Electricity.Amount = f.kwh
		in.Electricity.EnergyUnit = activity.UnitKWh
	}
	if flags.Changed("region") || in.Electricity.GridRegion == "" {
		in.Electricity.GridRegion = activity.NormalizeRegion(f.region)
	}
	if flags.Changed("meals") || flags.Changed("diet") {
		in.Meals = append(in.Meals, activity.Meal{DietType: activity.ResolveDietType(f.diet), Count: f.meals})
	}
	if flags.Changed("expense-amount") || flags.Changed("expense-category") {
		in.Expenses = append(in.Expenses, activity.Expense{
			Category:    activity.ResolveExpenseCategory(f.expenseCategory),
			Amount:      f.expenseAmount,
			Description: f.expenseDescription,
		})
	}
	return in, nil
}

func readInputFile(cmd *cobra.Command, path, format string) (activity.Input, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			format = string(activity.FormatJSON)
		default:
			format = string(activity.FormatYAML)
		}
	}

	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		file, err := os.Open(path)
		if err != nil {
			return activity.Input{}, fmt.Errorf("opening input: %w", err)
		}
		defer file.Close()
		r = file
	}

	in, err := activity.Decode(r, activity.Format(strings.ToLower(format)))
	if err != nil {
		return activity.Input{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return in, nil
}

func writeReport(cmd *cobra.Command, f *calculateFlags, format string, s report.Summary) error {
	w := cmd.OutOrStdout()
	styled := !f.noColor && f.output == "" && w == os.Stdout && isTerminal(os.Stdout)

	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := report.Render(w, format, s, report.TableOptions{Styled: styled}); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if f.output != "" {
		cmd.PrintErrf("Report written to %s\n", f.output)
	}
	return nil
}
