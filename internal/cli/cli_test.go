package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/cli"
	"github.com/rshade/footprint/internal/report"
)

// isolate points configuration at an empty directory and clears credentials.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FOOTPRINT_HOME", dir)
	t.Setenv("FOOTPRINT_API_KEY", "")
	t.Setenv("CLIMATIQ_API_KEY", "")
	t.Setenv("FOOTPRINT_LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestCalculate_QuickFlags(t *testing.T) {
	isolate(t)

	out, err := execute(t, "calculate", "--mode", "bus", "--distance", "10", "--kwh", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "1.05 kg")
	assert.Contains(t, out, "11.55 kg")
	assert.Contains(t, out, "12.60 kg")
	assert.Contains(t, out, report.TipModerate)
}

func TestCalculate_InputFileJSON(t *testing.T) {
	dir := isolate(t)
	input := writeFile(t, dir, "day.yaml", `
trips:
  - mode: train
    distance: 100
    distanceUnit: km
electricity:
  amount: 10
expenses:
  - category: dining
    amount: "20"
meals:
  - dietType: vegan
    count: 2
`)

	out, err := execute(t, "calculate", "--input", input, "--format", "json")
	require.NoError(t, err)

	var s report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.InDelta(t, 4.1, s.Totals.TravelKg, 1e-9)
	assert.InDelta(t, 3.85, s.Totals.ElectricityKg, 1e-9)
	assert.InDelta(t, 7.8, s.Totals.ExpenseKg, 1e-9)
	assert.InDelta(t, 5.8, s.Totals.MealKg, 1e-9)
	assert.InDelta(t, 15.75, s.Totals.TotalKg, 1e-9)
	assert.False(t, s.Partial)
}

func TestCalculate_OutputFile(t *testing.T) {
	dir := isolate(t)
	target := filepath.Join(dir, "report.ndjson")

	_, err := execute(t, "calculate", "--mode", "walk", "--distance", "3", "--format", "ndjson", "--output", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"trip"`)
	assert.Contains(t, string(data), `"type":"totals"`)
}

func TestCalculate_FailOnPartial(t *testing.T) {
	dir := isolate(t)
	cfgPath := writeFile(t, dir, "config.yaml", "routing:\n  unconfigured_policy: fail\n")

	out, err := execute(t, "--config", cfgPath, "calculate",
		"--mode", "car", "--distance", "10", "--format", "json", "--fail-on-partial")
	require.Error(t, err)

	var partial *cli.PartialResultError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, cli.PartialExitCode, partial.ExitCode)
	assert.Equal(t, 1, partial.Failed)
	assert.Contains(t, out, "configuration_missing")
}

func TestCalculate_PartialWithoutFlagSucceeds(t *testing.T) {
	dir := isolate(t)
	cfgPath := writeFile(t, dir, "config.yaml", "routing:\n  unconfigured_policy: fail\n")

	out, err := execute(t, "--config", cfgPath, "calculate", "--mode", "car", "--distance", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "FAILED RECORDS (1, not included in totals)")
}

func TestCalculate_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no activities", args: []string{"calculate"}, want: "no activities"},
		{name: "bad format", args: []string{"calculate", "--mode", "bus", "--format", "xml"}, want: "unsupported output format"},
		{name: "missing input", args: []string{"calculate", "--input", "/nonexistent/day.yaml"}, want: "opening input"},
		{name: "interactive without a terminal", args: []string{"calculate", "--interactive"}, want: "requires a terminal"},
		{name: "missing explicit config", args: []string{"--config", "/nonexistent/config.yaml", "calculate"}, want: "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFactors(t *testing.T) {
	isolate(t)

	out, err := execute(t, "factors", "--routes")
	require.NoError(t, err)
	assert.Contains(t, out, "flightShort")
	assert.Contains(t, out, "meatHeavy")
	assert.Contains(t, out, "METHOD")

	out, err = execute(t, "factors", "--json")
	require.NoError(t, err)
	var doc struct {
		Factors []map[string]any `json:"factors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.Factors, 17)
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are valid with a warning", func(t *testing.T) {
		isolate(t)
		out, err := execute(t, "config", "validate", "--verbose")
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration is valid")
		assert.Contains(t, out, "no API key configured")
		assert.Contains(t, out, "Unconfigured policy: local")
	})

	t.Run("unmapped external mode is rejected", func(t *testing.T) {
		dir := isolate(t)
		cfgPath := writeFile(t, dir, "config.yaml", "routing:\n  external_modes: [bike]\n")
		_, err := execute(t, "--config", cfgPath, "config", "validate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "routing configuration has 1 error")
	})
}

func TestConfigShowRedactsKey(t *testing.T) {
	isolate(t)
	t.Setenv("FOOTPRINT_API_KEY", "sk-very-secret")

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "sk-very-secret")
}

func TestConfigPath(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "config.yaml"))
	assert.Contains(t, out, "not present")
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "footprint test")
}

func TestPartialResultError(t *testing.T) {
	err := &cli.PartialResultError{ExitCode: cli.PartialExitCode, Failed: 3}
	assert.Equal(t, "3 record(s) could not be estimated", err.Error())
}
