package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/modelq/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run query scenarios",
		Long: `Run query scenarios using the harness framework.

Each scenario loads a metamodel and a model, runs one query and checks
the expected count, attribute values or error code. When a golden file
exists (golden/<scenario-file>.golden next to the scenario) the result
snapshot must also match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  modelq test ./scenarios
  modelq test ./scenarios --filter "tasks-*"
  modelq test ./scenarios --update
  modelq test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	if len(files) == 0 && opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	h := harness.New(opts.Logger)
	for _, file := range files {
		outcome := runScenario(h, file, opts, cmd)
		if outcome.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, outcome)
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(opts, cmd, result)
}

// findScenarioFiles returns the .yaml and .yml files under dir, in lexical
// order, whose base name without extension matches filter. golden
// directories are skipped.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == goldenDir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			// Pattern was checked above.
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario runs one scenario file, prints its outcome line in text
// mode and returns the outcome.
func runScenario(h *harness.Harness, scenarioFile string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	outcome := checkScenario(h, scenarioFile, opts, cmd)

	if opts.Format != "json" {
		w := cmd.OutOrStdout()
		switch {
		case outcome.Pass && opts.Update:
			fmt.Fprintf(w, "✓ %s (golden updated)\n", outcome.Name)
		case outcome.Pass:
			fmt.Fprintf(w, "✓ %s\n", outcome.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", outcome.Name)
			for _, e := range outcome.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}
	return outcome
}

// checkScenario loads and runs a scenario, then checks its expectations
// and, unless updating, its golden file when one exists. With --update the
// golden file is rewritten whatever the expectations say.
func checkScenario(h *harness.Harness, scenarioFile string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(scenarioFile),
			Errors: []string{fmt.Sprintf("Load error: %v", err)},
		}
	}

	fail := func(format string, args ...any) ScenarioResult {
		return ScenarioResult{Name: scenario.Name, Errors: []string{fmt.Sprintf(format, args...)}}
	}

	result, err := h.Run(cmd.Context(), scenario)
	if err != nil {
		return fail("Execution error: %v", err)
	}

	goldenPath := goldenFilePath(scenarioFile)
	switch {
	case opts.Update:
		if err := updateGoldenFile(scenario, result, goldenPath); err != nil {
			return fail("Golden update error: %v", err)
		}
	case fileExists(goldenPath):
		match, err := compareWithGolden(scenario, result, goldenPath)
		if err != nil {
			return fail("Golden comparison error: %v", err)
		}
		if !match {
			return fail("Golden file mismatch (run with --update to regenerate)")
		}
	}

	return ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// goldenDir is the directory, next to the scenario files, holding golden files.
const goldenDir = "golden"

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, goldenDir, name+".golden")
}

// updateGoldenFile writes the current snapshot as the golden file.
func updateGoldenFile(scenario *harness.Scenario, result *harness.Result, goldenPath string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	data, err := harness.Snapshot(scenario, result)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(goldenPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}

	return nil
}

// compareWithGolden compares the result snapshot against the golden file.
func compareWithGolden(scenario *harness.Scenario, result *harness.Result, goldenPath string) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}

	currentData, err := harness.Snapshot(scenario, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal current snapshot: %w", err)
	}

	// Compare bytes
	return bytes.Equal(goldenData, currentData), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}

	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText prints the summary line, preceded in table format by one
// row per scenario.
func outputTestText(opts *TestOptions, cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	if opts.Format == "table" {
		rows := make([]table.Row, len(result.Scenarios))
		for i, sc := range result.Scenarios {
			status := "pass"
			if !sc.Pass {
				status = "FAIL"
			}
			rows[i] = table.Row{sc.Name, status, strings.Join(sc.Errors, "; ")}
		}
		newFormatter(opts.RootOptions, cmd).Table(table.Row{"scenario", "result", "errors"}, rows)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
