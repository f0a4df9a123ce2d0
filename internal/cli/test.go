package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qforge/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Golden   string // golden directory (default <scenarios-dir>/golden)
	Parallel int    // scenarios run at once; 0 means no limit
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
		Long: `Run scenario files through the compiler and check their expectations.

Each scenario compiles a sequence of query documents, optionally executes
them on a private SQLite database, then evaluates its assertions. When a
golden file named after the scenario exists, the trace must match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  qforge test ./scenarios
  qforge test ./scenarios --filter "sqlite_*"
  qforge test ./scenarios --update
  qforge test ./scenarios --format json --parallel 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "golden file directory (default <scenarios-dir>/golden)")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "maximum scenarios run at once (0 = unlimited)")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Validate directory
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	goldenDir := opts.Golden
	if goldenDir == "" {
		goldenDir = filepath.Join(scenariosDir, "golden")
	}

	// Find scenario files
	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{
				Scenarios: []ScenarioResult{},
				Total:     0,
			})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	// Load every scenario first; load failures are reported in file order
	// alongside the runs.
	results := make([]ScenarioResult, len(scenarioFiles))
	var scenarios []*harness.Scenario
	var slots []int
	for i, file := range scenarioFiles {
		formatter.VerboseLog("Loading %s", file)
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			results[i] = ScenarioResult{
				Name:   filepath.Base(file),
				Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
			}
			continue
		}
		scenarios = append(scenarios, scenario)
		slots = append(slots, i)
	}

	runs, err := harness.RunAll(cmd.Context(), scenarios, opts.Parallel, harness.WithLogger(opts.logger()))
	if err != nil {
		return WrapExitError(ExitCommandError, "execution failed", err)
	}

	for k, run := range runs {
		results[slots[k]] = checkScenario(scenarios[k], run, goldenDir, opts.Update)
	}

	result := TestResult{
		Scenarios: results,
		Total:     len(results),
	}
	for _, r := range results {
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	// Output results
	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}

	return outputTestText(formatter, result, opts.Update)
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			base := filepath.Base(path)
			name := strings.TrimSuffix(base, ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// checkScenario combines a run's own verdict with the golden comparison.
// Without a golden file only the scenario's expectations and assertions
// count.
func checkScenario(scenario *harness.Scenario, run *harness.Result, goldenDir string, update bool) ScenarioResult {
	res := ScenarioResult{Name: scenario.Name, Pass: run.Pass, Errors: run.Errors}
	goldenPath := goldenFilePath(goldenDir, scenario.Name)

	if update {
		if err := updateGoldenFile(scenario, run, goldenPath); err != nil {
			return ScenarioResult{
				Name:   scenario.Name,
				Errors: []string{fmt.Sprintf("failed to update golden file: %v", err)},
			}
		}
		return res
	}

	if _, err := os.Stat(goldenPath); os.IsNotExist(err) {
		return res
	}

	match, err := compareWithGolden(scenario, run, goldenPath)
	if err != nil {
		res.Pass = false
		res.Errors = append(res.Errors, fmt.Sprintf("golden comparison failed: %v", err))
		return res
	}
	if !match {
		res.Pass = false
		res.Errors = append(res.Errors, "trace does not match golden file (run with --update to regenerate)")
	}
	return res
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(goldenDir, name string) string {
	return filepath.Join(goldenDir, name+".golden")
}

// updateGoldenFile writes the current trace as the golden file.
func updateGoldenFile(scenario *harness.Scenario, result *harness.Result, goldenPath string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	data, err := harness.Snapshot(scenario, result)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	if err := os.WriteFile(goldenPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}

	return nil
}

// compareWithGolden compares the result trace against the golden file.
func compareWithGolden(scenario *harness.Scenario, result *harness.Result, goldenPath string) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}

	currentData, err := harness.Snapshot(scenario, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal current trace: %w", err)
	}

	return bytes.Equal(goldenData, currentData), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
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
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := formatter.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(formatter *OutputFormatter, result TestResult, update bool) error {
	w := formatter.Writer

	for _, s := range result.Scenarios {
		switch {
		case s.Pass && update:
			fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
		case s.Pass:
			fmt.Fprintf(w, "✓ %s\n", s.Name)
		default:
			fmt.Fprintf(w, "✗ %s\n", s.Name)
			for _, e := range s.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
