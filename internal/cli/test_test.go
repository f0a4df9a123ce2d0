package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTestCommand(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommand_HarnessScenarios(t *testing.T) {
	out, err := runTestCommand(t, newTestRootOptions("text", ""), scenariosDir, "--golden", goldenDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ cross_dialect")
	assert.Contains(t, out, "✓ sqlite_lifecycle")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_JSONParallel(t *testing.T) {
	out, err := runTestCommand(t, newTestRootOptions("json", ""), scenariosDir, "--golden", goldenDir, "--parallel", "1")
	require.NoError(t, err, out)

	var resp struct {
		Status  string     `json:"status"`
		TraceID string     `json:"trace_id"`
		Data    TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "trace-test", resp.TraceID)
	assert.Equal(t, 2, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	// File order
	assert.Equal(t, "cross_dialect", resp.Data.Scenarios[0].Name)
	assert.Equal(t, "sqlite_lifecycle", resp.Data.Scenarios[1].Name)
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := runTestCommand(t, newTestRootOptions("text", ""), scenariosDir, "--golden", goldenDir, "--filter", "sqlite_*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "cross_dialect")
}

func TestTestCommand_InvalidFilter(t *testing.T) {
	_, err := runTestCommand(t, newTestRootOptions("text", ""), scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_NoScenarios(t *testing.T) {
	out, err := runTestCommand(t, newTestRootOptions("text", ""), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := runTestCommand(t, newTestRootOptions("text", ""), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

const inlineScenario = `name: inline_select
description: "One inline select"
dialect: postgres
steps:
  - query:
      operation: select
      table: { name: users }
      where: [{ column: id, op: EQ, value: 7 }]
    expect:
      text: SELECT * FROM users WHERE id = ?
      args: [7]
`

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inline.yaml"), []byte(inlineScenario), 0644))

	out, err := runTestCommand(t, newTestRootOptions("text", ""), dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ inline_select (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "inline_select.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "inline_select"`)
	assert.Contains(t, string(golden), `"text": "SELECT * FROM users WHERE id = ?"`)

	out, err = runTestCommand(t, newTestRootOptions("text", ""), dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ inline_select\n")
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inline.yaml"), []byte(inlineScenario), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "inline_select.golden"), []byte("{}\n"), 0644))

	out, err := runTestCommand(t, newTestRootOptions("text", ""), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ inline_select")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommand_FailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong_text
description: "Expectation that does not hold"
dialect: mysql
steps:
  - query: { operation: select, table: { name: users } }
    expect: { text: SELECT id FROM users }
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("name: broken\n"), 0644))

	out, err := runTestCommand(t, newTestRootOptions("json", ""), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Error  CLIError   `json:"error"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)

	assert.Equal(t, "broken.yml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")

	assert.Equal(t, "wrong_text", resp.Data.Scenarios[1].Name)
	assert.Contains(t, resp.Data.Scenarios[1].Errors[0], "text mismatch")
}
