package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const repoScenarios = "../../testdata/scenarios"

// writeTestScenario writes a one-step scenario against the two-way
// document into dir and returns its path.
func writeTestScenario(t *testing.T, dir, name string, wantCharity int64) string {
	t.Helper()
	config, err := filepath.Abs(twoWayDoc)
	require.NoError(t, err)

	path := filepath.Join(dir, name+".yaml")
	writeFile(t, path, fmt.Sprintf(`name: %s
description: Halve the charity share
config: %s
steps:
  - op: set_share
    key: charity
    value: 0.5
    expect: {charity: %d}
assertions:
  - type: conserved
`, name, config, wantCharity))
	return path
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var result TestResult
	env := decodeEnvelope(t, out, &result)
	assert.Equal(t, "ok", env.Status)
	assert.Equal(t, 0, result.Total)
}

func TestTestCommand_RepoScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), repoScenarios)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ drag-charity\n")
	assert.Contains(t, out, "✓ humble-presets\n")
	assert.Contains(t, out, "✓ rejected-edits\n")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), repoScenarios, "--filter", "drag-*")
	require.NoError(t, err)

	var result TestResult
	decodeEnvelope(t, out, &result)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "drag-charity", result.Scenarios[0].Name)
	assert.True(t, result.Scenarios[0].Pass)
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeTestScenario(t, dir, "wrong", 49)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	env := decodeEnvelope(t, out, &result)
	assert.Equal(t, "error", env.Status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "E_TEST_FAILED", env.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTestCommand_LoadErrorCountsAsFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yaml"), "name: broken\n")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	path := writeTestScenario(t, dir, "halve", 50)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ halve (golden updated)")

	golden, err := os.ReadFile(goldenFilePath(path))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"halve"`)

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ halve\n")

	require.NoError(t, os.WriteFile(goldenFilePath(path), []byte(`{}`), 0644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestHelpText(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "scenarios-dir")
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, goldenFilePath(tc.input))
	}
}
