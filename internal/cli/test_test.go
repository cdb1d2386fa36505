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

const passingScenario = `name: video
description: "required method"
input: |
  #[async_trait]
  pub trait Video {
      async fn run(&self);
  }
assertions:
  - type: no_diagnostics
  - type: method
    method: run
    bound: none
`

const failingScenario = `name: wrong
description: "expects the async keyword to survive"
input: |
  #[async_trait]
  pub trait Video {
      async fn run(&self);
  }
assertions:
  - type: output_contains
    text: "async fn run"
`

const goldenScenario = `name: snapshot
description: "golden output"
input: |
  #[async_trait]
  pub trait Video {
      async fn run(&self);
  }
golden: true
`

// scenarioTree creates <root>/scenarios with the given files and returns
// the scenarios directory.
func scenarioTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	dir := scenarioTree(t, nil)

	out, err := runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	out, err = runTestCommand(t, "json", dir)
	require.NoError(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandPassing(t *testing.T) {
	dir := scenarioTree(t, map[string]string{"video.yaml": passingScenario})

	out, err := runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ video")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestTestCommandFailing(t *testing.T) {
	dir := scenarioTree(t, map[string]string{
		"video.yaml": passingScenario,
		"wrong.yaml": failingScenario,
	})

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "output_contains")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandJSON(t *testing.T) {
	dir := scenarioTree(t, map[string]string{
		"video.yaml": passingScenario,
		"wrong.yaml": failingScenario,
	})

	out, err := runTestCommand(t, "json", dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioTree(t, map[string]string{
		"video.yaml": passingScenario,
		"wrong.yaml": failingScenario,
	})

	out, err := runTestCommand(t, "text", dir, "--filter", "vid*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	_, err = runTestCommand(t, "text", dir, "--filter", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTestCommandGolden(t *testing.T) {
	dir := scenarioTree(t, map[string]string{"snapshot.yaml": goldenScenario})
	goldenPath := filepath.Join(dir, "..", "golden", "snapshot.golden")

	// Missing golden file fails.
	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed to read golden file")

	// --update writes it.
	_, err = runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), "fn run<'async_trait>(&'async_trait self)")

	// Now it matches.
	_, err = runTestCommand(t, "text", dir)
	require.NoError(t, err)

	// A stale golden file fails.
	require.NoError(t, os.WriteFile(goldenPath, []byte("stale\n"), 0644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandCheckedInScenarios(t *testing.T) {
	out, err := runTestCommand(t, "text", "../harness/testdata/scenarios")
	require.NoError(t, err, out)
	assert.Contains(t, out, "All scenarios passed")
}
