package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioDir = "testdata/scenarios"

// TestScenarios runs every checked-in scenario, with golden comparison
// where requested.
func TestScenarios(t *testing.T) {
	paths, err := FindScenarios(scenarioDir)
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			var result *Result
			if scenario.Golden {
				result, err = RunWithGolden(t, scenario)
			} else {
				result, err = Run(scenario)
			}
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunSuite_CheckedIn(t *testing.T) {
	result, err := RunSuite(scenarioDir)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed, "failures: %v", result.Failures)
	assert.Equal(t, result.TotalScenarios, result.Passed)
}

func TestRunSuite_Failures(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("a_pass.yaml", "name: a\ndescription: d\ninput: \"trait A {}\"\nassertions:\n  - type: item_count\n    count: 0\n")
	write("b_fail.yml", "name: b\ndescription: d\ninput: \"trait A {}\"\nassertions:\n  - type: item_count\n    count: 1\n")
	write("c_invalid.yaml", "name: c\n")
	write("d_unscannable.yaml", "name: d\ndescription: d\ninput: \"trait A {\"\nassertions:\n  - type: no_diagnostics\n")
	write("notes.txt", "not a scenario")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0755))

	result, err := RunSuite(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalScenarios)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Failures, 3)

	assert.Equal(t, "b", result.Failures[0].Scenario)
	assert.Contains(t, result.Failures[0].Error, "scenario assertions failed")
	assert.Contains(t, result.Failures[1].Error, "failed to load scenario")
	assert.Empty(t, result.Failures[1].Scenario)
	assert.Contains(t, result.Failures[2].Error, "scenario execution failed")
}

func TestFindScenarios_MissingDir(t *testing.T) {
	_, err := FindScenarios(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario directory")
}
