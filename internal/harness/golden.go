package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/traitasync/internal/ir"
)

// GoldenDir is the fixture directory for golden files.
const GoldenDir = "testdata/golden"

// reportSnapshot converts the expansion report and diagnostics of a result
// into an IR value for canonical JSON serialization.
func reportSnapshot(name string, result *Result) ir.Value {
	items := make(ir.List, len(result.Items))
	for i, item := range result.Items {
		items[i] = item.ToValue()
	}
	diags := make(ir.List, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		diags[i] = d.ToValue()
	}
	return ir.Object{
		"scenario_name": ir.Str(name),
		"version":       ir.Str(ir.ReportVersion),
		"items":         items,
		"diagnostics":   diags,
	}
}

func marshalReport(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(reportSnapshot(name, result))
}

func newGoldie(t *testing.T, dir, suffix string) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(suffix),
	)
}

// RunWithGolden executes a scenario and compares the expanded output
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, GoldenDir, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the expanded output of a result against
// {dir}/{name}.golden without re-running the scenario.
func AssertGolden(t *testing.T, dir, name string, result *Result) {
	t.Helper()
	newGoldie(t, dir, ".golden").Assert(t, name, []byte(result.Output))
}

// AssertReportGolden compares the canonical JSON of the expansion report
// against {dir}/{name}.report.golden. Item and method IDs are content
// hashes, so the snapshot changes whenever an expanded item does.
func AssertReportGolden(t *testing.T, dir, name string, result *Result) error {
	t.Helper()

	data, err := marshalReport(name, result)
	if err != nil {
		return err
	}
	newGoldie(t, dir, ".report.golden").Assert(t, name, data)
	return nil
}

// UpdateGolden writes the golden files for a result, output and report.
func UpdateGolden(t *testing.T, dir, name string, result *Result) error {
	t.Helper()

	if err := newGoldie(t, dir, ".golden").Update(t, name, []byte(result.Output)); err != nil {
		return err
	}
	data, err := marshalReport(name, result)
	if err != nil {
		return err
	}
	return newGoldie(t, dir, ".report.golden").Update(t, name, data)
}
