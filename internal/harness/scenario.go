package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/traitasync/internal/config"
	"github.com/roach88/traitasync/internal/diag"
)

// Scenario defines an expansion test scenario.
// A scenario expands one source unit and asserts on the output text, the
// expansion report and the diagnostics.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the source unit to expand.
	Input string `yaml:"input,omitempty"`

	// InputFile is a path to the source unit, used when Input is empty.
	// Relative paths are resolved against the scenario file location.
	InputFile string `yaml:"input_file,omitempty"`

	// Config overrides the default tool configuration.
	Config *ConfigOverride `yaml:"config,omitempty"`

	// Assertions validate the expansion.
	// Supported types: output_contains, output_not_contains, diagnostic,
	// no_diagnostics, method, item_count
	Assertions []Assertion `yaml:"assertions"`

	// Golden compares the expanded output with testdata/golden/{name}.golden.
	Golden bool `yaml:"golden,omitempty"`
}

// ConfigOverride lists the configuration fields a scenario may set.
// Unset fields keep their defaults.
type ConfigOverride struct {
	Attribute        string   `yaml:"attribute,omitempty"`
	CallScope        string   `yaml:"call_scope,omitempty"`
	HiddenReferences []string `yaml:"hidden_references,omitempty"`
	ForceLocal       bool     `yaml:"force_local,omitempty"`
}

// apply returns cfg with the override's set fields.
func (o *ConfigOverride) apply(cfg config.Config) config.Config {
	if o == nil {
		return cfg
	}
	if o.Attribute != "" {
		cfg.Attribute = o.Attribute
	}
	if o.CallScope != "" {
		cfg.CallScope = o.CallScope
	}
	if len(o.HiddenReferences) > 0 {
		cfg.HiddenReferences = append([]string(nil), o.HiddenReferences...)
	}
	cfg.ForceLocal = cfg.ForceLocal || o.ForceLocal
	return cfg
}

// Assertion represents a single assertion on an expansion.
type Assertion struct {
	// Type determines which assertion logic to apply.
	Type string `yaml:"type"`

	// Text is the fragment searched for by output_contains and
	// output_not_contains.
	Text string `yaml:"text,omitempty"`

	// Code is the diagnostic code for diagnostic assertions.
	Code string `yaml:"code,omitempty"`

	// Span is the source text the diagnostic must point at (optional).
	Span string `yaml:"span,omitempty"`

	// Method names the rewritten method for method assertions.
	Method string `yaml:"method,omitempty"`

	// Receiver, Bound and CallScope are compared when set.
	Receiver  string `yaml:"receiver,omitempty"`
	Bound     string `yaml:"bound,omitempty"`
	CallScope string `yaml:"call_scope,omitempty"`

	// Count is the expected number of expanded items for item_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains    = "output_contains"
	AssertOutputNotContains = "output_not_contains"
	AssertDiagnostic        = "diagnostic"
	AssertNoDiagnostics     = "no_diagnostics"
	AssertMethod            = "method"
	AssertItemCount         = "item_count"
)

var knownCodes = map[string]bool{
	string(diag.CodeMalformedTarget):      true,
	string(diag.CodeInvalidConfiguration): true,
	string(diag.CodeAmbiguousBorrowScope): true,
	string(diag.CodeObjectSafetyConflict): true,
	string(diag.CodeParseError):           true,
	string(diag.CodeInternal):             true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative input_file is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving input_file relative to the provided base path and reading it
// into Input.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Input == "" && scenario.InputFile != "" {
		inputPath := scenario.InputFile
		if !filepath.IsAbs(inputPath) && basePath != "" {
			inputPath = filepath.Join(basePath, inputPath)
		}
		input, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: input file not found: %w", err)
		}
		scenario.Input = string(input)
	}

	// Validate required fields
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Input == "" {
		return fmt.Errorf("input or input_file is required")
	}

	if len(s.Assertions) == 0 && !s.Golden {
		return fmt.Errorf("assertions list is required unless golden is set")
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputContains, AssertOutputNotContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic", index)
		}
		if !knownCodes[a.Code] {
			return fmt.Errorf("assertions[%d]: unknown diagnostic code %q", index, a.Code)
		}
	case AssertNoDiagnostics:
	case AssertMethod:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for method", index)
		}
	case AssertItemCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
