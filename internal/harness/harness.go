package harness

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/traitasync/internal/config"
	"github.com/roach88/traitasync/internal/expand"
)

// Harness runs scenarios against a base configuration.
type Harness struct {
	base   config.Config
	logger *zap.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithConfig sets the configuration scenario overrides are applied to.
func WithConfig(cfg config.Config) Option {
	return func(h *Harness) { h.base = cfg }
}

// WithLogger sets the logger for scenario progress.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a harness with the default configuration and a no-op
// logger.
func New(opts ...Option) *Harness {
	h := &Harness{base: config.Default(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a test scenario with the default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Apply the scenario's config overrides
// 2. Expand the input unit
// 3. Evaluate assertions against output, report and diagnostics
//
// The returned error is non-nil only when the scenario cannot run at all:
// an invalid configuration or an input that cannot be scanned.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	cfg := scenario.Config.apply(h.base)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario config: %w", err)
	}

	unit, err := expand.ExpandUnit(scenario.Input, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to expand input: %w", err)
	}

	result := NewResult()
	result.Output = unit.Output
	result.Items = unit.Items
	result.Diagnostics = unit.Diagnostics

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, scenario.Input) {
		result.AddError(errMsg)
	}

	h.logger.Debug("scenario finished",
		zap.String("scenario", scenario.Name),
		zap.Bool("pass", result.Pass),
		zap.Int("items", len(result.Items)),
		zap.Int("diagnostics", len(result.Diagnostics)))
	return result, nil
}
