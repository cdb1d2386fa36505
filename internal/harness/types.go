package harness

import (
	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/expand"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Output is the expanded source unit.
	Output string `json:"output"`

	// Items reports the expanded items in source order.
	Items []expand.ItemReport `json:"items"`

	// Diagnostics collects the errors of items that failed to expand.
	Diagnostics diag.List `json:"diagnostics,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// method finds the report of a rewritten method by name across all items.
func (r *Result) method(name string) (expand.MethodReport, bool) {
	for _, item := range r.Items {
		for _, m := range item.Methods {
			if m.Name == name {
				return m, true
			}
		}
	}
	return expand.MethodReport{}, false
}
