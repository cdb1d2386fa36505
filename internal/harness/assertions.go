package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Full expanded output for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Full output for context
	if e.Output != "" {
		fmt.Fprintf(&buf, "\nFull output:\n")
		for i, line := range strings.Split(e.Output, "\n") {
			fmt.Fprintf(&buf, "  %3d | %s\n", i+1, line)
		}
	}

	return buf.String()
}

// assertOutputContains checks that the output contains the fragment.
func assertOutputContains(result *Result, assertion Assertion) error {
	if strings.Contains(result.Output, assertion.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputContains,
		Expected: fmt.Sprintf("output containing %q", assertion.Text),
		Actual:   "not found in output",
		Output:   result.Output,
	}
}

// assertOutputNotContains checks that the output does not contain the
// fragment.
func assertOutputNotContains(result *Result, assertion Assertion) error {
	if !strings.Contains(result.Output, assertion.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputNotContains,
		Expected: fmt.Sprintf("output without %q", assertion.Text),
		Actual:   "found in output",
		Output:   result.Output,
	}
}

// assertDiagnostic checks that a diagnostic with the code was reported,
// optionally pointing at the given source text.
func assertDiagnostic(result *Result, assertion Assertion, src string) error {
	for _, d := range result.Diagnostics {
		if string(d.Code) != assertion.Code {
			continue
		}
		if assertion.Span == "" || d.Span.Text(src) == assertion.Span {
			return nil
		}
	}

	expected := assertion.Code
	if assertion.Span != "" {
		expected += fmt.Sprintf(" at %q", assertion.Span)
	}
	return &AssertionError{
		Type:     AssertDiagnostic,
		Expected: expected,
		Actual:   fmt.Sprintf("diagnostics %v", describeDiagnostics(result, src)),
	}
}

// assertNoDiagnostics checks that every item expanded.
func assertNoDiagnostics(result *Result, src string) error {
	if len(result.Diagnostics) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoDiagnostics,
		Expected: "no diagnostics",
		Actual:   fmt.Sprintf("diagnostics %v", describeDiagnostics(result, src)),
	}
}

// assertMethod checks the report of a rewritten method. Only the fields
// set on the assertion are compared.
func assertMethod(result *Result, assertion Assertion) error {
	m, ok := result.method(assertion.Method)
	if !ok {
		return &AssertionError{
			Type:     AssertMethod,
			Expected: fmt.Sprintf("rewritten method %s", assertion.Method),
			Actual:   "method not in report",
		}
	}

	var mismatches []string
	check := func(field, want, got string) {
		if want != "" && want != got {
			mismatches = append(mismatches, fmt.Sprintf("%s=%s (want %s)", field, got, want))
		}
	}
	check("receiver", assertion.Receiver, m.Receiver.String())
	check("bound", assertion.Bound, m.Bound.String())
	check("call_scope", assertion.CallScope, m.CallScope)

	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertMethod,
		Expected: fmt.Sprintf("method %s matching the assertion", assertion.Method),
		Actual:   strings.Join(mismatches, ", "),
	}
}

// assertItemCount checks the number of expanded items.
func assertItemCount(result *Result, assertion Assertion) error {
	if len(result.Items) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertItemCount,
		Expected: fmt.Sprintf("%d expanded items", assertion.Count),
		Actual:   fmt.Sprintf("%d expanded items", len(result.Items)),
	}
}

func describeDiagnostics(result *Result, src string) []string {
	out := make([]string, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		out[i] = fmt.Sprintf("%s at %q", d.Code, d.Span.Text(src))
	}
	return out
}

// EvaluateAssertions runs every assertion against the result and returns
// the failure messages. src is the expanded input, used to resolve
// diagnostic spans.
func EvaluateAssertions(result *Result, assertions []Assertion, src string) []string {
	var errs []string
	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertOutputContains:
			err = assertOutputContains(result, assertion)
		case AssertOutputNotContains:
			err = assertOutputNotContains(result, assertion)
		case AssertDiagnostic:
			err = assertDiagnostic(result, assertion, src)
		case AssertNoDiagnostics:
			err = assertNoDiagnostics(result, src)
		case AssertMethod:
			err = assertMethod(result, assertion)
		case AssertItemCount:
			err = assertItemCount(result, assertion)
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, assertion.Type, err))
		}
	}
	return errs
}
