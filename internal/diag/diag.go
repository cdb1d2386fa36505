package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/traitasync/internal/ir"
)

// Code identifies the diagnostic category.
type Code string

const (
	// CodeMalformedTarget indicates the attribute was applied to an item
	// that is neither a trait nor an impl.
	CodeMalformedTarget Code = "MALFORMED_TARGET"

	// CodeInvalidConfiguration indicates an unrecognized attribute
	// argument or configuration value.
	CodeInvalidConfiguration Code = "INVALID_CONFIGURATION"

	// CodeAmbiguousBorrowScope indicates a parameter or return type hides a
	// reference behind a name whose scope cannot be rewritten structurally.
	CodeAmbiguousBorrowScope Code = "AMBIGUOUS_BORROW_SCOPE"

	// CodeObjectSafetyConflict names injected bounds that make a contract
	// unusable as a trait object. The expander does not detect it; the
	// code exists so callers can classify the downstream compiler error.
	CodeObjectSafetyConflict Code = "OBJECT_SAFETY_CONFLICT"

	// CodeParseError indicates a trait or impl that does not parse.
	CodeParseError Code = "PARSE_ERROR"

	// CodeInternal marks a failure of the expander itself on input that
	// parsed.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Phase indicates where in the pipeline the diagnostic was produced.
type Phase string

const (
	PhaseParse     Phase = "parse"
	PhaseClassify  Phase = "classify"
	PhaseElaborate Phase = "elaborate"
	PhaseExpand    Phase = "expand"
	PhaseConfig    Phase = "config"
)

// Diagnostic is a structured error with a source span.
type Diagnostic struct {
	Code    Code
	Phase   Phase
	Message string
	Span    ir.Span
	// Help is an optional suggestion shown under the message.
	Help string
	// File is set by callers that process more than one source unit.
	File string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(d.File)
		b.WriteByte(':')
	}
	if d.Span.IsValid() {
		b.WriteString(d.Span.String())
		b.WriteString(": ")
	} else if d.File != "" {
		b.WriteByte(' ')
	}
	b.WriteString(string(d.Code))
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// Is reports whether target is a diagnostic with the same code.
func (d *Diagnostic) Is(target error) bool {
	t, ok := target.(*Diagnostic)
	return ok && t.Code == d.Code
}

// New creates a diagnostic.
func New(code Code, phase Phase, span ir.Span, format string, args ...any) *Diagnostic {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Diagnostic{Code: code, Phase: phase, Message: msg, Span: span}
}

// WithHelp attaches a suggestion and returns the diagnostic.
func (d *Diagnostic) WithHelp(format string, args ...any) *Diagnostic {
	if len(args) > 0 {
		d.Help = fmt.Sprintf(format, args...)
	} else {
		d.Help = format
	}
	return d
}

// MalformedTarget creates a MALFORMED_TARGET diagnostic.
func MalformedTarget(span ir.Span, found string) *Diagnostic {
	return New(CodeMalformedTarget, PhaseParse, span,
		"expected trait or impl, found %s", found).
		WithHelp("apply the attribute to a trait declaration or an impl block")
}

// InvalidConfiguration creates an INVALID_CONFIGURATION diagnostic.
func InvalidConfiguration(span ir.Span, format string, args ...any) *Diagnostic {
	return New(CodeInvalidConfiguration, PhaseConfig, span, format, args...)
}

// AmbiguousBorrowScope creates an AMBIGUOUS_BORROW_SCOPE diagnostic for a
// type named typeName that hides a reference.
func AmbiguousBorrowScope(span ir.Span, typeName string) *Diagnostic {
	return New(CodeAmbiguousBorrowScope, PhaseElaborate, span,
		"implicit elided lifetime not allowed here: `%s` hides a reference", typeName).
		WithHelp("indicate the anonymous lifetime: `%s<'_>`, or name it explicitly", typeName)
}

// ParseError creates a PARSE_ERROR diagnostic.
func ParseError(span ir.Span, format string, args ...any) *Diagnostic {
	return New(CodeParseError, PhaseParse, span, format, args...)
}

// Internal creates an INTERNAL_ERROR diagnostic from an error that is not
// itself a diagnostic.
func Internal(phase Phase, err error) *Diagnostic {
	return New(CodeInternal, phase, ir.Span{}, "%v", err)
}

// IsCode reports whether err is, or wraps, a diagnostic with the code.
// Every entry of a List is checked.
func IsCode(err error, code Code) bool {
	list, _ := AsList(err)
	for _, d := range list {
		if d.Code == code {
			return true
		}
	}
	return false
}

// List is an ordered collection of diagnostics from one run.
type List []*Diagnostic

// Error implements the error interface by joining the entries.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Error()
	}
	return fmt.Sprintf("%d diagnostics:\n  %s", len(l), strings.Join(msgs, "\n  "))
}

// Unwrap exposes the entries to errors.Is and errors.As.
func (l List) Unwrap() []error {
	out := make([]error, len(l))
	for i, d := range l {
		out[i] = d
	}
	return out
}

// AsList extracts the diagnostics carried by err, either a single
// diagnostic or a list. ok is false when err carries neither.
func AsList(err error) (list List, ok bool) {
	if errors.As(err, &list) {
		return list, true
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		return List{d}, true
	}
	return nil, false
}

// Err returns nil for an empty list and the list otherwise.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// ToValue converts the diagnostic to a canonical report value.
func (d *Diagnostic) ToValue() ir.Value {
	obj := ir.Object{
		"code":    ir.Str(d.Code),
		"phase":   ir.Str(d.Phase),
		"message": ir.Str(d.Message),
	}
	if d.Span.IsValid() {
		obj["line"] = ir.Int(d.Span.Start.Line)
		obj["column"] = ir.Int(d.Span.Start.Column)
	}
	if d.Help != "" {
		obj["help"] = ir.Str(d.Help)
	}
	if d.File != "" {
		obj["file"] = ir.Str(d.File)
	}
	return obj
}
