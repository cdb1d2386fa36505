// Package diag defines the structured diagnostics produced by traitasync.
//
// The core never renders diagnostics; it returns *Diagnostic records that
// carry a code, the pipeline phase, a message and a source span. Rendering
// is left to the caller (the CLI formats them as text or JSON).
//
// # Error Taxonomy
//
//   - MALFORMED_TARGET: the attribute is on something other than a trait or impl
//   - INVALID_CONFIGURATION: unrecognized attribute argument or config file value
//   - AMBIGUOUS_BORROW_SCOPE: a type hides a reference the elaborator cannot rewrite
//   - OBJECT_SAFETY_CONFLICT: declared for downstream mapping, never emitted
//   - PARSE_ERROR: a trait or impl that does not follow the grammar
//   - INTERNAL_ERROR: the expander failed on input that parsed
//
// Every diagnostic is local to one annotated item. Nothing is retried.
package diag
