package ir

import "fmt"

// Pos is a location in source text. Offset is a byte offset; Line and
// Column are 1-based.
type Pos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsValid reports whether the position was set by a tokenizer.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open byte range [Start.Offset, End.Offset) of source text.
type Span struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// IsValid reports whether the span points into source text.
func (s Span) IsValid() bool {
	return s.Start.IsValid()
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Text returns the part of src covered by the span, or "" when the span
// does not fit.
func (s Span) Text(src string) string {
	if !s.IsValid() || s.Start.Offset < 0 || s.End.Offset > len(src) || s.Start.Offset > s.End.Offset {
		return ""
	}
	return src[s.Start.Offset:s.End.Offset]
}

func (s Span) String() string {
	return s.Start.String()
}

// Join returns the smallest span covering both a and b. Invalid spans are
// ignored.
func Join(a, b Span) Span {
	if !a.IsValid() {
		return b
	}
	if !b.IsValid() {
		return a
	}
	out := a
	if b.Start.Offset < out.Start.Offset {
		out.Start = b.Start
	}
	if b.End.Offset > out.End.Offset {
		out.End = b.End
	}
	return out
}
