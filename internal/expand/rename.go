package expand

import (
	"strings"

	"github.com/roach88/traitasync/internal/syntax"
)

// selfNames is how Self is spelled inside the inner function: Type in
// type or expression position, Prefix in front of a path separator.
type selfNames struct {
	Type   string
	Prefix string
}

// renameReceiver rewrites a method body for use as the body of the inner
// function: self becomes _self and Self becomes the concrete type. Items
// nested in the body keep their own receivers, and self:: module paths are
// left alone.
func renameReceiver(body string, self selfNames) (string, error) {
	toks, err := syntax.Tokenize(body)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	last := 0
	replace := func(t syntax.Token, text string) {
		b.WriteString(body[last:t.Span.Start.Offset])
		b.WriteString(text)
		last = t.Span.End.Offset
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != syntax.Ident {
			continue
		}
		switch t.Text {
		case "self":
			if !pathSepAt(toks, i+1) {
				replace(t, "_self")
			}
		case "Self":
			if pathSepAt(toks, i+1) {
				replace(t, self.Prefix)
			} else {
				replace(t, self.Type)
			}
		default:
			if nestedItemAt(toks, i) {
				i = skipNestedItem(toks, i)
			}
		}
	}
	b.WriteString(body[last:])
	return b.String(), nil
}

func pathSepAt(toks []syntax.Token, i int) bool {
	return i+1 < len(toks) && toks[i].Is(':') && toks[i].Joint && toks[i+1].Is(':')
}

// nestedItemAt reports whether toks[i] starts an item declared inside the
// body. Such items have their own Self and cannot name the outer self.
func nestedItemAt(toks []syntax.Token, i int) bool {
	next := syntax.Token{}
	if i+1 < len(toks) {
		next = toks[i+1]
	}
	switch toks[i].Text {
	case "fn", "trait", "mod", "struct", "enum", "union":
		// fn(u8) is a pointer type, union is also a plain identifier.
		return next.Kind == syntax.Ident
	case "impl":
		if i == 0 {
			return true
		}
		prev := toks[i-1]
		return prev.Is(';') || prev.Is('{') || prev.Is('}') || prev.Is(']') || prev.IsKeyword("unsafe")
	}
	return false
}

// skipNestedItem returns the index of the last token of the item starting
// at toks[i]: its closing brace or terminating semicolon.
func skipNestedItem(toks []syntax.Token, i int) int {
	depth := 0
	for j := i + 1; j < len(toks); j++ {
		t := toks[j]
		switch {
		case t.Kind != syntax.Punct:
		case t.Is('(') || t.Is('[') || t.Is('{'):
			depth++
		case t.Is(')') || t.Is(']'):
			depth--
		case t.Is('}'):
			depth--
			if depth == 0 {
				return j
			}
			if depth < 0 {
				return j - 1
			}
		case t.Is(';') && depth == 0:
			return j
		}
	}
	return len(toks) - 1
}
