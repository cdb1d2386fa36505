package syntax

import (
	"strings"

	"github.com/roach88/traitasync/internal/ir"
)

// DefaultAttribute is the name of the driving attribute.
const DefaultAttribute = "async_trait"

// Annotated is one item of a unit that carries the driving attribute.
type Annotated struct {
	// Attr is the driving attribute.
	Attr ir.Attribute
	// Span covers the item including all of its attributes.
	Span ir.Span
	// Tokens are the item's tokens followed by an EOF sentinel.
	Tokens []Token
}

// Parse parses the annotated item. Spans are relative to the unit source.
func (a Annotated) Parse(src string) (ir.Item, error) {
	return ParseTokens(src, a.Tokens)
}

// Unit is a scanned compilation unit.
type Unit struct {
	Src string
	// Items are the annotated items in source order, including those
	// nested in inline modules.
	Items []Annotated
	// HiddenRefs maps the name of every type alias, struct, enum and union
	// declared with lifetime parameters to the number of those parameters.
	HiddenRefs map[string]int
}

// IsDriver reports whether attr is the driving attribute named name, in
// either the bare form or the crate-qualified form.
//
//	#[async_trait]                 yes
//	#[async_trait(local)]          yes
//	#[async_trait::async_trait]    yes
//	#[other::async_trait]          no
func IsDriver(attr ir.Attribute, name string) bool {
	if attr.Doc {
		return false
	}
	path := strings.TrimPrefix(attr.Path, "::")
	return path == name || path == "async_trait::"+name
}

type scanner struct {
	p    *parser
	unit *Unit
	attr string
}

// Scan tokenizes src and locates every item carrying the driving
// attribute. attribute is the driving attribute name; "" selects
// DefaultAttribute. Scan only fails when the unit cannot be tokenized or
// its delimiters do not balance; errors inside individual items are left
// to the item parser.
func Scan(src, attribute string) (*Unit, error) {
	if attribute == "" {
		attribute = DefaultAttribute
	}
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	s := &scanner{
		p:    newParser(src, toks),
		unit: &Unit{Src: src, HiddenRefs: make(map[string]int)},
		attr: attribute,
	}
	if err := s.items(false); err != nil {
		return nil, err
	}
	return s.unit, nil
}

// items scans a sequence of items up to EOF, or up to the closing brace of
// an inline module when nested is set.
func (s *scanner) items(nested bool) error {
	p := s.p
	for {
		if err := p.skipInnerAttrs(); err != nil {
			return err
		}
		switch {
		case p.peek().Kind == EOF:
			if nested {
				return p.unexpected("`}`")
			}
			return nil
		case p.at('}'):
			if nested {
				return nil
			}
			return p.errorf(p.peek(), "unexpected closing delimiter `}`")
		case p.at(';'):
			p.next()
			continue
		}

		start := p.pos
		attrs, err := p.parseAttrs()
		if err != nil {
			return err
		}
		var driver *ir.Attribute
		for i := range attrs {
			if IsDriver(attrs[i], s.attr) {
				driver = &attrs[i]
				break
			}
		}
		if _, err := p.parseVis(); err != nil {
			return err
		}

		if driver == nil && p.atKeyword("mod") && p.peekN(1).Kind == Ident && p.peekN(2).Is('{') {
			p.next()
			p.next()
			p.next()
			if err := s.items(true); err != nil {
				return err
			}
			p.next()
			continue
		}

		s.registerHidden()
		if err := s.skipItem(); err != nil {
			return err
		}
		if driver != nil {
			item := make([]Token, p.pos-start, p.pos-start+1)
			copy(item, p.toks[start:p.pos])
			item[len(item)-1].Joint = false
			end := item[len(item)-1].Span.End
			item = append(item, Token{Kind: EOF, Span: ir.Span{Start: end, End: end}})
			s.unit.Items = append(s.unit.Items, Annotated{
				Attr:   *driver,
				Span:   p.spanFrom(start),
				Tokens: item,
			})
		}
	}
}

// registerHidden records type alias, struct, enum and union declarations
// with lifetime parameters. The parser position is restored.
func (s *scanner) registerHidden() {
	p := s.p
	save := p.pos
	defer func() { p.pos = save }()

	kw := p.peek()
	if !(kw.IsKeyword("type") || kw.IsKeyword("struct") || kw.IsKeyword("enum") || kw.IsKeyword("union")) {
		return
	}
	p.next()
	name := p.peek()
	if name.Kind != Ident {
		return
	}
	p.next()
	gen, err := p.parseGenerics()
	if err != nil {
		return
	}
	if n := len(gen.LifetimeNames()); n > 0 {
		s.unit.HiddenRefs[name.Value] = n
	}
}

// semicolonItems end at their first top-level semicolon even when they
// contain braces (struct literals in a const, use trees).
var semicolonItems = map[string]bool{
	"const":  true,
	"static": true,
	"use":    true,
	"type":   true,
	"let":    true,
}

// skipItem consumes one item: up to a top-level semicolon, or the end of
// the first top-level brace group for items with a braced body.
func (s *scanner) skipItem() error {
	p := s.p
	semicolonOnly := semicolonItems[p.peek().Text] && p.peek().Kind == Ident && !p.fnAhead()
	if p.peek().Kind == EOF || p.at('}') {
		return p.unexpected("item")
	}
	for {
		t := p.peek()
		switch {
		case t.Kind == EOF:
			return p.unexpected("`;` or `}`")
		case t.Is('}'):
			return p.unexpected("`;`")
		case t.Is(';'):
			p.next()
			return nil
		case p.atOpenDelim():
			braced := t.Is('{')
			if err := p.skipGroup(); err != nil {
				return err
			}
			if braced && !semicolonOnly {
				return nil
			}
		default:
			p.next()
		}
	}
}
