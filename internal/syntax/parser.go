package syntax

import (
	"strings"

	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/ir"
)

type parser struct {
	src  string
	toks []Token // always ends with an EOF token
	pos  int
}

func newParser(src string, toks []Token) *parser {
	if len(toks) == 0 || toks[len(toks)-1].Kind != EOF {
		var end ir.Pos
		if len(toks) > 0 {
			end = toks[len(toks)-1].Span.End
		}
		toks = append(toks, Token{Kind: EOF, Span: ir.Span{Start: end, End: end}})
	}
	return &parser{src: src, toks: toks}
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) peekN(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) at(c byte) bool {
	return p.peek().Is(c)
}

func (p *parser) atKeyword(kw string) bool {
	return p.peek().IsKeyword(kw)
}

func (p *parser) eat(c byte) bool {
	if p.at(c) {
		p.next()
		return true
	}
	return false
}

func (p *parser) eatKeyword(kw string) bool {
	if p.atKeyword(kw) {
		p.next()
		return true
	}
	return false
}

// atPathSep reports whether the next two tokens form ::.
func (p *parser) atPathSep() bool {
	return p.isPathSepAt(0)
}

func (p *parser) isPathSepAt(n int) bool {
	t := p.peekN(n)
	return t.Is(':') && t.Joint && p.peekN(n+1).Is(':')
}

// atColon reports a lone : that is not part of ::.
func (p *parser) atColon() bool {
	return p.at(':') && !p.atPathSep()
}

// atArrow reports whether the next two tokens form ->.
func (p *parser) atArrow() bool {
	t := p.peek()
	return t.Is('-') && t.Joint && p.peekN(1).Is('>')
}

func (p *parser) expect(c byte) (Token, error) {
	t := p.peek()
	if !t.Is(c) {
		return t, p.unexpected("`" + string(c) + "`")
	}
	return p.next(), nil
}

func (p *parser) expectKeyword(kw string) (Token, error) {
	t := p.peek()
	if !t.IsKeyword(kw) {
		return t, p.unexpected("`" + kw + "`")
	}
	return p.next(), nil
}

func (p *parser) expectIdent() (Token, error) {
	t := p.peek()
	if t.Kind != Ident {
		return t, p.unexpected("identifier")
	}
	return p.next(), nil
}

func (p *parser) errorf(t Token, format string, args ...any) error {
	return diag.ParseError(t.Span, format, args...)
}

func (p *parser) unexpected(want string) error {
	t := p.peek()
	return p.errorf(t, "expected %s, found %s", want, t.describe())
}

// spanFrom returns the span from token start to the last consumed token.
func (p *parser) spanFrom(start int) ir.Span {
	if p.pos <= start {
		s := p.toks[start].Span.Start
		return ir.Span{Start: s, End: s}
	}
	return ir.Span{Start: p.toks[start].Span.Start, End: p.toks[p.pos-1].Span.End}
}

func (p *parser) textFrom(start int) string {
	return p.spanFrom(start).Text(p.src)
}

func closerOf(t Token) byte {
	switch {
	case t.Is('('):
		return ')'
	case t.Is('['):
		return ']'
	case t.Is('{'):
		return '}'
	}
	return 0
}

func (p *parser) atOpenDelim() bool {
	return closerOf(p.peek()) != 0
}

// skipGroup consumes a delimited group including both delimiters.
func (p *parser) skipGroup() error {
	open := p.next()
	stack := []byte{closerOf(open)}
	for len(stack) > 0 {
		t := p.next()
		if t.Kind == EOF {
			return p.errorf(open, "unclosed delimiter `%s`", open.Text)
		}
		if c := closerOf(t); c != 0 {
			stack = append(stack, c)
			continue
		}
		if t.Is(')') || t.Is(']') || t.Is('}') {
			if want := stack[len(stack)-1]; t.Text[0] != want {
				return p.errorf(t, "mismatched closing delimiter `%s`, expected `%c`", t.Text, want)
			}
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

// parseAttrs collects outer attributes and doc comments.
func (p *parser) parseAttrs() ([]ir.Attribute, error) {
	var attrs []ir.Attribute
	for {
		t := p.peek()
		switch {
		case t.Kind == DocComment:
			p.next()
			attrs = append(attrs, ir.Attribute{Span: t.Span, Doc: true, Text: t.Text})
		case t.Is('#') && p.peekN(1).Is('['):
			a, err := p.parseAttr()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, a)
		default:
			return attrs, nil
		}
	}
}

func (p *parser) parseAttr() (ir.Attribute, error) {
	start := p.pos
	p.next() // #
	p.next() // [

	var path strings.Builder
	for {
		if p.atPathSep() {
			path.WriteString("::")
			p.next()
			p.next()
			continue
		}
		if t := p.peek(); t.Kind == Ident {
			path.WriteString(t.Value)
			p.next()
			continue
		}
		break
	}
	if path.Len() == 0 {
		return ir.Attribute{}, p.unexpected("attribute path")
	}

	attr := ir.Attribute{Path: path.String()}
	switch {
	case p.atOpenDelim():
		open := p.pos
		if err := p.skipGroup(); err != nil {
			return ir.Attribute{}, err
		}
		attr.HasArgs = true
		attr.ArgsSpan = ir.Span{Start: p.toks[open].Span.End, End: p.toks[p.pos-1].Span.Start}
		attr.Args = strings.TrimSpace(attr.ArgsSpan.Text(p.src))
	case p.at('='):
		for !p.at(']') {
			if p.peek().Kind == EOF {
				return ir.Attribute{}, p.unexpected("`]`")
			}
			if p.atOpenDelim() {
				if err := p.skipGroup(); err != nil {
					return ir.Attribute{}, err
				}
				continue
			}
			p.next()
		}
	}
	if _, err := p.expect(']'); err != nil {
		return ir.Attribute{}, err
	}
	attr.Span = p.spanFrom(start)
	attr.Text = attr.Span.Text(p.src)
	return attr, nil
}

// skipInnerAttrs consumes #![..] attributes and inner doc comments.
func (p *parser) skipInnerAttrs() error {
	for {
		switch {
		case p.peek().Kind == InnerDocComment:
			p.next()
		case p.at('#') && p.peekN(1).Is('!') && p.peekN(2).Is('['):
			p.next()
			p.next()
			if err := p.skipGroup(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// parseVis returns the raw visibility text, or "" when the item is
// private.
func (p *parser) parseVis() (string, error) {
	start := p.pos
	switch {
	case p.atKeyword("pub"):
		p.next()
		if p.at('(') {
			if err := p.skipGroup(); err != nil {
				return "", err
			}
		}
	case p.atKeyword("crate") && !p.isPathSepAt(1):
		p.next()
	default:
		return "", nil
	}
	return p.textFrom(start), nil
}

var fnQualifiers = map[string]bool{
	"const":  true,
	"async":  true,
	"unsafe": true,
	"safe":   true,
	"extern": true,
}

// fnAhead reports whether the tokens from the current position are
// function qualifiers followed by `fn`.
func (p *parser) fnAhead() bool {
	for i := 0; ; i++ {
		t := p.peekN(i)
		switch {
		case t.IsKeyword("fn"):
			return true
		case t.Kind == Ident && fnQualifiers[t.Text]:
		case t.Kind == Literal && i > 0 && p.peekN(i-1).IsKeyword("extern"):
		default:
			return false
		}
	}
}

// ParseItem parses the source text of one annotated item, attributes
// included. The result is an *ir.Trait or an *ir.Impl. Errors are
// *diag.Diagnostic values: MALFORMED_TARGET when the item is some other
// kind of declaration, PARSE_ERROR for syntax errors.
func ParseItem(src string) (ir.Item, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(src, toks)
}

// ParseTokens is ParseItem over tokens already produced for src. Spans in
// the result are relative to src, so an item cut out of a larger unit
// keeps its unit positions.
func ParseTokens(src string, toks []Token) (ir.Item, error) {
	p := newParser(src, toks)
	item, err := p.parseItem()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Kind != EOF {
		return nil, p.errorf(t, "unexpected %s after item", t.describe())
	}
	return item, nil
}

func (p *parser) parseItem() (ir.Item, error) {
	start := p.pos
	attrs, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	visStart := p.pos
	vis, err := p.parseVis()
	if err != nil {
		return nil, err
	}

	var unsafe, auto, def bool
	for done := false; !done; {
		switch {
		case p.atKeyword("unsafe") && !p.fnAhead():
			unsafe = true
			p.next()
		case p.atKeyword("auto") && p.peekN(1).IsKeyword("trait"):
			auto = true
			p.next()
		case p.atKeyword("default") && (p.peekN(1).IsKeyword("impl") || p.peekN(1).IsKeyword("unsafe")):
			def = true
			p.next()
		default:
			done = true
		}
	}

	switch {
	case p.atKeyword("trait"):
		if def {
			return nil, p.errorf(p.peek(), "`default` is not allowed on a trait")
		}
		return p.parseTrait(start, attrs, vis, unsafe, auto)
	case p.atKeyword("impl"):
		if vis != "" {
			return nil, p.errorf(p.toks[visStart], "visibility is not permitted on an impl block")
		}
		if auto {
			return nil, p.errorf(p.peek(), "`auto` is only allowed on a trait")
		}
		return p.parseImpl(start, attrs, unsafe, def)
	}
	t := p.itemKeyword()
	return nil, diag.MalformedTarget(t.Span, t.describe())
}

// itemKeyword returns the token naming the kind of a non-trait item,
// skipping function qualifiers so `async fn` reports `fn`.
func (p *parser) itemKeyword() Token {
	if p.fnAhead() {
		for i := 0; ; i++ {
			if t := p.peekN(i); t.IsKeyword("fn") {
				return t
			}
		}
	}
	return p.peek()
}

func (p *parser) parseTrait(start int, attrs []ir.Attribute, vis string, unsafe, auto bool) (*ir.Trait, error) {
	kw := p.next()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	gen, err := p.parseGenerics()
	if err != nil {
		return nil, err
	}
	var supers []ir.Bound
	if p.atColon() {
		p.next()
		if supers, err = p.parseBounds(); err != nil {
			return nil, err
		}
	}
	if p.at('=') {
		return nil, p.errorf(p.peek(), "trait aliases are not supported")
	}
	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	gen.Where = append(gen.Where, where...)
	items, err := p.parseMembers()
	if err != nil {
		return nil, err
	}
	return &ir.Trait{
		Attrs:       attrs,
		Vis:         vis,
		Unsafe:      unsafe,
		Auto:        auto,
		Name:        name.Value,
		Generics:    gen,
		Supertraits: supers,
		Items:       items,
		Span:        p.spanFrom(start),
		KeywordSpan: kw.Span,
	}, nil
}

func (p *parser) parseImpl(start int, attrs []ir.Attribute, unsafe, def bool) (*ir.Impl, error) {
	kw := p.next()
	gen, err := p.parseGenerics()
	if err != nil {
		return nil, err
	}
	p.eatKeyword("const")
	negative := p.eat('!')

	first, err := p.parseType(false)
	if err != nil {
		return nil, err
	}
	impl := &ir.Impl{
		Attrs:       attrs,
		Default:     def,
		Unsafe:      unsafe,
		Negative:    negative,
		KeywordSpan: kw.Span,
	}
	if forTok := p.peek(); p.eatKeyword("for") {
		path, ok := first.(*ir.Path)
		if !ok {
			return nil, p.errorf(forTok, "expected a trait path before `for`")
		}
		impl.Trait = path
		if impl.SelfTy, err = p.parseType(false); err != nil {
			return nil, err
		}
	} else {
		if negative {
			return nil, p.errorf(kw, "inherent impls cannot be negative")
		}
		impl.SelfTy = first
	}

	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	gen.Where = append(gen.Where, where...)
	impl.Generics = gen
	if impl.Items, err = p.parseMembers(); err != nil {
		return nil, err
	}
	impl.Span = p.spanFrom(start)
	return impl, nil
}

func (p *parser) parseMembers() ([]ir.Member, error) {
	open, err := p.expect('{')
	if err != nil {
		return nil, err
	}
	if err := p.skipInnerAttrs(); err != nil {
		return nil, err
	}
	var items []ir.Member
	for !p.at('}') {
		if p.peek().Kind == EOF {
			return nil, p.errorf(open, "unclosed delimiter `{`")
		}
		m, err := p.parseMember()
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	p.next()
	return items, nil
}

func (p *parser) parseMember() (ir.Member, error) {
	start := p.pos
	attrs, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	if p.at('}') {
		return nil, p.errorf(p.toks[start], "expected an item after attributes")
	}
	sigStart := p.pos
	vis, err := p.parseVis()
	if err != nil {
		return nil, err
	}
	def := false
	if p.atKeyword("default") && !p.peekN(1).Is('!') && !p.isPathSepAt(1) {
		def = true
		p.next()
	}
	if p.fnAhead() {
		return p.parseMethod(start, sigStart, attrs, vis, def)
	}
	if err := p.skipOpaque(); err != nil {
		return nil, err
	}
	return &ir.OpaqueItem{Span: p.spanFrom(start)}, nil
}

// skipOpaque consumes an associated type, const or macro invocation. A
// braced macro call ends at its closing brace; everything else ends at
// the first top-level semicolon.
func (p *parser) skipOpaque() error {
	bang := p.peekN(1)
	macro := p.peek().Kind == Ident && bang.Is('!') && !(bang.Joint && p.peekN(2).Is('='))
	for {
		t := p.peek()
		switch {
		case t.Kind == EOF:
			return p.unexpected("`;`")
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
			if macro && braced {
				p.eat(';')
				return nil
			}
		default:
			p.next()
		}
	}
}

func (p *parser) parseMethod(start, sigStart int, attrs []ir.Attribute, vis string, def bool) (*ir.Method, error) {
	var sig ir.Signature
	for !p.atKeyword("fn") {
		t := p.next()
		switch t.Text {
		case "const":
			sig.Const = true
		case "async":
			sig.Async = true
		case "unsafe":
			sig.Unsafe = true
		case "extern":
			sig.Extern = true
			if p.peek().Kind == Literal {
				sig.Abi = p.next().Text
			}
		}
	}
	p.next() // fn
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	sig.Name = name.Value
	if sig.Generics, err = p.parseGenerics(); err != nil {
		return nil, err
	}
	if err := p.parseParams(&sig); err != nil {
		return nil, err
	}
	if p.atArrow() {
		p.next()
		p.next()
		outStart := p.pos
		if sig.Output, err = p.parseType(false); err != nil {
			return nil, err
		}
		sig.OutputSpan = p.spanFrom(outStart)
	}
	where, err := p.parseWhere()
	if err != nil {
		return nil, err
	}
	sig.Generics.Where = append(sig.Generics.Where, where...)
	sig.Span = p.spanFrom(sigStart)

	m := &ir.Method{Attrs: attrs, Vis: vis, Default: def, Sig: sig}
	switch {
	case p.eat(';'):
	case p.at('{'):
		bodyStart := p.pos
		if err := p.skipGroup(); err != nil {
			return nil, err
		}
		span := p.spanFrom(bodyStart)
		m.Body = &ir.Block{Span: span, Text: span.Text(p.src)}
	default:
		return nil, p.unexpected("`;` or `{`")
	}
	m.Span = p.spanFrom(start)
	return m, nil
}

func (p *parser) parseParams(sig *ir.Signature) error {
	if _, err := p.expect('('); err != nil {
		return err
	}
	for i := 0; !p.at(')'); i++ {
		attrs, err := p.parseAttrs()
		if err != nil {
			return err
		}
		switch {
		case i == 0 && p.atReceiver():
			r, err := p.parseReceiver()
			if err != nil {
				return err
			}
			r.Attrs = attrs
			sig.Receiver = r
		case p.at('.') && p.peekN(1).Is('.') && p.peekN(2).Is('.'):
			p.next()
			p.next()
			p.next()
			sig.Variadic = true
		default:
			param, err := p.parseParam()
			if err != nil {
				return err
			}
			param.Attrs = attrs
			sig.Params = append(sig.Params, param)
		}
		if !p.eat(',') {
			break
		}
	}
	_, err := p.expect(')')
	return err
}

// atReceiver recognizes self, mut self, &self, &'a self, &mut self and
// &'a mut self, each optionally followed by a type ascription.
func (p *parser) atReceiver() bool {
	i := 0
	if p.peekN(i).Is('&') {
		i++
		if p.peekN(i).Kind == Lifetime {
			i++
		}
	}
	if p.peekN(i).IsKeyword("mut") {
		i++
	}
	return p.peekN(i).IsKeyword("self") && !p.isPathSepAt(i+1)
}

func (p *parser) parseReceiver() (*ir.Receiver, error) {
	start := p.pos
	r := &ir.Receiver{}
	if p.eat('&') {
		r.Ref = true
		if t := p.peek(); t.Kind == Lifetime {
			p.next()
			r.Lifetime = ir.NewLifetime(t.Value)
		}
		r.Mut = p.eatKeyword("mut")
	} else {
		r.MutBinding = p.eatKeyword("mut")
	}
	p.next() // self
	if !r.Ref && p.atColon() {
		p.next()
		t, err := p.parseType(false)
		if err != nil {
			return nil, err
		}
		r.Type = t
	}
	r.Span = p.spanFrom(start)
	return r, nil
}

func (p *parser) parseParam() (ir.Param, error) {
	start := p.pos
	depth := 0
	for {
		t := p.peek()
		if t.Kind == EOF {
			return ir.Param{}, p.unexpected("parameter")
		}
		if depth == 0 {
			if p.atColon() {
				break
			}
			if t.Is(',') || t.Is(')') {
				return ir.Param{}, p.unexpected("`:`")
			}
		}
		switch {
		case p.atPathSep():
			p.next()
		case closerOf(t) != 0:
			depth++
		case t.Is(')') || t.Is(']') || t.Is('}'):
			depth--
		}
		p.next()
	}
	pat := p.toks[start:p.pos]
	param := ir.Param{Pattern: p.textFrom(start)}
	switch {
	case len(pat) == 1 && pat[0].Kind == Ident && pat[0].Text != "_":
		param.Ident = pat[0].Text
	case len(pat) == 2 && pat[0].IsKeyword("mut") && pat[1].Kind == Ident && pat[1].Text != "_":
		param.Ident = pat[1].Text
		param.Mut = true
	}
	p.next() // :
	t, err := p.parseType(false)
	if err != nil {
		return ir.Param{}, err
	}
	param.Type = t
	param.Span = p.spanFrom(start)
	return param, nil
}
