package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/ir"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Lifetime
	Literal
	Punct
	DocComment      // outer doc comment: /// or /** */
	InnerDocComment // inner doc comment: //! or /*! */
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Lifetime:
		return "lifetime"
	case Literal:
		return "literal"
	case Punct:
		return "punctuation"
	case DocComment:
		return "doc comment"
	case InnerDocComment:
		return "inner doc comment"
	}
	return "unknown"
}

// Token is one lexical token. Punctuation is always a single character;
// Joint is set when the next token is punctuation that follows without
// whitespace, so multi-character operators (::, ->, =>) are recognized
// by looking at adjacent tokens.
type Token struct {
	Kind Kind
	// Text is the raw source text of the token.
	Text string
	// Value is the NFC-normalized text for identifiers and lifetimes.
	// Equal to Text for every other kind.
	Value string
	Span  ir.Span
	Joint bool
}

// Is reports whether the token is the punctuation character c.
func (t Token) Is(c byte) bool {
	return t.Kind == Punct && len(t.Text) == 1 && t.Text[0] == c
}

// IsKeyword reports whether the token is the identifier kw (not a raw
// identifier).
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == Ident && t.Text == kw
}

func (t Token) describe() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case Ident, Punct:
		return "`" + t.Text + "`"
	}
	return t.Kind.String()
}

type lexer struct {
	src    string
	off    int
	line   int
	col    int
	tokens []Token
}

// Tokenize splits src into tokens. Whitespace and ordinary comments are
// dropped; doc comments are kept. The result always ends with an EOF
// token. Unterminated literals and comments produce a PARSE_ERROR.
func Tokenize(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.tokens, nil
}

func (lx *lexer) pos() ir.Pos {
	return ir.Pos{Offset: lx.off, Line: lx.line, Column: lx.col}
}

func (lx *lexer) peekRune(ahead int) rune {
	off := lx.off
	for i := 0; ; i++ {
		if off >= len(lx.src) {
			return -1
		}
		r, size := utf8.DecodeRuneInString(lx.src[off:])
		if i == ahead {
			return r
		}
		off += size
	}
}

func (lx *lexer) advance() rune {
	if lx.off >= len(lx.src) {
		return -1
	}
	r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	lx.off += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) emit(kind Kind, start ir.Pos) {
	text := lx.src[start.Offset:lx.off]
	tok := Token{Kind: kind, Text: text, Value: text, Span: ir.Span{Start: start, End: lx.pos()}}
	if kind == Ident || kind == Lifetime {
		tok.Value = norm.NFC.String(text)
	}
	lx.tokens = append(lx.tokens, tok)
}

func (lx *lexer) errorf(start ir.Pos, format string, args ...any) error {
	return diag.ParseError(ir.Span{Start: start, End: lx.pos()}, format, args...)
}

func (lx *lexer) run() error {
	for {
		r := lx.peekRune(0)
		if r == -1 {
			break
		}
		if unicode.IsSpace(r) {
			lx.advance()
			continue
		}

		start := lx.pos()
		var err error
		switch {
		case r == '/' && lx.peekRune(1) == '/':
			lx.lineComment(start)
			continue
		case r == '/' && lx.peekRune(1) == '*':
			err = lx.blockComment(start)
		case r == '\'':
			err = lx.quote(start)
		case r == '"':
			err = lx.str(start)
		case isPrefixedLiteral(lx):
			err = lx.prefixed(start)
		case r == 'r' && lx.peekRune(1) == '#' && isIdentStart(lx.peekRune(2)):
			lx.advance()
			lx.advance()
			lx.ident()
			lx.emit(Ident, start)
		case isIdentStart(r):
			lx.ident()
			lx.emit(Ident, start)
		case r >= '0' && r <= '9':
			lx.number()
			lx.emit(Literal, start)
		default:
			lx.advance()
			lx.emit(Punct, start)
		}
		if err != nil {
			return err
		}
	}
	for i := 0; i+1 < len(lx.tokens); i++ {
		cur, nxt := &lx.tokens[i], lx.tokens[i+1]
		cur.Joint = cur.Kind == Punct && nxt.Kind == Punct && cur.Span.End.Offset == nxt.Span.Start.Offset
	}
	end := lx.pos()
	lx.tokens = append(lx.tokens, Token{Kind: EOF, Span: ir.Span{Start: end, End: end}})
	return nil
}

func (lx *lexer) lineComment(start ir.Pos) {
	for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
		lx.advance()
	}
	text := lx.src[start.Offset:lx.off]
	switch {
	case strings.HasPrefix(text, "///") && !strings.HasPrefix(text, "////"):
		lx.emit(DocComment, start)
	case strings.HasPrefix(text, "//!"):
		lx.emit(InnerDocComment, start)
	}
}

func (lx *lexer) blockComment(start ir.Pos) error {
	lx.advance()
	lx.advance()
	depth := 1
	for depth > 0 {
		switch r := lx.peekRune(0); {
		case r == -1:
			return lx.errorf(start, "unterminated block comment")
		case r == '/' && lx.peekRune(1) == '*':
			lx.advance()
			lx.advance()
			depth++
		case r == '*' && lx.peekRune(1) == '/':
			lx.advance()
			lx.advance()
			depth--
		default:
			lx.advance()
		}
	}
	text := lx.src[start.Offset:lx.off]
	switch {
	case strings.HasPrefix(text, "/**") && !strings.HasPrefix(text, "/***") && text != "/**/":
		lx.emit(DocComment, start)
	case strings.HasPrefix(text, "/*!"):
		lx.emit(InnerDocComment, start)
	}
	return nil
}

// quote handles a leading ': either a lifetime ('a, 'static) or a char
// literal ('a', '\n', '\u{1F600}').
func (lx *lexer) quote(start ir.Pos) error {
	lx.advance()
	r := lx.peekRune(0)
	if isIdentStart(r) {
		// 'ab is a lifetime, 'a' is a char.
		save := *lx
		lx.ident()
		if lx.peekRune(0) != '\'' {
			lx.emit(Lifetime, start)
			return nil
		}
		*lx = save
	}
	if r == '\\' {
		lx.advance()
		lx.advance()
		if err := lx.skipUntil(start, '\''); err != nil {
			return err
		}
		lx.emit(Literal, start)
		return nil
	}
	if r == -1 || r == '\n' {
		return lx.errorf(start, "unterminated character literal")
	}
	lx.advance()
	if lx.peekRune(0) != '\'' {
		return lx.errorf(start, "unterminated character literal")
	}
	lx.advance()
	lx.emit(Literal, start)
	return nil
}

// skipUntil consumes up to and including the closing delimiter, honoring
// backslash escapes.
func (lx *lexer) skipUntil(start ir.Pos, closing rune) error {
	for {
		r := lx.advance()
		switch r {
		case -1:
			return lx.errorf(start, "unterminated literal")
		case '\\':
			lx.advance()
		case closing:
			return nil
		}
	}
}

func (lx *lexer) str(start ir.Pos) error {
	lx.advance()
	if err := lx.skipUntil(start, '"'); err != nil {
		return lx.errorf(start, "unterminated string literal")
	}
	lx.suffix()
	lx.emit(Literal, start)
	return nil
}

// isPrefixedLiteral reports whether the lexer is at b"..", b'..', r"..",
// r#".."#, br"..", c"..", cr"..".
func isPrefixedLiteral(lx *lexer) bool {
	r0, r1, r2 := lx.peekRune(0), lx.peekRune(1), lx.peekRune(2)
	switch r0 {
	case 'b':
		if r1 == '"' || r1 == '\'' {
			return true
		}
		return r1 == 'r' && (r2 == '"' || r2 == '#')
	case 'c':
		if r1 == '"' {
			return true
		}
		return r1 == 'r' && (r2 == '"' || r2 == '#')
	case 'r':
		if r1 == '"' {
			return true
		}
		return r1 == '#' && (r2 == '"' || r2 == '#')
	}
	return false
}

func (lx *lexer) prefixed(start ir.Pos) error {
	raw := false
	for {
		r := lx.peekRune(0)
		if r == 'r' {
			raw = true
		}
		if r != 'b' && r != 'c' && r != 'r' {
			break
		}
		lx.advance()
	}
	if !raw {
		q := lx.advance()
		if err := lx.skipUntil(start, q); err != nil {
			return err
		}
		lx.suffix()
		lx.emit(Literal, start)
		return nil
	}

	hashes := 0
	for lx.peekRune(0) == '#' {
		lx.advance()
		hashes++
	}
	if lx.advance() != '"' {
		return lx.errorf(start, "malformed raw string literal")
	}
	closing := "\"" + strings.Repeat("#", hashes)
	idx := strings.Index(lx.src[lx.off:], closing)
	if idx < 0 {
		return lx.errorf(start, "unterminated raw string literal")
	}
	for end := lx.off + idx + len(closing); lx.off < end; {
		lx.advance()
	}
	lx.suffix()
	lx.emit(Literal, start)
	return nil
}

func (lx *lexer) ident() {
	for isIdentContinue(lx.peekRune(0)) {
		lx.advance()
	}
}

// suffix consumes a literal suffix such as the u8 of 1u8 or "x"_tag.
func (lx *lexer) suffix() {
	if isIdentStart(lx.peekRune(0)) {
		lx.ident()
	}
}

func (lx *lexer) number() {
	for isIdentContinue(lx.peekRune(0)) {
		r := lx.advance()
		if (r == 'e' || r == 'E') && (lx.peekRune(0) == '+' || lx.peekRune(0) == '-') && !strings.HasPrefix(lx.numberPrefix(), "0x") {
			lx.advance()
		}
	}
	// A fraction needs a digit after the dot so 1..2 and x.0.1 lex correctly.
	if lx.peekRune(0) == '.' && isDigit(lx.peekRune(1)) {
		lx.advance()
		lx.number()
	}
}

func (lx *lexer) numberPrefix() string {
	i := lx.off
	for i > 0 && isIdentContinue(rune(lx.src[i-1])) {
		i--
	}
	return strings.ToLower(lx.src[i:lx.off])
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}
