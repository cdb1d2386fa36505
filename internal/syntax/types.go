package syntax

import (
	"github.com/roach88/traitasync/internal/ir"
)

// parseType parses a type expression. allowPlus permits the bare
// trait-object form `Trait + Send` for a leading path; dyn and impl types
// always take their full bound list.
func (p *parser) parseType(allowPlus bool) (ir.Type, error) {
	start := p.pos
	t := p.peek()
	switch {
	case t.Is('&'):
		p.next()
		ref := &ir.Reference{}
		if lt := p.peek(); lt.Kind == Lifetime {
			p.next()
			ref.Lifetime = ir.NewLifetime(lt.Value)
		}
		ref.Mut = p.eatKeyword("mut")
		elem, err := p.parseType(false)
		if err != nil {
			return nil, err
		}
		ref.Elem = elem
		return ref, nil

	case t.Is('*'):
		p.next()
		ptr := &ir.Pointer{}
		switch {
		case p.eatKeyword("mut"):
			ptr.Mut = true
		case p.eatKeyword("const"):
		default:
			return nil, p.unexpected("`mut` or `const`")
		}
		elem, err := p.parseType(false)
		if err != nil {
			return nil, err
		}
		ptr.Elem = elem
		return ptr, nil

	case t.Is('('):
		return p.parseParenType()

	case t.Is('['):
		p.next()
		elem, err := p.parseType(true)
		if err != nil {
			return nil, err
		}
		if p.eat(';') {
			lenStart := p.pos
			for !p.at(']') {
				if p.peek().Kind == EOF {
					return nil, p.unexpected("`]`")
				}
				if p.atOpenDelim() {
					if err := p.skipGroup(); err != nil {
						return nil, err
					}
					continue
				}
				p.next()
			}
			arr := &ir.Array{Elem: elem, Len: p.textFrom(lenStart)}
			p.next()
			return arr, nil
		}
		if _, err := p.expect(']'); err != nil {
			return nil, err
		}
		return &ir.Slice{Elem: elem}, nil

	case t.Is('!'):
		p.next()
		return &ir.Never{}, nil

	case t.IsKeyword("_"):
		p.next()
		return &ir.Infer{}, nil

	case t.IsKeyword("dyn") && !p.isPathSepAt(1):
		p.next()
		bounds, err := p.parseBounds()
		if err != nil {
			return nil, err
		}
		if len(bounds) == 0 {
			return nil, p.unexpected("trait bound")
		}
		return &ir.TraitObject{Dyn: true, Bounds: bounds}, nil

	case t.IsKeyword("impl"):
		p.next()
		bounds, err := p.parseBounds()
		if err != nil {
			return nil, err
		}
		if len(bounds) == 0 {
			return nil, p.unexpected("trait bound")
		}
		return &ir.ImplTrait{Bounds: bounds}, nil

	case t.IsKeyword("fn") || t.IsKeyword("unsafe") || t.IsKeyword("extern"):
		return p.parseBareFn(nil)

	case t.IsKeyword("for"):
		p.next()
		fl, err := p.parseForLifetimes()
		if err != nil {
			return nil, err
		}
		if p.atKeyword("fn") || p.atKeyword("unsafe") || p.atKeyword("extern") {
			return p.parseBareFn(fl)
		}
		// for<'a> Trait<'a> as a bare trait object.
		path, err := p.parsePath(true)
		if err != nil {
			return nil, err
		}
		bounds := []ir.Bound{&ir.TraitBound{ForLifetimes: fl, Path: path}}
		if allowPlus && p.eat('+') {
			more, err := p.parseBounds()
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, more...)
		}
		return &ir.TraitObject{Bounds: bounds}, nil

	case t.Kind == Ident || t.Is('<') || p.atPathSep():
		path, err := p.parsePath(true)
		if err != nil {
			return nil, err
		}
		if p.at('!') && !p.atAssignAfterBang() {
			p.next()
			if !p.atOpenDelim() {
				return nil, p.unexpected("macro delimiter")
			}
			if err := p.skipGroup(); err != nil {
				return nil, err
			}
			return &ir.Macro{Text: p.textFrom(start)}, nil
		}
		if allowPlus && p.at('+') {
			p.next()
			more, err := p.parseBounds()
			if err != nil {
				return nil, err
			}
			bounds := append([]ir.Bound{&ir.TraitBound{Path: path}}, more...)
			return &ir.TraitObject{Bounds: bounds}, nil
		}
		return path, nil
	}
	return nil, p.unexpected("type")
}

func (p *parser) atAssignAfterBang() bool {
	t := p.peek()
	return t.Joint && p.peekN(1).Is('=')
}

func (p *parser) parseParenType() (ir.Type, error) {
	p.next() // (
	if p.eat(')') {
		return &ir.Tuple{}, nil
	}
	first, err := p.parseType(true)
	if err != nil {
		return nil, err
	}
	if p.eat(')') {
		return &ir.Paren{Elem: first}, nil
	}
	if _, err := p.expect(','); err != nil {
		return nil, err
	}
	tup := &ir.Tuple{Elems: []ir.Type{first}}
	for !p.at(')') {
		elem, err := p.parseType(true)
		if err != nil {
			return nil, err
		}
		tup.Elems = append(tup.Elems, elem)
		if !p.eat(',') {
			break
		}
	}
	if _, err := p.expect(')'); err != nil {
		return nil, err
	}
	return tup, nil
}

func (p *parser) parseBareFn(forLifetimes []*ir.Lifetime) (ir.Type, error) {
	fn := &ir.BareFn{ForLifetimes: forLifetimes}
	fn.Unsafe = p.eatKeyword("unsafe")
	if p.eatKeyword("extern") {
		fn.Extern = true
		if t := p.peek(); t.Kind == Literal {
			p.next()
			fn.Abi = t.Text
		}
	}
	if _, err := p.expectKeyword("fn"); err != nil {
		return nil, err
	}
	if _, err := p.expect('('); err != nil {
		return nil, err
	}
	for !p.at(')') {
		if _, err := p.parseAttrs(); err != nil {
			return nil, err
		}
		if p.at('.') && p.peekN(1).Is('.') && p.peekN(2).Is('.') {
			p.next()
			p.next()
			p.next()
			fn.Variadic = true
			break
		}
		var arg ir.BareFnArg
		if t := p.peek(); t.Kind == Ident && p.peekN(1).Is(':') && !p.isPathSepAt(1) {
			p.next()
			p.next()
			arg.Name = t.Text
		}
		typ, err := p.parseType(true)
		if err != nil {
			return nil, err
		}
		arg.Type = typ
		fn.Inputs = append(fn.Inputs, arg)
		if !p.eat(',') {
			break
		}
	}
	if _, err := p.expect(')'); err != nil {
		return nil, err
	}
	if p.atArrow() {
		p.next()
		p.next()
		out, err := p.parseType(false)
		if err != nil {
			return nil, err
		}
		fn.Output = out
	}
	return fn, nil
}

// parsePath parses a possibly qualified path. In type context a segment
// followed by ( takes Fn-sugar arguments.
func (p *parser) parsePath(typeCtx bool) (*ir.Path, error) {
	path := &ir.Path{}
	switch {
	case p.at('<'):
		p.next()
		qt, err := p.parseType(true)
		if err != nil {
			return nil, err
		}
		qs := &ir.QSelf{Type: qt}
		if p.eatKeyword("as") {
			if qs.As, err = p.parsePath(true); err != nil {
				return nil, err
			}
		}
		if _, err := p.expect('>'); err != nil {
			return nil, err
		}
		if !p.atPathSep() {
			return nil, p.unexpected("`::`")
		}
		p.next()
		p.next()
		path.QSelf = qs
	case p.atPathSep():
		p.next()
		p.next()
		path.Global = true
	}

	for {
		t, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		seg := ir.PathSegment{Ident: t.Value}
		switch {
		case p.at('<') && !p.atLessEqual():
			if seg.Args, err = p.parseAngleArgs(false); err != nil {
				return nil, err
			}
		case p.atPathSep() && p.peekN(2).Is('<'):
			p.next()
			p.next()
			if seg.Args, err = p.parseAngleArgs(true); err != nil {
				return nil, err
			}
		case typeCtx && p.at('('):
			if seg.Args, err = p.parseParenArgs(); err != nil {
				return nil, err
			}
		}
		path.Segments = append(path.Segments, seg)
		if p.atPathSep() && p.peekN(2).Kind == Ident {
			p.next()
			p.next()
			continue
		}
		return path, nil
	}
}

func (p *parser) atLessEqual() bool {
	t := p.peek()
	return t.Is('<') && t.Joint && p.peekN(1).Is('=')
}

func (p *parser) parseAngleArgs(turbofish bool) (*ir.AngleArgs, error) {
	p.next() // <
	args := &ir.AngleArgs{Turbofish: turbofish}
	for !p.at('>') {
		t := p.peek()
		var arg ir.GenericArg
		switch {
		case t.Kind == Lifetime:
			p.next()
			arg = &ir.LifetimeArg{Lifetime: ir.NewLifetime(t.Value)}
		case t.Kind == Literal:
			p.next()
			arg = &ir.ConstArg{Expr: t.Text}
		case t.Is('-') && p.peekN(1).Kind == Literal:
			start := p.pos
			p.next()
			p.next()
			arg = &ir.ConstArg{Expr: p.textFrom(start)}
		case t.Is('{'):
			start := p.pos
			if err := p.skipGroup(); err != nil {
				return nil, err
			}
			arg = &ir.ConstArg{Expr: p.textFrom(start)}
		case t.Kind == Ident && p.peekN(1).Is('=') && !(p.peekN(1).Joint && p.peekN(2).Is('=')):
			p.next()
			p.next()
			typ, err := p.parseType(true)
			if err != nil {
				return nil, err
			}
			arg = &ir.BindingArg{Name: t.Value, Type: typ}
		case t.Kind == Ident && p.peekN(1).Is(':') && !p.isPathSepAt(1):
			p.next()
			p.next()
			bounds, err := p.parseBounds()
			if err != nil {
				return nil, err
			}
			arg = &ir.ConstraintArg{Name: t.Value, Bounds: bounds}
		default:
			typ, err := p.parseType(true)
			if err != nil {
				return nil, err
			}
			arg = &ir.TypeArg{Type: typ}
		}
		args.Args = append(args.Args, arg)
		if !p.eat(',') {
			break
		}
	}
	if _, err := p.expect('>'); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseParenArgs() (*ir.ParenArgs, error) {
	p.next() // (
	args := &ir.ParenArgs{}
	for !p.at(')') {
		typ, err := p.parseType(true)
		if err != nil {
			return nil, err
		}
		args.Inputs = append(args.Inputs, typ)
		if !p.eat(',') {
			break
		}
	}
	if _, err := p.expect(')'); err != nil {
		return nil, err
	}
	if p.atArrow() {
		p.next()
		p.next()
		out, err := p.parseType(false)
		if err != nil {
			return nil, err
		}
		args.Output = out
	}
	return args, nil
}

func (p *parser) atBoundStart() bool {
	t := p.peek()
	switch {
	case t.Kind == Lifetime:
		return true
	case t.Kind == Ident:
		return t.Text != "where"
	}
	return t.Is('?') || t.Is('~') || t.Is('(') || t.Is('<') || p.atPathSep()
}

// parseBounds parses Bound + Bound + ... and tolerates a trailing +.
func (p *parser) parseBounds() ([]ir.Bound, error) {
	var bounds []ir.Bound
	for p.atBoundStart() {
		b, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, b)
		if !p.eat('+') {
			break
		}
	}
	return bounds, nil
}

func (p *parser) parseBound() (ir.Bound, error) {
	if t := p.peek(); t.Kind == Lifetime {
		p.next()
		return &ir.LifetimeBound{Lifetime: ir.NewLifetime(t.Value)}, nil
	}
	if p.eat('(') {
		inner, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(')'); err != nil {
			return nil, err
		}
		tb, ok := inner.(*ir.TraitBound)
		if !ok {
			return inner, nil
		}
		tb.Paren = true
		return tb, nil
	}

	tb := &ir.TraitBound{}
	switch {
	case p.eat('?'):
		tb.Modifier = "?"
	case p.at('~') && p.peekN(1).IsKeyword("const"):
		p.next()
		p.next()
		tb.Modifier = "~const"
	}
	if p.eatKeyword("for") {
		fl, err := p.parseForLifetimes()
		if err != nil {
			return nil, err
		}
		tb.ForLifetimes = fl
	}
	path, err := p.parsePath(true)
	if err != nil {
		return nil, err
	}
	tb.Path = path
	return tb, nil
}

// parseForLifetimes parses the <'a, 'b> after `for`.
func (p *parser) parseForLifetimes() ([]*ir.Lifetime, error) {
	if _, err := p.expect('<'); err != nil {
		return nil, err
	}
	var out []*ir.Lifetime
	for !p.at('>') {
		t := p.peek()
		if t.Kind != Lifetime {
			return nil, p.unexpected("lifetime")
		}
		p.next()
		out = append(out, ir.NewLifetime(t.Value))
		if !p.eat(',') {
			break
		}
	}
	if _, err := p.expect('>'); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseLifetimeBounds() ([]*ir.Lifetime, error) {
	var out []*ir.Lifetime
	for {
		t := p.peek()
		if t.Kind != Lifetime {
			break
		}
		p.next()
		out = append(out, ir.NewLifetime(t.Value))
		if !p.eat('+') {
			break
		}
	}
	return out, nil
}

func (p *parser) parseGenerics() (ir.Generics, error) {
	var g ir.Generics
	if !p.at('<') {
		return g, nil
	}
	p.next()
	for !p.at('>') {
		if _, err := p.parseAttrs(); err != nil {
			return g, err
		}
		t := p.peek()
		switch {
		case t.Kind == Lifetime:
			p.next()
			lp := &ir.LifetimeParam{Lifetime: ir.NewLifetime(t.Value)}
			if p.atColon() {
				p.next()
				bounds, err := p.parseLifetimeBounds()
				if err != nil {
					return g, err
				}
				lp.Bounds = bounds
			}
			g.Params = append(g.Params, lp)

		case t.IsKeyword("const"):
			p.next()
			name, err := p.expectIdent()
			if err != nil {
				return g, err
			}
			if _, err := p.expect(':'); err != nil {
				return g, err
			}
			typ, err := p.parseType(false)
			if err != nil {
				return g, err
			}
			cp := &ir.ConstParam{Name: name.Value, Type: typ}
			if p.eat('=') {
				start := p.pos
				switch {
				case p.at('{'):
					if err := p.skipGroup(); err != nil {
						return g, err
					}
				case p.at('-'):
					p.next()
					p.next()
				default:
					p.next()
				}
				cp.Default = p.textFrom(start)
			}
			g.Params = append(g.Params, cp)

		case t.Kind == Ident:
			p.next()
			tp := &ir.TypeParam{Name: t.Value}
			if p.atColon() {
				p.next()
				bounds, err := p.parseBounds()
				if err != nil {
					return g, err
				}
				tp.Bounds = bounds
			}
			if p.eat('=') {
				def, err := p.parseType(true)
				if err != nil {
					return g, err
				}
				tp.Default = def
			}
			g.Params = append(g.Params, tp)

		default:
			return g, p.unexpected("generic parameter")
		}
		if !p.eat(',') {
			break
		}
	}
	if _, err := p.expect('>'); err != nil {
		return g, err
	}
	return g, nil
}

func (p *parser) parseWhere() ([]ir.WherePredicate, error) {
	if !p.eatKeyword("where") {
		return nil, nil
	}
	var preds []ir.WherePredicate
	for {
		t := p.peek()
		if t.Is('{') || t.Is(';') || t.Is('=') || t.Kind == EOF {
			break
		}
		if t.Kind == Lifetime {
			p.next()
			if _, err := p.expect(':'); err != nil {
				return nil, err
			}
			bounds, err := p.parseLifetimeBounds()
			if err != nil {
				return nil, err
			}
			preds = append(preds, &ir.LifetimePredicate{Lifetime: ir.NewLifetime(t.Value), Bounds: bounds})
		} else {
			pred := &ir.BoundPredicate{}
			if p.atKeyword("for") && p.peekN(1).Is('<') {
				p.next()
				fl, err := p.parseForLifetimes()
				if err != nil {
					return nil, err
				}
				pred.ForLifetimes = fl
			}
			bounded, err := p.parseType(false)
			if err != nil {
				return nil, err
			}
			pred.Bounded = bounded
			if !p.atColon() {
				return nil, p.unexpected("`:`")
			}
			p.next()
			if pred.Bounds, err = p.parseBounds(); err != nil {
				return nil, err
			}
			preds = append(preds, pred)
		}
		if !p.eat(',') {
			break
		}
	}
	return preds, nil
}
