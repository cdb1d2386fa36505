package expand

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/traitasync/internal/emit"
	"github.com/roach88/traitasync/internal/ir"
	"github.com/roach88/traitasync/internal/lifetime"
	"github.com/roach88/traitasync/internal/receiver"
)

const (
	pinFrom     = "core::pin::Pin::from"
	asyncTrait  = "AsyncTrait"
	indentLevel = "    "
)

// container is the trait or impl whose methods are being rewritten.
type container struct {
	trait *ir.Trait // nil for impls
	impl  *ir.Impl  // nil for traits
}

func (c container) generics() ir.Generics {
	if c.trait != nil {
		return c.trait.Generics
	}
	return c.impl.Generics
}

// traitPath is Trait<'a, T, N> for the enclosing trait declaration.
func (c container) traitPath() *ir.Path {
	seg := ir.PathSegment{Ident: c.trait.Name}
	if len(c.trait.Generics.Params) > 0 {
		args := &ir.AngleArgs{}
		for _, p := range c.trait.Generics.Params {
			switch v := p.(type) {
			case *ir.LifetimeParam:
				args.Args = append(args.Args, &ir.LifetimeArg{Lifetime: ir.NewLifetime(v.Lifetime.Name)})
			case *ir.TypeParam:
				args.Args = append(args.Args, &ir.TypeArg{Type: ir.SimplePath(false, v.Name)})
			case *ir.ConstParam:
				args.Args = append(args.Args, &ir.ConstArg{Expr: v.Name})
			}
		}
		seg.Args = args
	}
	return &ir.Path{Segments: []ir.PathSegment{seg}}
}

// methodGen rewrites one async method.
type methodGen struct {
	c      container
	m      *ir.Method
	ctx    Context
	indent string

	kind  ir.ReceiverKind
	bound Bound
	el    *lifetime.Result

	// concrete replaces Self inside the inner function.
	concrete ir.Type
	self     selfNames
	// asyncName is the synthesized type parameter standing for Self in a
	// trait default body. It is "" for impls.
	asyncName string
}

func newMethodGen(c container, m *ir.Method, ctx Context, indent string) (*methodGen, error) {
	g := &methodGen{c: c, m: m, ctx: ctx, indent: indent}
	g.kind = receiver.Classify(m.Sig.Receiver)
	g.bound = SelectBound(g.kind, m.Body != nil || c.impl != nil, ctx.Local)

	el, err := lifetime.Elaborate(m.Sig, lifetime.Options{
		Base:      ctx.CallScope,
		Container: c.generics(),
		Hidden:    ctx.Hidden,
	})
	if err != nil {
		return nil, err
	}
	g.el = el

	if c.trait != nil {
		g.asyncName = freshTypeName(asyncTrait, c.trait.Generics, m.Sig.Generics)
		g.concrete = ir.SimplePath(false, g.asyncName)
		g.self = selfNames{Type: g.asyncName, Prefix: g.asyncName}
	} else {
		g.concrete = c.impl.SelfTy
		text := emit.Type(c.impl.SelfTy)
		g.self = selfNames{Type: text, Prefix: text}
		if !simplePathType(c.impl.SelfTy) {
			g.self.Prefix = "<" + text + ">"
		}
	}

	Logger().Debug("expanding method",
		zap.String("method", m.Sig.Name),
		zap.Stringer("receiver", g.kind),
		zap.Stringer("bound", g.bound),
		zap.Bool("body", m.Body != nil),
		zap.String("call_scope", el.CallScope.Name))
	return g, nil
}

// generate returns the replacement for the method text from the start of
// its signature to the end of its body.
func (g *methodGen) generate() (string, error) {
	var b strings.Builder
	g.writeSignature(&b)

	where := g.outerWhere()
	if g.m.Body == nil {
		if len(where) > 0 {
			b.WriteByte('\n')
			b.WriteString(strings.TrimSuffix(emit.Where(where, g.indent), ","))
		}
		b.WriteByte(';')
		return b.String(), nil
	}

	if len(where) > 0 {
		b.WriteByte('\n')
		b.WriteString(emit.Where(where, g.indent))
		b.WriteByte('\n')
		b.WriteString(g.indent)
		b.WriteString("{\n")
	} else {
		b.WriteString(" {\n")
	}

	inner := g.indent + indentLevel
	if err := g.writeInner(&b, inner); err != nil {
		return "", err
	}
	b.WriteByte('\n')
	b.WriteString(inner)
	fmt.Fprintf(&b, "%s(Box::new(%s))\n", pinFrom, g.call())
	b.WriteString(g.indent)
	b.WriteByte('}')
	return b.String(), nil
}

// writeSignature writes the outer signature up to and including the
// handle return type.
func (g *methodGen) writeSignature(b *strings.Builder) {
	sig := g.el.Sig
	if g.m.Vis != "" {
		b.WriteString(g.m.Vis)
		b.WriteByte(' ')
	}
	if g.m.Default {
		b.WriteString("default ")
	}
	if sig.Unsafe {
		b.WriteString("unsafe ")
	}
	if sig.Extern {
		b.WriteString("extern ")
		if sig.Abi != "" {
			b.WriteString(sig.Abi)
			b.WriteByte(' ')
		}
	}
	b.WriteString("fn ")
	b.WriteString(sig.Name)
	b.WriteString(emit.GenericParams(sig.Generics.Params))

	var params []string
	if r := sig.Receiver; r != nil {
		params = append(params, emit.Attributes(r.Attrs)+outerReceiver(r))
	}
	for i, p := range sig.Params {
		params = append(params, emit.Attributes(p.Attrs)+g.outerName(p, i)+": "+emit.Type(p.Type))
	}
	b.WriteByte('(')
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(") -> ")
	b.WriteString(g.handle())
}

// handle is the boxed future type returned by the outer method.
func (g *methodGen) handle() string {
	var b strings.Builder
	b.WriteString("core::pin::Pin<Box<dyn core::future::Future<Output = ")
	b.WriteString(emit.Type(g.el.Sig.Output))
	b.WriteByte('>')
	if !g.ctx.Local {
		b.WriteString(" + core::marker::Send")
	}
	b.WriteString(" + ")
	b.WriteString(g.el.CallScope.Name)
	b.WriteString(">>")
	return b.String()
}

// outerReceiver prints the elaborated receiver without a mut binding: the
// outer method only moves self into the inner function.
func outerReceiver(r *ir.Receiver) string {
	switch {
	case r.Type != nil:
		return "self: " + emit.Type(r.Type)
	case r.Ref:
		var b strings.Builder
		b.WriteByte('&')
		if r.Lifetime != nil {
			b.WriteString(r.Lifetime.Name)
			b.WriteByte(' ')
		}
		if r.Mut {
			b.WriteString("mut ")
		}
		b.WriteString("self")
		return b.String()
	}
	return "self"
}

// outerName is the binding of parameter i in the outer signature.
// Patterns are destructured by the inner function, so the outer method
// binds them to a plain name.
func (g *methodGen) outerName(p ir.Param, i int) string {
	if p.Ident != "" {
		return p.Ident
	}
	if g.m.Body == nil {
		return p.Pattern
	}
	return fmt.Sprintf("__arg%d", i)
}

// outerWhere is the original where-clause followed by the outlives
// predicates and the injected Self bound.
func (g *methodGen) outerWhere() []ir.WherePredicate {
	preds := append([]ir.WherePredicate(nil), g.el.Sig.Generics.Where...)
	preds = append(preds, g.el.Outlives...)
	if marker := g.bound.marker(); marker != nil {
		preds = append(preds, &ir.BoundPredicate{
			Bounded: ir.SimplePath(false, "Self"),
			Bounds: []ir.Bound{
				&ir.TraitBound{Path: marker},
				&ir.LifetimeBound{Lifetime: ir.NewLifetime(g.el.CallScope.Name)},
			},
		})
	}
	return preds
}

// innerGenerics orders the inner function's parameters: every lifetime
// first (container, then method), then the container's types and consts,
// the synthesized Self parameter, and the method's types and consts.
func (g *methodGen) innerGenerics() ir.Generics {
	container := ir.ReplaceSelfInGenerics(g.c.generics(), g.concrete)
	method := ir.ReplaceSelfInGenerics(g.el.Sig.Generics, g.concrete)

	var lifetimes, rest []ir.GenericParam
	split := func(params []ir.GenericParam) {
		for _, p := range params {
			switch v := p.(type) {
			case *ir.LifetimeParam:
				lifetimes = append(lifetimes, v)
			case *ir.TypeParam:
				v.Default = nil
				rest = append(rest, v)
			case *ir.ConstParam:
				v.Default = ""
				rest = append(rest, v)
			}
		}
	}
	split(container.Params)
	if g.asyncName != "" {
		rest = append(rest, g.asyncParam())
	}
	split(method.Params)

	var out ir.Generics
	out.Params = append(lifetimes, rest...)
	out.Where = append(out.Where, container.Where...)
	out.Where = append(out.Where, method.Where...)
	return out
}

// asyncParam is AsyncTrait: ?Sized + Trait<..> [+ bound]. ?Sized is left
// out when self is taken by value, which requires a sized receiver.
func (g *methodGen) asyncParam() *ir.TypeParam {
	var bounds []ir.Bound
	if !receiver.IsPlainSelf(g.m.Sig.Receiver) {
		bounds = append(bounds, &ir.TraitBound{Modifier: "?", Path: ir.SimplePath(false, "Sized")})
	}
	bounds = append(bounds, &ir.TraitBound{Path: g.c.traitPath()})
	if marker := g.bound.marker(); marker != nil {
		bounds = append(bounds, &ir.TraitBound{Path: marker})
	}
	return &ir.TypeParam{Name: g.asyncName, Bounds: bounds}
}

// writeInner writes the nested async fn carrying the original body.
func (g *methodGen) writeInner(b *strings.Builder, indent string) error {
	sig := g.m.Sig
	generics := g.innerGenerics()

	b.WriteString(indent)
	b.WriteString("async ")
	if sig.Unsafe {
		b.WriteString("unsafe ")
	}
	b.WriteString("fn ")
	b.WriteString(sig.Name)
	b.WriteString(emit.GenericParams(generics.Params))

	var params []string
	if r := sig.Receiver; r != nil {
		binding := "_self"
		if r.MutBinding {
			binding = "mut _self"
		}
		params = append(params, emit.Attributes(r.Attrs)+binding+": "+emit.Type(receiver.Type(r, g.concrete)))
	}
	for _, p := range sig.Params {
		params = append(params, emit.Attributes(p.Attrs)+p.Pattern+": "+emit.Type(ir.ReplaceSelf(p.Type, g.concrete)))
	}
	b.WriteByte('(')
	b.WriteString(strings.Join(params, ", "))
	b.WriteByte(')')
	if sig.Output != nil {
		b.WriteString(" -> ")
		b.WriteString(emit.Type(ir.ReplaceSelf(sig.Output, g.concrete)))
	}

	if len(generics.Where) > 0 {
		b.WriteByte('\n')
		b.WriteString(emit.Where(generics.Where, indent))
		b.WriteByte('\n')
		b.WriteString(indent)
	} else {
		b.WriteByte(' ')
	}

	body, err := renameReceiver(g.m.Body.Text, g.self)
	if err != nil {
		return err
	}
	b.WriteString(body)
	return nil
}

// call is the invocation of the inner function. Type and const arguments
// are always spelled out: the trait's AsyncTrait parameter is Self, and
// impl parameters are not otherwise inferable from a by-value call.
func (g *methodGen) call() string {
	var b strings.Builder
	b.WriteString(g.m.Sig.Name)

	var targs []string
	if g.c.trait != nil {
		targs = append(targs, g.c.trait.Generics.ArgNames()...)
		targs = append(targs, "Self")
	} else {
		targs = append(targs, g.c.impl.Generics.ArgNames()...)
	}
	targs = append(targs, g.m.Sig.Generics.ArgNames()...)
	if len(targs) > 0 {
		b.WriteString("::<")
		b.WriteString(strings.Join(targs, ", "))
		b.WriteByte('>')
	}

	var args []string
	if r := g.m.Sig.Receiver; r != nil {
		args = append(args, emit.Attributes(cfgAttrs(r.Attrs))+"self")
	}
	for i, p := range g.m.Sig.Params {
		args = append(args, emit.Attributes(cfgAttrs(p.Attrs))+g.outerName(p, i))
	}
	b.WriteByte('(')
	b.WriteString(strings.Join(args, ", "))
	b.WriteByte(')')
	return b.String()
}

// cfgAttrs keeps the #[cfg] attributes of a parameter. They are repeated
// on the call argument, which must be compiled out with the parameter.
func cfgAttrs(attrs []ir.Attribute) []ir.Attribute {
	var out []ir.Attribute
	for _, a := range attrs {
		if a.Path == "cfg" {
			out = append(out, a)
		}
	}
	return out
}

// freshTypeName returns base, or base followed by the first counter that
// names no type parameter of the given generics.
func freshTypeName(base string, generics ...ir.Generics) string {
	used := make(map[string]bool)
	for _, g := range generics {
		for _, name := range g.ArgNames() {
			used[name] = true
		}
	}
	name := base
	for n := 1; used[name]; n++ {
		name = fmt.Sprintf("%s%d", base, n)
	}
	return name
}

// simplePathType reports whether t can be followed by :: in expression
// position as written, which holds for paths without generic arguments.
func simplePathType(t ir.Type) bool {
	p, ok := t.(*ir.Path)
	if !ok || p.QSelf != nil {
		return false
	}
	for _, seg := range p.Segments {
		if seg.Args != nil {
			return false
		}
	}
	return true
}
