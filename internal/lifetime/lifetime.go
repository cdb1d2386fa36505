// Package lifetime elaborates borrow scopes in method signatures.
//
// Every elided reference scope and every '_ placeholder in a rewritten
// method's receiver, parameters and return type is bound to one fresh
// call scope, so the returned future can name the scope it borrows for.
//
//	async fn get(&self, key: &str) -> Option<Ref<'_, V>>
//
// becomes
//
//	fn get<'async_trait>(&'async_trait self, key: &'async_trait str)
//	    -> Option<Ref<'async_trait, V>>
//
// Function pointer types and Fn(..) sugar own their elision scope and are
// left alone.
package lifetime

import (
	"strconv"

	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/ir"
)

// DefaultBase is the base name of the generated call scope.
const DefaultBase = "async_trait"

// Registry maps the names of types that hide a reference to the number of
// lifetime parameters they declare.
type Registry map[string]int

// Options configures one elaboration.
type Options struct {
	// Base is the call-scope name without the quote. "" selects
	// DefaultBase.
	Base string
	// Container holds the generics of the enclosing trait or impl. Their
	// lifetime names are never reused for the call scope.
	Container ir.Generics
	// Hidden lists types that must be written with explicit scope
	// arguments.
	Hidden Registry
}

// Result is an elaborated signature.
type Result struct {
	// Sig is the rewritten signature. Its generics declare the call scope.
	Sig ir.Signature
	// CallScope is the generated scope shared by every rewritten reference.
	CallScope *ir.Lifetime
	// Introduced lists the scope parameters added to Sig. It is empty when
	// the signature was already elaborated.
	Introduced []*ir.LifetimeParam
	// Outlives binds every method type parameter and every named scope
	// used by the signature to the call scope.
	Outlives []ir.WherePredicate
	// Rewritten counts the elided and placeholder scopes replaced.
	Rewritten int
}

// Elaborate rewrites the borrow scopes of sig. The input is not modified.
// A non-nil error is a diag.List of AMBIGUOUS_BORROW_SCOPE diagnostics.
func Elaborate(sig ir.Signature, opts Options) (*Result, error) {
	base := opts.Base
	if base == "" {
		base = DefaultBase
	}

	out := ir.CloneSignature(sig)
	call, reused := chooseCallScope(out, opts.Container, base)

	w := &walker{call: call, hidden: opts.Hidden}
	if r := out.Receiver; r != nil {
		w.span = r.Span
		if r.Ref && (r.Lifetime == nil || r.Lifetime.IsPlaceholder()) {
			r.Lifetime = ir.NewLifetime(call.Name)
			w.count++
		}
		w.rewrite(r.Type)
	}
	for i := range out.Params {
		w.span = out.Params[i].Span
		w.rewrite(out.Params[i].Type)
	}
	if out.Output != nil {
		w.span = out.OutputSpan
		w.rewrite(out.Output)
	}
	if len(w.diags) > 0 {
		return nil, w.diags
	}

	res := &Result{CallScope: call, Rewritten: w.count}
	if !reused {
		lp := &ir.LifetimeParam{Lifetime: ir.NewLifetime(call.Name)}
		out.Generics.Params = insertLifetime(out.Generics.Params, lp)
		res.Introduced = []*ir.LifetimeParam{lp}
	}
	res.Sig = out
	res.Outlives = outlives(out, call)
	return res, nil
}

// chooseCallScope picks 'base, 'base1, 'base2, ... skipping names the
// method or container already uses. A method that already declares a
// scope of that family was elaborated before and keeps it.
func chooseCallScope(sig ir.Signature, container ir.Generics, base string) (*ir.Lifetime, bool) {
	for _, name := range sig.Generics.LifetimeNames() {
		if isFamily(name, base) {
			return ir.NewLifetime(name), true
		}
	}

	used := make(map[string]bool)
	for _, name := range container.LifetimeNames() {
		used[name] = true
	}
	for _, name := range sig.Generics.LifetimeNames() {
		used[name] = true
	}
	for _, lt := range namedLifetimes(sig) {
		used[lt] = true
	}

	name := "'" + base
	for i := 1; used[name]; i++ {
		name = "'" + base + strconv.Itoa(i)
	}
	return ir.NewLifetime(name), false
}

func isFamily(name, base string) bool {
	prefix := "'" + base
	if len(name) < len(prefix) || name[:len(prefix)] != prefix {
		return false
	}
	suffix := name[len(prefix):]
	if suffix == "" {
		return true
	}
	_, err := strconv.Atoi(suffix)
	return err == nil
}

// insertLifetime places lp after the last lifetime parameter.
func insertLifetime(params []ir.GenericParam, lp *ir.LifetimeParam) []ir.GenericParam {
	at := 0
	for i, p := range params {
		if _, ok := p.(*ir.LifetimeParam); ok {
			at = i + 1
		}
	}
	out := make([]ir.GenericParam, 0, len(params)+1)
	out = append(out, params[:at]...)
	out = append(out, lp)
	return append(out, params[at:]...)
}

func outlives(sig ir.Signature, call *ir.Lifetime) []ir.WherePredicate {
	var preds []ir.WherePredicate
	for _, name := range sig.Generics.TypeParamNames() {
		preds = append(preds, &ir.BoundPredicate{
			Bounded: ir.SimplePath(false, name),
			Bounds:  []ir.Bound{&ir.LifetimeBound{Lifetime: ir.NewLifetime(call.Name)}},
		})
	}

	seen := map[string]bool{call.Name: true}
	var names []string
	add := func(name string) {
		if seen[name] || name == "'static" || name == "'_" {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, name := range sig.Generics.LifetimeNames() {
		add(name)
	}
	for _, name := range namedLifetimes(sig) {
		add(name)
	}
	for _, name := range names {
		preds = append(preds, &ir.LifetimePredicate{
			Lifetime: ir.NewLifetime(name),
			Bounds:   []*ir.Lifetime{ir.NewLifetime(call.Name)},
		})
	}
	return preds
}

type walker struct {
	call   *ir.Lifetime
	hidden Registry
	span   ir.Span
	count  int
	diags  diag.List
}

func (w *walker) bind(l *ir.Lifetime) {
	if l.IsPlaceholder() {
		l.Name = w.call.Name
		w.count++
	}
}

func (w *walker) rewrite(t ir.Type) {
	switch v := t.(type) {
	case *ir.Reference:
		if v.Lifetime == nil {
			v.Lifetime = ir.NewLifetime(w.call.Name)
			w.count++
		} else {
			w.bind(v.Lifetime)
		}
		w.rewrite(v.Elem)
	case *ir.Path:
		w.path(v)
	case *ir.Tuple:
		for _, e := range v.Elems {
			w.rewrite(e)
		}
	case *ir.Slice:
		w.rewrite(v.Elem)
	case *ir.Array:
		w.rewrite(v.Elem)
	case *ir.Pointer:
		w.rewrite(v.Elem)
	case *ir.Paren:
		w.rewrite(v.Elem)
	case *ir.TraitObject:
		w.bounds(v.Bounds)
	case *ir.ImplTrait:
		w.bounds(v.Bounds)
	case *ir.BareFn, *ir.Macro, *ir.Never, *ir.Infer:
		// BareFn owns its elision scope; the rest hold no references.
	}
}

func (w *walker) path(p *ir.Path) {
	if p.QSelf != nil {
		w.rewrite(p.QSelf.Type)
		if p.QSelf.As != nil {
			w.path(p.QSelf.As)
		}
	}
	for i := range p.Segments {
		seg := &p.Segments[i]
		args, _ := seg.Args.(*ir.AngleArgs)
		if i == len(p.Segments)-1 && p.QSelf == nil {
			if _, ok := w.hidden[seg.Ident]; ok && !hasLifetimeArg(args) {
				w.diags = append(w.diags, diag.AmbiguousBorrowScope(w.span, seg.Ident))
			}
		}
		if args == nil {
			continue // nil or Fn(..) sugar
		}
		for _, arg := range args.Args {
			switch a := arg.(type) {
			case *ir.LifetimeArg:
				w.bind(a.Lifetime)
			case *ir.TypeArg:
				w.rewrite(a.Type)
			case *ir.BindingArg:
				w.rewrite(a.Type)
			case *ir.ConstraintArg:
				w.bounds(a.Bounds)
			}
		}
	}
}

func (w *walker) bounds(bounds []ir.Bound) {
	for _, b := range bounds {
		switch v := b.(type) {
		case *ir.LifetimeBound:
			w.bind(v.Lifetime)
		case *ir.TraitBound:
			if v.Path != nil {
				w.path(v.Path)
			}
		}
	}
}

func hasLifetimeArg(args *ir.AngleArgs) bool {
	if args == nil {
		return false
	}
	for _, arg := range args.Args {
		if _, ok := arg.(*ir.LifetimeArg); ok {
			return true
		}
	}
	return false
}

// namedLifetimes returns the named scopes appearing in the receiver,
// parameters and return type, in order of first appearance. Scopes bound
// by for<..> and those inside function pointer types are excluded.
func namedLifetimes(sig ir.Signature) []string {
	c := &collector{seen: make(map[string]bool)}
	if r := sig.Receiver; r != nil {
		if r.Lifetime != nil {
			c.add(r.Lifetime, nil)
		}
		c.typ(r.Type, nil)
	}
	for _, p := range sig.Params {
		c.typ(p.Type, nil)
	}
	c.typ(sig.Output, nil)
	return c.names
}

type collector struct {
	seen  map[string]bool
	names []string
}

func (c *collector) add(l *ir.Lifetime, bound map[string]bool) {
	if l == nil || l.IsPlaceholder() || l.IsStatic() || bound[l.Name] || c.seen[l.Name] {
		return
	}
	c.seen[l.Name] = true
	c.names = append(c.names, l.Name)
}

func (c *collector) typ(t ir.Type, bound map[string]bool) {
	switch v := t.(type) {
	case *ir.Reference:
		c.add(v.Lifetime, bound)
		c.typ(v.Elem, bound)
	case *ir.Path:
		c.path(v, bound)
	case *ir.Tuple:
		for _, e := range v.Elems {
			c.typ(e, bound)
		}
	case *ir.Slice:
		c.typ(v.Elem, bound)
	case *ir.Array:
		c.typ(v.Elem, bound)
	case *ir.Pointer:
		c.typ(v.Elem, bound)
	case *ir.Paren:
		c.typ(v.Elem, bound)
	case *ir.TraitObject:
		c.bounds(v.Bounds, bound)
	case *ir.ImplTrait:
		c.bounds(v.Bounds, bound)
	}
}

func (c *collector) path(p *ir.Path, bound map[string]bool) {
	if p.QSelf != nil {
		c.typ(p.QSelf.Type, bound)
		if p.QSelf.As != nil {
			c.path(p.QSelf.As, bound)
		}
	}
	for _, seg := range p.Segments {
		args, ok := seg.Args.(*ir.AngleArgs)
		if !ok {
			continue
		}
		for _, arg := range args.Args {
			switch a := arg.(type) {
			case *ir.LifetimeArg:
				c.add(a.Lifetime, bound)
			case *ir.TypeArg:
				c.typ(a.Type, bound)
			case *ir.BindingArg:
				c.typ(a.Type, bound)
			case *ir.ConstraintArg:
				c.bounds(a.Bounds, bound)
			}
		}
	}
}

func (c *collector) bounds(bounds []ir.Bound, bound map[string]bool) {
	for _, b := range bounds {
		switch v := b.(type) {
		case *ir.LifetimeBound:
			c.add(v.Lifetime, bound)
		case *ir.TraitBound:
			inner := bound
			if len(v.ForLifetimes) > 0 {
				inner = make(map[string]bool, len(bound)+len(v.ForLifetimes))
				for k := range bound {
					inner[k] = true
				}
				for _, l := range v.ForLifetimes {
					inner[l.Name] = true
				}
			}
			if v.Path != nil {
				c.path(v.Path, inner)
			}
		}
	}
}
