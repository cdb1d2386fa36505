// Package emit prints model types, bounds and generics back to source
// text in the canonical layout: single spaces around + and after commas,
// no space inside angle brackets.
package emit

import (
	"strconv"
	"strings"

	"github.com/roach88/traitasync/internal/ir"
)

// Type prints a type expression. A nil type prints as the unit type.
func Type(t ir.Type) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

// Path prints a path.
func Path(p *ir.Path) string {
	var b strings.Builder
	writePath(&b, p)
	return b.String()
}

// Bounds prints a bound list joined by " + ".
func Bounds(bounds []ir.Bound) string {
	var b strings.Builder
	writeBounds(&b, bounds)
	return b.String()
}

// Attributes prints attributes as written, each followed by a space, for
// use in front of a parameter. Line doc comments become #[doc = ".."]
// since they would swallow the rest of the line.
func Attributes(attrs []ir.Attribute) string {
	var b strings.Builder
	for _, a := range attrs {
		if a.Doc && strings.HasPrefix(a.Text, "///") {
			b.WriteString("#[doc = ")
			b.WriteString(strconv.Quote(strings.TrimPrefix(a.Text, "///")))
			b.WriteString("] ")
			continue
		}
		b.WriteString(a.Text)
		b.WriteByte(' ')
	}
	return b.String()
}

// GenericParams prints <..> with full parameter declarations, or "" when
// params is empty.
func GenericParams(params []ir.GenericParam) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = GenericParam(p)
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// GenericParam prints one parameter declaration.
func GenericParam(p ir.GenericParam) string {
	var b strings.Builder
	switch v := p.(type) {
	case *ir.LifetimeParam:
		b.WriteString(v.Lifetime.Name)
		if len(v.Bounds) > 0 {
			b.WriteString(": ")
			writeLifetimes(&b, v.Bounds)
		}
	case *ir.TypeParam:
		b.WriteString(v.Name)
		if len(v.Bounds) > 0 {
			b.WriteString(": ")
			writeBounds(&b, v.Bounds)
		}
		if v.Default != nil {
			b.WriteString(" = ")
			writeType(&b, v.Default)
		}
	case *ir.ConstParam:
		b.WriteString("const ")
		b.WriteString(v.Name)
		b.WriteString(": ")
		writeType(&b, v.Type)
		if v.Default != "" {
			b.WriteString(" = ")
			b.WriteString(v.Default)
		}
	}
	return b.String()
}

// GenericArgs prints the parameters of g as arguments, e.g. <'a, T, N>
// for <'a, T: Clone, const N: usize>, or "" when there are none.
func GenericArgs(params []ir.GenericParam) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		switch v := p.(type) {
		case *ir.LifetimeParam:
			parts = append(parts, v.Lifetime.Name)
		case *ir.TypeParam:
			parts = append(parts, v.Name)
		case *ir.ConstParam:
			parts = append(parts, v.Name)
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// Predicate prints one where-clause predicate.
func Predicate(w ir.WherePredicate) string {
	var b strings.Builder
	switch v := w.(type) {
	case *ir.BoundPredicate:
		writeFor(&b, v.ForLifetimes)
		writeType(&b, v.Bounded)
		b.WriteString(":")
		if len(v.Bounds) > 0 {
			b.WriteByte(' ')
			writeBounds(&b, v.Bounds)
		}
	case *ir.LifetimePredicate:
		b.WriteString(v.Lifetime.Name)
		b.WriteString(":")
		if len(v.Bounds) > 0 {
			b.WriteByte(' ')
			writeLifetimes(&b, v.Bounds)
		}
	}
	return b.String()
}

// Where prints a multi-line where-clause, one predicate per line:
//
//	where
//	    T: Clone,
//	    'a: 'b,
//
// Each line starts with indent; predicates get one extra level. The
// result has no trailing newline, and is "" when preds is empty.
func Where(preds []ir.WherePredicate, indent string) string {
	if len(preds) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString("where")
	for _, p := range preds {
		b.WriteByte('\n')
		b.WriteString(indent)
		b.WriteString("    ")
		b.WriteString(Predicate(p))
		b.WriteByte(',')
	}
	return b.String()
}

func writeType(b *strings.Builder, t ir.Type) {
	switch v := t.(type) {
	case nil:
		b.WriteString("()")
	case *ir.Reference:
		b.WriteByte('&')
		if v.Lifetime != nil {
			b.WriteString(v.Lifetime.Name)
			b.WriteByte(' ')
		}
		if v.Mut {
			b.WriteString("mut ")
		}
		writeType(b, v.Elem)
	case *ir.Path:
		writePath(b, v)
	case *ir.Tuple:
		b.WriteByte('(')
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeType(b, e)
		}
		if len(v.Elems) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *ir.Slice:
		b.WriteByte('[')
		writeType(b, v.Elem)
		b.WriteByte(']')
	case *ir.Array:
		b.WriteByte('[')
		writeType(b, v.Elem)
		b.WriteString("; ")
		b.WriteString(v.Len)
		b.WriteByte(']')
	case *ir.Pointer:
		if v.Mut {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}
		writeType(b, v.Elem)
	case *ir.Paren:
		b.WriteByte('(')
		writeType(b, v.Elem)
		b.WriteByte(')')
	case *ir.TraitObject:
		if v.Dyn {
			b.WriteString("dyn ")
		}
		writeBounds(b, v.Bounds)
	case *ir.ImplTrait:
		b.WriteString("impl ")
		writeBounds(b, v.Bounds)
	case *ir.BareFn:
		writeFor(b, v.ForLifetimes)
		if v.Unsafe {
			b.WriteString("unsafe ")
		}
		if v.Extern {
			b.WriteString("extern ")
			if v.Abi != "" {
				b.WriteString(v.Abi)
				b.WriteByte(' ')
			}
		}
		b.WriteString("fn(")
		for i, in := range v.Inputs {
			if i > 0 {
				b.WriteString(", ")
			}
			if in.Name != "" {
				b.WriteString(in.Name)
				b.WriteString(": ")
			}
			writeType(b, in.Type)
		}
		if v.Variadic {
			if len(v.Inputs) > 0 {
				b.WriteString(", ")
			}
			b.WriteString("...")
		}
		b.WriteByte(')')
		if v.Output != nil {
			b.WriteString(" -> ")
			writeType(b, v.Output)
		}
	case *ir.Never:
		b.WriteByte('!')
	case *ir.Infer:
		b.WriteByte('_')
	case *ir.Macro:
		b.WriteString(v.Text)
	}
}

func writePath(b *strings.Builder, p *ir.Path) {
	if p.QSelf != nil {
		b.WriteByte('<')
		writeType(b, p.QSelf.Type)
		if p.QSelf.As != nil {
			b.WriteString(" as ")
			writePath(b, p.QSelf.As)
		}
		b.WriteString(">::")
	} else if p.Global {
		b.WriteString("::")
	}
	for i, seg := range p.Segments {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(seg.Ident)
		switch a := seg.Args.(type) {
		case *ir.AngleArgs:
			if a.Turbofish {
				b.WriteString("::")
			}
			b.WriteByte('<')
			for j, arg := range a.Args {
				if j > 0 {
					b.WriteString(", ")
				}
				writeGenericArg(b, arg)
			}
			b.WriteByte('>')
		case *ir.ParenArgs:
			b.WriteByte('(')
			for j, in := range a.Inputs {
				if j > 0 {
					b.WriteString(", ")
				}
				writeType(b, in)
			}
			b.WriteByte(')')
			if a.Output != nil {
				b.WriteString(" -> ")
				writeType(b, a.Output)
			}
		}
	}
}

func writeGenericArg(b *strings.Builder, arg ir.GenericArg) {
	switch a := arg.(type) {
	case *ir.LifetimeArg:
		b.WriteString(a.Lifetime.Name)
	case *ir.TypeArg:
		writeType(b, a.Type)
	case *ir.BindingArg:
		b.WriteString(a.Name)
		b.WriteString(" = ")
		writeType(b, a.Type)
	case *ir.ConstraintArg:
		b.WriteString(a.Name)
		b.WriteString(": ")
		writeBounds(b, a.Bounds)
	case *ir.ConstArg:
		b.WriteString(a.Expr)
	}
}

func writeBounds(b *strings.Builder, bounds []ir.Bound) {
	for i, bound := range bounds {
		if i > 0 {
			b.WriteString(" + ")
		}
		switch v := bound.(type) {
		case *ir.LifetimeBound:
			b.WriteString(v.Lifetime.Name)
		case *ir.TraitBound:
			if v.Paren {
				b.WriteByte('(')
			}
			b.WriteString(v.Modifier)
			if v.Modifier == "~const" {
				b.WriteByte(' ')
			}
			writeFor(b, v.ForLifetimes)
			if v.Path != nil {
				writePath(b, v.Path)
			}
			if v.Paren {
				b.WriteByte(')')
			}
		}
	}
}

func writeLifetimes(b *strings.Builder, ls []*ir.Lifetime) {
	for i, l := range ls {
		if i > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(l.Name)
	}
}

func writeFor(b *strings.Builder, ls []*ir.Lifetime) {
	if len(ls) == 0 {
		return
	}
	b.WriteString("for<")
	for i, l := range ls {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.Name)
	}
	b.WriteString("> ")
}
