package ir

// CloneType returns a deep copy of t. Stages that rewrite types work on
// clones so the parsed declaration stays intact.
func CloneType(t Type) Type {
	return mapType(t, nil)
}

// ReplaceSelf returns a deep copy of t with every Self type, and every
// path starting with Self, rebased onto with.
//
//	Self          -> with
//	Self::Item    -> <with>::Item (or with::Item when with is a plain path)
//	<Self as T>::X -> <with as T>::X
func ReplaceSelf(t Type, with Type) Type {
	return mapType(t, with)
}

// mapType copies t. When self is non-nil, Self is substituted.
func mapType(t Type, self Type) Type {
	switch v := t.(type) {
	case nil:
		return nil
	case *Reference:
		return &Reference{Lifetime: cloneLifetime(v.Lifetime), Mut: v.Mut, Elem: mapType(v.Elem, self)}
	case *Path:
		return mapPath(v, self)
	case *Tuple:
		out := &Tuple{}
		for _, e := range v.Elems {
			out.Elems = append(out.Elems, mapType(e, self))
		}
		return out
	case *Slice:
		return &Slice{Elem: mapType(v.Elem, self)}
	case *Array:
		return &Array{Elem: mapType(v.Elem, self), Len: v.Len}
	case *Pointer:
		return &Pointer{Mut: v.Mut, Elem: mapType(v.Elem, self)}
	case *Paren:
		return &Paren{Elem: mapType(v.Elem, self)}
	case *TraitObject:
		return &TraitObject{Dyn: v.Dyn, Bounds: mapBounds(v.Bounds, self)}
	case *ImplTrait:
		return &ImplTrait{Bounds: mapBounds(v.Bounds, self)}
	case *BareFn:
		out := &BareFn{
			ForLifetimes: cloneLifetimes(v.ForLifetimes),
			Unsafe:       v.Unsafe,
			Abi:          v.Abi,
			Extern:       v.Extern,
			Variadic:     v.Variadic,
			Output:       mapType(v.Output, self),
		}
		for _, in := range v.Inputs {
			out.Inputs = append(out.Inputs, BareFnArg{Name: in.Name, Type: mapType(in.Type, self)})
		}
		return out
	case *Never:
		return &Never{}
	case *Infer:
		return &Infer{}
	case *Macro:
		return &Macro{Text: v.Text}
	}
	return t
}

func mapPath(p *Path, self Type) Type {
	if self != nil && p.QSelf == nil && !p.Global && len(p.Segments) > 0 &&
		p.Segments[0].Ident == "Self" && p.Segments[0].Args == nil {
		if len(p.Segments) == 1 {
			return mapType(self, nil)
		}
		rest := make([]PathSegment, 0, len(p.Segments)-1)
		for _, seg := range p.Segments[1:] {
			rest = append(rest, mapSegment(seg, self))
		}
		if sp, ok := self.(*Path); ok && sp.QSelf == nil && plainPath(sp) {
			out := mapType(sp, nil).(*Path)
			out.Segments = append(out.Segments, rest...)
			return out
		}
		return &Path{QSelf: &QSelf{Type: mapType(self, nil)}, Segments: rest}
	}

	out := &Path{Global: p.Global}
	if p.QSelf != nil {
		out.QSelf = &QSelf{Type: mapType(p.QSelf.Type, self)}
		if p.QSelf.As != nil {
			out.QSelf.As = mapPath(p.QSelf.As, self).(*Path)
		}
	}
	for _, seg := range p.Segments {
		out.Segments = append(out.Segments, mapSegment(seg, self))
	}
	return out
}

// plainPath reports whether no segment carries generic arguments.
func plainPath(p *Path) bool {
	for _, seg := range p.Segments {
		if seg.Args != nil {
			return false
		}
	}
	return true
}

func mapSegment(seg PathSegment, self Type) PathSegment {
	out := PathSegment{Ident: seg.Ident}
	switch a := seg.Args.(type) {
	case *AngleArgs:
		aa := &AngleArgs{Turbofish: a.Turbofish}
		for _, arg := range a.Args {
			aa.Args = append(aa.Args, mapGenericArg(arg, self))
		}
		out.Args = aa
	case *ParenArgs:
		pa := &ParenArgs{Output: mapType(a.Output, self)}
		for _, in := range a.Inputs {
			pa.Inputs = append(pa.Inputs, mapType(in, self))
		}
		out.Args = pa
	}
	return out
}

func mapGenericArg(arg GenericArg, self Type) GenericArg {
	switch a := arg.(type) {
	case *LifetimeArg:
		return &LifetimeArg{Lifetime: cloneLifetime(a.Lifetime)}
	case *TypeArg:
		return &TypeArg{Type: mapType(a.Type, self)}
	case *BindingArg:
		return &BindingArg{Name: a.Name, Type: mapType(a.Type, self)}
	case *ConstraintArg:
		return &ConstraintArg{Name: a.Name, Bounds: mapBounds(a.Bounds, self)}
	case *ConstArg:
		return &ConstArg{Expr: a.Expr}
	}
	return arg
}

func mapBounds(bounds []Bound, self Type) []Bound {
	if bounds == nil {
		return nil
	}
	out := make([]Bound, len(bounds))
	for i, b := range bounds {
		switch v := b.(type) {
		case *TraitBound:
			tb := &TraitBound{
				Paren:        v.Paren,
				Modifier:     v.Modifier,
				ForLifetimes: cloneLifetimes(v.ForLifetimes),
			}
			if v.Path != nil {
				if p, ok := mapPath(v.Path, self).(*Path); ok {
					tb.Path = p
				}
			}
			out[i] = tb
		case *LifetimeBound:
			out[i] = &LifetimeBound{Lifetime: cloneLifetime(v.Lifetime)}
		default:
			out[i] = b
		}
	}
	return out
}

// CloneBounds returns a deep copy of bounds.
func CloneBounds(bounds []Bound) []Bound {
	return mapBounds(bounds, nil)
}

// ReplaceSelfInBounds is ReplaceSelf for a bound list.
func ReplaceSelfInBounds(bounds []Bound, with Type) []Bound {
	return mapBounds(bounds, with)
}

// CloneGenerics returns a deep copy of g.
func CloneGenerics(g Generics) Generics {
	return mapGenerics(g, nil)
}

// ReplaceSelfInGenerics is ReplaceSelf for every parameter and predicate.
func ReplaceSelfInGenerics(g Generics, with Type) Generics {
	return mapGenerics(g, with)
}

func mapGenerics(g Generics, self Type) Generics {
	var out Generics
	for _, p := range g.Params {
		switch v := p.(type) {
		case *LifetimeParam:
			out.Params = append(out.Params, &LifetimeParam{Lifetime: cloneLifetime(v.Lifetime), Bounds: cloneLifetimes(v.Bounds)})
		case *TypeParam:
			out.Params = append(out.Params, &TypeParam{Name: v.Name, Bounds: mapBounds(v.Bounds, self), Default: mapType(v.Default, self)})
		case *ConstParam:
			out.Params = append(out.Params, &ConstParam{Name: v.Name, Type: mapType(v.Type, self), Default: v.Default})
		}
	}
	for _, w := range g.Where {
		switch v := w.(type) {
		case *BoundPredicate:
			out.Where = append(out.Where, &BoundPredicate{
				ForLifetimes: cloneLifetimes(v.ForLifetimes),
				Bounded:      mapType(v.Bounded, self),
				Bounds:       mapBounds(v.Bounds, self),
			})
		case *LifetimePredicate:
			out.Where = append(out.Where, &LifetimePredicate{Lifetime: cloneLifetime(v.Lifetime), Bounds: cloneLifetimes(v.Bounds)})
		}
	}
	return out
}

// CloneSignature returns a deep copy of sig.
func CloneSignature(sig Signature) Signature {
	out := sig
	out.Generics = CloneGenerics(sig.Generics)
	if sig.Receiver != nil {
		r := *sig.Receiver
		r.Lifetime = cloneLifetime(r.Lifetime)
		r.Type = CloneType(r.Type)
		out.Receiver = &r
	}
	out.Params = nil
	for _, p := range sig.Params {
		p.Type = CloneType(p.Type)
		out.Params = append(out.Params, p)
	}
	out.Output = CloneType(sig.Output)
	return out
}

func cloneLifetime(l *Lifetime) *Lifetime {
	if l == nil {
		return nil
	}
	return &Lifetime{Name: l.Name}
}

func cloneLifetimes(ls []*Lifetime) []*Lifetime {
	if ls == nil {
		return nil
	}
	out := make([]*Lifetime, len(ls))
	for i, l := range ls {
		out[i] = cloneLifetime(l)
	}
	return out
}
