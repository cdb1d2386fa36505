package ir

// Generics is a generic parameter list plus its where-clause.
type Generics struct {
	Params []GenericParam
	Where  []WherePredicate
}

// GenericParam is one declared generic parameter.
//
// This is a sealed interface - LifetimeParam, TypeParam and ConstParam
// implement it.
type GenericParam interface {
	genericParamNode()
}

// LifetimeParam is 'a: 'b + 'c.
type LifetimeParam struct {
	Lifetime *Lifetime
	Bounds   []*Lifetime
}

func (*LifetimeParam) genericParamNode() {}

// TypeParam is T: Bound = Default.
type TypeParam struct {
	Name    string
	Bounds  []Bound
	Default Type
}

func (*TypeParam) genericParamNode() {}

// ConstParam is const N: usize = Default. Default is raw source text.
type ConstParam struct {
	Name    string
	Type    Type
	Default string
}

func (*ConstParam) genericParamNode() {}

// WherePredicate is one predicate of a where-clause.
//
// This is a sealed interface - BoundPredicate and LifetimePredicate
// implement it.
type WherePredicate interface {
	wherePredicateNode()
}

// BoundPredicate is for<'a> T: Bound + Bound.
type BoundPredicate struct {
	ForLifetimes []*Lifetime
	Bounded      Type
	Bounds       []Bound
}

func (*BoundPredicate) wherePredicateNode() {}

// LifetimePredicate is 'a: 'b + 'c.
type LifetimePredicate struct {
	Lifetime *Lifetime
	Bounds   []*Lifetime
}

func (*LifetimePredicate) wherePredicateNode() {}

// LifetimeNames returns the names of the declared lifetime parameters in
// declaration order.
func (g Generics) LifetimeNames() []string {
	var names []string
	for _, p := range g.Params {
		if lp, ok := p.(*LifetimeParam); ok {
			names = append(names, lp.Lifetime.Name)
		}
	}
	return names
}

// TypeParamNames returns the names of the declared type parameters in
// declaration order.
func (g Generics) TypeParamNames() []string {
	var names []string
	for _, p := range g.Params {
		if tp, ok := p.(*TypeParam); ok {
			names = append(names, tp.Name)
		}
	}
	return names
}

// ArgNames returns the names of every non-lifetime parameter (types and
// consts) in declaration order, as used in a turbofish.
func (g Generics) ArgNames() []string {
	var names []string
	for _, p := range g.Params {
		switch gp := p.(type) {
		case *TypeParam:
			names = append(names, gp.Name)
		case *ConstParam:
			names = append(names, gp.Name)
		}
	}
	return names
}
