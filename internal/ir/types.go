package ir

// Type is a type expression.
//
// This is a sealed interface - only types in this package implement it.
// Stages switch over the closed set below:
//   - Reference: &'a T, &mut T
//   - Path: Vec<T>, Self, <T as Trait>::Assoc, Fn(A) -> B
//   - Tuple, Slice, Array, Pointer, Paren
//   - TraitObject: dyn Trait + Send + 'a
//   - ImplTrait: impl Trait
//   - BareFn: fn(&T) -> U
//   - Never, Infer
//   - Macro: an opaque macro invocation in type position
type Type interface {
	typeNode() // Marker method - seals interface to this package
}

// Lifetime is a borrow-scope marker. Name includes the leading quote,
// e.g. "'a", "'_" or "'static".
type Lifetime struct {
	Name string
}

// NewLifetime returns a lifetime with the given name.
func NewLifetime(name string) *Lifetime {
	return &Lifetime{Name: name}
}

// IsPlaceholder reports whether the lifetime is the anonymous '_ marker.
func (l *Lifetime) IsPlaceholder() bool {
	return l != nil && l.Name == "'_"
}

// IsStatic reports whether the lifetime is 'static.
func (l *Lifetime) IsStatic() bool {
	return l != nil && l.Name == "'static"
}

// Reference is &T or &mut T. A nil Lifetime means the scope was elided.
type Reference struct {
	Lifetime *Lifetime
	Mut      bool
	Elem     Type
}

func (*Reference) typeNode() {}

// Path is a possibly qualified path type.
//
//	std::collections::HashMap<K, V>   Segments: std, collections, HashMap<K, V>
//	::core::marker::Send              Global: true
//	<T as Iterator>::Item             QSelf: {T, Iterator}, Segments: Item
type Path struct {
	QSelf    *QSelf
	Global   bool
	Segments []PathSegment
}

func (*Path) typeNode() {}

// QSelf is the qualified-self prefix <Type as Trait> of a path.
type QSelf struct {
	Type Type
	As   *Path // nil for <Type>::Assoc
}

// PathSegment is one identifier of a path with its optional arguments.
type PathSegment struct {
	Ident string
	Args  GenericArgs // nil, *AngleArgs or *ParenArgs
}

// GenericArgs is the argument list of a path segment.
//
// This is a sealed interface - only AngleArgs and ParenArgs implement it.
type GenericArgs interface {
	genericArgsNode()
}

// AngleArgs is <'a, T, Item = U, N>. Turbofish records ::<...> in
// expression-style paths.
type AngleArgs struct {
	Turbofish bool
	Args      []GenericArg
}

func (*AngleArgs) genericArgsNode() {}

// ParenArgs is the Fn(A, B) -> C sugar. Output is nil for unit.
type ParenArgs struct {
	Inputs []Type
	Output Type
}

func (*ParenArgs) genericArgsNode() {}

// GenericArg is one argument inside angle brackets.
//
// This is a sealed interface - LifetimeArg, TypeArg, BindingArg,
// ConstraintArg and ConstArg implement it.
type GenericArg interface {
	genericArgNode()
}

// LifetimeArg is a lifetime argument such as 'a or '_.
type LifetimeArg struct {
	Lifetime *Lifetime
}

func (*LifetimeArg) genericArgNode() {}

// TypeArg is a type argument.
type TypeArg struct {
	Type Type
}

func (*TypeArg) genericArgNode() {}

// BindingArg is an associated type binding such as Output = T.
type BindingArg struct {
	Name string
	Type Type
}

func (*BindingArg) genericArgNode() {}

// ConstraintArg is an associated type constraint such as Item: Clone.
type ConstraintArg struct {
	Name   string
	Bounds []Bound
}

func (*ConstraintArg) genericArgNode() {}

// ConstArg is a const generic argument kept as raw source text.
type ConstArg struct {
	Expr string
}

func (*ConstArg) genericArgNode() {}

// Tuple is (A, B). An empty tuple is the unit type.
type Tuple struct {
	Elems []Type
}

func (*Tuple) typeNode() {}

// Slice is [T].
type Slice struct {
	Elem Type
}

func (*Slice) typeNode() {}

// Array is [T; N]. Len is raw source text.
type Array struct {
	Elem Type
	Len  string
}

func (*Array) typeNode() {}

// Pointer is *const T or *mut T.
type Pointer struct {
	Mut  bool
	Elem Type
}

func (*Pointer) typeNode() {}

// Paren is a parenthesized type (T).
type Paren struct {
	Elem Type
}

func (*Paren) typeNode() {}

// TraitObject is dyn A + B + 'a. Dyn is false for the bare pre-2018 form.
type TraitObject struct {
	Dyn    bool
	Bounds []Bound
}

func (*TraitObject) typeNode() {}

// ImplTrait is impl A + B.
type ImplTrait struct {
	Bounds []Bound
}

func (*ImplTrait) typeNode() {}

// BareFn is a function pointer type. It owns its own elision scope.
type BareFn struct {
	ForLifetimes []*Lifetime
	Unsafe       bool
	Abi          string // raw ABI string including quotes, "" when absent
	Extern       bool
	Inputs       []BareFnArg
	Variadic     bool
	Output       Type
}

func (*BareFn) typeNode() {}

// BareFnArg is one input of a function pointer, with an optional name.
type BareFnArg struct {
	Name string
	Type Type
}

// Never is the ! type.
type Never struct{}

func (*Never) typeNode() {}

// Infer is the _ type.
type Infer struct{}

func (*Infer) typeNode() {}

// Macro is a macro invocation in type position, kept verbatim.
type Macro struct {
	Text string
}

func (*Macro) typeNode() {}

// Bound is a trait or lifetime bound.
//
// This is a sealed interface - only TraitBound and LifetimeBound implement it.
type Bound interface {
	boundNode()
}

// TraitBound is a trait bound such as ?Sized, for<'a> Fn(&'a T) or (Send).
type TraitBound struct {
	Paren        bool
	Modifier     string // "", "?", "~const"
	ForLifetimes []*Lifetime
	Path         *Path
}

func (*TraitBound) boundNode() {}

// LifetimeBound is a lifetime used as a bound, e.g. 'a in T: 'a.
type LifetimeBound struct {
	Lifetime *Lifetime
}

func (*LifetimeBound) boundNode() {}

// SimplePath returns a path of plain identifiers, e.g.
// SimplePath(true, "core", "marker", "Send") for ::core::marker::Send.
func SimplePath(global bool, idents ...string) *Path {
	p := &Path{Global: global}
	for _, id := range idents {
		p.Segments = append(p.Segments, PathSegment{Ident: id})
	}
	return p
}

// IsSelfType reports whether t is exactly the Self path.
func IsSelfType(t Type) bool {
	p, ok := t.(*Path)
	return ok && p.QSelf == nil && !p.Global && len(p.Segments) == 1 &&
		p.Segments[0].Ident == "Self" && p.Segments[0].Args == nil
}

// UnitType returns the () type.
func UnitType() Type {
	return &Tuple{}
}
