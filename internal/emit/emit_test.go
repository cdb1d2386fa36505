package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/traitasync/internal/ir"
)

func lt(name string) *ir.Lifetime { return ir.NewLifetime(name) }

func TestType(t *testing.T) {
	vec := &ir.Path{Segments: []ir.PathSegment{{
		Ident: "Vec",
		Args:  &ir.AngleArgs{Args: []ir.GenericArg{&ir.TypeArg{Type: ir.SimplePath(false, "u8")}}},
	}}}

	tests := []struct {
		name string
		typ  ir.Type
		want string
	}{
		{"nil is unit", nil, "()"},
		{"unit", ir.UnitType(), "()"},
		{"one tuple", &ir.Tuple{Elems: []ir.Type{ir.SimplePath(false, "u8")}}, "(u8,)"},
		{"elided reference", &ir.Reference{Elem: ir.SimplePath(false, "str")}, "&str"},
		{"scoped mut reference", &ir.Reference{Lifetime: lt("'a"), Mut: true, Elem: vec}, "&'a mut Vec<u8>"},
		{"global path", ir.SimplePath(true, "core", "marker", "Send"), "::core::marker::Send"},
		{"array", &ir.Array{Elem: ir.SimplePath(false, "u8"), Len: "N"}, "[u8; N]"},
		{"const pointer", &ir.Pointer{Elem: ir.SimplePath(false, "T")}, "*const T"},
		{"never", &ir.Never{}, "!"},
		{"infer", &ir.Infer{}, "_"},
		{"macro", &ir.Macro{Text: "ty![u8]"}, "ty![u8]"},
		{
			"qualified self",
			&ir.Path{
				QSelf:    &ir.QSelf{Type: ir.SimplePath(false, "T"), As: ir.SimplePath(false, "Iterator")},
				Segments: []ir.PathSegment{{Ident: "Item"}},
			},
			"<T as Iterator>::Item",
		},
		{
			"trait object",
			&ir.TraitObject{Dyn: true, Bounds: []ir.Bound{
				&ir.TraitBound{Path: ir.SimplePath(false, "Write")},
				&ir.LifetimeBound{Lifetime: lt("'a")},
			}},
			"dyn Write + 'a",
		},
		{
			"fn sugar",
			&ir.Path{Segments: []ir.PathSegment{{
				Ident: "Fn",
				Args:  &ir.ParenArgs{Inputs: []ir.Type{&ir.Reference{Elem: ir.SimplePath(false, "str")}}, Output: ir.SimplePath(false, "bool")},
			}}},
			"Fn(&str) -> bool",
		},
		{
			"bare fn",
			&ir.BareFn{
				ForLifetimes: []*ir.Lifetime{lt("'a")},
				Unsafe:       true,
				Extern:       true,
				Abi:          `"C"`,
				Inputs:       []ir.BareFnArg{{Name: "x", Type: ir.SimplePath(false, "i32")}},
				Variadic:     true,
			},
			`for<'a> unsafe extern "C" fn(x: i32, ...)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Type(tt.typ))
		})
	}
}

func TestBounds_Modifiers(t *testing.T) {
	bounds := []ir.Bound{
		&ir.TraitBound{Modifier: "?", Path: ir.SimplePath(false, "Sized")},
		&ir.TraitBound{Modifier: "~const", Path: ir.SimplePath(false, "Drop")},
		&ir.TraitBound{Paren: true, Path: ir.SimplePath(false, "Send")},
	}
	assert.Equal(t, "?Sized + ~const Drop + (Send)", Bounds(bounds))
}

func TestGenericParams(t *testing.T) {
	params := []ir.GenericParam{
		&ir.LifetimeParam{Lifetime: lt("'a"), Bounds: []*ir.Lifetime{lt("'b"), lt("'c")}},
		&ir.TypeParam{
			Name:    "T",
			Bounds:  []ir.Bound{&ir.TraitBound{Path: ir.SimplePath(false, "Clone")}},
			Default: ir.SimplePath(false, "u8"),
		},
		&ir.ConstParam{Name: "N", Type: ir.SimplePath(false, "usize"), Default: "4"},
	}

	assert.Equal(t, "<'a: 'b + 'c, T: Clone = u8, const N: usize = 4>", GenericParams(params))
	assert.Equal(t, "<'a, T, N>", GenericArgs(params))
	assert.Empty(t, GenericParams(nil))
	assert.Empty(t, GenericArgs(nil))
}

func TestPredicate(t *testing.T) {
	tests := []struct {
		pred ir.WherePredicate
		want string
	}{
		{
			&ir.BoundPredicate{
				Bounded: ir.SimplePath(false, "Self"),
				Bounds: []ir.Bound{
					&ir.TraitBound{Path: ir.SimplePath(false, "core", "marker", "Sync")},
					&ir.LifetimeBound{Lifetime: lt("'async_trait")},
				},
			},
			"Self: core::marker::Sync + 'async_trait",
		},
		{
			&ir.BoundPredicate{
				ForLifetimes: []*ir.Lifetime{lt("'x")},
				Bounded:      &ir.Reference{Lifetime: lt("'x"), Elem: ir.SimplePath(false, "T")},
				Bounds:       []ir.Bound{&ir.TraitBound{Path: ir.SimplePath(false, "Debug")}},
			},
			"for<'x> &'x T: Debug",
		},
		{&ir.LifetimePredicate{Lifetime: lt("'a"), Bounds: []*ir.Lifetime{lt("'b")}}, "'a: 'b"},
		{&ir.BoundPredicate{Bounded: ir.SimplePath(false, "T")}, "T:"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Predicate(tt.pred))
		})
	}
}

func TestWhere(t *testing.T) {
	preds := []ir.WherePredicate{
		&ir.BoundPredicate{Bounded: ir.SimplePath(false, "T"), Bounds: []ir.Bound{&ir.LifetimeBound{Lifetime: lt("'life")}}},
		&ir.LifetimePredicate{Lifetime: lt("'a"), Bounds: []*ir.Lifetime{lt("'life")}},
	}

	assert.Equal(t, "  where\n      T: 'life,\n      'a: 'life,", Where(preds, "  "))
	assert.Empty(t, Where(nil, "  "))
}

func TestAttributes(t *testing.T) {
	assert.Equal(t, "", Attributes(nil))
	assert.Equal(t, `#[cfg(feature = "x")] #[allow(unused)] `, Attributes([]ir.Attribute{
		{Path: "cfg", Text: `#[cfg(feature = "x")]`},
		{Path: "allow", Text: "#[allow(unused)]"},
	}))
	assert.Equal(t, `#[doc = " id"] /** b */ `, Attributes([]ir.Attribute{
		{Doc: true, Text: "/// id"},
		{Doc: true, Text: "/** b */"},
	}))
}
