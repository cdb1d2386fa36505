package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfPath(rest ...string) *Path {
	return SimplePath(false, append([]string{"Self"}, rest...)...)
}

func genericCache() *Path {
	return &Path{Segments: []PathSegment{{
		Ident: "Cache",
		Args:  &AngleArgs{Args: []GenericArg{&TypeArg{Type: SimplePath(false, "T")}}},
	}}}
}

func TestCloneTypeIsDeep(t *testing.T) {
	orig := &Reference{
		Lifetime: NewLifetime("'a"),
		Elem:     &Slice{Elem: SimplePath(false, "u8")},
	}

	cp := CloneType(orig).(*Reference)
	require.Equal(t, orig, cp)

	cp.Lifetime.Name = "'b"
	cp.Elem.(*Slice).Elem.(*Path).Segments[0].Ident = "u16"
	assert.Equal(t, "'a", orig.Lifetime.Name)
	assert.Equal(t, "u8", orig.Elem.(*Slice).Elem.(*Path).Segments[0].Ident)
}

func TestCloneTypeNil(t *testing.T) {
	assert.Nil(t, CloneType(nil))
	assert.Nil(t, CloneBounds(nil))
}

func TestReplaceSelf(t *testing.T) {
	clip := SimplePath(false, "Clip")

	t.Run("bare Self", func(t *testing.T) {
		got := ReplaceSelf(selfPath(), clip)
		assert.Equal(t, clip, got)
		assert.NotSame(t, clip, got)
	})

	t.Run("associated path on plain type", func(t *testing.T) {
		got := ReplaceSelf(selfPath("Item"), clip)
		assert.Equal(t, SimplePath(false, "Clip", "Item"), got)
	})

	t.Run("associated path on generic type", func(t *testing.T) {
		got := ReplaceSelf(selfPath("Item"), genericCache()).(*Path)
		require.NotNil(t, got.QSelf)
		assert.Equal(t, genericCache(), got.QSelf.Type)
		assert.Nil(t, got.QSelf.As)
		assert.Equal(t, []PathSegment{{Ident: "Item"}}, got.Segments)
	})

	t.Run("qualified self", func(t *testing.T) {
		in := &Path{
			QSelf:    &QSelf{Type: selfPath(), As: SimplePath(false, "Iterator")},
			Segments: []PathSegment{{Ident: "Item"}},
		}
		got := ReplaceSelf(in, clip).(*Path)
		assert.Equal(t, clip, got.QSelf.Type)
		assert.Equal(t, SimplePath(false, "Iterator"), got.QSelf.As)
	})

	t.Run("nested in arguments", func(t *testing.T) {
		in := &Path{Segments: []PathSegment{{
			Ident: "Box",
			Args:  &AngleArgs{Args: []GenericArg{&TypeArg{Type: &Reference{Elem: selfPath()}}}},
		}}}
		got := ReplaceSelf(in, clip).(*Path)
		arg := got.Segments[0].Args.(*AngleArgs).Args[0].(*TypeArg)
		assert.Equal(t, clip, arg.Type.(*Reference).Elem)
		assert.True(t, IsSelfType(in.Segments[0].Args.(*AngleArgs).Args[0].(*TypeArg).Type.(*Reference).Elem),
			"the input is not modified")
	})

	t.Run("global Self is a different path", func(t *testing.T) {
		in := SimplePath(true, "Self")
		assert.Equal(t, in, ReplaceSelf(in, clip))
	})

	t.Run("fn sugar", func(t *testing.T) {
		in := &Path{Segments: []PathSegment{{
			Ident: "Fn",
			Args:  &ParenArgs{Inputs: []Type{selfPath()}, Output: selfPath()},
		}}}
		got := ReplaceSelf(in, clip).(*Path)
		pa := got.Segments[0].Args.(*ParenArgs)
		assert.Equal(t, clip, pa.Inputs[0])
		assert.Equal(t, clip, pa.Output)
	})
}

func TestReplaceSelfInGenerics(t *testing.T) {
	clip := SimplePath(false, "Clip")
	g := Generics{
		Params: []GenericParam{
			&LifetimeParam{Lifetime: NewLifetime("'a"), Bounds: []*Lifetime{NewLifetime("'b")}},
			&TypeParam{Name: "T", Bounds: []Bound{&TraitBound{Path: &Path{Segments: []PathSegment{{
				Ident: "From",
				Args:  &AngleArgs{Args: []GenericArg{&TypeArg{Type: selfPath()}}},
			}}}}}},
			&ConstParam{Name: "N", Type: SimplePath(false, "usize"), Default: "4"},
		},
		Where: []WherePredicate{
			&BoundPredicate{Bounded: selfPath(), Bounds: []Bound{&LifetimeBound{Lifetime: NewLifetime("'a")}}},
			&LifetimePredicate{Lifetime: NewLifetime("'a"), Bounds: []*Lifetime{NewLifetime("'static")}},
		},
	}

	got := ReplaceSelfInGenerics(g, clip)
	require.Len(t, got.Params, 3)
	require.Len(t, got.Where, 2)

	bound := got.Params[1].(*TypeParam).Bounds[0].(*TraitBound)
	assert.Equal(t, clip, bound.Path.Segments[0].Args.(*AngleArgs).Args[0].(*TypeArg).Type)
	assert.Equal(t, clip, got.Where[0].(*BoundPredicate).Bounded)
	assert.Equal(t, "4", got.Params[2].(*ConstParam).Default)

	assert.True(t, IsSelfType(g.Where[0].(*BoundPredicate).Bounded), "the input is not modified")
	assert.Equal(t, g, CloneGenerics(g))
}

func TestCloneSignature(t *testing.T) {
	sig := Signature{
		Async:    true,
		Name:     "run",
		Receiver: &Receiver{Ref: true, Lifetime: NewLifetime("'a")},
		Params:   []Param{{Pattern: "x", Ident: "x", Type: &Reference{Elem: SimplePath(false, "str")}}},
		Output:   SimplePath(false, "u8"),
	}

	cp := CloneSignature(sig)
	assert.Equal(t, sig, cp)

	cp.Receiver.Lifetime.Name = "'b"
	cp.Params[0].Type.(*Reference).Lifetime = NewLifetime("'c")
	assert.Equal(t, "'a", sig.Receiver.Lifetime.Name)
	assert.Nil(t, sig.Params[0].Type.(*Reference).Lifetime)
}
