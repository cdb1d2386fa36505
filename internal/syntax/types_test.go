package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traitasync/internal/emit"
	"github.com/roach88/traitasync/internal/ir"
)

func parseTypeString(t *testing.T, src string) ir.Type {
	t.Helper()
	toks, err := Tokenize(src)
	require.NoError(t, err)
	p := newParser(src, toks)
	typ, err := p.parseType(true)
	require.NoError(t, err)
	require.Equal(t, EOF, p.peek().Kind, "unparsed input after %q", p.textFrom(0))
	return typ
}

func TestParseType_RoundTrip(t *testing.T) {
	tests := []string{
		"u8",
		"&str",
		"&'a mut Vec<u8>",
		"&&T",
		"Option<&'_ str>",
		"std::collections::HashMap<K, V>",
		"::core::marker::Send",
		"<T as Iterator>::Item",
		"<Self>::Assoc",
		"Self::Error",
		"()",
		"(u8,)",
		"(u8, &str)",
		"[u8]",
		"[u8; 4]",
		"[u8; N * 2]",
		"*const u8",
		"*mut T",
		"(dyn Fn() + Send)",
		"Box<dyn Fn(&str) -> u8 + Send + 'static>",
		"impl Iterator<Item = u8> + 'a",
		"impl Iterator<Item: Clone>",
		"fn(&str) -> &str",
		"unsafe extern \"C\" fn(i32, ...) -> i32",
		"for<'a> fn(&'a str)",
		"!",
		"_",
		"Vec<Vec<u8>>",
		"Array<u8, 3>",
		"Array<u8, { N + 1 }>",
		"Cow<'static, [u8]>",
		"Pin<Box<dyn Future<Output = ()> + Send + 'a>>",
		"Box<dyn for<'a> Visitor<'a>>",
		"T![u8]",
		"Box<dyn Error + Send + Sync>",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			assert.Equal(t, src, emit.Type(parseTypeString(t, src)))
		})
	}
}

func TestParseType_Normalizes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"& 'a   mut T", "&'a mut T"},
		{"Vec < u8 >", "Vec<u8>"},
		{"HashMap<K,V,>", "HashMap<K, V>"},
		{"Vec::<u8>", "Vec::<u8>"},
		{"dyn A+B", "dyn A + B"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, emit.Type(parseTypeString(t, tt.input)))
		})
	}
}

func TestParseType_Shapes(t *testing.T) {
	ref, ok := parseTypeString(t, "&'a mut [u8]").(*ir.Reference)
	require.True(t, ok)
	assert.Equal(t, "'a", ref.Lifetime.Name)
	assert.True(t, ref.Mut)
	assert.IsType(t, &ir.Slice{}, ref.Elem)

	elided := parseTypeString(t, "&T").(*ir.Reference)
	assert.Nil(t, elided.Lifetime, "elided scope is nil")

	path := parseTypeString(t, "Fn(u8) -> bool").(*ir.Path)
	require.Len(t, path.Segments, 1)
	args, ok := path.Segments[0].Args.(*ir.ParenArgs)
	require.True(t, ok)
	assert.Len(t, args.Inputs, 1)
	assert.NotNil(t, args.Output)

	qs := parseTypeString(t, "<T as Trait<'a>>::Out").(*ir.Path)
	require.NotNil(t, qs.QSelf)
	require.NotNil(t, qs.QSelf.As)
	assert.Equal(t, "Trait<'a>", emit.Path(qs.QSelf.As))

	bare := parseTypeString(t, "Display + Send")
	obj, ok := bare.(*ir.TraitObject)
	require.True(t, ok)
	assert.False(t, obj.Dyn)
	assert.Len(t, obj.Bounds, 2)
}
