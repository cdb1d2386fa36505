package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", Str("hello"), `"hello"`},
		{"empty string", Str(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty list", List{}, "[]"},
		{"nil list", List(nil), "[]"},
		{"empty object", Object{}, "{}"},
		{"list of ints", List{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
		{"string list", StrList([]string{"x", "y"}), `["x","y"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Object{
		"z": Object{
			"b": Int(1),
			"a": Int(2),
		},
		"method": Str("run"),
		"a":      Int(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"method":"run","z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000: UTF-16 order differs from UTF-8
	obj := Object{
		"\uE000": Int(1), // UTF-16: 0xE000
		"𐀀":      Int(2), // UTF-16: 0xD800, 0xDC00 (surrogate pair)
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"𐀀":2,"`+"\uE000"+`":1}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	// Expanded source is full of angle brackets and ampersands.
	input := "core::pin::Pin<Box<dyn Future<Output = ()> + 'a>> & &'a self"
	result, err := MarshalCanonical(Object{"text": Str(input)})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"`+input+`"}`, string(result))
	assert.NotContains(t, string(result), `\u003c`)
	assert.NotContains(t, string(result), `\u0026`)
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	tests := []struct {
		name  string
		input Value
		want  string
	}{
		{"top level", nil, "null is forbidden"},
		{"in list", List{Int(1), nil}, "list[1]: null is forbidden"},
		{"in object", Object{"k": nil}, `object["k"]: null is forbidden`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "é" precomposed (NFC) and decomposed (NFD)
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"

	r1, err := MarshalCanonical(Str(composed))
	require.NoError(t, err)
	r2, err := MarshalCanonical(Str(decomposed))
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	k1, err := MarshalCanonical(Object{composed: Int(1)})
	require.NoError(t, err)
	k2, err := MarshalCanonical(Object{decomposed: Int(1)})
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "object keys are normalized too")
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"backspace", "a\bb", `"a\bb"`},
		{"form feed", "a\fb", `"a\fb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"other control", "a\x01b", `"a\u0001b"`},
		{"U+2028 stays literal", "a\u2028b", "\"a\u2028b\""},
		{"U+2029 stays literal", "a\u2029b", "\"a\u2029b\""},
		{"literal backslash-u", `\u2028`, `"\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(Str(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalCompactOutput(t *testing.T) {
	obj := Object{
		"list": List{Int(1), Int(2)},
		"bool": Bool(true),
		"int":  Int(42),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"bool":true,"int":42,"list":[1,2]}`, string(result))
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	obj := Object{}
	for _, k := range []string{"q", "w", "e", "r", "t", "y", "u", "i", "o", "p"} {
		obj[k] = Str(k)
	}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
