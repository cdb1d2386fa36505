package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface for report and inspection values.
// Only Str, Int, Bool, List and Object implement it; there is no float and
// no null so every Value has exactly one canonical encoding.
type Value interface {
	value() // Sealed - only these types implement it
}

// Str is a string value.
type Str string

func (Str) value() {}

// Int is an integer value.
type Int int64

func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) value() {}

// List is an ordered list of values.
type List []Value

func (List) value() {}

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) value() {}

// StrList converts a string slice to a List of Str.
func StrList(ss []string) List {
	out := make(List, len(ss))
	for i, s := range ss {
		out[i] = Str(s)
	}
	return out
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings compares UTF-8 bytes, which orders supplementary-plane
// characters differently.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
