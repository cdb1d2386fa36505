package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traitasync/internal/diag"
	"github.com/roach88/traitasync/internal/ir"
)

const unitSrc = `//! Crate docs.
#![allow(dead_code)]

use std::sync::{Arc, Mutex};

pub type Elided<'a> = &'a str;
struct Wrapper<'a, 'b>(&'a u8, &'b u8);
enum Plain { A, B }

const TABLE: Table = Table { rows: 3 };

#[async_trait]
pub trait Video {
    async fn play(&self);
}

mod inner {
    use super::*;

    #[async_trait::async_trait]
    impl Video for Clip {
        async fn play(&self) {}
    }

    #[derive(Debug)]
    struct Clip;
}

#[async_trait(local)]
fn not_a_target() {}

macro_rules! noop { () => {}; }
`

func TestScan(t *testing.T) {
	unit, err := Scan(unitSrc, "")
	require.NoError(t, err)
	require.Len(t, unit.Items, 3)

	first := unit.Items[0]
	assert.Equal(t, "async_trait", first.Attr.Path)
	assert.Equal(t, "#[async_trait]\npub trait Video {\n    async fn play(&self);\n}", first.Span.Text(unitSrc))

	nested := unit.Items[1]
	assert.Equal(t, "async_trait::async_trait", nested.Attr.Path)
	item, err := nested.Parse(unitSrc)
	require.NoError(t, err)
	assert.IsType(t, &ir.Impl{}, item)

	last := unit.Items[2]
	assert.Equal(t, "local", last.Attr.Args)
	_, err = last.Parse(unitSrc)
	assert.True(t, diag.IsCode(err, diag.CodeMalformedTarget))

	assert.Equal(t, map[string]int{"Elided": 1, "Wrapper": 2}, unit.HiddenRefs)
}

func TestScan_CustomAttribute(t *testing.T) {
	src := "#[async_trait]\ntrait A {}\n#[boxed_async]\ntrait B {}\n"
	unit, err := Scan(src, "boxed_async")
	require.NoError(t, err)
	require.Len(t, unit.Items, 1)
	assert.Equal(t, "boxed_async", unit.Items[0].Attr.Path)
}

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unbalanced", "trait A { fn f(&self);"},
		{"stray close", "trait A {} }"},
		{"unterminated string", "const S: &str = \"abc;"},
		{"unclosed module", "mod m { trait A {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan(tt.src, "")
			require.Error(t, err)
			assert.True(t, diag.IsCode(err, diag.CodeParseError), "got %v", err)
		})
	}
}

func TestIsDriver(t *testing.T) {
	tests := []struct {
		attr ir.Attribute
		want bool
	}{
		{ir.Attribute{Path: "async_trait"}, true},
		{ir.Attribute{Path: "async_trait", HasArgs: true, Args: "local"}, true},
		{ir.Attribute{Path: "async_trait::async_trait"}, true},
		{ir.Attribute{Path: "::async_trait::async_trait"}, true},
		{ir.Attribute{Path: "other::async_trait"}, false},
		{ir.Attribute{Path: "derive"}, false},
		{ir.Attribute{Doc: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.attr.Path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDriver(tt.attr, DefaultAttribute))
		})
	}
}
