package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traitasync/internal/ir"
)

func span(line int) ir.Span {
	return ir.Span{Start: ir.Pos{Line: line, Column: 1}, End: ir.Pos{Line: line, Column: 5}}
}

func TestIsCode(t *testing.T) {
	parse := ParseError(span(1), "unexpected `}`")
	scope := AmbiguousBorrowScope(span(2), "Elided")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"single match", parse, CodeParseError, true},
		{"single mismatch", parse, CodeAmbiguousBorrowScope, false},
		{"wrapped", fmt.Errorf("expand: %w", scope), CodeAmbiguousBorrowScope, true},
		{"list first entry", List{parse, scope}, CodeParseError, true},
		{"list later entry", List{parse, scope}, CodeAmbiguousBorrowScope, true},
		{"wrapped list later entry", fmt.Errorf("unit: %w", List{parse, scope}), CodeAmbiguousBorrowScope, true},
		{"list without code", List{parse, scope}, CodeMalformedTarget, false},
		{"plain error", errors.New("boom"), CodeParseError, false},
		{"nil", nil, CodeParseError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}

func TestAsList(t *testing.T) {
	d := MalformedTarget(span(3), "`fn`")

	list, ok := AsList(fmt.Errorf("wrapped: %w", d))
	require.True(t, ok)
	assert.Equal(t, List{d}, list)

	list, ok = AsList(List{d, d})
	require.True(t, ok)
	assert.Len(t, list, 2)

	_, ok = AsList(errors.New("boom"))
	assert.False(t, ok)
}

func TestInternal(t *testing.T) {
	d := Internal(PhaseExpand, errors.New("splice out of range"))
	assert.Equal(t, CodeInternal, d.Code)
	assert.Equal(t, PhaseExpand, d.Phase)
	assert.Equal(t, "splice out of range", d.Message)
	assert.False(t, d.Span.IsValid())
}

func TestList_Err(t *testing.T) {
	assert.NoError(t, List(nil).Err())
	assert.Error(t, List{ParseError(span(1), "x")}.Err())
}
