package ir

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemIDDeterminism(t *testing.T) {
	text := "#[async_trait]\ntrait Video {\n    async fn run(&self);\n}"

	id1, err := ItemID("trait", "Video", text)
	require.NoError(t, err)
	id2, err := ItemID("trait", "Video", text)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "ItemID must be deterministic")

	parsed, err := uuid.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version(), "name-based SHA-1 UUID")
}

func TestItemIDChangesWithInput(t *testing.T) {
	base, err := ItemID("trait", "Video", "trait Video {}")
	require.NoError(t, err)

	tests := []struct {
		name             string
		kind, item, text string
	}{
		{"kind", "impl", "Video", "trait Video {}"},
		{"name", "trait", "Audio", "trait Video {}"},
		{"text", "trait", "Video", "trait Video { }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ItemID(tt.kind, tt.item, tt.text)
			require.NoError(t, err)
			assert.NotEqual(t, base, id)
		})
	}
}

func TestItemIDNormalizesText(t *testing.T) {
	id1, err := ItemID("trait", "Caf\u00e9", "trait Caf\u00e9 {}")
	require.NoError(t, err)
	id2, err := ItemID("trait", "Cafe\u0301", "trait Cafe\u0301 {}")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestMethodID(t *testing.T) {
	item, err := ItemID("trait", "Video", "trait Video {}")
	require.NoError(t, err)
	other, err := ItemID("trait", "Audio", "trait Audio {}")
	require.NoError(t, err)

	run1, err := MethodID(item, "run")
	require.NoError(t, err)
	run2, err := MethodID(item, "run")
	require.NoError(t, err)
	stop, err := MethodID(item, "stop")
	require.NoError(t, err)
	otherRun, err := MethodID(other, "run")
	require.NoError(t, err)

	assert.Equal(t, run1, run2)
	assert.NotEqual(t, run1, stop)
	assert.NotEqual(t, run1, otherRun, "same method name in another item")
	assert.NotEqual(t, item, run1)
}

func TestDomainsDiffer(t *testing.T) {
	assert.NotEqual(t, DomainItem, DomainMethod)
}
