package metarule

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_RoundTripsVocabularies(t *testing.T) {
	ctx := NewContext()
	_, err := ctx.Words.Intern("harry")
	require.NoError(t, err)
	_, err = ctx.InternVariable("ZZ")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "checkpoint.yaml")
	require.NoError(t, SaveCheckpoint(ctx, path))

	restored := NewContext()
	require.NoError(t, LoadCheckpoint(restored, path))

	id, ok := restored.Words.IDOf("harry")
	require.True(t, ok)
	assert.Equal(t, id, mustIntern(t, ctx.Words, "harry"))
}

func TestLoadCheckpoint_ConflictingPrefixIsInputContractError(t *testing.T) {
	ctx := NewContext()
	_, err := ctx.Words.Intern("harry")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "checkpoint.yaml")
	require.NoError(t, SaveCheckpoint(ctx, path))

	other := NewContext()
	_, err = other.Words.Intern("draco")
	require.NoError(t, err)

	err = LoadCheckpoint(other, path)
	require.Error(t, err)
	assert.True(t, IsInputContract(err))
}

func mustIntern(t *testing.T, v *Vocabulary, s string) int32 {
	id, ok := v.IDOf(s)
	require.True(t, ok)
	return id
}
