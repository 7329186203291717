package metarule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSentenceLines_SkipsBlankLines(t *testing.T) {
	ctx := NewContext()
	sentences, err := ParseSentenceLines(ctx, "harry is rough\n\nhermione is clever\n")
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, "harry is rough", sentences[0].String())
	assert.Equal(t, "hermione is clever", sentences[1].String())
}

func TestParseWeightedRules_ParsesWeightAndDefaultsToZero(t *testing.T) {
	ctx := NewContext()
	text := `weight 0.3
[A] is [B]
---
[A] be [B]
===
---
rough people be nice
`
	rules, err := ParseWeightedRules(ctx, text)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 0.3, rules[0].Weight)
	assert.Equal(t, 0.0, rules[1].Weight)
	assert.Len(t, rules[1].Rule.Premises, 0)
}

func TestParseWeightedRules_InvalidWeightIsInputContractError(t *testing.T) {
	ctx := NewContext()
	_, err := ParseWeightedRules(ctx, "weight not-a-number\n[A] is [B]\n---\n[A] be [B]\n")
	require.Error(t, err)
	assert.True(t, IsInputContract(err))
}
