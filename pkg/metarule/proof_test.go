package metarule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spec.md §8 scenario 6: building a proof over sent1,sent2,sent3 with
// Rule([sent1,sent2], sent3) then applying the rule yields a valid proof
// with sink sent3; applying a rule whose premises are missing errors.
func TestProof_ApplyAndValidity(t *testing.T) {
	ctx := NewContext()
	sent1 := mustParseSentence(t, ctx, "a")
	sent2 := mustParseSentence(t, ctx, "b")
	sent3 := mustParseSentence(t, ctx, "c")
	rule := NewRule([]*Sentence{sent1, sent2}, sent3)

	p := NewProof(ctx)
	p.AddAssumption(sent1)
	p.AddAssumption(sent2)

	ruleID, err := p.Apply(rule)
	require.NoError(t, err)
	assert.Equal(t, int32(0), ruleID)

	assert.True(t, IsProofValid(p))
	sink, ok := p.Sink()
	require.True(t, ok)
	assert.True(t, sink.IsIdentical(sent3))
}

func TestProof_ApplyMissingPremiseErrors(t *testing.T) {
	ctx := NewContext()
	sent1 := mustParseSentence(t, ctx, "a")
	sent2 := mustParseSentence(t, ctx, "b")
	sent3 := mustParseSentence(t, ctx, "c")
	rule := NewRule([]*Sentence{sent1, sent2}, sent3)

	p := NewProof(ctx)
	p.AddAssumption(sent1) // sent2 never added

	_, err := p.Apply(rule)
	require.Error(t, err)
	assert.True(t, IsInputContract(err))
}

func TestProof_ApplyRejectsCycle(t *testing.T) {
	ctx := NewContext()
	a := mustParseSentence(t, ctx, "a")
	b := mustParseSentence(t, ctx, "b")

	p := NewProof(ctx)
	p.AddAssumption(a)
	_, err := p.Apply(NewRule([]*Sentence{a}, b))
	require.NoError(t, err)

	// b -> a would close a cycle a -> b -> a.
	_, err = p.Apply(NewRule([]*Sentence{b}, a))
	require.Error(t, err)
	assert.True(t, IsInputContract(err))
}

func TestProof_TrimKeepsOnlyReachableSubgraph(t *testing.T) {
	ctx := NewContext()
	a := mustParseSentence(t, ctx, "a")
	b := mustParseSentence(t, ctx, "b")
	c := mustParseSentence(t, ctx, "c")
	unrelated := mustParseSentence(t, ctx, "z")

	p := NewProof(ctx)
	p.AddAssumption(a)
	p.AddAssumption(unrelated)
	_, err := p.Apply(NewRule([]*Sentence{a}, b))
	require.NoError(t, err)
	_, err = p.Apply(NewRule([]*Sentence{b}, c))
	require.NoError(t, err)

	trimmed, err := p.Trim(c)
	require.NoError(t, err)

	sink, ok := trimmed.Sink()
	require.True(t, ok)
	assert.True(t, sink.IsIdentical(c))

	for _, s := range trimmed.Sentences() {
		assert.False(t, s.IsIdentical(unrelated), "trim must drop sentences not reachable from the goal")
	}
}

func TestProof_MergeReplaysDistinctRuleApplications(t *testing.T) {
	ctx := NewContext()
	a := mustParseSentence(t, ctx, "a")
	b := mustParseSentence(t, ctx, "b")

	p1 := NewProof(ctx)
	p1.AddAssumption(a)
	_, err := p1.Apply(NewRule([]*Sentence{a}, b))
	require.NoError(t, err)

	p2 := NewProof(ctx)
	p2.AddAssumption(a)
	_, err = p2.Apply(NewRule([]*Sentence{a}, b))
	require.NoError(t, err)

	require.NoError(t, p1.Merge(p2))
	assert.Len(t, p1.rules, 2, "merge keeps both rule applications even though they share the same conclusion")
	assert.Len(t, p1.sentences, 2, "merge dedupes the shared sentence a and b")
}
