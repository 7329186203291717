package metarule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackwardProver_AssumptionMatchShortCircuits(t *testing.T) {
	ctx := NewContext()
	goal := mustParseSentence(t, ctx, "dax fep $MAPS_TO$ RED RED RED")
	assumption := mustParseSentence(t, ctx, "dax fep $MAPS_TO$ RED RED RED")

	bp := NewBackwardProver(ctx, nil, false, nil)
	result := bp.Prove([]*Sentence{assumption}, goal, 0)

	require.Equal(t, 1, result.Len())
	entry := result.Entries()[0]
	assert.Equal(t, 0, entry.Depth)
	require.Len(t, entry.ProofPaths, 1)
	assert.Len(t, entry.ProofPaths[0].Rules(), 0)
}

func TestBackwardProver_RuleExpansionRespectsWeightBudget(t *testing.T) {
	ctx := NewContext()
	rule, err := ParseRule(ctx, "[A] $MAPS_TO$ [B]\n---\n[A] fep $MAPS_TO$ [B] [B] [B]")
	require.NoError(t, err)
	assumption := mustParseSentence(t, ctx, "zup $MAPS_TO$ YELLOW")
	goal := mustParseSentence(t, ctx, "zup fep $MAPS_TO$ [X]")

	bp := NewBackwardProver(ctx, []WeightedRule{{Rule: rule, Weight: 0.3}}, false, nil)

	tooTight := bp.Prove([]*Sentence{assumption}, goal, 0.1)
	assert.Equal(t, 0, tooTight.Len(), "a rule whose weight exceeds the remaining budget must not fire")

	enough := bp.Prove([]*Sentence{assumption}, goal, 0.5)
	require.NotZero(t, enough.Len())

	xVars := goalVariableIDs(goal)
	require.Len(t, xVars, 1)

	var found *BackwardEntry
	for _, entry := range enough.Entries() {
		if bound, ok := entry.Substitution.Get(xVars[0]); ok && bound.String() == "YELLOW YELLOW YELLOW" {
			found = entry
			break
		}
	}
	require.NotNil(t, found, "expected some derivation to bind [X] to the tripled assumption value")
	assert.Equal(t, 1, found.Depth)
	require.Len(t, found.ProofPaths, 1)
	require.Len(t, found.ProofPaths[0].Rules(), 1)
	instance, err := ParseRule(ctx, "zup $MAPS_TO$ YELLOW\n---\nzup fep $MAPS_TO$ YELLOW YELLOW YELLOW")
	require.NoError(t, err)
	assert.True(t, found.ProofPaths[0].Rules()[0].IsIdentical(instance))
}

func TestBackwardProver_OnTheFlyProposalForConcreteGoal(t *testing.T) {
	ctx := NewContext()
	goal := mustParseSentence(t, ctx, "zup $MAPS_TO$ YELLOW")

	bp := NewBackwardProver(ctx, nil, true, nil)
	result := bp.Prove(nil, goal, 0)

	require.Equal(t, 1, result.Len())
	entry := result.Entries()[0]
	assert.Equal(t, 1, entry.Depth)
	require.Len(t, entry.ProofPaths, 1)
	require.Len(t, entry.ProofPaths[0].Rules(), 1)
	assert.True(t, entry.ProofPaths[0].Rules()[0].Conclusion.IsIdentical(goal))
}

func TestBackwardProver_NoProposalAndNoMatchYieldsNoResult(t *testing.T) {
	ctx := NewContext()
	goal := mustParseSentence(t, ctx, "zup $MAPS_TO$ YELLOW")

	bp := NewBackwardProver(ctx, nil, false, nil)
	result := bp.Prove(nil, goal, 1)

	assert.Equal(t, 0, result.Len())
}

func TestBackwardProver_ANDBranchComposesDisjointSubstitutions(t *testing.T) {
	ctx := NewContext()
	rule, err := ParseRule(ctx, "[A] $MAPS_TO$ [B]\n[C] $MAPS_TO$ [D]\n---\n[A] with [C] $MAPS_TO$ [B] with [D]")
	require.NoError(t, err)
	a1 := mustParseSentence(t, ctx, "dax $MAPS_TO$ RED")
	a2 := mustParseSentence(t, ctx, "lug $MAPS_TO$ BLUE")
	goal := mustParseSentence(t, ctx, "dax with lug $MAPS_TO$ [X] with [Y]")

	bp := NewBackwardProver(ctx, []WeightedRule{{Rule: rule, Weight: 0.2}}, false, nil)
	result := bp.Prove([]*Sentence{a1, a2}, goal, 1)

	require.NotZero(t, result.Len())
	ids := goalVariableIDs(goal)
	require.Len(t, ids, 2)

	found := false
	for _, entry := range result.Entries() {
		values := map[string]bool{}
		complete := true
		for _, id := range ids {
			v, ok := entry.Substitution.Get(id)
			if !ok {
				complete = false
				break
			}
			values[v.String()] = true
		}
		if complete && values["RED"] && values["BLUE"] {
			found = true
			break
		}
	}
	assert.True(t, found, "expected some derivation to bind the goal's variables to RED and BLUE")
}
