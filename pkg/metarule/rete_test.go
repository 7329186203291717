package metarule

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spec.md §8 scenario 5: with rules {[A] is [B] |- [A] be [B]},
// {rough people be nice} (a zero-premise rule), {[A] be rough, rough
// people be nice |- [A] be nice}, and assumption {harry is rough}, the
// forward conclusion set includes "harry be nice".
func roughHarryRules(t *testing.T, ctx *Context) []WeightedRule {
	isToBe, err := ParseRule(ctx, "[A] is [B]\n---\n[A] be [B]")
	require.NoError(t, err)
	roughPeopleNice, err := ParseRule(ctx, "---\nrough people be nice")
	require.NoError(t, err)
	beRoughToNice, err := ParseRule(ctx, "[A] be rough\nrough people be nice\n---\n[A] be nice")
	require.NoError(t, err)

	return []WeightedRule{
		{Rule: isToBe, Weight: 0},
		{Rule: roughPeopleNice, Weight: 0},
		{Rule: beRoughToNice, Weight: 0},
	}
}

func TestReteForwardProver_RoughHarryDerivesExpectedConclusion(t *testing.T) {
	ctx := NewContext()
	rules := roughHarryRules(t, ctx)
	harryIsRough := mustParseSentence(t, ctx, "harry is rough")

	prover := NewReteForwardProver(rules, nil)

	var conclusions []string
	prover.Run([]*Sentence{harryIsRough}, func(s *Sentence, r *Rule) bool {
		conclusions = append(conclusions, s.String())
		return true
	})

	assert.Contains(t, conclusions, "harry be nice")
}

// spec.md §6: the forward-prover callback's rule argument is nil exactly
// when the conclusion is an asserted assumption, and non-nil for every
// derived conclusion (including a zero-premise rule's own conclusion).
func TestReteForwardProver_CallbackRuleNilOnlyForAssumptions(t *testing.T) {
	ctx := NewContext()
	rules := roughHarryRules(t, ctx)
	harryIsRough := mustParseSentence(t, ctx, "harry is rough")

	prover := NewReteForwardProver(rules, nil)

	ruleForConclusion := map[string]*Rule{}
	prover.Run([]*Sentence{harryIsRough}, func(s *Sentence, r *Rule) bool {
		ruleForConclusion[s.String()] = r
		return true
	})

	assert.Nil(t, ruleForConclusion["harry is rough"], "an asserted assumption must report a nil rule")
	assert.NotNil(t, ruleForConclusion["rough people be nice"], "a zero-premise rule's conclusion must still report that rule")
	assert.NotNil(t, ruleForConclusion["harry be rough"])
	assert.NotNil(t, ruleForConclusion["harry be nice"])
}

func TestReteForwardProver_CallbackCancellationStopsEarly(t *testing.T) {
	ctx := NewContext()
	rules := roughHarryRules(t, ctx)
	harryIsRough := mustParseSentence(t, ctx, "harry is rough")

	prover := NewReteForwardProver(rules, nil)

	calls := 0
	prover.Run([]*Sentence{harryIsRough}, func(s *Sentence, r *Rule) bool {
		calls++
		return false
	})

	assert.Equal(t, 1, calls, "returning false from the callback must abort after the first invocation")
}

func TestReteForwardProver_DuplicateAssumptionNotReapplied(t *testing.T) {
	ctx := NewContext()
	fact := mustParseSentence(t, ctx, "harry is rough")

	prover := NewReteForwardProver(nil, nil)

	var calls int
	prover.Run([]*Sentence{fact, fact}, func(s *Sentence, r *Rule) bool {
		calls++
		return true
	})

	assert.Equal(t, 1, calls)
}

// TestReteNaiveAgreement checks spec.md §8's universal property: for a
// fixed rule set and assumption list, the Rete and naive forward provers
// emit the same set of conclusions.
func TestReteNaiveAgreement(t *testing.T) {
	ctx := NewContext()
	rules := roughHarryRules(t, ctx)
	harryIsRough := mustParseSentence(t, ctx, "harry is rough")

	reteConclusions := map[string]bool{}
	NewReteForwardProver(rules, nil).Run([]*Sentence{harryIsRough}, func(s *Sentence, r *Rule) bool {
		reteConclusions[s.String()] = true
		return true
	})

	naiveConclusions := map[string]bool{}
	NewNaiveForwardProver(rules).Run([]*Sentence{harryIsRough}, func(s *Sentence, r *Rule) bool {
		naiveConclusions[s.String()] = true
		return true
	})

	if diff := cmp.Diff(naiveConclusions, reteConclusions); diff != "" {
		t.Errorf("Rete and naive conclusion sets disagree (-naive +rete):\n%s", diff)
	}
}
