package metarule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedRuleSet_InsertDeduplicatesEquivalentRules(t *testing.T) {
	ctx := NewContext()
	rs := NewIndexedRuleSet(ctx, nil)

	r1, err := ParseRule(ctx, "a\nb\n---\nc")
	require.NoError(t, err)
	r2, err := ParseRule(ctx, "b\na\n---\nc")
	require.NoError(t, err)

	id1, inserted1 := rs.Insert(r1)
	assert.True(t, inserted1)
	id2, inserted2 := rs.Insert(r2)
	assert.False(t, inserted2, "premise-order permutation should be recognized as equivalent")
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, rs.Len())
}

func TestIndexedRuleSet_LinksGeneralityEdges(t *testing.T) {
	ctx := NewContext()
	rs := NewIndexedRuleSet(ctx, nil)

	general, err := ParseRule(ctx, "[A] $MAPS_TO$ [B]\n---\n[A] fep $MAPS_TO$ [B] [B] [B]")
	require.NoError(t, err)
	specific, err := ParseRule(ctx, "dax $MAPS_TO$ RED\n---\ndax fep $MAPS_TO$ RED RED RED")
	require.NoError(t, err)

	generalID, _ := rs.Insert(general)
	specificID, _ := rs.Insert(specific)

	assert.True(t, rs.IsAncestor(generalID, specificID))
	assert.True(t, rs.IsDescendant(specificID, generalID))
	assert.False(t, rs.IsAncestor(specificID, generalID))
}

// spec.md §4.4: inserting two structurally analogous rules should close the
// set under anti-unification, producing their common generalization as a
// third rule, linked as a generality ancestor of both.
func TestIndexedRuleSet_PropagatesAntiUnifier(t *testing.T) {
	ctx := NewContext()
	rs := NewIndexedRuleSet(ctx, nil)

	r1, err := ParseRule(ctx, "dax $MAPS_TO$ RED\n---\ndax fep $MAPS_TO$ RED RED RED")
	require.NoError(t, err)
	r2, err := ParseRule(ctx, "lug $MAPS_TO$ BLUE\n---\nlug fep $MAPS_TO$ BLUE BLUE BLUE")
	require.NoError(t, err)

	id1, _ := rs.Insert(r1)
	id2, _ := rs.Insert(r2)
	require.Equal(t, 3, rs.Len(), "expected the pair's anti-unifier to be propagated in")

	expected, err := ParseRule(ctx, "[A] $MAPS_TO$ [B]\n---\n[A] fep $MAPS_TO$ [B] [B] [B]")
	require.NoError(t, err)

	var generalID int32 = -1
	for _, id := range rs.Ids() {
		rule, _ := rs.Rule(id)
		if rule.IsEquivalent(expected) {
			generalID = id
			break
		}
	}
	require.NotEqual(t, int32(-1), generalID, "expected the anti-unified generalization to be present")
	assert.True(t, rs.IsAncestor(generalID, id1))
	assert.True(t, rs.IsAncestor(generalID, id2))
}

func TestIndexedRuleSet_ValidityPredicateRejectsPropagatedCandidates(t *testing.T) {
	ctx := NewContext()
	rejectAll := func(*Rule) bool { return false }
	rs := NewIndexedRuleSet(ctx, rejectAll)

	r1, err := ParseRule(ctx, "dax $MAPS_TO$ RED\n---\ndax fep $MAPS_TO$ RED RED RED")
	require.NoError(t, err)
	r2, err := ParseRule(ctx, "lug $MAPS_TO$ BLUE\n---\nlug fep $MAPS_TO$ BLUE BLUE BLUE")
	require.NoError(t, err)

	rs.Insert(r1)
	rs.Insert(r2)
	assert.Equal(t, 2, rs.Len(), "validity predicate should block the anti-unified third rule")
}

func TestIndexedRuleSet_Clone(t *testing.T) {
	ctx := NewContext()
	rs := NewIndexedRuleSet(ctx, nil)

	r1, err := ParseRule(ctx, "a\n---\nb")
	require.NoError(t, err)
	rs.Insert(r1)

	snapshot := rs.Clone()

	r2, err := ParseRule(ctx, "c\n---\nd")
	require.NoError(t, err)
	rs.Insert(r2)

	assert.Equal(t, 2, rs.Len())
	assert.Equal(t, 1, snapshot.Len(), "clone must not observe mutations made after it was taken")
}
