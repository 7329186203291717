package metarule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAntiUnify_RoundtripAndSoundness(t *testing.T) {
	ctx := NewContext()
	cases := []struct{ s1, s2 string }{
		{"dax fep", "lug fep"},
		{"hello world", "hello world"},
		{"dax fep RED RED RED", "lug fep BLUE BLUE BLUE"},
		{"wif kiki dax", "wif blicket lug"},
	}
	for _, c := range cases {
		s1 := mustParseSentence(t, ctx, c.s1)
		s2 := mustParseSentence(t, ctx, c.s2)
		results := AntiUnify(s1, s2)
		require.NotEmpty(t, results, "expected at least the degenerate generalization for %q / %q", c.s1, c.s2)
		for _, au := range results {
			assert.True(t, au.BiSubstitution.Specialize(au.General, true).IsIdentical(s1))
			assert.True(t, au.BiSubstitution.Specialize(au.General, false).IsIdentical(s2))
			assert.True(t, IsMoreGeneral(au.General, s1))
			assert.True(t, IsMoreGeneral(au.General, s2))
		}
	}
}

// Repeatedly mismatched positions (RED/BLUE at every index) should
// admit a generalization that shares a single variable across all of
// them, not just the trivially-general single-variable-for-everything
// fallback.
func TestAntiUnify_RepeatedMismatchSharesOneVariable(t *testing.T) {
	ctx := NewContext()
	s1 := mustParseSentence(t, ctx, "RED RED RED")
	s2 := mustParseSentence(t, ctx, "BLUE BLUE BLUE")

	results := AntiUnify(s1, s2)
	var tightest *AntiUnifier
	for i := range results {
		if results[i].BiSubstitution.Size() == 1 && results[i].General.Len() == 3 {
			tightest = &results[i]
			break
		}
	}
	require.NotNil(t, tightest, "expected a generalization sharing one variable across all three mismatched positions")

	v := tightest.General.At(0)
	assert.True(t, v.IsVariable())
	for i := 0; i < 3; i++ {
		assert.Equal(t, v, tightest.General.At(i))
	}
	left, right, ok := tightest.BiSubstitution.Get(v.ID)
	require.True(t, ok)
	assert.Equal(t, "RED", left.String())
	assert.Equal(t, "BLUE", right.String())
}

// spec.md §8 scenario 3: anti-unifying the MiniSCAN dax/lug rules.
func TestAntiUnifyRule_MiniScanFep(t *testing.T) {
	ctx := NewContext()
	r1, err := ParseRule(ctx, "dax $MAPS_TO$ RED\n---\ndax fep $MAPS_TO$ RED RED RED")
	require.NoError(t, err)
	r2, err := ParseRule(ctx, "lug $MAPS_TO$ BLUE\n---\nlug fep $MAPS_TO$ BLUE BLUE BLUE")
	require.NoError(t, err)

	results := AntiUnifyRule(ctx, r1, r2)
	require.Len(t, results, 1)

	expected, err := ParseRule(ctx, "[A] $MAPS_TO$ [B]\n---\n[A] fep $MAPS_TO$ [B] [B] [B]")
	require.NoError(t, err)
	assert.True(t, results[0].IsEquivalent(expected), "got %s", results[0].String())
}

func TestAntiUnifyRule_RequiresEqualPremiseCounts(t *testing.T) {
	ctx := NewContext()
	r1 := &Rule{Premises: []*Sentence{mustParseSentence(t, ctx, "a")}, Conclusion: mustParseSentence(t, ctx, "a b")}
	r2 := &Rule{Conclusion: mustParseSentence(t, ctx, "a b")}
	assert.Empty(t, AntiUnifyRule(ctx, r1, r2))
}

func TestAntiUnify_IdenticalInputsNeedNoVariables(t *testing.T) {
	ctx := NewContext()
	s := mustParseSentence(t, ctx, "hello world")
	results := AntiUnify(s, s)
	require.NotEmpty(t, results)
	found := false
	for _, au := range results {
		if au.BiSubstitution.Size() == 0 {
			found = true
			assert.True(t, au.General.IsIdentical(s))
		}
	}
	assert.True(t, found, "expected the zero-variable generalization when inputs are identical")
}
