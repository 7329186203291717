package metarule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spec.md §8 scenario 2: unify infinite family (bounded).
func TestUnify_BoundedInfiniteFamily(t *testing.T) {
	ctx := NewContext()
	s1 := mustParseSentence(t, ctx, "hello [X]")
	s2 := mustParseSentence(t, ctx, "[X] hello")

	results := Unify(s1, s2, 10)
	require.Len(t, results, 10)

	x := ctx.MustInternVariable("X")
	lengths := make(map[int]bool)
	for _, sub := range results {
		val, ok := sub.Get(x)
		require.True(t, ok)
		for i := 0; i < val.Len(); i++ {
			assert.True(t, val.At(i).IsWord())
		}
		lengths[val.Len()] = true

		applied1 := sub.Apply(s1)
		applied2 := sub.Apply(s2)
		assert.True(t, applied1.IsIdentical(applied2))
	}
	assert.Len(t, lengths, 10, "expected 10 distinct [X] lengths (1..10 copies of hello)")
}

func TestUnify_Soundness(t *testing.T) {
	ctx := NewContext()
	cases := []struct{ s1, s2 string }{
		{"[A] kiki [B]", "wif kiki dax"},
		{"[A] [B]", "[C] [D]"},
		{"hello [X] [X]", "[Y] world world"},
	}
	for _, c := range cases {
		s1 := mustParseSentence(t, ctx, c.s1)
		s2 := mustParseSentence(t, ctx, c.s2)
		for _, sub := range Unify(s1, s2, 6) {
			assert.True(t, sub.Apply(s1).IsIdentical(sub.Apply(s2)), "unsound unifier for %q ~ %q", c.s1, c.s2)
		}
	}
}

func TestUnify_ConcreteReducesToMatch(t *testing.T) {
	ctx := NewContext()
	pattern := mustParseSentence(t, ctx, "[A] fep")
	concrete := mustParseSentence(t, ctx, "dax fep")

	fromUnify := Unify(pattern, concrete, 4)
	fromMatch := Match(pattern, concrete)
	require.Equal(t, len(fromMatch), len(fromUnify))
	for i := range fromMatch {
		assert.Equal(t, fromMatch[i].String(), fromUnify[i].String())
	}
}

func TestUnify_TemplateMismatchYieldsNoResults(t *testing.T) {
	ctx := NewContext()
	s1 := mustParseSentence(t, ctx, "[A] $MAPS_TO$ [B]")
	s2 := mustParseSentence(t, ctx, "[A] [B] [C]")
	assert.Empty(t, Unify(s1, s2, 5))
}

func TestUnifyList(t *testing.T) {
	ctx := NewContext()
	xs := []*Sentence{
		mustParseSentence(t, ctx, "[A] fep"),
		mustParseSentence(t, ctx, "[A] lug"),
	}
	ys := []*Sentence{
		mustParseSentence(t, ctx, "dax fep"),
		mustParseSentence(t, ctx, "dax lug"),
	}
	results := UnifyList(xs, ys, 4)
	require.NotEmpty(t, results)
	a := ctx.MustInternVariable("A")
	for _, sub := range results {
		val, ok := sub.Get(a)
		require.True(t, ok)
		assert.Equal(t, "dax", val.String())
	}
}
