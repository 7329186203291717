package metarule

import (
	"github.com/symrules/metarule/internal/worklist"
)

// Unify returns every substitution σ with σ(s1) identical to σ(s2)
// (spec.md §4.2). If either side is concrete, unification reduces to
// matching on the other. Otherwise both sides are split by Template;
// unequal templates yield no results. depthLimit caps the number of
// case-analysis expansions explored per segment; a larger limit yields
// more (and longer) unifiers for the unbounded families sequence
// unification can produce (spec.md §8 scenario 2).
//
// The returned substitutions may bind internal fresh variables
// (negative ids) introduced while exploring "grow" derivations
// alongside the caller's own variables; this is harmless, since Apply
// ignores keys a sentence never references, and callers that care only
// about their own variables can Restrict to them.
func Unify(s1, s2 *Sentence, depthLimit int) []*Substitution {
	if s2.IsConcrete() {
		return Match(s1, s2)
	}
	if s1.IsConcrete() {
		return Match(s2, s1)
	}

	t1, segs1 := Decompose(s1)
	t2, segs2 := Decompose(s2)
	if !t1.Equal(t2) {
		return nil
	}

	ctx := s1.ctx
	xs := make([]*Sentence, len(segs1))
	for i, v := range segs1 {
		xs[i] = v.ToSentence(ctx)
	}
	ys := make([]*Sentence, len(segs2))
	for i, v := range segs2 {
		ys[i] = v.ToSentence(ctx)
	}
	return threadPairwise(xs, ys, depthLimit, unifyCore)
}

// UnifyList unifies two equal-length sentence lists pairwise, left to
// right: each pair's substitutions are composed into an accumulator
// that is applied to the remaining tails before they are unified
// (spec.md §4.2). Unequal-length lists never unify.
func UnifyList(xs, ys []*Sentence, depthLimit int) []*Substitution {
	return threadPairwise(xs, ys, depthLimit, Unify)
}

// threadPairwise folds step across xs/ys left to right, composing each
// position's substitutions into an accumulator that is applied to later
// positions before they are unified. Shared by Unify (folding across a
// sentence's special-delimited segments, via unifyCore) and UnifyList
// (folding across a caller-supplied sentence list, via the public Unify).
func threadPairwise(xs, ys []*Sentence, depthLimit int, step func(a, b *Sentence, depthLimit int) []*Substitution) []*Substitution {
	if len(xs) != len(ys) {
		return nil
	}
	var results []*Substitution
	var recurse func(idx int, acc *Substitution)
	recurse = func(idx int, acc *Substitution) {
		if idx == len(xs) {
			results = append(results, acc)
			return
		}
		ax := acc.Apply(xs[idx])
		ay := acc.Apply(ys[idx])
		for _, sub := range step(ax, ay, depthLimit) {
			recurse(idx+1, acc.Compose(sub))
		}
	}
	recurse(0, EmptySubstitution())
	return results
}

// unifyState is one node of the unification search: two residual token
// sequences still to be made equal, the substitution accumulated to
// reach this point, and the number of case-analysis expansions used so
// far (spec.md §4.2).
type unifyState struct {
	a, b  []Token
	subst *Substitution
	depth int
}

// unifyCore runs the breadth-first case-analysis search of spec.md §4.2
// directly on two sentences known to contain no special symbol (a
// decompose segment, or any sentence Unify has already template-checked).
func unifyCore(aSent, bSent *Sentence, depthLimit int) []*Substitution {
	ctx := aSent.ctx
	queue := worklist.New(unifyState{a: copyTokens(aSent), b: copyTokens(bSent), subst: EmptySubstitution(), depth: 0})

	var results []*Substitution
	for {
		st, ok := queue.Pop()
		if !ok {
			break
		}
		a, b := stripCommonPrefixSuffix(st.a, st.b)
		if len(a) == 0 && len(b) == 0 {
			results = append(results, st.subst)
			continue
		}
		if len(a) == 0 || len(b) == 0 {
			continue
		}
		if st.depth >= depthLimit {
			continue
		}
		for _, succ := range expandUnifyCase(ctx, a, b, st.subst) {
			queue.Push(unifyState{a: succ.a, b: succ.b, subst: succ.subst, depth: st.depth + 1})
		}
	}
	return results
}

func copyTokens(s *Sentence) []Token {
	out := make([]Token, s.Len())
	copy(out, s.tokens)
	return out
}

// stripCommonPrefixSuffix removes the maximal equal prefix and, from
// what remains, the maximal equal suffix (spec.md §4.2's
// find_common_prefix/suffix; non-concrete tokens strip too, since
// equal variable tokens carry no new information).
func stripCommonPrefixSuffix(a, b []Token) ([]Token, []Token) {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	a, b = a[i:], b[i:]
	j := 0
	for j < len(a) && j < len(b) && a[len(a)-1-j] == b[len(b)-1-j] {
		j++
	}
	return a[:len(a)-j], b[:len(b)-j]
}

type unifySuccessor struct {
	a, b  []Token
	subst *Substitution
}

// replaceVar substitutes every occurrence of varID in tokens with value,
// a single non-recursive pass (mirrors Substitution.Apply's splicing).
func replaceVar(tokens []Token, varID int32, value []Token) []Token {
	var out []Token
	changed := false
	for _, t := range tokens {
		if t.IsVariable() && t.ID == varID {
			out = append(out, value...)
			changed = true
			continue
		}
		out = append(out, t)
	}
	if !changed {
		return tokens
	}
	return out
}

// rewriteBranch builds one successor of the case analysis: bind varID to
// value (an elementary substitution), compose it into subst, and apply
// it to both residual sequences (the bound variable may recur in either).
func rewriteBranch(ctx *Context, a, b []Token, subst *Substitution, varID int32, value []Token) (unifySuccessor, bool) {
	binding, err := NewVariableBinding(varID, NewSentence(ctx, value))
	if err != nil {
		return unifySuccessor{}, false
	}
	return unifySuccessor{
		a:     replaceVar(a, varID, value),
		b:     replaceVar(b, varID, value),
		subst: subst.Compose(binding.ToSubstitution()),
	}, true
}

// expandUnifyCase performs spec.md §4.2's leading-token case analysis.
// a and b are both non-empty and, by construction, disagree at position
// 0 (stripCommonPrefixSuffix has already removed any equal prefix).
func expandUnifyCase(ctx *Context, a, b []Token, subst *Substitution) []unifySuccessor {
	ta, tb := a[0], b[0]

	switch {
	case ta.IsVariable() && tb.IsVariable():
		return expandBothVariable(ctx, a, b, subst, ta.ID, tb.ID)
	case ta.IsVariable():
		return expandVariableVsTerm(ctx, a, b, subst, ta.ID, tb)
	case tb.IsVariable():
		return expandVariableVsTerm(ctx, a, b, subst, tb.ID, ta)
	default:
		return nil // leading words/specials differ: abandon (spec.md §4.2).
	}
}

// expandBothVariable encodes the three rewriting choices for two
// distinct leading variables X (in a) and Y (in b): X→Y, X→YX', Y→XY'
// (X', Y' freshly allocated so the growing family's length is
// recoverable by substitution composition rather than lost to reuse of
// the same variable id).
func expandBothVariable(ctx *Context, a, b []Token, subst *Substitution, x, y int32) []unifySuccessor {
	var out []unifySuccessor
	if s, ok := rewriteBranch(ctx, a, b, subst, x, []Token{Variable(y)}); ok {
		out = append(out, s)
	}
	xPrime := ctx.NextFreshVariableID()
	if s, ok := rewriteBranch(ctx, a, b, subst, x, []Token{Variable(y), Variable(xPrime)}); ok {
		out = append(out, s)
	}
	yPrime := ctx.NextFreshVariableID()
	if s, ok := rewriteBranch(ctx, a, b, subst, y, []Token{Variable(x), Variable(yPrime)}); ok {
		out = append(out, s)
	}
	return out
}

// expandVariableVsTerm encodes the two rewriting choices for a leading
// variable X against a leading non-variable t: X→t, X→tX' (X' fresh, for
// the same reason as expandBothVariable).
func expandVariableVsTerm(ctx *Context, a, b []Token, subst *Substitution, varID int32, t Token) []unifySuccessor {
	var out []unifySuccessor
	if s, ok := rewriteBranch(ctx, a, b, subst, varID, []Token{t}); ok {
		out = append(out, s)
	}
	fresh := ctx.NextFreshVariableID()
	if s, ok := rewriteBranch(ctx, a, b, subst, varID, []Token{t, Variable(fresh)}); ok {
		out = append(out, s)
	}
	return out
}
