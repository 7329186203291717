package metarule

import "strings"

// maxEnumeratedMiddleLength is the per-side token-count threshold below
// which AntiUnify enumerates every prefix-length split of a mismatched
// middle (spec.md §4.3's "moderate-sized middles"); beyond it, the
// search switches to the single longest-common-subsequence-guided
// alignment to keep the search from blowing up on long inputs.
const maxEnumeratedMiddleLength = 6

// biVal is one row of the bi-substitution registry under construction:
// the fresh variable assigned to a (left, right) segment pair.
type biVal struct {
	varID       int32
	left, right []Token
}

func tokensKey(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte(byte(t.Kind))
		b.WriteString(itoa(int(t.ID)))
		b.WriteByte(';')
	}
	return b.String()
}

func pairKey(left, right []Token) string {
	return tokensKey(left) + "|" + tokensKey(right)
}

// resolveBinding looks up (left, right) in registry, reusing its
// variable if found (reuse is always allowed: it does not introduce a
// new singly-occurring binding). Otherwise it is a free binding: it may
// only be introduced when allowFree is true (spec.md §4.3's free-binding
// rule; rule anti-unification disables this for the conclusion).
func resolveBinding(ctx *Context, registry map[string]biVal, allowFree bool, left, right []Token) (int32, map[string]biVal, bool) {
	key := pairKey(left, right)
	if existing, ok := registry[key]; ok {
		return existing.varID, registry, true
	}
	if !allowFree {
		return 0, registry, false
	}
	varID := ctx.NextFreshVariableID()
	next := make(map[string]biVal, len(registry)+1)
	for k, v := range registry {
		next[k] = v
	}
	next[key] = biVal{varID: varID, left: left, right: right}
	return varID, next, true
}

// stripCommonAffix splits a, b into a shared literal prefix, the
// mismatched middles, and a shared literal suffix.
func stripCommonAffix(a, b []Token) (prefix, midA, midB, suffix []Token) {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	prefix = a[:i]
	ra, rb := a[i:], b[i:]
	j := 0
	for j < len(ra) && j < len(rb) && ra[len(ra)-1-j] == rb[len(rb)-1-j] {
		j++
	}
	suffix = ra[len(ra)-j:]
	return prefix, ra[:len(ra)-j], rb[:len(rb)-j], suffix
}

func joinTokens(parts ...[]Token) []Token {
	var out []Token
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// lcsAlign returns the index pairs (i, j) of a longest common
// subsequence of a and b (by token equality), in increasing order.
func lcsAlign(a, b []Token) [][2]int {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case a[i] == b[j]:
				dp[i][j] = dp[i+1][j+1] + 1
			case dp[i+1][j] >= dp[i][j+1]:
				dp[i][j] = dp[i+1][j]
			default:
				dp[i][j] = dp[i][j+1]
			}
		}
	}
	var pairs [][2]int
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			pairs = append(pairs, [2]int{i, j})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return pairs
}

type segCandidate struct {
	tokens   []Token
	registry map[string]biVal
}

// antiUnifyLongMiddle generalizes a and b with a single pass guided by
// their longest common subsequence: matched tokens stay literal, and
// each maximal unmatched gap (on either side) becomes one binding,
// skipped only when it is empty on both sides (spec.md §4.3).
func antiUnifyLongMiddle(ctx *Context, registry map[string]biVal, allowFree bool, a, b []Token) (segCandidate, bool) {
	pairs := lcsAlign(a, b)
	var tokens []Token
	reg := registry
	ai, bi := 0, 0
	emitGap := func(gapA, gapB []Token) bool {
		if len(gapA) == 0 && len(gapB) == 0 {
			return true
		}
		varID, next, ok := resolveBinding(ctx, reg, allowFree, gapA, gapB)
		if !ok {
			return false
		}
		reg = next
		tokens = append(tokens, Variable(varID))
		return true
	}
	for _, p := range pairs {
		if !emitGap(a[ai:p[0]], b[bi:p[1]]) {
			return segCandidate{}, false
		}
		tokens = append(tokens, a[p[0]])
		ai, bi = p[0]+1, p[1]+1
	}
	if !emitGap(a[ai:], b[bi:]) {
		return segCandidate{}, false
	}
	return segCandidate{tokens: tokens, registry: reg}, true
}

// antiUnifySegment generalizes two special-free token sequences
// (spec.md §4.3). It returns every candidate generalization found:
// the identical-sequence case needs none; a sequence that is a prefix or
// suffix of the other generalizes the extra part in one step (a strict
// infix has no separate case and is handled like any other mismatched
// middle); moderate mismatched middles are generalized by enumerating
// every prefix-length split; long middles use the single LCS-guided
// alignment; and the whole mismatched middle replaced by one variable
// is always offered as the degenerate fallback.
func antiUnifySegment(ctx *Context, registry map[string]biVal, allowFree bool, a, b []Token) []segCandidate {
	prefix, sa, sb, suffix := stripCommonAffix(a, b)
	if len(sa) == 0 && len(sb) == 0 {
		return []segCandidate{{tokens: joinTokens(prefix, suffix), registry: registry}}
	}

	var results []segCandidate

	switch {
	case len(sa) == 0 || len(sb) == 0:
		if varID, next, ok := resolveBinding(ctx, registry, allowFree, sa, sb); ok {
			results = append(results, segCandidate{tokens: joinTokens(prefix, []Token{Variable(varID)}, suffix), registry: next})
		}
	case len(sa) < maxEnumeratedMiddleLength && len(sb) < maxEnumeratedMiddleLength:
		for l1 := 1; l1 <= len(sa); l1++ {
			for l2 := 1; l2 <= len(sb); l2++ {
				prefA, restA := sa[:l1], sa[l1:]
				prefB, restB := sb[:l2], sb[l2:]
				varID, next, ok := resolveBinding(ctx, registry, allowFree, prefA, prefB)
				if !ok {
					continue
				}
				for _, rest := range antiUnifySegment(ctx, next, allowFree, restA, restB) {
					results = append(results, segCandidate{
						tokens:   joinTokens(prefix, []Token{Variable(varID)}, rest.tokens, suffix),
						registry: rest.registry,
					})
				}
			}
		}
	default:
		if cand, ok := antiUnifyLongMiddle(ctx, registry, allowFree, sa, sb); ok {
			results = append(results, segCandidate{tokens: joinTokens(prefix, cand.tokens, suffix), registry: cand.registry})
		}
	}

	if varID, next, ok := resolveBinding(ctx, registry, allowFree, sa, sb); ok {
		results = append(results, segCandidate{tokens: joinTokens(prefix, []Token{Variable(varID)}, suffix), registry: next})
	}

	return results
}

// BiSubstitution maps each fresh anti-unification variable to the pair
// of segments (one from each original input) it generalizes (spec.md
// §4.3). Unlike Substitution, a side may be the empty sentence: it
// bypasses Substitution's construction entirely rather than violating
// Substitution's non-empty-value invariant.
type BiSubstitution struct {
	entries map[int32]biPair
}

type biPair struct {
	left, right *Sentence
}

func buildBiSubstitution(ctx *Context, registry map[string]biVal) *BiSubstitution {
	entries := make(map[int32]biPair, len(registry))
	for _, v := range registry {
		entries[v.varID] = biPair{left: NewSentence(ctx, v.left), right: NewSentence(ctx, v.right)}
	}
	return &BiSubstitution{entries: entries}
}

// Get returns the (left, right) segment pair bound to varID.
func (bs *BiSubstitution) Get(varID int32) (left, right *Sentence, ok bool) {
	p, ok := bs.entries[varID]
	if !ok {
		return nil, nil, false
	}
	return p.left, p.right, true
}

// Size returns the number of fresh variables the bi-substitution binds.
func (bs *BiSubstitution) Size() int { return len(bs.entries) }

// Specialize reconstructs one of the two original inputs from general
// by replacing each bound variable with its left (left=true) or right
// (left=false) side; this is the roundtrip property of spec.md §8.
func (bs *BiSubstitution) Specialize(general *Sentence, left bool) *Sentence {
	var out []Token
	for i := 0; i < general.Len(); i++ {
		t := general.At(i)
		if t.IsVariable() {
			if p, ok := bs.entries[t.ID]; ok {
				if left {
					out = append(out, p.left.tokens...)
				} else {
					out = append(out, p.right.tokens...)
				}
				continue
			}
		}
		out = append(out, t)
	}
	return NewSentence(general.ctx, out)
}

// AntiUnifier is one least-general generalization of two sentences: a
// general instance and the bi-substitution recovering each input from
// it (spec.md §4.3).
type AntiUnifier struct {
	General        *Sentence
	BiSubstitution *BiSubstitution
}

// sentCandidate is one generalization of a whole sentence still being
// threaded through a larger anti-unification (a premise list, or a
// rule's premises feeding its conclusion): the general tokens found so
// far, and the registry recording every binding made to reach them.
type sentCandidate struct {
	tokens   []Token
	registry map[string]biVal
}

// antiUnifySentenceCore generalizes s1 and s2 starting from registry,
// the shared bi-substitution bookkeeping of spec.md §4.3: a binding may
// always reuse an entry already in registry (that is never a new free
// binding), and may only introduce a new entry when allowFree is true.
// Composite sentences are decomposed by Template and generalized
// segment by segment, threading the registry across segments so a
// repeated mismatch anywhere in the sentence collapses to one shared
// variable rather than one fresh variable per occurrence.
func antiUnifySentenceCore(ctx *Context, registry map[string]biVal, allowFree bool, s1, s2 *Sentence) []sentCandidate {
	var results []sentCandidate

	if s1.IsIdentical(s2) {
		results = append(results, sentCandidate{tokens: copyTokens(s1), registry: registry})
	}

	t1, segs1 := Decompose(s1)
	t2, segs2 := Decompose(s2)
	if t1.Equal(t2) {
		var fold func(idx int, reg map[string]biVal, acc []SentenceView)
		fold = func(idx int, reg map[string]biVal, acc []SentenceView) {
			if idx == len(segs1) {
				composed, err := Compose(ctx, t1, acc)
				if err == nil {
					results = append(results, sentCandidate{tokens: composed.tokens, registry: reg})
				}
				return
			}
			for _, cand := range antiUnifySegment(ctx, reg, allowFree, segs1[idx].Tokens(), segs2[idx].Tokens()) {
				next := make([]SentenceView, len(acc)+1)
				copy(next, acc)
				next[len(acc)] = SentenceView{tokens: cand.tokens}
				fold(idx+1, cand.registry, next)
			}
		}
		fold(0, registry, nil)
	}

	// Degenerate fallback: the entire inputs generalized to one variable.
	a, b := copyTokens(s1), copyTokens(s2)
	if varID, next, ok := resolveBinding(ctx, registry, allowFree, a, b); ok {
		results = append(results, sentCandidate{tokens: []Token{Variable(varID)}, registry: next})
	}

	return results
}

// AntiUnify enumerates least-general generalizations of s1 and s2
// (spec.md §4.3), with free bindings allowed throughout (the
// restriction to a rule's conclusion is applied by AntiUnifyRule, not
// here). Every returned AntiUnifier satisfies the soundness property:
// its General is more general than both s1 and s2.
func AntiUnify(s1, s2 *Sentence) []AntiUnifier {
	ctx := s1.ctx
	seen := make(map[string]bool)
	var out []AntiUnifier
	for _, cand := range antiUnifySentenceCore(ctx, map[string]biVal{}, true, s1, s2) {
		general := NewSentence(ctx, cand.tokens)
		if !IsMoreGeneral(general, s1) || !IsMoreGeneral(general, s2) {
			continue
		}
		key := general.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, AntiUnifier{General: general, BiSubstitution: buildBiSubstitution(ctx, cand.registry)})
	}
	return out
}

// premiseListCandidate is one generalization of a whole premise list,
// carrying forward the registry so the rule's conclusion can be
// generalized against the same bindings (spec.md §4.3).
type premiseListCandidate struct {
	sentences []*Sentence
	registry  map[string]biVal
}

// antiUnifyPremiseLists generalizes two equal-length premise lists
// pointwise with free bindings enabled, sharing one bi-substitution
// registry across the whole list (spec.md §4.3).
func antiUnifyPremiseLists(ctx *Context, registry map[string]biVal, xs, ys []*Sentence) []premiseListCandidate {
	if len(xs) != len(ys) {
		return nil
	}
	var results []premiseListCandidate
	var fold func(idx int, reg map[string]biVal, acc []*Sentence)
	fold = func(idx int, reg map[string]biVal, acc []*Sentence) {
		if idx == len(xs) {
			out := make([]*Sentence, len(acc))
			copy(out, acc)
			results = append(results, premiseListCandidate{sentences: out, registry: reg})
			return
		}
		for _, cand := range antiUnifySentenceCore(ctx, reg, true, xs[idx], ys[idx]) {
			next := make([]*Sentence, len(acc)+1)
			copy(next, acc)
			next[len(acc)] = NewSentence(ctx, cand.tokens)
			fold(idx+1, cand.registry, next)
		}
	}
	fold(0, registry, nil)
	return results
}

// AntiUnifyRule implements rule anti-unification (spec.md §4.3): for
// every permutation of r2's premises, the premise lists are generalized
// first with free bindings enabled, and the conclusions are then
// generalized against the resulting registry with free bindings
// disabled — a conclusion variable may only reuse a binding its
// premises already established, never introduce one of its own.
// Results are filtered by Normalize and IsValid and deduplicated by
// rule equivalence.
func AntiUnifyRule(ctx *Context, r1, r2 *Rule) []*Rule {
	if len(r1.Premises) != len(r2.Premises) {
		return nil
	}

	var candidates []*Rule
	permuteIndices(len(r2.Premises), func(perm []int) bool {
		permuted := make([]*Sentence, len(perm))
		for i, idx := range perm {
			permuted[i] = r2.Premises[idx]
		}
		for _, premCand := range antiUnifyPremiseLists(ctx, map[string]biVal{}, r1.Premises, permuted) {
			for _, concCand := range antiUnifySentenceCore(ctx, premCand.registry, false, r1.Conclusion, r2.Conclusion) {
				candidate := Normalize(ctx, &Rule{
					Premises:   premCand.sentences,
					Conclusion: NewSentence(ctx, concCand.tokens),
				})
				if IsValid(candidate) {
					candidates = append(candidates, candidate)
				}
			}
		}
		return true
	})

	var deduped []*Rule
	for _, c := range candidates {
		dup := false
		for _, existing := range deduped {
			if existing.IsEquivalent(c) {
				dup = true
				break
			}
		}
		if !dup {
			deduped = append(deduped, c)
		}
	}
	return deduped
}
