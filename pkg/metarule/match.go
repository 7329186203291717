package metarule

// matchSegment is a maximal run of either all-variable or all-non-variable
// tokens from a pattern sentence, the unit match's anchor search operates
// over (spec.md §4.1).
type matchSegment struct {
	variable bool
	tokens   []Token
}

func decomposeByVariableRuns(p *Sentence) []matchSegment {
	var segs []matchSegment
	n := p.Len()
	i := 0
	for i < n {
		isVar := p.At(i).IsVariable()
		start := i
		for i < n && p.At(i).IsVariable() == isVar {
			i++
		}
		toks := make([]Token, i-start)
		for k := start; k < i; k++ {
			toks[k-start] = p.At(k)
		}
		segs = append(segs, matchSegment{variable: isVar, tokens: toks})
	}
	return segs
}

// variableGap records that a run of pattern variables (segTokens, in
// order) must jointly consume concrete[start : start+length) once an
// anchor alignment has fixed the surrounding literal positions.
type variableGap struct {
	segTokens []Token
	start     int
	length    int
}

func literalFits(tokens []Token, concrete *Sentence, start int) bool {
	if start < 0 || start+len(tokens) > concrete.Len() {
		return false
	}
	for k, t := range tokens {
		c := concrete.At(start + k)
		if t.Kind != c.Kind || t.ID != c.ID {
			return false
		}
	}
	return true
}

// anchorAlignments enumerates every way to place segs' literal runs at
// non-overlapping, increasing positions in concrete such that a literal
// run at the start/end of the pattern pins to the start/end of concrete
// (spec.md §4.1's anchor-search contracts), returning for each alignment
// the list of variableGaps the runs between anchors resolve to.
func anchorAlignments(segs []matchSegment, concrete *Sentence) [][]variableGap {
	var results [][]variableGap
	var gaps []variableGap

	var recurse func(i, cursor int, pending []Token, pendingStart int)
	recurse = func(i, cursor int, pending []Token, pendingStart int) {
		if i >= len(segs) {
			if pending != nil {
				length := concrete.Len() - pendingStart
				if length < len(pending) {
					return
				}
				gaps = append(gaps, variableGap{segTokens: pending, start: pendingStart, length: length})
				results = append(results, append([]variableGap{}, gaps...))
				gaps = gaps[:len(gaps)-1]
				return
			}
			if cursor == concrete.Len() {
				results = append(results, append([]variableGap{}, gaps...))
			}
			return
		}

		seg := segs[i]
		if seg.variable {
			recurse(i+1, cursor, seg.tokens, cursor)
			return
		}

		if pending == nil {
			start := cursor
			if !literalFits(seg.tokens, concrete, start) {
				return
			}
			recurse(i+1, start+len(seg.tokens), nil, 0)
			return
		}

		minGap := len(pending)
		maxStart := concrete.Len() - len(seg.tokens)
		for start := pendingStart + minGap; start <= maxStart; start++ {
			if !literalFits(seg.tokens, concrete, start) {
				continue
			}
			gaps = append(gaps, variableGap{segTokens: pending, start: pendingStart, length: start - pendingStart})
			recurse(i+1, start+len(seg.tokens), nil, 0)
			gaps = gaps[:len(gaps)-1]
		}
	}

	recurse(0, 0, nil, 0)
	return results
}

func cloneVarBindings(b map[int32]*Sentence) map[int32]*Sentence {
	out := make(map[int32]*Sentence, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// resolveGaps enumerates, for a fixed anchor alignment, every consistent
// way to split each gap's span among its variable slots (spec.md §4.1's
// variable-resolution phase), appending one Substitution per consistent
// split to results. Splits of a single gap are generated with the first
// slot's length ascending, which is what gives scenario 1 in spec.md §8
// its three results in first-variable-length order.
func resolveGaps(gaps []variableGap, idx int, bindings map[int32]*Sentence, concrete *Sentence, ctx *Context, results *[]*Substitution) {
	if idx == len(gaps) {
		*results = append(*results, &Substitution{bindings: cloneVarBindings(bindings)})
		return
	}
	g := gaps[idx]
	resolveSplit(g, 0, g.length, 0, len(g.segTokens), bindings, concrete, ctx, func(next map[int32]*Sentence) {
		resolveGaps(gaps, idx+1, next, concrete, ctx, results)
	})
}

func resolveSplit(g variableGap, offset, remaining, slot, slotCount int, bindings map[int32]*Sentence, concrete *Sentence, ctx *Context, cont func(map[int32]*Sentence)) {
	if slot == slotCount-1 {
		if remaining < 1 {
			return
		}
		assignGapSlot(g, slot, offset, remaining, bindings, concrete, ctx, cont)
		return
	}
	maxLen := remaining - (slotCount - 1 - slot)
	for length := 1; length <= maxLen; length++ {
		assignGapSlot(g, slot, offset, length, bindings, concrete, ctx, func(next map[int32]*Sentence) {
			resolveSplit(g, offset+length, remaining-length, slot+1, slotCount, next, concrete, ctx, cont)
		})
	}
}

func assignGapSlot(g variableGap, slot, offset, length int, bindings map[int32]*Sentence, concrete *Sentence, ctx *Context, cont func(map[int32]*Sentence)) {
	varID := g.segTokens[slot].ID
	start := g.start + offset
	segment := concrete.Slice(start, start+length).ToSentence(ctx)
	if existing, ok := bindings[varID]; ok {
		if !existing.IsIdentical(segment) {
			return
		}
		cont(bindings)
		return
	}
	cont(cloneVarBindings2(bindings, varID, segment))
}

func cloneVarBindings2(b map[int32]*Sentence, id int32, val *Sentence) map[int32]*Sentence {
	out := cloneVarBindings(b)
	out[id] = val
	return out
}

// Match finds every substitution σ such that σ(pattern) is identical to
// concrete (spec.md §4.1). Variables bind to contiguous, non-empty token
// segments; repeated occurrences of the same variable must bind to
// identical segments; words and special symbols match literally. Returns
// an empty (nil) slice on failure — matching never errors (spec.md §7).
func Match(pattern, concrete *Sentence) []*Substitution {
	if pattern.Len() == 0 {
		if concrete.Len() == 0 {
			return []*Substitution{EmptySubstitution()}
		}
		return nil
	}

	patternTmpl, _ := Decompose(pattern)
	concreteTmpl, _ := Decompose(concrete)
	if !patternTmpl.Equal(concreteTmpl) {
		return nil
	}

	segs := decomposeByVariableRuns(pattern)
	alignments := anchorAlignments(segs, concrete)

	var results []*Substitution
	for _, gaps := range alignments {
		resolveGaps(gaps, 0, map[int32]*Sentence{}, concrete, pattern.ctx, &results)
	}
	return results
}

// ruleJoinDelimiter is Special(-1): a delimiter token used only to splice
// a rule's sentences into one sentence for MatchRule. Its negative id
// places it outside the special-symbol vocabulary (which only ever hands
// out positive ids), so it can never collide with, or be confused with, a
// user-supplied special symbol parsed from input.
var ruleJoinDelimiter = Special(-1)

func joinRuleSentence(ctx *Context, r *Rule, premiseOrder []int) *Sentence {
	var tokens []Token
	tokens = append(tokens, r.Conclusion.tokens...)
	for _, idx := range premiseOrder {
		tokens = append(tokens, ruleJoinDelimiter)
		tokens = append(tokens, r.Premises[idx].tokens...)
	}
	return NewSentence(ctx, tokens)
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// MatchRule implements match(rule, rule) from spec.md §4.1: the
// conclusion plus every permutation of the premises, for both rules, is
// joined into one sentence by a reserved delimiter and matched as
// sentences; duplicate substitutions (from different premise
// permutations landing on the same result) are removed.
func MatchRule(pattern, concrete *Rule) []*Substitution {
	if len(pattern.Premises) != len(concrete.Premises) {
		return nil
	}
	ctx := pattern.Conclusion.ctx
	patternJoined := joinRuleSentence(ctx, pattern, identityOrder(len(pattern.Premises)))

	var results []*Substitution
	seen := make(map[string]bool)
	permuteIndices(len(concrete.Premises), func(perm []int) bool {
		concreteJoined := joinRuleSentence(ctx, concrete, perm)
		for _, sub := range Match(patternJoined, concreteJoined) {
			key := sub.String()
			if !seen[key] {
				seen[key] = true
				results = append(results, sub)
			}
		}
		return true
	})
	return results
}

// IsMoreGeneral reports whether pattern is at least as general as
// concrete: match(pattern, concrete) is non-empty (spec.md §4.1).
func IsMoreGeneral(pattern, concrete *Sentence) bool {
	return len(Match(pattern, concrete)) > 0
}

// IsRuleMoreGeneral is IsMoreGeneral lifted to rules via MatchRule.
func IsRuleMoreGeneral(pattern, concrete *Rule) bool {
	return len(MatchRule(pattern, concrete)) > 0
}
