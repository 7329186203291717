package metarule

import "math"

// conclusionWeight derives a rule's concrete conclusion weight from the
// weight of the evidence that satisfied its premises (the minimum of every
// premise's bound weight, or +Inf for a zero-premise rule) and the rule's
// own weight (spec.md §4.7): min(joinWeight, 1) - ruleWeight. Shared between
// the Rete and naive forward provers so both compute the same number for
// the same instantiation, which is what spec.md §8's Rete-naive agreement
// property requires.
func conclusionWeight(joinWeight, ruleWeight float64) float64 {
	return math.Min(joinWeight, 1) - ruleWeight
}

// premiseMatch is one way of binding every premise of a rule to a proved
// fact simultaneously: the accumulated substitution and the weight of the
// least-confident fact it used.
type premiseMatch struct {
	sub    *Substitution
	weight float64
}

// matchAllPremises finds every substitution that matches premises[0:],
// applied under acc, to proved facts in order, left to right, threading
// acc's bindings through each successive premise exactly as proveAND does
// for the backward prover. joinWeight starts at +Inf (the identity for the
// minimum it accumulates) and tightens with every premise consumed.
func matchAllPremises(premises []*Sentence, facts map[string]*ProvedFact, acc *Substitution, joinWeight float64) []premiseMatch {
	if len(premises) == 0 {
		return []premiseMatch{{sub: acc, weight: joinWeight}}
	}
	first, rest := acc.Apply(premises[0]), premises[1:]
	var out []premiseMatch
	for _, fact := range facts {
		for _, sub := range Match(first, fact.Sentence) {
			out = append(out, matchAllPremises(rest, facts, acc.Compose(sub), math.Min(joinWeight, fact.Weight))...)
		}
	}
	return out
}

// ProvedFact is one sentence known to hold, and the weight it holds with.
type ProvedFact struct {
	Sentence *Sentence
	Weight   float64
}

// NaiveForwardProver is the unoptimized saturating forward prover of
// spec.md §4.8: it reconsiders every rule against the whole proved-fact set
// on every pass, rather than incrementally as facts arrive. It exists as
// the reference the Rete prover's output is checked against, not to be fast.
type NaiveForwardProver struct {
	rules []WeightedRule
}

// NewNaiveForwardProver creates a naive forward prover over rules.
func NewNaiveForwardProver(rules []WeightedRule) *NaiveForwardProver {
	return &NaiveForwardProver{rules: rules}
}

// Run seeds the proved-fact set with assumptions at weight 1.0, then
// repeatedly scans every rule for premise-satisfying substitutions until a
// pass adds nothing new (spec.md §4.8). callback is invoked once per
// assumption (with a nil rule) and once per newly-proved (or
// weight-improved) conclusion (with the rule that produced it), the same
// contract spec.md §6 states for the forward prover and `rete.go`'s
// ReteForwardProver.Run implements, so the two can be compared
// fact-for-fact by a caller.
func (np *NaiveForwardProver) Run(assumptions []*Sentence, callback func(conclusion *Sentence, maybeRule *Rule) bool) {
	proved := make(map[string]*ProvedFact)
	for _, a := range assumptions {
		if !np.record(proved, a, 1.0) {
			continue
		}
		if !callback(a, nil) {
			return
		}
	}

	for progress := true; progress; {
		progress = false
		for _, wr := range np.rules {
			for _, pm := range matchAllPremises(wr.Rule.Premises, proved, EmptySubstitution(), math.Inf(1)) {
				conclusion := pm.sub.Apply(wr.Rule.Conclusion)
				weight := conclusionWeight(pm.weight, wr.Weight)
				if weight <= 0 {
					continue
				}
				if !np.record(proved, conclusion, weight) {
					continue
				}
				progress = true
				if !callback(conclusion, wr.Rule) {
					return
				}
			}
		}
	}
}

// record inserts sentence at weight into proved if it is new or an
// improvement, reporting whether it did so.
func (np *NaiveForwardProver) record(proved map[string]*ProvedFact, sentence *Sentence, weight float64) bool {
	key := sentence.String()
	if existing, ok := proved[key]; ok && existing.Weight >= weight {
		return false
	}
	proved[key] = &ProvedFact{Sentence: sentence, Weight: weight}
	return true
}
