package metarule

import (
	"sort"
	"strings"
)

// Rule has a list of premise sentences and one conclusion sentence
// (spec.md §3). Two rules are identical when their premise lists and
// conclusion are identical in order; they are equivalent iff some
// permutation of rule2's premises, combined with a single variable
// renaming, makes the two rules' premise+conclusion tuples identical.
type Rule struct {
	Premises   []*Sentence
	Conclusion *Sentence
}

// NewRule constructs a rule without validating its invariants; callers
// that need a validated rule should call Normalize then IsValid.
func NewRule(premises []*Sentence, conclusion *Sentence) *Rule {
	p := make([]*Sentence, len(premises))
	copy(p, premises)
	return &Rule{Premises: p, Conclusion: conclusion}
}

func allSentences(r *Rule) []*Sentence {
	out := make([]*Sentence, 0, len(r.Premises)+1)
	out = append(out, r.Conclusion)
	out = append(out, r.Premises...)
	return out
}

// IsIdentical reports whether two rules have identical premise lists
// (in order) and identical conclusions.
func (r *Rule) IsIdentical(other *Rule) bool {
	if len(r.Premises) != len(other.Premises) {
		return false
	}
	if !r.Conclusion.IsIdentical(other.Conclusion) {
		return false
	}
	for i, p := range r.Premises {
		if !p.IsIdentical(other.Premises[i]) {
			return false
		}
	}
	return true
}

// IsEquivalent reports whether other is r under some permutation of
// its premises and a single, shared variable renaming (spec.md §3).
func (r *Rule) IsEquivalent(other *Rule) bool {
	if len(r.Premises) != len(other.Premises) {
		return false
	}
	mine := allSentences(r)
	found := false
	permuteIndices(len(other.Premises), func(perm []int) bool {
		theirs := make([]*Sentence, 0, len(other.Premises)+1)
		theirs = append(theirs, other.Conclusion)
		for _, idx := range perm {
			theirs = append(theirs, other.Premises[idx])
		}
		if jointlyEquivalent(mine, theirs) {
			found = true
			return false // stop permuting
		}
		return true
	})
	return found
}

// jointlyEquivalent checks spec.md §3's rule-equivalence condition: a
// single bijective variable renaming that makes every corresponding
// sentence pair identical, across the whole tuple at once (not sentence
// by sentence independently, since the renaming must agree everywhere).
func jointlyEquivalent(as, bs []*Sentence) bool {
	if len(as) != len(bs) {
		return false
	}
	forward := make(map[int32]int32)
	backward := make(map[int32]int32)
	for k := range as {
		a, b := as[k], bs[k]
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			ta, tb := a.At(i), b.At(i)
			if ta.Kind != tb.Kind {
				return false
			}
			if ta.Kind != KindVariable {
				if ta.ID != tb.ID {
					return false
				}
				continue
			}
			if m, ok := forward[ta.ID]; ok {
				if m != tb.ID {
					return false
				}
			} else {
				forward[ta.ID] = tb.ID
			}
			if m, ok := backward[tb.ID]; ok {
				if m != ta.ID {
					return false
				}
			} else {
				backward[tb.ID] = ta.ID
			}
		}
	}
	return true
}

// permuteIndices calls visit with every permutation of {0,...,n-1}
// (Heap's algorithm), stopping early if visit returns false.
func permuteIndices(n int, visit func(perm []int) bool) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	var generate func(k int) bool
	generate = func(k int) bool {
		if k == 1 {
			return visit(perm)
		}
		for i := 0; i < k; i++ {
			if !generate(k - 1) {
				return false
			}
			if k%2 == 0 {
				perm[i], perm[k-1] = perm[k-1], perm[i]
			} else {
				perm[0], perm[k-1] = perm[k-1], perm[0]
			}
		}
		return true
	}
	generate(n)
}

// Hash returns a hash invariant under premise reordering and
// α-renaming: the per-premise α-invariant hashes are combined
// commutatively (XOR) and XOR-ed with the conclusion's α-invariant
// hash (spec.md §3).
func (r *Rule) Hash() uint64 {
	h := r.Conclusion.AlphaInvariantHash()
	for _, p := range r.Premises {
		h ^= p.AlphaInvariantHash()
	}
	return h
}

// String renders the rule using the §6 rule syntax: premise lines, a
// "---" separator, and the conclusion line.
func (r *Rule) String() string {
	var b strings.Builder
	for _, p := range r.Premises {
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
	b.WriteString("---\n")
	b.WriteString(r.Conclusion.String())
	return b.String()
}

// ParseRule parses the §6 rule syntax: zero or more premise lines, a
// line that is exactly "---", then exactly one non-blank conclusion line.
func ParseRule(ctx *Context, text string) (*Rule, error) {
	lines := strings.Split(text, "\n")
	sepIdx := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "---" {
			sepIdx = i
			break
		}
	}
	if sepIdx == -1 {
		return nil, newInputContractError("rule: missing '---' separator line")
	}

	var premises []*Sentence
	for _, l := range lines[:sepIdx] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		s, err := ParseSentence(ctx, l)
		if err != nil {
			return nil, err
		}
		premises = append(premises, s)
	}

	var conclusionText string
	haveConclusion := false
	for _, l := range lines[sepIdx+1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if haveConclusion {
			return nil, newInputContractError("rule: more than one conclusion line")
		}
		conclusionText = l
		haveConclusion = true
	}
	if !haveConclusion {
		return nil, newInputContractError("rule: missing conclusion line")
	}
	conclusion, err := ParseSentence(ctx, conclusionText)
	if err != nil {
		return nil, err
	}
	return &Rule{Premises: premises, Conclusion: conclusion}, nil
}

// findRedundantAdjacentPair looks for a pair of distinct variables (a,
// b) such that every occurrence of a is immediately followed by b and
// every occurrence of b is immediately preceded by a, across every
// sentence of the rule (spec.md §3's "redundant pair" rule invariant).
func findRedundantAdjacentPair(r *Rule) (a, b int32, found bool) {
	sents := allSentences(r)
	seen := make(map[[2]int32]bool)
	for _, s := range sents {
		for i := 0; i+1 < s.Len(); i++ {
			t1, t2 := s.At(i), s.At(i+1)
			if t1.IsVariable() && t2.IsVariable() && t1.ID != t2.ID {
				seen[[2]int32{t1.ID, t2.ID}] = true
			}
		}
	}
	for pair := range seen {
		if isAlwaysAdjacentPair(sents, pair[0], pair[1]) {
			return pair[0], pair[1], true
		}
	}
	return 0, 0, false
}

func isAlwaysAdjacentPair(sents []*Sentence, a, b int32) bool {
	for _, s := range sents {
		for i := 0; i < s.Len(); i++ {
			t := s.At(i)
			if t.IsVariable() && t.ID == a {
				if i+1 >= s.Len() || !(s.At(i+1).IsVariable() && s.At(i+1).ID == b) {
					return false
				}
			}
			if t.IsVariable() && t.ID == b {
				if i == 0 || !(s.At(i-1).IsVariable() && s.At(i-1).ID == a) {
					return false
				}
			}
		}
	}
	return true
}

func mergeAdjacentPair(ctx *Context, r *Rule, a, b int32) *Rule {
	fresh := ctx.NextFreshVariableID()
	merge := func(s *Sentence) *Sentence {
		var out []Token
		i := 0
		for i < s.Len() {
			t := s.At(i)
			if t.IsVariable() && t.ID == a {
				out = append(out, Variable(fresh))
				i += 2
				continue
			}
			out = append(out, t)
			i++
		}
		return NewSentence(ctx, out)
	}
	premises := make([]*Sentence, len(r.Premises))
	for i, p := range r.Premises {
		premises[i] = merge(p)
	}
	return &Rule{Premises: premises, Conclusion: merge(r.Conclusion)}
}

// Normalize repeatedly collapses redundant always-adjacent variable
// pairs (spec.md §3) until no more exist, returning the canonicalized
// rule. The input rule is not mutated.
func Normalize(ctx *Context, r *Rule) *Rule {
	current := r
	for {
		a, b, found := findRedundantAdjacentPair(current)
		if !found {
			return current
		}
		current = mergeAdjacentPair(ctx, current, a, b)
	}
}

// IsValid checks the four rule invariants from spec.md §3:
//  1. every conclusion variable occurs in some premise;
//  2. no premise is a single free variable;
//  3. no two variables always appear adjacent (i.e. Normalize is a no-op);
//  4. at most one free variable (occurring exactly once) in the whole rule.
func IsValid(r *Rule) bool {
	premiseVars := make(map[int32]bool)
	for _, p := range r.Premises {
		for _, v := range p.Variables() {
			premiseVars[v.ID] = true
		}
	}
	for _, v := range r.Conclusion.Variables() {
		if !premiseVars[v.ID] {
			return false
		}
	}

	for _, p := range r.Premises {
		if p.Len() == 1 && p.At(0).IsVariable() {
			return false
		}
	}

	if _, _, found := findRedundantAdjacentPair(r); found {
		return false
	}

	counts := make(map[int32]int)
	for _, s := range allSentences(r) {
		for i := 0; i < s.Len(); i++ {
			if s.At(i).IsVariable() {
				counts[s.At(i).ID]++
			}
		}
	}
	free := 0
	for _, c := range counts {
		if c == 1 {
			free++
		}
	}
	return free <= 1
}

// RuleTemplate is a multiset of premise templates plus a conclusion
// template, used by IndexedRuleSet to bucket rules (spec.md §3, §4.4).
type RuleTemplate struct {
	premiseKeys   []string
	conclusionKey string
}

func (t Template) key() string {
	var b strings.Builder
	for _, s := range t.symbols {
		if s.sentinel {
			b.WriteString("_;")
		} else {
			b.WriteByte('$')
			b.WriteString(itoa(int(s.specialID)))
			b.WriteByte(';')
		}
	}
	return b.String()
}

// RuleTemplateOf computes the RuleTemplate of a rule.
func RuleTemplateOf(r *Rule) RuleTemplate {
	keys := make([]string, len(r.Premises))
	for i, p := range r.Premises {
		tmpl, _ := Decompose(p)
		keys[i] = tmpl.key()
	}
	sort.Strings(keys)
	ctmpl, _ := Decompose(r.Conclusion)
	return RuleTemplate{premiseKeys: keys, conclusionKey: ctmpl.key()}
}

// Key returns a string uniquely identifying the RuleTemplate, suitable
// for use as a map key (the multiset-of-premise-templates comparison
// IndexedRuleSet needs for bucketing).
func (rt RuleTemplate) Key() string {
	return strings.Join(rt.premiseKeys, "|") + "::" + rt.conclusionKey
}

// Equal reports whether two RuleTemplates denote the same bucket.
func (rt RuleTemplate) Equal(other RuleTemplate) bool {
	return rt.Key() == other.Key()
}
