package metarule

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// backwardUnifyDepthLimit bounds the unify calls the backward prover makes
// internally when matching a candidate rule's conclusion against a goal.
// spec.md §4.6 does not name a value (unlike unify's own public depth_limit
// parameter, left to the caller); 10 mirrors the depth spec.md §8 scenario 2
// exercises for unify directly, chosen as a reasonable interior default
// rather than derived from the spec text.
const backwardUnifyDepthLimit = 10

// WeightedRule pairs a rule with its weight in [0,1], the unit spec.md §4.6
// budgets rule use against.
type WeightedRule struct {
	Rule   *Rule
	Weight float64
}

// ProofPath is a set of concrete rules that, together with the
// assumptions, derive a goal (spec.md §3). The empty ProofPath denotes a
// proof that needed no rules at all (a bare assumption match).
type ProofPath struct {
	rules []*Rule
}

func newProofPath(rules ...*Rule) ProofPath {
	return ProofPath{rules: rules}
}

// Rules returns the concrete rules in this path, in the order collected.
func (p ProofPath) Rules() []*Rule {
	out := make([]*Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// withRule returns a new path extending p with rule, unless rule is
// already present (by content, since a ProofPath is a set).
func (p ProofPath) withRule(rule *Rule) ProofPath {
	for _, r := range p.rules {
		if r.IsIdentical(rule) {
			return p
		}
	}
	next := make([]*Rule, len(p.rules)+1)
	copy(next, p.rules)
	next[len(p.rules)] = rule
	return ProofPath{rules: next}
}

// unionProofPath combines two proof paths, deduplicating by content.
func unionProofPath(a, b ProofPath) ProofPath {
	out := a
	for _, r := range b.rules {
		out = out.withRule(r)
	}
	return out
}

// key returns a canonical string identifying this path's rule content,
// independent of collection order, for set-membership checks.
func (p ProofPath) key() string {
	parts := make([]string, len(p.rules))
	for i, r := range p.rules {
		parts[i] = r.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, "\n")
}

// BackwardEntry is one substitution's accumulated evidence: the minimum
// depth (rule-expansion count) across every distinct proof path that
// reaches this substitution, and the de-duplicated set of those paths.
type BackwardEntry struct {
	Substitution *Substitution
	Depth        int
	ProofPaths   []ProofPath
}

func (e *BackwardEntry) addPath(path ProofPath) {
	key := path.key()
	for _, existing := range e.ProofPaths {
		if existing.key() == key {
			return
		}
	}
	e.ProofPaths = append(e.ProofPaths, path)
	if depth := len(path.rules); len(e.ProofPaths) == 1 || depth < e.Depth {
		e.Depth = depth
	}
}

// BackwardResult is the backward prover's output: an insertion-ordered
// map from answer substitution to (depth, proof paths) (spec.md §4.6).
// Ordering is insertion order (spec.md §5's determinism requirement),
// not sorted by depth or any other key.
type BackwardResult struct {
	order   []string
	entries map[string]*BackwardEntry
}

func newBackwardResult() *BackwardResult {
	return &BackwardResult{entries: make(map[string]*BackwardEntry)}
}

// substitutionIdentityKey keys a substitution by its (variable id, bound
// value) pairs in ascending id order, unlike Substitution.String() which
// renders only the sorted bound values and so cannot distinguish two
// substitutions that bind different variable subsets to the same values
// (e.g. {X: RED} vs {Y: RED}) — both of which restrictToOriginalGoal can
// legitimately produce for a multi-variable goal.
func substitutionIdentityKey(sub *Substitution) string {
	ids := sub.VariableIDs()
	var b strings.Builder
	for _, id := range ids {
		val, _ := sub.Get(id)
		b.WriteString(strconv.FormatInt(int64(id), 10))
		b.WriteByte(':')
		b.WriteString(val.String())
		b.WriteByte(';')
	}
	return b.String()
}

func (r *BackwardResult) insert(sub *Substitution, path ProofPath) {
	key := substitutionIdentityKey(sub)
	entry, ok := r.entries[key]
	if !ok {
		entry = &BackwardEntry{Substitution: sub}
		r.entries[key] = entry
		r.order = append(r.order, key)
	}
	entry.addPath(path)
}

// Entries returns every accumulated (substitution, depth, proof paths)
// result, in the order their substitution was first produced.
func (r *BackwardResult) Entries() []*BackwardEntry {
	out := make([]*BackwardEntry, len(r.order))
	for i, key := range r.order {
		out[i] = r.entries[key]
	}
	return out
}

// Len reports the number of distinct answer substitutions found.
func (r *BackwardResult) Len() int {
	return len(r.order)
}

// BackwardProver is the weight-budgeted goal-directed (backward-chaining)
// prover of spec.md §4.6. Grounded on solver.go's top-level
// search-orchestration shape (a budget threaded through a recursive
// search, results accumulated into an ordered structure) and
// highlevel_api.go's single public Run-style entry point.
type BackwardProver struct {
	ctx              *Context
	rules            []WeightedRule
	onTheFlyProposal bool
	log              *zap.Logger
}

// NewBackwardProver creates a prover over the given weighted rule set.
// onTheFlyProposal enables spec.md §4.6's zero-premise self-proposal for
// concrete goals. log may be nil, in which case a no-op logger is used.
func NewBackwardProver(ctx *Context, rules []WeightedRule, onTheFlyProposal bool, log *zap.Logger) *BackwardProver {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackwardProver{ctx: ctx, rules: rules, onTheFlyProposal: onTheFlyProposal, log: log}
}

// pathOutcome is one concrete way proveOR or proveAND found to satisfy a
// goal (or goal list): the substitution over that goal's own variables,
// the rules it used, and the total weight those rules consumed.
//
// spec.md §9's open question about the undefined `paths` variable in the
// backward prover's path-accumulation logic is resolved here by
// construction: every call builds and returns its own outcomes slice.
// Nothing is ever written into a shared or outer accumulator; a branch's
// findings only ever flow up through its own return value.
type pathOutcome struct {
	sub        *Substitution
	path       ProofPath
	weightUsed float64
}

// Prove searches for every substitution that proves goal from assumptions
// under the weighted rule set, subject to weightLimit (spec.md §4.6).
func (bp *BackwardProver) Prove(assumptions []*Sentence, goal *Sentence, weightLimit float64) *BackwardResult {
	result := newBackwardResult()
	for _, oc := range bp.proveOR(assumptions, goal, weightLimit) {
		result.insert(oc.sub, oc.path)
	}
	return result
}

// proveOR implements spec.md §4.6's OR branch for a single goal: optional
// on-the-fly self-proposal, assumption matching (which short-circuits
// further search on any hit), else rule expansion within weightLimit.
func (bp *BackwardProver) proveOR(assumptions []*Sentence, goal *Sentence, weightLimit float64) []pathOutcome {
	goalVars := goalVariableIDs(goal)
	var outcomes []pathOutcome

	if bp.onTheFlyProposal && goal.IsConcrete() {
		outcomes = append(outcomes, pathOutcome{
			sub:  EmptySubstitution(),
			path: newProofPath(&Rule{Conclusion: goal}),
		})
	}

	matched := false
	for _, assumption := range assumptions {
		for _, sub := range Match(goal, assumption) {
			matched = true
			outcomes = append(outcomes, pathOutcome{sub: sub.Restrict(goalVars), path: ProofPath{}})
		}
	}
	if matched {
		return outcomes
	}

	for _, wr := range bp.rules {
		if wr.Weight > weightLimit {
			continue
		}
		renamedGoal, conv := freshen(bp.ctx, goal)
		for _, sigma := range Unify(wr.Rule.Conclusion, renamedGoal, backwardUnifyDepthLimit) {
			premiseGoals := make([]*Sentence, len(wr.Rule.Premises))
			for i, premise := range wr.Rule.Premises {
				premiseGoals[i] = sigma.Apply(premise)
			}
			bp.log.Debug("expanding rule",
				zap.String("goal", goal.String()),
				zap.String("rule", wr.Rule.String()),
				zap.Float64("weight", wr.Weight),
			)
			for _, ao := range bp.proveAND(assumptions, premiseGoals, weightLimit-wr.Weight) {
				combined := sigma.Compose(ao.sub)
				final := bp.restrictToOriginalGoal(combined, conv, goalVars)
				instance := &Rule{Conclusion: combined.Apply(wr.Rule.Conclusion)}
				for _, premise := range wr.Rule.Premises {
					instance.Premises = append(instance.Premises, combined.Apply(premise))
				}
				outcomes = append(outcomes, pathOutcome{
					sub:        final,
					path:       ao.path.withRule(instance),
					weightUsed: wr.Weight + ao.weightUsed,
				})
			}
		}
	}
	return outcomes
}

// proveAND implements spec.md §4.6's AND branch over a goal list: solve
// the first goal, apply its substitution to the remaining goals, recurse
// on the reduced weight budget, and combine proof paths by Cartesian
// product (the two nested loops below).
func (bp *BackwardProver) proveAND(assumptions []*Sentence, goals []*Sentence, weightLimit float64) []pathOutcome {
	if len(goals) == 0 {
		return []pathOutcome{{sub: EmptySubstitution(), path: ProofPath{}}}
	}

	first, rest := goals[0], goals[1:]
	var outcomes []pathOutcome
	for _, fo := range bp.proveOR(assumptions, first, weightLimit) {
		remainingBudget := weightLimit - fo.weightUsed
		if remainingBudget < 0 {
			continue
		}
		remainingGoals := make([]*Sentence, len(rest))
		for i, g := range rest {
			remainingGoals[i] = fo.sub.Apply(g)
		}
		for _, ro := range bp.proveAND(assumptions, remainingGoals, remainingBudget) {
			combined, err := fo.sub.Merge(ro.sub)
			if err != nil {
				continue
			}
			outcomes = append(outcomes, pathOutcome{
				sub:        combined,
				path:       unionProofPath(fo.path, ro.path),
				weightUsed: fo.weightUsed + ro.weightUsed,
			})
		}
	}
	return outcomes
}

// goalVariableIDs returns the distinct variable ids occurring in goal.
func goalVariableIDs(goal *Sentence) []int32 {
	seen := make(map[int32]bool)
	var ids []int32
	for _, t := range goal.Variables() {
		if !seen[t.ID] {
			seen[t.ID] = true
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// restrictToOriginalGoal translates combined (a substitution over the
// renamed goal's fresh variable ids, produced by unifying a rule's
// conclusion against that renaming) back to the caller's original goal
// variable ids via conv's inverse, and restricts the result to exactly
// those ids — mirroring spec.md §4.6's "restricting the returned
// substitutions to the original goal's variables".
func (bp *BackwardProver) restrictToOriginalGoal(combined *Substitution, conv *AlphaConversion, goalVars []int32) *Substitution {
	result := EmptySubstitution()
	for _, v := range goalVars {
		renamed := conv.RenameVariable(v)
		val, ok := combined.Get(renamed)
		if !ok {
			continue
		}
		translated := translateSentenceVariables(bp.ctx, val, conv)
		if bound, err := result.Bind(v, translated); err == nil {
			result = bound
		}
	}
	return result
}

// translateSentenceVariables rewrites every variable token in s that conv
// introduced back to its original (pre-renaming) id, leaving any other
// variable (e.g. one a rule or unify allocated that has nothing to do
// with the renamed goal) untouched.
func translateSentenceVariables(ctx *Context, s *Sentence, conv *AlphaConversion) *Sentence {
	out := make([]Token, s.Len())
	changed := false
	for i := 0; i < s.Len(); i++ {
		t := s.At(i)
		if t.IsVariable() {
			if original, ok := conv.Invert(t.ID); ok {
				out[i] = Variable(original)
				changed = true
				continue
			}
		}
		out[i] = t
	}
	if !changed {
		return s
	}
	return NewSentence(ctx, out)
}
