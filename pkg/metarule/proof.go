package metarule

import "github.com/symrules/metarule/internal/worklist"

// Proof is a bipartite DAG of concrete sentence vertices and concrete
// rule-application vertices (spec.md §3, §4.5). Both vertex kinds are
// stored in id-addressed arenas rather than as pointer-linked nodes,
// following the arena-of-nodes convention this package uses for every
// graph-shaped structure (the IndexedRuleSet generality DAG, the Rete
// discrimination network).
type Proof struct {
	ctx *Context

	sentences     []*Sentence
	sentenceIndex map[string]int32

	// producedBy[sid] holds the rule ids whose conclusion is sentence sid.
	// A valid proof has at most one entry per sentence (spec.md §3); the
	// slice form lets an invalid intermediate state be detected rather
	// than silently overwritten.
	producedBy [][]int32
	// consumedBy[sid] holds the rule ids that use sentence sid as a premise.
	consumedBy [][]int32

	rules        []*Rule
	premiseIDs   [][]int32
	conclusionID []int32
}

// NewProof creates an empty proof.
func NewProof(ctx *Context) *Proof {
	return &Proof{
		ctx:           ctx,
		sentenceIndex: make(map[string]int32),
	}
}

// sentenceID returns the id of an already-present sentence, or ok=false.
func (p *Proof) sentenceID(s *Sentence) (int32, bool) {
	id, ok := p.sentenceIndex[s.String()]
	return id, ok
}

// addSentence returns the id of s, creating a vertex for it if this is
// its first appearance in the proof.
func (p *Proof) addSentence(s *Sentence) int32 {
	if id, ok := p.sentenceID(s); ok {
		return id
	}
	id := int32(len(p.sentences))
	p.sentences = append(p.sentences, s)
	p.sentenceIndex[s.String()] = id
	p.producedBy = append(p.producedBy, nil)
	p.consumedBy = append(p.consumedBy, nil)
	return id
}

// AddAssumption adds a bare sentence vertex with no producing rule (an
// input assumption), returning its id. Adding the same sentence twice is
// idempotent.
func (p *Proof) AddAssumption(s *Sentence) int32 {
	return p.addSentence(s)
}

// Sentences returns every sentence vertex currently in the proof, in
// insertion order.
func (p *Proof) Sentences() []*Sentence {
	out := make([]*Sentence, len(p.sentences))
	copy(out, p.sentences)
	return out
}

// forwardReachable reports whether to is reachable from from by following
// existing sentence -> rule -> conclusion-sentence edges. Used to reject
// an Apply that would close a cycle before any edge is committed.
func (p *Proof) forwardReachable(from, to int32) bool {
	if from == to {
		return true
	}
	visited := make(map[int32]bool)
	queue := worklist.New(from)
	visited[from] = true
	for {
		sid, ok := queue.Pop()
		if !ok {
			return false
		}
		for _, rid := range p.consumedBy[sid] {
			next := p.conclusionID[rid]
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue.Push(next)
			}
		}
	}
}

// Apply requires that every premise of rule already be a vertex in the
// proof; it creates a rule vertex, draws edges from each premise to it and
// from it to the (possibly new) conclusion vertex, and returns the new
// rule id. It fails with a KindInputContract error if a premise is
// missing, or if committing the rule would introduce a cycle (spec.md §4.5).
func (p *Proof) Apply(rule *Rule) (int32, error) {
	premiseIDs := make([]int32, len(rule.Premises))
	for i, premise := range rule.Premises {
		id, ok := p.sentenceID(premise)
		if !ok {
			return 0, newInputContractError("proof: missing premise %q for rule %s", premise.String(), rule.String())
		}
		premiseIDs[i] = id
	}

	conclusionID, conclusionExists := p.sentenceID(rule.Conclusion)
	if conclusionExists {
		for _, premiseID := range premiseIDs {
			if p.forwardReachable(conclusionID, premiseID) {
				return 0, newInputContractError("proof: applying rule %s would introduce a cycle", rule.String())
			}
		}
	} else {
		conclusionID = p.addSentence(rule.Conclusion)
	}

	ruleID := int32(len(p.rules))
	p.rules = append(p.rules, rule)
	p.premiseIDs = append(p.premiseIDs, premiseIDs)
	p.conclusionID = append(p.conclusionID, conclusionID)

	for _, premiseID := range premiseIDs {
		p.consumedBy[premiseID] = append(p.consumedBy[premiseID], ruleID)
	}
	p.producedBy[conclusionID] = append(p.producedBy[conclusionID], ruleID)
	return ruleID, nil
}

// Merge copies other's DAG into p: sentence vertices are de-duplicated by
// content, but every rule application of other is replayed as its own
// distinct rule vertex even if p already derives the same conclusion by
// another route (spec.md §4.5: "de-duplicating sentences but not rule
// applications"). Every sentence vertex of other is added first, so
// replaying its rules in ascending id order satisfies Apply's
// premises-already-present requirement even where a premise of an
// earlier rule is the conclusion of a later one.
func (p *Proof) Merge(other *Proof) error {
	for _, s := range other.sentences {
		p.AddAssumption(s)
	}
	for _, rule := range other.rules {
		if _, err := p.Apply(rule); err != nil {
			return err
		}
	}
	return nil
}

// Trim returns a new proof containing only the sub-DAG reachable backward
// from goal: goal itself, every rule that (transitively) produced it, and
// every sentence those rules consumed (spec.md §4.5). It fails if goal is
// not a vertex of p.
func (p *Proof) Trim(goal *Sentence) (*Proof, error) {
	goalID, ok := p.sentenceID(goal)
	if !ok {
		return nil, newInputContractError("proof: trim goal %q is not a vertex of this proof", goal.String())
	}

	reachableSentences := map[int32]bool{goalID: true}
	reachableRules := map[int32]bool{}
	queue := worklist.New(goalID)
	for {
		sid, ok := queue.Pop()
		if !ok {
			break
		}
		for _, rid := range p.producedBy[sid] {
			if reachableRules[rid] {
				continue
			}
			reachableRules[rid] = true
			for _, premiseID := range p.premiseIDs[rid] {
				if !reachableSentences[premiseID] {
					reachableSentences[premiseID] = true
					queue.Push(premiseID)
				}
			}
		}
	}

	trimmed := NewProof(p.ctx)
	for sid := int32(0); int(sid) < len(p.sentences); sid++ {
		if reachableSentences[sid] && len(p.producedBy[sid]) == 0 {
			trimmed.AddAssumption(p.sentences[sid])
		}
	}
	for rid := int32(0); int(rid) < len(p.rules); rid++ {
		if reachableRules[rid] {
			if _, err := trimmed.Apply(p.rules[rid]); err != nil {
				return nil, err
			}
		}
	}
	return trimmed, nil
}

// Sink returns the proof's unique sink sentence (one with no outgoing
// consumedBy edge) and true, or ok=false if there is not exactly one.
func (p *Proof) Sink() (*Sentence, bool) {
	var sink *Sentence
	count := 0
	for sid, consumers := range p.consumedBy {
		if len(consumers) == 0 {
			count++
			sink = p.sentences[sid]
		}
	}
	if count != 1 {
		return nil, false
	}
	return sink, true
}

// IsProofValid checks spec.md §8's proof-validity property: the sink is
// unique, every sentence has at most one incoming rule vertex, and the
// graph is acyclic.
func IsProofValid(p *Proof) bool {
	if _, ok := p.Sink(); !ok {
		return false
	}
	for _, producers := range p.producedBy {
		if len(producers) > 1 {
			return false
		}
	}
	return p.isAcyclic()
}

// isAcyclic runs Kahn's algorithm over the sentence-vertex graph (an edge
// sid -> conclusionID[rid] exists for every rid in consumedBy[sid]): if
// every vertex can be peeled off by repeatedly removing one with no
// remaining incoming edge, there is no cycle.
func (p *Proof) isAcyclic() bool {
	indegree := make([]int, len(p.sentences))
	for sid := range p.sentences {
		for _, rid := range p.consumedBy[sid] {
			indegree[p.conclusionID[rid]]++
		}
	}

	queue := worklist.New[int32]()
	for sid, d := range indegree {
		if d == 0 {
			queue.Push(int32(sid))
		}
	}

	visited := 0
	for {
		sid, ok := queue.Pop()
		if !ok {
			break
		}
		visited++
		for _, rid := range p.consumedBy[sid] {
			next := p.conclusionID[rid]
			indegree[next]--
			if indegree[next] == 0 {
				queue.Push(next)
			}
		}
	}
	return visited == len(p.sentences)
}
