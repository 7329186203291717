package metarule

import "github.com/symrules/metarule/internal/worklist"

// ValidityPredicate decides whether an anti-unified rule is acceptable for
// insertion into an IndexedRuleSet during propagation (spec.md §3, §4.4).
// A nil predicate accepts every candidate.
type ValidityPredicate func(*Rule) bool

// IndexedRuleSet buckets rules by RuleTemplate and keeps them closed under
// anti-unification, tracking a generality DAG over the bucketed rules.
//
// Grounded on pldb.go's relationData: an arena of immutable rows (here,
// rules) addressed by integer id, plus a hash-indexed bucket map built over
// a structural key instead of a single column value. The generality DAG is
// a second arena-of-nodes structure addressed by the same ids (spec.md §9).
type IndexedRuleSet struct {
	ctx      *Context
	validate ValidityPredicate

	rules     []*Rule
	templates []RuleTemplate
	buckets   map[string][]int32

	// parents[i] holds the ids of rules strictly more general than rule i;
	// children[i] holds the ids of rules strictly more specific than rule i.
	// Both are deduplicated adjacency lists over the same id space as rules.
	parents  [][]int32
	children [][]int32
}

// NewIndexedRuleSet creates an empty rule set. validate gates which
// anti-unified candidates propagation is allowed to insert; pass nil to
// accept every candidate that already passes Normalize+IsValid.
func NewIndexedRuleSet(ctx *Context, validate ValidityPredicate) *IndexedRuleSet {
	return &IndexedRuleSet{
		ctx:      ctx,
		validate: validate,
		buckets:  make(map[string][]int32),
	}
}

// Len returns the number of rules currently in the set.
func (rs *IndexedRuleSet) Len() int {
	return len(rs.rules)
}

// Rule returns the rule stored at id, or ok=false if id is out of range.
func (rs *IndexedRuleSet) Rule(id int32) (*Rule, bool) {
	if id < 0 || int(id) >= len(rs.rules) {
		return nil, false
	}
	return rs.rules[id], true
}

// Ids returns every rule id currently in the set, in insertion order.
func (rs *IndexedRuleSet) Ids() []int32 {
	ids := make([]int32, len(rs.rules))
	for i := range rs.rules {
		ids[i] = int32(i)
	}
	return ids
}

// findEquivalent returns the id of a rule in the bucket named by key that
// is equivalent to r, or ok=false if none is present.
func (rs *IndexedRuleSet) findEquivalent(key string, r *Rule) (int32, bool) {
	for _, id := range rs.buckets[key] {
		if rs.rules[id].IsEquivalent(r) {
			return id, true
		}
	}
	return 0, false
}

// addRule appends r to the arena under the given bucket key and returns its
// new id. The DAG adjacency lists start empty.
func (rs *IndexedRuleSet) addRule(r *Rule, key string) int32 {
	id := int32(len(rs.rules))
	rs.rules = append(rs.rules, r)
	rs.templates = append(rs.templates, RuleTemplateOf(r))
	rs.buckets[key] = append(rs.buckets[key], id)
	rs.parents = append(rs.parents, nil)
	rs.children = append(rs.children, nil)
	return id
}

// addGeneralityEdge records that general is strictly more general than
// specific, skipping the self-edge and any duplicate already present.
func (rs *IndexedRuleSet) addGeneralityEdge(general, specific int32) {
	if general == specific {
		return
	}
	for _, p := range rs.parents[specific] {
		if p == general {
			return
		}
	}
	rs.parents[specific] = append(rs.parents[specific], general)
	rs.children[general] = append(rs.children[general], specific)
}

// linkGenerality adds generality edges between id and every other rule in
// its bucket, in both directions, as warranted by rule-level matching
// (spec.md §4.4 step 1).
func (rs *IndexedRuleSet) linkGenerality(id int32) {
	key := rs.templates[id].Key()
	r := rs.rules[id]
	for _, other := range rs.buckets[key] {
		if other == id {
			continue
		}
		o := rs.rules[other]
		if IsRuleMoreGeneral(o, r) {
			rs.addGeneralityEdge(other, id)
		}
		if IsRuleMoreGeneral(r, o) {
			rs.addGeneralityEdge(id, other)
		}
	}
}

// propagate anti-unifies id against every other rule currently in its
// bucket, inserting any valid anti-unifier not already present and
// enqueueing it for its own round of propagation (spec.md §4.4 step 2-3).
func (rs *IndexedRuleSet) propagate(id int32, queue *worklist.Queue[int32]) {
	key := rs.templates[id].Key()
	bucket := make([]int32, len(rs.buckets[key]))
	copy(bucket, rs.buckets[key])

	for _, other := range bucket {
		if other == id {
			continue
		}
		for _, candidate := range AntiUnifyRule(rs.ctx, rs.rules[id], rs.rules[other]) {
			if rs.validate != nil && !rs.validate(candidate) {
				continue
			}
			ckey := RuleTemplateOf(candidate).Key()
			if existing, ok := rs.findEquivalent(ckey, candidate); ok {
				_ = existing
				continue
			}
			newID := rs.addRule(candidate, ckey)
			rs.addGeneralityEdge(id, newID)
			rs.addGeneralityEdge(other, newID)
			queue.Push(newID)
		}
	}
}

// Insert adds r to the set, closing it under anti-unification with every
// rule sharing r's RuleTemplate bucket, iterated to a fixed point
// (spec.md §4.4). It returns the id r ended up at and whether a new rule
// was actually inserted (false if an equivalent rule was already present).
func (rs *IndexedRuleSet) Insert(r *Rule) (int32, bool) {
	key := RuleTemplateOf(r).Key()
	if id, ok := rs.findEquivalent(key, r); ok {
		return id, false
	}

	id := rs.addRule(r, key)
	queue := worklist.New(id)
	for {
		current, ok := queue.Pop()
		if !ok {
			break
		}
		rs.linkGenerality(current)
		rs.propagate(current, queue)
	}
	return id, true
}

// isReachable runs a breadth-first search from start following adj,
// returning true if target is reachable (start itself does not count).
func isReachable(adj [][]int32, start, target int32) bool {
	visited := make(map[int32]bool)
	queue := worklist.New(start)
	visited[start] = true
	for {
		current, ok := queue.Pop()
		if !ok {
			return false
		}
		for _, next := range adj[current] {
			if next == target {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue.Push(next)
			}
		}
	}
}

// IsAncestor reports whether ancestor is strictly more general than
// descendant, i.e. reachable from descendant by following parent edges
// (spec.md §4.4: "ancestors of a concrete rule are its generalizations").
func (rs *IndexedRuleSet) IsAncestor(ancestor, descendant int32) bool {
	return isReachable(rs.parents, descendant, ancestor)
}

// IsDescendant reports whether descendant is strictly more specific than
// ancestor, the converse query to IsAncestor.
func (rs *IndexedRuleSet) IsDescendant(descendant, ancestor int32) bool {
	return isReachable(rs.children, ancestor, descendant)
}

// Clone returns a copy-on-write snapshot of rs: the rule arena and DAG
// adjacency lists are copied so the snapshot is safe to mutate
// independently, but the copy shares the immutable *Rule values
// themselves (grounded on pldb.go's Database.clone: immutable rows are
// shared, only the mutable indexing structures are duplicated).
func (rs *IndexedRuleSet) Clone() *IndexedRuleSet {
	clone := &IndexedRuleSet{
		ctx:       rs.ctx,
		validate:  rs.validate,
		rules:     append([]*Rule(nil), rs.rules...),
		templates: append([]RuleTemplate(nil), rs.templates...),
		buckets:   make(map[string][]int32, len(rs.buckets)),
		parents:   make([][]int32, len(rs.parents)),
		children:  make([][]int32, len(rs.children)),
	}
	for k, v := range rs.buckets {
		clone.buckets[k] = append([]int32(nil), v...)
	}
	for i, v := range rs.parents {
		clone.parents[i] = append([]int32(nil), v...)
	}
	for i, v := range rs.children {
		clone.children[i] = append([]int32(nil), v...)
	}
	return clone
}
