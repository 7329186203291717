package metarule

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/symrules/metarule/internal/worklist"
)

// alphaNode holds every distinct instantiation a single De-Bruijn-canonicalized
// premise has matched against working memory so far. condition's variables
// are negative (De-Bruijn) ids numbered -1, -2, ... in first-occurrence
// order, which is what lets two rules with structurally identical premises
// (however their own variables happen to be named) share one node (spec.md
// §4.7).
type alphaNode struct {
	condition *Sentence
	varCount  int
	children  []int32 // beta node ids for which this alpha is the right parent
	bindings  map[string]alphaBinding
}

type alphaBinding struct {
	values []*Sentence // one concrete sentence per De-Bruijn slot, in slot order
	weight float64
}

// betaNode accumulates the join of a premise-list prefix: its left parent
// is the beta node for every premise before the last, its right parent is
// the alpha node for the last premise. Two rules sharing a premise-list
// prefix share the same chain of beta nodes (spec.md §4.7). The dummy beta
// node (index 0, parent -1) represents the empty prefix: a single binding
// with no slots at weight +Inf, the identity element every zero-premise
// rule and every rule's first premise joins against.
type betaNode struct {
	parent     int32
	rightAlpha int32
	// joinVector has one entry per rightAlpha variable slot: -1 if that
	// variable is new to this prefix, or the index into the parent's slot
	// vector the variable must already equal (a shared variable across
	// premises).
	joinVector []int32
	slotCount  int
	children   []int32
	bindings   map[string]betaBinding
	rules      []attachedRule
}

type betaBinding struct {
	values []*Sentence
	weight float64
}

// attachedRule is a rule whose full premise chain ends at some beta node.
// slotToOrigVar maps that node's slot positions back to the rule's own
// (non-canonicalized) variable ids, so an instantiation reaching this node
// can be translated into a substitution over the rule as the caller knows it.
type attachedRule struct {
	id            int32
	rule          WeightedRule
	slotToOrigVar []int32
}

const dummyBetaID int32 = 0

// reteNetwork is the α/β discrimination network of spec.md §4.7: an
// arena-of-nodes graph, in the same style as IndexedRuleSet's generality
// DAG and Proof's bipartite DAG, built once from a fixed rule set and then
// driven by a stream of facts.
type reteNetwork struct {
	alphas     []*alphaNode
	betas      []*betaNode
	alphaIndex map[string]int32
	betaIndex  map[string]int32
	nextRuleID int32
}

func newReteNetwork(rules []WeightedRule) *reteNetwork {
	net := &reteNetwork{
		alphaIndex: make(map[string]int32),
		betaIndex:  make(map[string]int32),
	}
	net.betas = append(net.betas, &betaNode{
		parent:     -1,
		rightAlpha: -1,
		bindings:   map[string]betaBinding{"": {values: []*Sentence{}, weight: math.Inf(1)}},
	})
	for _, wr := range rules {
		net.attach(wr)
	}
	return net
}

// attach walks rule's premises left to right, creating or reusing one alpha
// node per premise and one beta node per prefix, then records rule at the
// beta node its last premise lands on (the dummy node itself, for a
// zero-premise rule).
func (net *reteNetwork) attach(wr WeightedRule) {
	current := dummyBetaID
	var prefixOrigVars []int32
	for _, premise := range wr.Rule.Premises {
		canonical, origVars := deBruijnCanonicalizePremise(premise)
		alphaID := net.getOrCreateAlpha(canonical, len(origVars))

		joinVector := make([]int32, len(origVars))
		var newVars []int32
		for k, ov := range origVars {
			pos := indexOfInt32(prefixOrigVars, ov)
			if pos >= 0 {
				joinVector[k] = int32(pos)
			} else {
				joinVector[k] = -1
				newVars = append(newVars, ov)
			}
		}

		current = net.getOrCreateBeta(current, alphaID, joinVector)
		prefixOrigVars = append(prefixOrigVars, newVars...)
	}

	slotToOrigVar := make([]int32, len(prefixOrigVars))
	copy(slotToOrigVar, prefixOrigVars)
	id := net.nextRuleID
	net.nextRuleID++
	net.betas[current].rules = append(net.betas[current].rules, attachedRule{id: id, rule: wr, slotToOrigVar: slotToOrigVar})
}

func (net *reteNetwork) getOrCreateAlpha(canonical *Sentence, varCount int) int32 {
	key := canonical.String()
	if id, ok := net.alphaIndex[key]; ok {
		return id
	}
	id := int32(len(net.alphas))
	net.alphas = append(net.alphas, &alphaNode{condition: canonical, varCount: varCount, bindings: map[string]alphaBinding{}})
	net.alphaIndex[key] = id
	return id
}

func (net *reteNetwork) getOrCreateBeta(parentID, alphaID int32, joinVector []int32) int32 {
	key := fmt.Sprintf("%d|%d|%v", parentID, alphaID, joinVector)
	if id, ok := net.betaIndex[key]; ok {
		return id
	}
	newCount := 0
	for _, j := range joinVector {
		if j == -1 {
			newCount++
		}
	}
	id := int32(len(net.betas))
	net.betas = append(net.betas, &betaNode{
		parent:     parentID,
		rightAlpha: alphaID,
		joinVector: joinVector,
		slotCount:  net.betas[parentID].slotCount + newCount,
		bindings:   map[string]betaBinding{},
	})
	net.betaIndex[key] = id
	net.betas[parentID].children = append(net.betas[parentID].children, id)
	net.alphas[alphaID].children = append(net.alphas[alphaID].children, id)
	return id
}

// deBruijnCanonicalizePremise renumbers premise's variables to -1, -2, ...
// in first-occurrence order, returning the canonicalized sentence and the
// original variable id each De-Bruijn slot stands for.
func deBruijnCanonicalizePremise(premise *Sentence) (*Sentence, []int32) {
	seen := make(map[int32]int32)
	var origVars []int32
	out := make([]Token, premise.Len())
	for i := 0; i < premise.Len(); i++ {
		t := premise.At(i)
		if !t.IsVariable() {
			out[i] = t
			continue
		}
		local, ok := seen[t.ID]
		if !ok {
			local = -int32(len(origVars) + 1)
			seen[t.ID] = local
			origVars = append(origVars, t.ID)
		}
		out[i] = Variable(local)
	}
	return NewSentence(premise.ctx, out), origVars
}

func indexOfInt32(s []int32, v int32) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func bindingKey(values []*Sentence) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\x1f")
}

// addFact matches fact against every alpha node's condition, updates any
// instantiation that is new or an improvement, and propagates the change
// through the beta chain to a fixed point, reusing internal/worklist.Queue
// for the same "pop next, maybe push more" saturation shape IndexedRuleSet
// uses for its own propagation loop. It returns every rule activation the
// propagation newly uncovered.
func (net *reteNetwork) addFact(fact *Sentence, weight float64) []activation {
	dirty := worklist.New[int32]()
	for _, a := range net.alphas {
		for _, sub := range Match(a.condition, fact) {
			values := make([]*Sentence, a.varCount)
			for i := 0; i < a.varCount; i++ {
				v, ok := sub.Get(-int32(i + 1))
				if !ok {
					values = nil
					break
				}
				values[i] = v
			}
			if values == nil {
				continue
			}
			key := bindingKey(values)
			if existing, ok := a.bindings[key]; ok && existing.weight >= weight {
				continue
			}
			a.bindings[key] = alphaBinding{values: values, weight: weight}
			dirty.PushAll(a.children)
		}
	}

	var activations []activation
	for {
		id, ok := dirty.Pop()
		if !ok {
			return activations
		}
		delta := net.recomputeBeta(id)
		if len(delta) == 0 {
			continue
		}
		b := net.betas[id]
		dirty.PushAll(b.children)
		for _, binding := range delta {
			for _, ar := range b.rules {
				if act, ok := net.activate(ar, binding); ok {
					activations = append(activations, act)
				}
			}
		}
	}
}

// recomputeBeta rejoins id's left parent bindings against its right alpha's
// bindings, returning every binding that is new or improves on what was
// already recorded (spec.md §4.7: "join using the minimum of the two
// parent weights, with conflict pruning on shared variable slots").
func (net *reteNetwork) recomputeBeta(id int32) []betaBinding {
	b := net.betas[id]
	parent := net.betas[b.parent]
	alpha := net.alphas[b.rightAlpha]

	var delta []betaBinding
	for _, lb := range parent.bindings {
		for _, rb := range alpha.bindings {
			compatible := true
			for k, j := range b.joinVector {
				if j != -1 && !lb.values[j].IsIdentical(rb.values[k]) {
					compatible = false
					break
				}
			}
			if !compatible {
				continue
			}

			values := make([]*Sentence, 0, b.slotCount)
			values = append(values, lb.values...)
			for k, j := range b.joinVector {
				if j == -1 {
					values = append(values, rb.values[k])
				}
			}
			weight := math.Min(lb.weight, rb.weight)
			key := bindingKey(values)
			if existing, ok := b.bindings[key]; ok && existing.weight >= weight {
				continue
			}
			binding := betaBinding{values: values, weight: weight}
			b.bindings[key] = binding
			delta = append(delta, binding)
		}
	}
	return delta
}

// activation is one concrete rule instance a beta join uncovered: its
// conclusion, the rule that produced it, the weight it holds with, and a
// stable identity (the attached rule plus the exact binding) used to
// apply it at most once.
type activation struct {
	conclusion  *Sentence
	rule        *Rule
	weight      float64
	instanceKey string
}

// activate translates binding's slot values back to ar's own rule
// variables and applies them to its conclusion, per spec.md §4.7's
// conclusion-weight formula: min(join-weight, 1) - rule-weight. ok is
// false if the result is non-positive, which is never enqueued.
func (net *reteNetwork) activate(ar attachedRule, binding betaBinding) (activation, bool) {
	weight := conclusionWeight(binding.weight, ar.rule.Weight)
	if weight <= 0 {
		return activation{}, false
	}
	sub := EmptySubstitution()
	for i, origVar := range ar.slotToOrigVar {
		if bound, err := sub.Bind(origVar, binding.values[i]); err == nil {
			sub = bound
		}
	}
	return activation{
		conclusion:  sub.Apply(ar.rule.Rule.Conclusion),
		rule:        ar.rule.Rule,
		weight:      weight,
		instanceKey: fmt.Sprintf("%d|%s", ar.id, bindingKey(binding.values)),
	}, true
}

// ReteForwardProver is the incremental forward prover of spec.md §4.7: a
// discrimination network built once from a fixed rule set, then driven
// fact by fact rather than rescanning every rule on every pass (contrast
// NaiveForwardProver, which SPEC_FULL.md §8's Rete-naive agreement
// property checks this prover's output against).
type ReteForwardProver struct {
	net *reteNetwork
	log *zap.Logger
}

// NewReteForwardProver builds the discrimination network for rules. log
// may be nil, in which case a no-op logger is used.
func NewReteForwardProver(rules []WeightedRule, log *zap.Logger) *ReteForwardProver {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReteForwardProver{net: newReteNetwork(rules), log: log}
}

// Run feeds assumptions into working memory at weight 1.0, then drains the
// queue of rule activations those facts (and every fact they in turn
// produce) uncover, invoking callback once per assumption (with a nil
// rule, per spec.md §6's "absent when maybe_rule denotes an asserted
// assumption") and once per newly-proved or weight-improved conclusion
// (with the rule that produced it). callback's return value controls
// cancellation: false aborts Run immediately, leaving any unprocessed
// activations unexamined (spec.md §4.7).
func (rp *ReteForwardProver) Run(assumptions []*Sentence, callback func(conclusion *Sentence, maybeRule *Rule) bool) {
	applied := make(map[string]bool)
	known := make(map[string]float64)
	recordFact := func(s *Sentence, w float64) bool {
		key := s.String()
		if best, ok := known[key]; ok && best >= w {
			return false
		}
		known[key] = w
		return true
	}

	queue := worklist.New[activation]()
	dummyBinding := rp.net.betas[dummyBetaID].bindings[""]
	for _, ar := range rp.net.betas[dummyBetaID].rules {
		if act, ok := rp.net.activate(ar, dummyBinding); ok {
			queue.Push(act)
		}
	}

	for _, a := range assumptions {
		if !recordFact(a, 1.0) {
			continue
		}
		if !callback(a, nil) {
			return
		}
		queue.PushAll(rp.net.addFact(a, 1.0))
	}

	for {
		act, ok := queue.Pop()
		if !ok {
			return
		}
		if applied[act.instanceKey] {
			continue
		}
		applied[act.instanceKey] = true
		if !recordFact(act.conclusion, act.weight) {
			continue
		}
		rp.log.Debug("rete activation",
			zap.String("conclusion", act.conclusion.String()),
			zap.Float64("weight", act.weight),
		)
		if !callback(act.conclusion, act.rule) {
			return
		}
		queue.PushAll(rp.net.addFact(act.conclusion, act.weight))
	}
}
