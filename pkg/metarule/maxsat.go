package metarule

import (
	"fmt"
	"sort"
)

// Literal is one occurrence of a boolean variable in a clause, named per
// spec.md §6: "cr_<int>" for a concrete-rule instantiation, "r_<int>" for
// an abstract-rule selection. Negated flips its polarity.
type Literal struct {
	Variable string
	Negated  bool
}

// ConcreteRuleLiteral names the boolean variable selecting one concrete-rule
// instantiation (a proof-graph node's rule application).
func ConcreteRuleLiteral(instantiationID int32, negated bool) Literal {
	return Literal{Variable: fmt.Sprintf("cr_%d", instantiationID), Negated: negated}
}

// AbstractRuleLiteral names the boolean variable selecting an abstract rule
// out of an IndexedRuleSet for inclusion in the learned program.
func AbstractRuleLiteral(ruleID int32, negated bool) Literal {
	return Literal{Variable: fmt.Sprintf("r_%d", ruleID), Negated: negated}
}

// Clause is a disjunction of literals. A zero Weight marks a hard clause
// (must be satisfied); a positive Weight marks a soft clause the solver may
// violate at that cost (spec.md §6).
type Clause struct {
	Literals []Literal
	Weight   float64
}

// Hard reports whether c must be satisfied by any feasible model.
func (c Clause) Hard() bool {
	return c.Weight == 0
}

// Problem is the pure-data MAX-SAT instance the core hands to an external
// solver (spec.md §1's explicit exclusion of a production solver, §6's
// interface). It carries no solving logic of its own.
type Problem struct {
	Hard []Clause
	Soft []Clause
}

// AddHard appends a hard clause over lits.
func (p *Problem) AddHard(lits ...Literal) {
	p.Hard = append(p.Hard, Clause{Literals: lits})
}

// AddSoft appends a weighted soft clause over lits. weight must be positive;
// a non-positive weight is a caller bug and is turned into a hard clause
// instead of silently discarded.
func (p *Problem) AddSoft(weight float64, lits ...Literal) {
	if weight <= 0 {
		p.AddHard(lits...)
		return
	}
	p.Soft = append(p.Soft, Clause{Literals: lits, Weight: weight})
}

// Variables returns every distinct boolean variable name mentioned anywhere
// in p, sorted, so a caller building a solver-specific encoding gets a
// stable enumeration.
func (p *Problem) Variables() []string {
	seen := make(map[string]bool)
	for _, clauses := range [][]Clause{p.Hard, p.Soft} {
		for _, c := range clauses {
			for _, l := range c.Literals {
				seen[l.Variable] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Model is an assignment of every boolean variable in a solved Problem,
// returned by the external solver's get_model() call (spec.md §6).
type Model map[string]bool

// Satisfies reports whether c holds under m. A variable absent from m is
// treated as false.
func (c Clause) Satisfies(m Model) bool {
	for _, l := range c.Literals {
		if m[l.Variable] != l.Negated {
			return true
		}
	}
	return false
}

// Cost is the total weight of every soft clause p violates under m. A
// caller compares Cost across candidate models; the external solver's job
// is to minimize it subject to every hard clause holding.
func (p *Problem) Cost(m Model) float64 {
	var cost float64
	for _, c := range p.Soft {
		if !c.Satisfies(m) {
			cost += c.Weight
		}
	}
	return cost
}

// Feasible reports whether m satisfies every hard clause in p.
func (p *Problem) Feasible(m Model) bool {
	for _, c := range p.Hard {
		if !c.Satisfies(m) {
			return false
		}
	}
	return true
}

// Solver is the external MAX-SAT collaborator's contract (spec.md §6). The
// core never implements a production Solver; BruteForceSolver below exists
// only so the core's own tests can exercise Problem end to end without a
// real dependency.
type Solver interface {
	Solve(p Problem) (Model, error)
}

// BruteForceSolver enumerates every assignment of every variable mentioned
// in a Problem and returns the cheapest feasible one. It is exponential in
// variable count and is never meant for anything but small fixtures.
type BruteForceSolver struct{}

// Solve implements Solver by brute force. It returns a KindSolverInfeasible
// error (spec.md §7's "solver infeasibility" category) if no assignment
// satisfies every hard clause.
func (BruteForceSolver) Solve(p Problem) (Model, error) {
	vars := p.Variables()
	var best Model
	bestCost := 0.0
	found := false

	for assignment := uint64(0); assignment < uint64(1)<<uint(len(vars)); assignment++ {
		m := make(Model, len(vars))
		for i, v := range vars {
			m[v] = assignment&(1<<uint(i)) != 0
		}
		if !p.Feasible(m) {
			continue
		}
		cost := p.Cost(m)
		if !found || cost < bestCost {
			best, bestCost, found = m, cost, true
		}
	}

	if !found {
		return nil, newSolverInfeasibleError("no assignment of %d variables satisfies every hard clause", len(vars))
	}
	return best, nil
}
