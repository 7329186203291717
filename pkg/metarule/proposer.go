package metarule

// Dataset is the minimal view a Proposer needs of a training set: the
// assumptions and goal for one labeled example. Loading the dataset itself
// is out of scope (spec.md §1) — the core only consumes this interface.
type Dataset interface {
	// Example returns the assumptions and goal of example i, and ok=false
	// if i is out of range.
	Example(i int) (assumptions []*Sentence, goal *Sentence, ok bool)
}

// Proposer is the rule proposer interface (spec.md §6): a domain-specific
// collaborator that looks at one labeled example and suggests candidate
// rules a backward or forward prover might then use. The core never
// implements a production Proposer.
type Proposer interface {
	// Propose suggests candidate rules for dataset's example at exampleIndex.
	Propose(dataset Dataset, exampleIndex int) ([]*Rule, error)
	// IsValid reports whether rule meets this proposer's own domain-specific
	// acceptance criteria, independent of rule.go's structural IsValid.
	IsValid(rule *Rule) bool
}
