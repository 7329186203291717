package metarule

import (
	"sort"
	"strings"
)

// Substitution is a partial map from variable ids to non-empty sentences
// containing no special symbol (spec.md §3). It is built functionally:
// Bind, Compose, and Merge all return a new Substitution rather than
// mutating the receiver, so substitutions are safe to share and compare
// without aliasing surprises (spec.md §9). Grounded on core.go's
// Substitution (Bind/Walk/Clone), minus its mutex: here a Substitution
// never changes after construction, so no lock is meaningful.
type Substitution struct {
	bindings map[int32]*Sentence
}

// EmptySubstitution returns the substitution with no bindings.
func EmptySubstitution() *Substitution {
	return &Substitution{bindings: map[int32]*Sentence{}}
}

// validateBindingValue enforces the non-empty/no-special invariant a
// Substitution's values must satisfy (spec.md §3, §7).
func validateBindingValue(value *Sentence) error {
	if value.Len() == 0 {
		return newInputContractError("substitution: cannot bind a variable to an empty sentence")
	}
	for i := 0; i < value.Len(); i++ {
		if value.At(i).IsSpecial() {
			return newInputContractError("substitution: bound sentence %q contains a special symbol", value.String())
		}
	}
	return nil
}

// Bind returns a new substitution extending s with varID -> value,
// overwriting any prior binding for varID. It returns a KindInputContract
// error if value is empty or contains a special symbol.
func (s *Substitution) Bind(varID int32, value *Sentence) (*Substitution, error) {
	if err := validateBindingValue(value); err != nil {
		return nil, err
	}
	next := make(map[int32]*Sentence, len(s.bindings)+1)
	for k, v := range s.bindings {
		next[k] = v
	}
	next[varID] = value
	return &Substitution{bindings: next}, nil
}

// Get returns the sentence bound to varID, if any.
func (s *Substitution) Get(varID int32) (*Sentence, bool) {
	v, ok := s.bindings[varID]
	return v, ok
}

// Size returns the number of bindings.
func (s *Substitution) Size() int { return len(s.bindings) }

// VariableIDs returns the bound variable ids in ascending order, for
// deterministic iteration (spec.md §5: enumerations must be deterministic).
func (s *Substitution) VariableIDs() []int32 {
	ids := make([]int32, 0, len(s.bindings))
	for id := range s.bindings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Restrict returns a new substitution containing only the bindings for
// the given variable ids, used by the backward prover to project a
// result substitution down to a goal's own variables (spec.md §4.6).
func (s *Substitution) Restrict(varIDs []int32) *Substitution {
	next := make(map[int32]*Sentence, len(varIDs))
	for _, id := range varIDs {
		if v, ok := s.bindings[id]; ok {
			next[id] = v
		}
	}
	return &Substitution{bindings: next}
}

// Apply returns sentence with every bound variable replaced by its
// bound sentence, a single (non-recursive) pass: σ(pattern) as used
// throughout spec.md §4. Returns the input unchanged (no copy) if s is
// empty or nothing in sentence is bound.
func (s *Substitution) Apply(sentence *Sentence) *Sentence {
	if len(s.bindings) == 0 {
		return sentence
	}
	var out []Token
	changed := false
	for i := 0; i < sentence.Len(); i++ {
		t := sentence.At(i)
		if t.IsVariable() {
			if val, ok := s.bindings[t.ID]; ok {
				out = append(out, val.tokens...)
				changed = true
				continue
			}
		}
		out = append(out, t)
	}
	if !changed {
		return sentence
	}
	return NewSentence(sentence.ctx, out)
}

// Compose implements (s ∘ other)(t) = other(s(t)): every value of s is
// itself walked through other, and other's own bindings are added for
// any variable s does not already bind (spec.md §3).
func (s *Substitution) Compose(other *Substitution) *Substitution {
	next := make(map[int32]*Sentence, len(s.bindings)+len(other.bindings))
	for v, val := range s.bindings {
		next[v] = other.Apply(val)
	}
	for v, val := range other.bindings {
		if _, exists := next[v]; !exists {
			next[v] = val
		}
	}
	return &Substitution{bindings: next}
}

// Merge computes the disjoint merge s + other: a shared variable must
// map to an identical sentence in both, or Merge fails with a
// KindInputContract error (spec.md §3, §7).
func (s *Substitution) Merge(other *Substitution) (*Substitution, error) {
	next := make(map[int32]*Sentence, len(s.bindings)+len(other.bindings))
	for v, val := range s.bindings {
		next[v] = val
	}
	for v, val := range other.bindings {
		if existing, ok := next[v]; ok {
			if !existing.IsIdentical(val) {
				return nil, newInputContractError("substitution merge: variable bound to incompatible sentences (%q vs %q)", existing.String(), val.String())
			}
			continue
		}
		next[v] = val
	}
	return &Substitution{bindings: next}, nil
}

// String renders the substitution for debugging, in ascending variable-id order.
func (s *Substitution) String() string {
	if len(s.bindings) == 0 {
		return "{}"
	}
	ids := s.VariableIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = s.bindings[id].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// VariableBinding is a single-pair substitution, used to avoid
// allocating a map for the common one-binding case (spec.md §3).
type VariableBinding struct {
	VarID int32
	Value *Sentence
}

// NewVariableBinding validates value and returns a VariableBinding.
func NewVariableBinding(varID int32, value *Sentence) (VariableBinding, error) {
	if err := validateBindingValue(value); err != nil {
		return VariableBinding{}, err
	}
	return VariableBinding{VarID: varID, Value: value}, nil
}

// ToSubstitution promotes a VariableBinding to a full Substitution.
func (b VariableBinding) ToSubstitution() *Substitution {
	return &Substitution{bindings: map[int32]*Sentence{b.VarID: b.Value}}
}

// Apply substitutes b.VarID with b.Value throughout sentence, a single pass.
func (b VariableBinding) Apply(sentence *Sentence) *Sentence {
	var out []Token
	changed := false
	for i := 0; i < sentence.Len(); i++ {
		t := sentence.At(i)
		if t.IsVariable() && t.ID == b.VarID {
			out = append(out, b.Value.tokens...)
			changed = true
			continue
		}
		out = append(out, t)
	}
	if !changed {
		return sentence
	}
	return NewSentence(sentence.ctx, out)
}
