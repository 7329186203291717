package metarule

// AlphaConversion is a bijection variable id -> variable id used to
// rename a sentence into fresh variables that do not collide with
// another sentence (spec.md §3). It is built incrementally as it
// encounters variables and allocates one fresh id per distinct source
// variable, reusing the same fresh id for repeated occurrences.
type AlphaConversion struct {
	ctx     *Context
	forward map[int32]int32
	inverse map[int32]int32
}

// NewAlphaConversion creates an empty renaming scoped to ctx.
func NewAlphaConversion(ctx *Context) *AlphaConversion {
	return &AlphaConversion{
		ctx:     ctx,
		forward: make(map[int32]int32),
		inverse: make(map[int32]int32),
	}
}

// RenameVariable returns the fresh id for source, allocating one via
// ctx.NextFreshVariableID on first sight.
func (a *AlphaConversion) RenameVariable(source int32) int32 {
	if fresh, ok := a.forward[source]; ok {
		return fresh
	}
	fresh := a.ctx.NextFreshVariableID()
	a.forward[source] = fresh
	a.inverse[fresh] = source
	return fresh
}

// Apply renames every variable token in sentence through the bijection,
// allocating fresh ids for any variable not yet seen.
func (a *AlphaConversion) Apply(sentence *Sentence) *Sentence {
	out := make([]Token, sentence.Len())
	changed := false
	for i := 0; i < sentence.Len(); i++ {
		t := sentence.At(i)
		if t.IsVariable() {
			fresh := a.RenameVariable(t.ID)
			if fresh != t.ID {
				changed = true
			}
			out[i] = Variable(fresh)
			continue
		}
		out[i] = t
	}
	if !changed {
		return sentence
	}
	return NewSentence(sentence.ctx, out)
}

// ApplyRule renames every variable across a rule's premises and
// conclusion with a single shared bijection, so repeated variables
// across premises stay shared after renaming.
func (a *AlphaConversion) ApplyRule(rule *Rule) *Rule {
	premises := make([]*Sentence, len(rule.Premises))
	for i, p := range rule.Premises {
		premises[i] = a.Apply(p)
	}
	return &Rule{Premises: premises, Conclusion: a.Apply(rule.Conclusion)}
}

// Invert returns the fresh->source mapping, used to translate a
// substitution computed over renamed variables back to the caller's
// original variable ids.
func (a *AlphaConversion) Invert(fresh int32) (int32, bool) {
	source, ok := a.inverse[fresh]
	return source, ok
}

// freshen renames every variable of sentence to fresh ids drawn from
// ctx's monotonically increasing counter. Because that counter never
// repeats an id, the result is automatically disjoint from every
// variable in every other sentence the caller holds, including the
// one it is about to be unified against — no second argument is needed
// to check against. Used by the backward prover to rename a goal's
// variables apart from a rule's before unifying (spec.md §4.6).
func freshen(ctx *Context, sentence *Sentence) (*Sentence, *AlphaConversion) {
	conv := NewAlphaConversion(ctx)
	return conv.Apply(sentence), conv
}
