package metarule

import (
	"regexp"
	"sync"
	"sync/atomic"
)

// wordSpecialPattern and variablePattern are the admissibility regexes
// from spec.md §3: words/specials may be any non-empty run of characters
// that are not whitespace, brackets, or '$'; variables must be one or
// more uppercase letters.
var (
	wordSpecialPattern = regexp.MustCompile(`^[^\s\[\]$]+$`)
	variablePattern    = regexp.MustCompile(`^[A-Z]+$`)
)

// Vocabulary is a bijection between strings and small positive integer
// ids, grounded on pldb.go's hash-indexed bucket idiom (here indexing a
// string key instead of a fact's terms). It enforces a regex on
// admissible strings and is append-only during a run: ids are assigned
// in insertion order starting at 1, and an existing string always maps
// back to its original id.
type Vocabulary struct {
	mu      sync.RWMutex
	byID    []string       // index i holds the string for id i+1
	byValue map[string]int32
	pattern *regexp.Regexp
	name    string
}

// newVocabulary constructs an empty vocabulary that admits strings
// matching pattern, used only for error messages and checkpoint sections.
func newVocabulary(name string, pattern *regexp.Regexp) *Vocabulary {
	return &Vocabulary{
		byValue: make(map[string]int32),
		pattern: pattern,
		name:    name,
	}
}

// Intern returns the id for s, assigning the next free id if s has not
// been seen before. It returns a KindInputContract error if s does not
// match the vocabulary's admissibility pattern.
func (v *Vocabulary) Intern(s string) (int32, error) {
	if !v.pattern.MatchString(s) {
		return 0, newInputContractError("%s vocabulary: %q is not an admissible string", v.name, s)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if id, ok := v.byValue[s]; ok {
		return id, nil
	}
	id := int32(len(v.byID)) + 1
	v.byID = append(v.byID, s)
	v.byValue[s] = id
	return id, nil
}

// Lookup returns the string interned for id, or ok=false if no such id
// has been assigned.
func (v *Vocabulary) Lookup(id int32) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if id < 1 || int(id) > len(v.byID) {
		return "", false
	}
	return v.byID[id-1], true
}

// IDOf returns the id assigned to s, or ok=false if s was never interned.
func (v *Vocabulary) IDOf(s string) (int32, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	id, ok := v.byValue[s]
	return id, ok
}

// Len returns the number of strings currently interned.
func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.byID)
}

// Snapshot returns the interned strings in id order, starting at id 1.
// The returned slice is a copy and safe to retain.
func (v *Vocabulary) Snapshot() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, len(v.byID))
	copy(out, v.byID)
	return out
}

// reset replaces the vocabulary's contents with entries, which must
// strictly extend the current contents as a prefix (spec.md §5, §7):
// every already-assigned id must map to the same string in entries.
// Used only by checkpoint loading.
func (v *Vocabulary) reset(entries []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(entries) < len(v.byID) {
		return newInputContractError("%s vocabulary: checkpoint has fewer entries (%d) than already loaded (%d)", v.name, len(entries), len(v.byID))
	}
	for i, existing := range v.byID {
		if entries[i] != existing {
			return newInputContractError("%s vocabulary: checkpoint entry %d (%q) conflicts with in-memory entry (%q)", v.name, i+1, entries[i], existing)
		}
	}
	for _, s := range entries {
		if !v.pattern.MatchString(s) {
			return newInputContractError("%s vocabulary: checkpoint entry %q is not admissible", v.name, s)
		}
	}

	byID := make([]string, len(entries))
	copy(byID, entries)
	byValue := make(map[string]int32, len(entries))
	for i, s := range byID {
		byValue[s] = int32(i) + 1
	}
	v.byID = byID
	v.byValue = byValue
	return nil
}

// Context bundles the three process-wide vocabularies (words, variables,
// special symbols) that every Token with a non-negative id indexes into.
// spec.md §9 asks for an explicit context object rather than package
// globals; DefaultContext is the optional convenience factory for callers
// (the CLI, tests) that don't need isolation between runs.
type Context struct {
	Words     *Vocabulary
	Variables *Vocabulary
	Specials  *Vocabulary

	// freshCounter allocates negative, vocabulary-free variable ids for
	// AlphaConversion, unify's growth-continuation variables, and
	// anti-unification's generalization variables: these never collide with the positive
	// ids the variable vocabulary hands out, so allocating one never has
	// to touch, or even lock, the vocabulary.
	freshCounter int64
}

// NextFreshVariableID returns a negative variable id guaranteed distinct
// from every id this Context has handed out before, for internal
// renaming and fresh variables (AlphaConversion, Unify, AntiUnify) that
// must not collide with either the vocabulary or other fresh ids. Rete's
// De-Bruijn canonicalization numbers its placeholders itself and does not
// draw from this counter.
func (c *Context) NextFreshVariableID() int32 {
	n := atomic.AddInt64(&c.freshCounter, 1)
	return int32(-n)
}

// NewContext creates a fresh context with the variable vocabulary
// pre-seeded with single-letter names A..Z (spec.md §3), so single-letter
// variables have stable, predictable ids across contexts.
func NewContext() *Context {
	ctx := &Context{
		Words:     newVocabulary("word", wordSpecialPattern),
		Variables: newVocabulary("variable", variablePattern),
		Specials:  newVocabulary("special", wordSpecialPattern),
	}
	for c := byte('A'); c <= 'Z'; c++ {
		if _, err := ctx.Variables.Intern(string(c)); err != nil {
			// The A..Z seed always matches variablePattern; a failure
			// here would be a bug in this package, not bad input.
			panic(err)
		}
	}
	return ctx
}

var defaultContext = sync.OnceValue(NewContext)

// DefaultContext returns a process-wide default Context, created once
// on first use. Package-level convenience functions that don't take an
// explicit *Context use this one.
func DefaultContext() *Context {
	return defaultContext()
}

// InternVariable interns a variable name into this context's variable
// vocabulary. Anti-unification's dummy variables (spec.md §9) are unnamed
// negative ids allocated via NextFreshVariableID and are
// never passed through here, so they occupy a disjoint id space rather
// than needing a name-based rejection.
func (c *Context) InternVariable(name string) (int32, error) {
	return c.Variables.Intern(name)
}

// MustInternVariable is InternVariable but panics on error; intended for
// constructing literal test fixtures where the name is known-good.
func (c *Context) MustInternVariable(name string) int32 {
	id, err := c.InternVariable(name)
	if err != nil {
		panic(err)
	}
	return id
}
