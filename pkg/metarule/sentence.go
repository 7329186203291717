package metarule

import (
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
)

var (
	variableTokenPattern = regexp.MustCompile(`^\[([A-Z]+)\]$`)
	specialTokenPattern  = regexp.MustCompile(`^\$([^\s\[\]$]+)\$$`)
	wordTokenPattern     = regexp.MustCompile(`^[^\s\[\]$]+$`)
)

// SentenceView is a non-owning contiguous slice of a Sentence's tokens
// (spec.md §3). It is used internally by Template.Decompose and by the
// matching/unification/anti-unification algorithms to operate on
// sub-ranges without copying.
type SentenceView struct {
	tokens []Token
}

// Len returns the number of tokens in the view.
func (v SentenceView) Len() int { return len(v.tokens) }

// At returns the token at position i.
func (v SentenceView) At(i int) Token { return v.tokens[i] }

// Tokens returns the view's underlying tokens. The caller must not
// mutate the returned slice: it aliases the owning Sentence's storage.
func (v SentenceView) Tokens() []Token { return v.tokens }

// Sub returns the sub-view [i:j), still aliasing the same storage.
func (v SentenceView) Sub(i, j int) SentenceView { return SentenceView{tokens: v.tokens[i:j]} }

// ToSentence copies the view into a new, independently owned Sentence.
func (v SentenceView) ToSentence(ctx *Context) *Sentence {
	return NewSentence(ctx, v.tokens)
}

// Sentence is an immutable, ordered sequence of tokens (spec.md §3).
// Two sentences are identical iff their token sequences are equal by
// id+kind; they are equivalent iff there is a bijective renaming of
// their variables that makes them identical. Sentences are constructed
// once and never mutated afterward, so they are cheap to share by
// pointer between callers.
type Sentence struct {
	ctx    *Context
	tokens []Token

	hashOnce sync.Once
	hashVal  uint64
}

// NewSentence creates a sentence owning a copy of tokens.
func NewSentence(ctx *Context, tokens []Token) *Sentence {
	owned := make([]Token, len(tokens))
	copy(owned, tokens)
	return &Sentence{ctx: ctx, tokens: owned}
}

// Context returns the vocabulary context this sentence's tokens index into.
func (s *Sentence) Context() *Context { return s.ctx }

// Len returns the number of tokens in the sentence.
func (s *Sentence) Len() int { return len(s.tokens) }

// At returns the token at position i.
func (s *Sentence) At(i int) Token { return s.tokens[i] }

// View returns a SentenceView over the whole sentence.
func (s *Sentence) View() SentenceView { return SentenceView{tokens: s.tokens} }

// Slice returns a SentenceView over tokens [i:j).
func (s *Sentence) Slice(i, j int) SentenceView { return SentenceView{tokens: s.tokens[i:j]} }

// IsConcrete reports whether the sentence contains no variable token.
func (s *Sentence) IsConcrete() bool {
	for _, t := range s.tokens {
		if t.IsVariable() {
			return false
		}
	}
	return true
}

// Variables returns the sentence's distinct variable tokens, in order
// of first occurrence.
func (s *Sentence) Variables() []Token {
	seen := make(map[int32]bool)
	var out []Token
	for _, t := range s.tokens {
		if t.IsVariable() && !seen[t.ID] {
			seen[t.ID] = true
			out = append(out, t)
		}
	}
	return out
}

// IsIdentical reports whether two sentences have equal token sequences
// by id+kind, position for position.
func (s *Sentence) IsIdentical(other *Sentence) bool {
	if s == other {
		return true
	}
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	for i, t := range s.tokens {
		if t != other.tokens[i] {
			return false
		}
	}
	return true
}

// IsEquivalent reports whether there exists a bijective renaming of
// variables making s and other identical (spec.md §3). IsIdentical
// implies IsEquivalent; the converse need not hold.
func (s *Sentence) IsEquivalent(other *Sentence) bool {
	if len(s.tokens) != len(other.tokens) {
		return false
	}
	forward := make(map[int32]int32)
	backward := make(map[int32]int32)
	for i, t := range s.tokens {
		o := other.tokens[i]
		if t.Kind != o.Kind {
			return false
		}
		if t.Kind != KindVariable {
			if t.ID != o.ID {
				return false
			}
			continue
		}
		if mapped, ok := forward[t.ID]; ok {
			if mapped != o.ID {
				return false
			}
		} else {
			forward[t.ID] = o.ID
		}
		if mapped, ok := backward[o.ID]; ok {
			if mapped != t.ID {
				return false
			}
		} else {
			backward[o.ID] = t.ID
		}
	}
	return true
}

// AlphaInvariantHash returns a hash that agrees for every pair of
// equivalent sentences (spec.md §8's α-equivalence property): it is
// computed by canonicalizing variables to their first-occurrence order
// (the standard de Bruijn-style renaming), then hashing the resulting
// token sequence, so equivalent sentences always hash equal (unequal
// hashes prove non-equivalence; equal hashes do not prove equivalence,
// since the 64-bit hash can collide). The hash is computed once and cached.
func (s *Sentence) AlphaInvariantHash() uint64 {
	s.hashOnce.Do(func() {
		s.hashVal = alphaInvariantHashTokens(s.tokens)
	})
	return s.hashVal
}

// alphaInvariantHashTokens hashes a token sequence after canonicalizing
// variable ids to first-occurrence order. Shared by Sentence and Rule
// (a rule's premise/conclusion hashes are combined on top of this).
func alphaInvariantHashTokens(tokens []Token) uint64 {
	canon := make(map[int32]int32)
	next := int32(0)
	h := fnv.New64a()
	for _, t := range tokens {
		id := t.ID
		kind := t.Kind
		if t.Kind == KindVariable {
			c, ok := canon[t.ID]
			if !ok {
				c = next
				canon[t.ID] = c
				next++
			}
			id = c
		}
		h.Write([]byte{byte(kind)})
		writeInt32(h, id)
	}
	return h.Sum64()
}

func writeInt32(h interface{ Write([]byte) (int, error) }, v int32) {
	var b [4]byte
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
	h.Write(b[:])
}

// String renders the sentence using the §6 string syntax: whitespace
// separated words, "[NAME]" variables, and "$NAME$" special symbols.
func (s *Sentence) String() string {
	parts := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		parts[i] = s.ctx.renderToken(t)
	}
	return strings.Join(parts, " ")
}

// renderToken renders a single token back to its §6 surface syntax,
// looking up its vocabulary-interned string by kind. A negative-id
// (De-Bruijn) variable has no vocabulary entry and renders as "_<n>";
// such tokens never appear in a sentence built from ParseSentence.
func (c *Context) renderToken(t Token) string {
	switch t.Kind {
	case KindWord:
		if s, ok := c.Words.Lookup(t.ID); ok {
			return s
		}
	case KindVariable:
		if t.ID < 0 {
			return "_" + itoa(int(-t.ID))
		}
		if s, ok := c.Variables.Lookup(t.ID); ok {
			return "[" + s + "]"
		}
	case KindSpecial:
		if s, ok := c.Specials.Lookup(t.ID); ok {
			return "$" + s + "$"
		}
	}
	return "?"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ParseSentence parses the §6 string syntax into a Sentence, interning
// words, variables, and specials into ctx's vocabularies as needed.
// It returns a KindInputContract error on any malformed token.
func ParseSentence(ctx *Context, text string) (*Sentence, error) {
	fields := strings.Fields(text)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tok, err := parseToken(ctx, f)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return NewSentence(ctx, tokens), nil
}

func parseToken(ctx *Context, field string) (Token, error) {
	if m := variableTokenPattern.FindStringSubmatch(field); m != nil {
		id, err := ctx.InternVariable(m[1])
		if err != nil {
			return Token{}, err
		}
		return Variable(id), nil
	}
	if m := specialTokenPattern.FindStringSubmatch(field); m != nil {
		id, err := ctx.Specials.Intern(m[1])
		if err != nil {
			return Token{}, err
		}
		return Special(id), nil
	}
	if wordTokenPattern.MatchString(field) {
		id, err := ctx.Words.Intern(field)
		if err != nil {
			return Token{}, err
		}
		return Word(id), nil
	}
	return Token{}, newInputContractError("malformed sentence token %q", field)
}
