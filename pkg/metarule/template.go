package metarule

// templateSymbol is one element of a SentenceTemplate: either a literal
// special-symbol token, or a sentinel standing in for a maximal run of
// words/variables (spec.md §3).
type templateSymbol struct {
	sentinel  bool
	specialID int32 // meaningful only when !sentinel
}

// Template is the structural skeleton of a sentence: the subsequence of
// its special-symbol tokens with every maximal run of words/variables
// collapsed to a sentinel (spec.md §3). Equal templates are a necessary
// (not sufficient) condition for two sentences to match or unify, and
// Template comparison is the cheap pre-filter spec.md §4.1-4.3 call for
// before running the expensive algorithms. Grounded on pldb.go's
// indexed-column idea: compute a cheap structural key once, compare it
// before doing real work.
type Template struct {
	symbols []templateSymbol
}

// Equal reports whether two templates have the same sentinel/special
// structure.
func (t Template) Equal(other Template) bool {
	if len(t.symbols) != len(other.symbols) {
		return false
	}
	for i, s := range t.symbols {
		o := other.symbols[i]
		if s.sentinel != o.sentinel {
			return false
		}
		if !s.sentinel && s.specialID != o.specialID {
			return false
		}
	}
	return true
}

// NumSegments returns the number of sentinel positions (i.e. the number
// of segments Decompose would return for a sentence with this template).
func (t Template) NumSegments() int {
	n := 0
	for _, s := range t.symbols {
		if s.sentinel {
			n++
		}
	}
	return n
}

// Decompose splits a sentence into its Template and the list of
// SentenceViews occupying each sentinel position, in order (spec.md §3).
// Each segment is non-empty by construction (a "run" is never empty).
func Decompose(s *Sentence) (Template, []SentenceView) {
	var symbols []templateSymbol
	var segments []SentenceView

	n := s.Len()
	i := 0
	for i < n {
		tok := s.At(i)
		if tok.IsSpecial() {
			symbols = append(symbols, templateSymbol{specialID: tok.ID})
			i++
			continue
		}
		start := i
		for i < n && !s.At(i).IsSpecial() {
			i++
		}
		symbols = append(symbols, templateSymbol{sentinel: true})
		segments = append(segments, s.Slice(start, i))
	}
	return Template{symbols: symbols}, segments
}

// Compose reconstructs a sentence from a Template and the segments to
// fill its sentinel positions, the inverse of Decompose. It returns a
// KindInputContract error if the segment count doesn't match the
// template's sentinel count or any segment is empty.
func Compose(ctx *Context, tmpl Template, segments []SentenceView) (*Sentence, error) {
	var tokens []Token
	segIdx := 0
	for _, sym := range tmpl.symbols {
		if sym.sentinel {
			if segIdx >= len(segments) {
				return nil, newInputContractError("compose: missing segment for sentinel %d", segIdx)
			}
			seg := segments[segIdx]
			if seg.Len() == 0 {
				return nil, newInputContractError("compose: segment %d must be non-empty", segIdx)
			}
			tokens = append(tokens, seg.Tokens()...)
			segIdx++
			continue
		}
		tokens = append(tokens, Special(sym.specialID))
	}
	if segIdx != len(segments) {
		return nil, newInputContractError("compose: %d segments supplied, template has %d sentinels", len(segments), segIdx)
	}
	return NewSentence(ctx, tokens), nil
}
