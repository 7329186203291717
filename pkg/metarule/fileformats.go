package metarule

import (
	"fmt"
	"strings"
)

// ParseSentenceLines parses text as one sentence per non-blank line, for
// loading an assumption file.
func ParseSentenceLines(ctx *Context, text string) ([]*Sentence, error) {
	var out []*Sentence
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := ParseSentence(ctx, line)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ruleBlockSeparator divides a weighted-rule file into rule blocks. It is
// distinct from the "---" premise/conclusion separator ParseRule already
// owns.
const ruleBlockSeparator = "==="

// ParseWeightedRules parses a file of rule blocks separated by a line
// containing only "===". Each block is a §6 rule (premise lines, "---",
// conclusion line), optionally preceded by a "weight <float>" line; a
// block with no weight line defaults to weight 0.
func ParseWeightedRules(ctx *Context, text string) ([]WeightedRule, error) {
	var blocks []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == ruleBlockSeparator {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
			continue
		}
		current = append(current, line)
	}
	blocks = append(blocks, strings.Join(current, "\n"))

	var out []WeightedRule
	for _, block := range blocks {
		if strings.TrimSpace(block) == "" {
			continue
		}

		lines := strings.Split(block, "\n")
		weight := 0.0
		ruleLines := lines
		for i, l := range lines {
			trimmed := strings.TrimSpace(l)
			if trimmed == "" {
				continue
			}
			if rest, ok := cutPrefix(trimmed, "weight "); ok {
				w, err := parseWeight(rest)
				if err != nil {
					return nil, err
				}
				weight = w
				ruleLines = lines[i+1:]
			}
			break
		}

		rule, err := ParseRule(ctx, strings.Join(ruleLines, "\n"))
		if err != nil {
			return nil, err
		}
		out = append(out, WeightedRule{Rule: rule, Weight: weight})
	}
	return out, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func parseWeight(s string) (float64, error) {
	var w float64
	n, err := fmt.Sscanf(s, "%g", &w)
	if err != nil || n != 1 {
		return 0, newInputContractError("rule file: %q is not a valid weight", s)
	}
	return w, nil
}
