package metarule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceDataset struct {
	assumptions [][]*Sentence
	goals       []*Sentence
}

func (d sliceDataset) Example(i int) ([]*Sentence, *Sentence, bool) {
	if i < 0 || i >= len(d.goals) {
		return nil, nil, false
	}
	return d.assumptions[i], d.goals[i], true
}

// identityProposer proposes the trivial zero-premise rule "goal" for every
// example, and considers a rule valid iff it has no premises.
type identityProposer struct{}

func (identityProposer) Propose(dataset Dataset, exampleIndex int) ([]*Rule, error) {
	_, goal, ok := dataset.Example(exampleIndex)
	if !ok {
		return nil, newInputContractError("no example at index %d", exampleIndex)
	}
	return []*Rule{{Conclusion: goal}}, nil
}

func (identityProposer) IsValid(rule *Rule) bool {
	return len(rule.Premises) == 0
}

func TestProposer_ProposesFromDatasetExample(t *testing.T) {
	ctx := NewContext()
	goal := mustParseSentence(t, ctx, "zup $MAPS_TO$ YELLOW")
	ds := sliceDataset{assumptions: [][]*Sentence{nil}, goals: []*Sentence{goal}}

	var p Proposer = identityProposer{}
	rules, err := p.Propose(ds, 0)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Conclusion.IsIdentical(goal))
	assert.True(t, p.IsValid(rules[0]))
}

func TestProposer_OutOfRangeExampleIsInputContractError(t *testing.T) {
	ds := sliceDataset{}
	var p Proposer = identityProposer{}
	_, err := p.Propose(ds, 3)
	require.Error(t, err)
	assert.True(t, IsInputContract(err))
}
