package metarule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBruteForceSolver_PrefersCheaperFeasibleModel(t *testing.T) {
	var p Problem
	// exactly one of r_1, r_2 must be selected; preferring r_1 costs nothing,
	// preferring r_2 violates both soft clauses and costs 1+2 = 3.
	p.AddHard(AbstractRuleLiteral(1, false), AbstractRuleLiteral(2, false))
	p.AddHard(AbstractRuleLiteral(1, true), AbstractRuleLiteral(2, true))
	p.AddSoft(1, AbstractRuleLiteral(1, false))
	p.AddSoft(2, AbstractRuleLiteral(2, true))

	model, err := BruteForceSolver{}.Solve(p)
	require.NoError(t, err)
	assert.True(t, model["r_1"])
	assert.False(t, model["r_2"])
}

func TestBruteForceSolver_InfeasibleHardClausesIsSolverInfeasibleError(t *testing.T) {
	var p Problem
	p.AddHard(AbstractRuleLiteral(1, false))
	p.AddHard(AbstractRuleLiteral(1, true))

	_, err := BruteForceSolver{}.Solve(p)
	require.Error(t, err)
	assert.True(t, IsSolverInfeasible(err))
}

func TestProblem_VariablesSortedAndDeduplicated(t *testing.T) {
	var p Problem
	p.AddHard(ConcreteRuleLiteral(3, false), AbstractRuleLiteral(1, false))
	p.AddSoft(0.5, ConcreteRuleLiteral(3, true))

	assert.Equal(t, []string{"cr_3", "r_1"}, p.Variables())
}

func TestClause_HardDistinguishesZeroWeightFromSoft(t *testing.T) {
	hard := Clause{Literals: []Literal{AbstractRuleLiteral(1, false)}}
	soft := Clause{Literals: []Literal{AbstractRuleLiteral(1, false)}, Weight: 0.1}
	assert.True(t, hard.Hard())
	assert.False(t, soft.Hard())
}
