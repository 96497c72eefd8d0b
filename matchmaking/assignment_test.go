package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ladder-system/models"
)

func TestPairwiseMatchingsPrefersClosestRatings(t *testing.T) {
	// With {A 1500, B 1520, C 3000} the closest-rated pair must form:
	// A-B, never A-C or B-C.
	a := poolTeam(1, "1500", 1)
	b := poolTeam(2, "1520", 1)
	c := poolTeam(3, "3000", 1)

	pool := BuildPool([]*models.Team{a, b, c}, PoolOptions{})
	matchings := PairwiseMatchings(pool, duelTemplates(), eloSystem(t), duelOptions())

	require.Len(t, matchings, 1)
	assert.ElementsMatch(t, [][]int{{1}, {2}}, matchings[0].Sides)
}

func TestPairwiseMatchingsHonorsConflicts(t *testing.T) {
	a := poolTeam(1, "1500", 1)
	a.OpponentHistory = []int{2}
	b := poolTeam(2, "1505", 1)
	c := poolTeam(3, "1510", 1)

	pool := BuildPool([]*models.Team{a, b, c}, PoolOptions{RematchWindow: 3})
	matchings := PairwiseMatchings(pool, duelTemplates(), eloSystem(t), duelOptions())

	require.Len(t, matchings, 1)
	for _, m := range matchings {
		assert.NotEqual(t, [][]int{{1}, {2}}, m.Sides)
	}
}

func TestPairwiseMatchingsMultipleRounds(t *testing.T) {
	// Both teams want two games; the second round would be an instant
	// rematch, which the pairing forbids, so exactly one game comes out.
	a := poolTeam(1, "1500", 2)
	b := poolTeam(2, "1510", 2)

	pool := BuildPool([]*models.Team{a, b}, PoolOptions{})
	matchings := PairwiseMatchings(pool, duelTemplates(), eloSystem(t), duelOptions())
	assert.Len(t, matchings, 1)
}

func TestSelectBatchRespectsBudgets(t *testing.T) {
	a := poolTeam(1, "1500", 1)
	b := poolTeam(2, "1505", 1)
	c := poolTeam(3, "1510", 1)

	pool := BuildPool([]*models.Team{a, b, c}, PoolOptions{})
	sides := FormSides(pool, 1, eloSystem(t), 0)
	matchings := FormMatchings(sides, duelTemplates(), eloSystem(t), duelOptions())
	require.Len(t, matchings, 3)

	budgets := map[int]int{1: 1, 2: 1, 3: 1}
	batch := SelectBatch(matchings, duelTemplates(), budgets, duelOptions())

	require.Len(t, batch, 1, "a second game would overdraw someone's budget")
	used := make(map[int]int)
	for _, chosen := range batch {
		for _, side := range chosen.Matching.Sides {
			for _, teamID := range side {
				used[teamID]++
			}
		}
	}
	for teamID, count := range used {
		assert.LessOrEqual(t, count, 1, "team %d over budget", teamID)
	}
}

func TestSelectBatchPrefersLowFrictionThenCost(t *testing.T) {
	budgets := map[int]int{1: 1, 2: 1, 3: 1, 4: 1}
	frictionless := &Matching{Sides: [][]int{{1}, {2}}, Score: 0, Cost: 50, Count: 1, Conflicts: map[int]struct{}{}}
	frictional := &Matching{Sides: [][]int{{3}, {4}}, Score: 2, Cost: 1, Count: 1, Conflicts: map[int]struct{}{}}

	batch := SelectBatch([]*Matching{frictional, frictionless}, duelTemplates(), budgets, duelOptions())
	require.Len(t, batch, 2)
	assert.Equal(t, frictionless, batch[0].Matching)
}

func TestSelectBatchSpreadsTemplateUsage(t *testing.T) {
	templates := duelTemplates()
	templates[0].Usage = 5

	budgets := map[int]int{1: 1, 2: 1, 3: 1, 4: 1}
	m1 := &Matching{Sides: [][]int{{1}, {2}}, Count: 1, Conflicts: map[int]struct{}{}}
	m2 := &Matching{Sides: [][]int{{3}, {4}}, Count: 1, Conflicts: map[int]struct{}{}}

	batch := SelectBatch([]*Matching{m1, m2}, templates, budgets, duelOptions())
	require.Len(t, batch, 2)
	assert.Equal(t, 2, batch[0].Template.ID, "least-used template first")
	assert.Equal(t, 2, templates[1].Usage, "usage counter bumped per instance")
	assert.Equal(t, 5, templates[0].Usage)
}

func TestSelectBatchSkipsFullyConflictedTemplates(t *testing.T) {
	budgets := map[int]int{1: 1, 2: 1}
	m := &Matching{
		Sides:     [][]int{{1}, {2}},
		Count:     1,
		Conflicts: map[int]struct{}{1: {}, 2: {}},
	}
	batch := SelectBatch([]*Matching{m}, duelTemplates(), budgets, duelOptions())
	assert.Empty(t, batch)
}

func TestSelectBatchInstancesCappedByCount(t *testing.T) {
	budgets := map[int]int{1: 3, 2: 3}
	m := &Matching{Sides: [][]int{{1}, {2}}, Count: 2, Conflicts: map[int]struct{}{}}

	batch := SelectBatch([]*Matching{m}, duelTemplates(), budgets, duelOptions())
	assert.Len(t, batch, 2, "count caps instances below the budget")
}
