package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveAssignmentKnownMatrix(t *testing.T) {
	// Unique optimum: (0,1)=1, (1,0)=2, (2,2)=2.
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	assignment := SolveAssignment(cost)
	require.Len(t, assignment, 3)

	total := 0.0
	for i, j := range assignment {
		total += cost[i][j]
	}
	assert.InDelta(t, 5, total, 1e-9)
}

func TestSolveAssignmentEmpty(t *testing.T) {
	assert.Empty(t, SolveAssignment(nil))
}

func TestSolveAssignmentIsPermutation(t *testing.T) {
	cost := [][]float64{
		{9, 2, 7, 8},
		{6, 4, 3, 7},
		{5, 8, 1, 8},
		{7, 6, 9, 4},
	}
	assignment := SolveAssignment(cost)
	require.Len(t, assignment, 4)

	seen := make(map[int]bool)
	for _, j := range assignment {
		assert.False(t, seen[j], "column assigned twice")
		seen[j] = true
	}

	total := 0.0
	for i, j := range assignment {
		total += cost[i][j]
	}
	// Optimum: (0,1)=2, (1,0)=6, (2,2)=1, (3,3)=4.
	assert.InDelta(t, 13, total, 1e-9)
}

func TestBuildCostMatrixForcedCells(t *testing.T) {
	ratingOf := []float64{1500, 1520, 3000}
	matrix := BuildCostMatrix(3,
		func(i, j int) float64 { return ratingOf[i] - ratingOf[j] },
		func(i, j int) bool { return i+j == 3 }, // 1 and 2 conflict
		1)

	assert.Equal(t, costSelf, matrix[0][0])
	assert.Equal(t, costConflict, matrix[1][2])
	assert.Equal(t, costConflict, matrix[2][1])
	assert.Equal(t, 20.0, matrix[0][1])
	assert.Equal(t, 1500.0, matrix[2][0])
}

func TestBuildCostMatrixPower(t *testing.T) {
	matrix := BuildCostMatrix(2,
		func(i, j int) float64 { return 10 },
		func(i, j int) bool { return false },
		2)
	assert.Equal(t, 100.0, matrix[0][1])
}

func TestExtractPairsOddPoolKeepsClosestPair(t *testing.T) {
	// Three entities with ratings 1500, 1520, 3000: the solver's cheapest
	// permutation is a 3-cycle, and pair extraction must keep the 20-point
	// pair, leaving the outlier unmatched.
	ratingOf := []float64{1500, 1520, 3000}
	matrix := BuildCostMatrix(3,
		func(i, j int) float64 { return ratingOf[i] - ratingOf[j] },
		func(i, j int) bool { return false },
		1)

	pairs := ExtractPairs(SolveAssignment(matrix), matrix)
	require.Len(t, pairs, 1)
	assert.Equal(t, [2]int{0, 1}, pairs[0])
}

func TestExtractPairsSkipsConflictCells(t *testing.T) {
	matrix := BuildCostMatrix(2,
		func(i, j int) float64 { return 1 },
		func(i, j int) bool { return true },
		1)
	pairs := ExtractPairs(SolveAssignment(matrix), matrix)
	assert.Empty(t, pairs)
}
