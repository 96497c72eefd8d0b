// Package matchmaking turns the pool of teams eligible for more games into
// concrete balanced game candidates: sides, matchings, and a conflict-free
// template-assigned batch.
package matchmaking

import (
	"math"
	"sort"
)

// Forced costs for the assignment matrix. A cell pairing an entity with
// itself must never win, a cell pairing known conflicts must lose to any
// legal pairing; both still have to stay finite for the solver.
const (
	costSelf     = math.MaxFloat64 / 4
	costConflict = math.MaxFloat64 / 8
)

// BuildCostMatrix assembles the square matrix for a pairwise assignment:
// diagonal cells are forced to the self cost, forbidden pairs to the conflict
// cost, everything else to cost(i, j) raised to power. Raising the power
// biases the solver strongly against single large mismatches over several
// small ones.
func BuildCostMatrix(n int, cost func(i, j int) float64, forbidden func(i, j int) bool, power float64) [][]float64 {
	matrix := make([][]float64, n)
	for i := 0; i < n; i++ {
		matrix[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			switch {
			case i == j:
				matrix[i][j] = costSelf
			case forbidden(i, j):
				matrix[i][j] = costConflict
			default:
				matrix[i][j] = math.Pow(math.Abs(cost(i, j)), power)
			}
		}
	}
	return matrix
}

// SolveAssignment returns the minimum-cost perfect assignment for a square
// cost matrix using the Hungarian algorithm with potentials (O(n^3)).
// assignment[row] = column. An empty matrix yields an empty assignment.
func SolveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return []int{}
	}

	// 1-based arrays per the classic formulation; row 0 / column 0 are
	// virtual.
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)   // p[j] = row matched to column j
	way := make([]int, n+1) // way[j] = previous column on the augmenting path

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := 0; j <= n; j++ {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			assignment[p[j]-1] = j - 1
		}
	}
	return assignment
}

// ExtractPairs turns a solved assignment into vertex-disjoint unordered
// pairs. The assignment's permutation may contain cycles longer than two
// (cheaper than burning the forced diagonal on odd pools), so the edges are
// harvested individually: forced self/conflict cells are dropped, the rest
// are sorted by cost then by index, and taken greedily while both endpoints
// are unused. A mutual i<->j match survives as-is; a cycle contributes its
// cheapest edges.
func ExtractPairs(assignment []int, cost [][]float64) [][2]int {
	type edge struct {
		a, b int
		cost float64
	}
	var edges []edge
	seen := make(map[[2]int]struct{})
	for i, j := range assignment {
		if i == j || cost[i][j] >= costConflict {
			continue
		}
		a, b := i, j
		if a > b {
			a, b = b, a
		}
		if _, dup := seen[[2]int{a, b}]; dup {
			continue
		}
		seen[[2]int{a, b}] = struct{}{}
		edges = append(edges, edge{a: a, b: b, cost: cost[a][b]})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].cost != edges[j].cost {
			return edges[i].cost < edges[j].cost
		}
		if edges[i].a != edges[j].a {
			return edges[i].a < edges[j].a
		}
		return edges[i].b < edges[j].b
	})

	used := make(map[int]struct{})
	var pairs [][2]int
	for _, e := range edges {
		if _, ok := used[e.a]; ok {
			continue
		}
		if _, ok := used[e.b]; ok {
			continue
		}
		used[e.a] = struct{}{}
		used[e.b] = struct{}{}
		pairs = append(pairs, [2]int{e.a, e.b})
	}
	return pairs
}
