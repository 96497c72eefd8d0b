package matchmaking

import (
	"sort"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/ratings"
)

// PairwiseMatchings builds matchings for the sideSize 1, gameSize 2 scheme
// by running the Hungarian assignment directly over the pool, instead of
// enumerating candidates. Repeated rounds let teams with capacity for
// several games pair again, with already-made pairings forbidden so a round
// never rematches the previous one.
func PairwiseMatchings(pool []*Entrant, templates []*models.Template, sys ratings.System, opts GroupingOptions) []*Matching {
	remaining := make(map[int]int, len(pool))
	for _, entrant := range pool {
		remaining[entrant.Team.ID] = entrant.Desired
	}
	paired := make(map[[2]int]struct{})

	var matchings []*Matching
	for {
		var active []*Entrant
		for _, entrant := range pool {
			if remaining[entrant.Team.ID] > 0 {
				active = append(active, entrant)
			}
		}
		if len(active) < 2 {
			break
		}

		matrix := BuildCostMatrix(len(active),
			func(i, j int) float64 {
				return sys.Score(active[i].Team.Rating) - sys.Score(active[j].Team.Rating)
			},
			func(i, j int) bool {
				if conflicted(active[i], active[j]) {
					return true
				}
				_, done := paired[pairKey(active[i].Team.ID, active[j].Team.ID)]
				return done
			},
			opts.CostPower)

		pairs := ExtractPairs(SolveAssignment(matrix), matrix)
		if len(pairs) == 0 {
			break
		}

		for _, pair := range pairs {
			a, b := active[pair[0]], active[pair[1]]
			paired[pairKey(a.Team.ID, b.Team.ID)] = struct{}{}

			sides := []*Side{
				{Members: []*Entrant{a}, Desired: 1},
				{Members: []*Entrant{b}, Desired: 1},
			}
			matching := realizeMatching(sides, templates, sys, opts)
			if matching == nil {
				continue
			}
			matchings = append(matchings, matching)
			remaining[a.Team.ID]--
			remaining[b.Team.ID]--
		}
	}
	return matchings
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Assignment is one matching instance bound to a concrete template.
type Assignment struct {
	Matching *Matching
	Template *models.Template
}

// SelectBatch picks the batch to create this tick: candidates are visited in
// deterministic preference order (lowest veto friction, then lowest rating
// cost, then lowest team ids) and taken while every participant still has
// budget and a compatible template remains. Template choice per instance is
// greedy least-usage among compatible non-conflicting templates, ties to the
// lowest template id; the chosen template's usage counter is bumped so later
// instances spread across templates.
func SelectBatch(matchings []*Matching, templates []*models.Template, budgets map[int]int, opts GroupingOptions) []Assignment {
	ordered := append([]*Matching(nil), matchings...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score < ordered[j].Score
		}
		if ordered[i].Cost != ordered[j].Cost {
			return ordered[i].Cost < ordered[j].Cost
		}
		return lessSides(ordered[i].Sides, ordered[j].Sides)
	})

	var batch []Assignment
	for _, matching := range ordered {
		for instance := 0; instance < matching.Count; instance++ {
			if !withinBudget(matching, budgets) {
				break
			}
			tpl := chooseTemplate(templates, matching.Conflicts, opts)
			if tpl == nil {
				break
			}
			for _, side := range matching.Sides {
				for _, teamID := range side {
					budgets[teamID]--
				}
			}
			tpl.Usage++
			batch = append(batch, Assignment{Matching: matching, Template: tpl})
		}
	}
	return batch
}

func withinBudget(matching *Matching, budgets map[int]int) bool {
	for _, side := range matching.Sides {
		for _, teamID := range side {
			if budgets[teamID] <= 0 {
				return false
			}
		}
	}
	return true
}

func chooseTemplate(templates []*models.Template, conflicts map[int]struct{}, opts GroupingOptions) *models.Template {
	var best *models.Template
	for _, tpl := range templates {
		if _, dropped := conflicts[tpl.ID]; dropped {
			continue
		}
		if !tpl.SupportsScheme(opts.TeamSize, opts.SideSize, opts.GameSize) {
			continue
		}
		if best == nil || tpl.Usage < best.Usage || (tpl.Usage == best.Usage && tpl.ID < best.ID) {
			best = tpl
		}
	}
	return best
}

func lessSides(a, b [][]int) bool {
	flatA := flatten(a)
	flatB := flatten(b)
	for i := 0; i < len(flatA) && i < len(flatB); i++ {
		if flatA[i] != flatB[i] {
			return flatA[i] < flatB[i]
		}
	}
	return len(flatA) < len(flatB)
}

func flatten(sides [][]int) []int {
	var ids []int
	for _, side := range sides {
		ids = append(ids, side...)
	}
	return ids
}
