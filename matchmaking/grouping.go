package matchmaking

import (
	"math"
	"sort"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/ratings"
)

// Entrant is a team in the matchmaking pool together with its per-tick
// matchmaking state.
type Entrant struct {
	Team *models.Team

	// Desired is how many additional games the team can take this tick.
	Desired int

	// Conflicts holds team ids this entrant must not face: recent opponents
	// within the rematch window, plus clan mates of recent opponents when
	// clan avoidance is on.
	Conflicts map[int]struct{}
}

// Matching is one realizable game candidate.
type Matching struct {
	// Sides is the ordered list of alliances, each a set of team ids.
	Sides [][]int

	// Score is the accumulated veto friction of the grouping: the more its
	// participants have vetoed the same templates, the likelier the next
	// template gets vetoed too, so lower is better.
	Score float64

	// Cost is the sum over cross-side team pairs of |rating diff|^power;
	// the batch selector minimizes it after Score.
	Cost float64

	// Conflicts is the set of template ids excluded for this game because a
	// participant dropped them.
	Conflicts map[int]struct{}

	// Count caps how many instances of this exact matching may be created
	// this tick: the minimum of the members' desired counts.
	Count int
}

// PoolOptions configures pool construction.
type PoolOptions struct {
	RematchWindow      int
	AvoidClanConflicts bool
}

// BuildPool filters teams down to the matchmaking pool and derives each
// entrant's conflict set. Teams with exhausted capacity, a non-positive
// limit, or unconfirmed rosters never enter the pool. The pool is ordered by
// ascending team id; every downstream enumeration inherits that order, which
// is the engine's sole tie-break rule.
func BuildPool(teams []*models.Team, opts PoolOptions) []*Entrant {
	clans := make(map[string][]int)
	if opts.AvoidClanConflicts {
		for _, team := range teams {
			if team.Clan != nil && *team.Clan != "" {
				clans[*team.Clan] = append(clans[*team.Clan], team.ID)
			}
		}
	}
	clanOf := make(map[int]string)
	for clan, members := range clans {
		for _, id := range members {
			clanOf[id] = clan
		}
	}

	var pool []*Entrant
	for _, team := range teams {
		if !team.WantsMoreGames() || !team.FullyConfirmed() {
			continue
		}
		conflicts := make(map[int]struct{})
		history := team.OpponentHistory
		if opts.RematchWindow > 0 && len(history) > opts.RematchWindow {
			history = history[len(history)-opts.RematchWindow:]
		}
		for _, opponentID := range history {
			conflicts[opponentID] = struct{}{}
			if clan, ok := clanOf[opponentID]; ok {
				for _, mateID := range clans[clan] {
					if mateID != team.ID {
						conflicts[mateID] = struct{}{}
					}
				}
			}
		}
		pool = append(pool, &Entrant{
			Team:      team,
			Desired:   team.DesiredAdditionalGames(),
			Conflicts: conflicts,
		})
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].Team.ID < pool[j].Team.ID })
	return pool
}

func conflicted(a, b *Entrant) bool {
	if _, ok := a.Conflicts[b.Team.ID]; ok {
		return true
	}
	_, ok := b.Conflicts[a.Team.ID]
	return ok
}

// Side is a candidate alliance of one or more teams.
type Side struct {
	Members []*Entrant
	Desired int
}

func (s *Side) teamIDs() []int {
	ids := make([]int, len(s.Members))
	for i, m := range s.Members {
		ids[i] = m.Team.ID
	}
	return ids
}

// groupParity is the aggregate parity of a set of entrants: the minimum
// pairwise parity, so one lopsided pair disqualifies the whole group.
func groupParity(sys ratings.System, members []*Entrant) float64 {
	parity := 1.0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			p := sys.Parity(members[i].Team.Rating, members[j].Team.Rating)
			if p < parity {
				parity = p
			}
		}
	}
	return parity
}

func conflictFree(members []*Entrant) bool {
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if conflicted(members[i], members[j]) {
				return false
			}
		}
	}
	return true
}

// FormSides enumerates valid alliances of sideSize teams: conflict-free and
// with aggregate parity at or above threshold. With sideSize 1 the sides are
// the entrants themselves. Candidates may overlap; the batch selector is
// what enforces per-team budgets.
func FormSides(pool []*Entrant, sideSize int, sys ratings.System, threshold float64) []*Side {
	if sideSize <= 1 {
		sides := make([]*Side, len(pool))
		for i, entrant := range pool {
			sides[i] = &Side{Members: []*Entrant{entrant}, Desired: entrant.Desired}
		}
		return sides
	}

	var sides []*Side
	combine(len(pool), sideSize, func(idx []int) {
		members := make([]*Entrant, len(idx))
		desired := 0
		for i, k := range idx {
			members[i] = pool[k]
			if i == 0 || members[i].Desired < desired {
				desired = members[i].Desired
			}
		}
		if !conflictFree(members) {
			return
		}
		if groupParity(sys, members) < threshold {
			return
		}
		sides = append(sides, &Side{Members: members, Desired: desired})
	})
	return sides
}

// combine invokes fn with every k-combination of [0, n) in lexicographic
// order.
func combine(n, k int, fn func(idx []int)) {
	if k > n || k <= 0 {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(append([]int(nil), idx...))
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// GroupingOptions configures matching formation.
type GroupingOptions struct {
	GameSize        int
	ParityThreshold float64
	CostPower       float64
	TeamSize        int
	SideSize        int
}

// FormMatchings combines gameSize sides into game candidates under the same
// conflict and parity rules, keeping only matchings that can still be mapped
// to at least one template the league considers valid for its scheme after
// the participants' dropped templates are excluded.
func FormMatchings(sides []*Side, templates []*models.Template, sys ratings.System, opts GroupingOptions) []*Matching {
	var matchings []*Matching
	combine(len(sides), opts.GameSize, func(idx []int) {
		picked := make([]*Side, len(idx))
		for i, k := range idx {
			picked[i] = sides[k]
		}
		matching := realizeMatching(picked, templates, sys, opts)
		if matching != nil {
			matchings = append(matchings, matching)
		}
	})
	return matchings
}

func realizeMatching(picked []*Side, templates []*models.Template, sys ratings.System, opts GroupingOptions) *Matching {
	var all []*Entrant
	seen := make(map[int]struct{})
	for _, side := range picked {
		for _, member := range side.Members {
			if _, dup := seen[member.Team.ID]; dup {
				return nil // sides sharing a team can never meet
			}
			seen[member.Team.ID] = struct{}{}
			all = append(all, member)
		}
	}
	if !conflictFree(all) {
		return nil
	}
	if groupParity(sys, all) < opts.ParityThreshold {
		return nil
	}

	conflicts := make(map[int]struct{})
	for _, member := range all {
		for _, templateID := range member.Team.DroppedTemplates {
			conflicts[templateID] = struct{}{}
		}
	}
	if !anyEligibleTemplate(templates, conflicts, opts) {
		return nil
	}

	matching := &Matching{
		Conflicts: conflicts,
		Count:     picked[0].Desired,
	}
	for _, side := range picked {
		matching.Sides = append(matching.Sides, side.teamIDs())
		if side.Desired < matching.Count {
			matching.Count = side.Desired
		}
	}
	matching.Score = vetoFriction(all)
	matching.Cost = crossCost(picked, sys, opts.CostPower)
	return matching
}

func anyEligibleTemplate(templates []*models.Template, conflicts map[int]struct{}, opts GroupingOptions) bool {
	for _, tpl := range templates {
		if _, dropped := conflicts[tpl.ID]; dropped {
			continue
		}
		if tpl.SupportsScheme(opts.TeamSize, opts.SideSize, opts.GameSize) {
			return true
		}
	}
	return false
}

// vetoFriction sums, over every participant pair, the vetoes both members
// already spent on the same template. Groupings with shared veto history are
// the ones most likely to veto whatever template they are given next.
func vetoFriction(all []*Entrant) float64 {
	friction := 0.0
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			for templateID, a := range all[i].Team.VetoCounts {
				if b, ok := all[j].Team.VetoCounts[templateID]; ok {
					friction += float64(min(a, b))
				}
			}
		}
	}
	return friction
}

func crossCost(picked []*Side, sys ratings.System, power float64) float64 {
	if power <= 0 {
		power = 1
	}
	cost := 0.0
	for i := 0; i < len(picked); i++ {
		for j := i + 1; j < len(picked); j++ {
			for _, a := range picked[i].Members {
				for _, b := range picked[j].Members {
					diff := sys.Score(a.Team.Rating) - sys.Score(b.Team.Rating)
					if diff < 0 {
						diff = -diff
					}
					cost += math.Pow(diff, power)
				}
			}
		}
	}
	return cost
}
