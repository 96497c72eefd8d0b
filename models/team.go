package models

import "time"

type Team struct {
	ID       int    `json:"id" db:"id"`
	LeagueID int    `json:"league_id" db:"league_id"`
	Name     string `json:"name" db:"name"`

	// Players is the ordered roster; Confirmed holds the subset of player ids
	// that accepted membership.
	Players   []int            `json:"players" db:"-"`
	Confirmed map[int]struct{} `json:"-" db:"-"`

	// Rating is the encoded rating record. Only the rating system configured
	// for the league may decode it.
	Rating string `json:"rating" db:"rating"`

	// VetoCounts tracks per-template veto counters, DroppedTemplates the
	// templates this team refuses to play at all.
	VetoCounts       map[int]int `json:"-" db:"-"`
	DroppedTemplates []int       `json:"-" db:"-"`

	Rank *int `json:"rank,omitempty" db:"rank"`

	// OpponentHistory lists recently faced team ids, most recent last.
	OpponentHistory []int `json:"-" db:"-"`

	Clan *string `json:"clan,omitempty" db:"clan"`

	FinishedGames int `json:"finished_games" db:"finished_games"`
	OngoingGames  int `json:"ongoing_games" db:"ongoing_games"`

	// Limit is the desired number of concurrent games. 0 marks the team
	// inactive, a negative value blocks new joins without deactivating.
	Limit int `json:"limit" db:"game_limit"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WantsMoreGames reports whether the team has remaining capacity for new
// games. Ongoing may temporarily exceed Limit; the lifecycle controller
// corrects that, so the comparison stays strict here.
func (t *Team) WantsMoreGames() bool {
	return t.Limit > 0 && t.OngoingGames < t.Limit
}

// DesiredAdditionalGames returns how many more games the team can take on.
func (t *Team) DesiredAdditionalGames() int {
	if !t.WantsMoreGames() {
		return 0
	}
	return t.Limit - t.OngoingGames
}

// FullyConfirmed reports whether every rostered player confirmed membership.
func (t *Team) FullyConfirmed() bool {
	for _, p := range t.Players {
		if _, ok := t.Confirmed[p]; !ok {
			return false
		}
	}
	return true
}

// HasDropped reports whether the team refuses the given template.
func (t *Team) HasDropped(templateID int) bool {
	for _, id := range t.DroppedTemplates {
		if id == templateID {
			return true
		}
	}
	return false
}
