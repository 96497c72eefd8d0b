package models

import "time"

// GameOutcome классифицирует состояние, до которого удалённая платформа
// довела игру. Waiting means no transition happened this tick.
type GameOutcome string

const (
	OutcomeWaiting   GameOutcome = "waiting"
	OutcomeFinished  GameOutcome = "finished"
	OutcomeDeclined  GameOutcome = "declined"
	OutcomeAbandoned GameOutcome = "abandoned"
	OutcomeVetoed    GameOutcome = "vetoed"
)

type Game struct {
	ID       int `json:"id" db:"id"`
	LeagueID int `json:"league_id" db:"league_id"`

	// ExternalID is the remote platform's game id, nil until the game has
	// actually been created there.
	ExternalID *string `json:"external_id,omitempty" db:"external_id"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`

	// Sides is the ordered list of alliances; each side is a set of team ids.
	Sides [][]int `json:"sides" db:"-"`

	// Winners is populated when the game resolves. WonByDecline marks wins
	// credited because the opposition declined to play.
	Winners      []int `json:"winners,omitempty" db:"-"`
	WonByDecline bool  `json:"won_by_decline" db:"won_by_decline"`

	Vetos           int   `json:"vetos" db:"vetos"`
	VetoedTemplates []int `json:"-" db:"-"`

	// TemplateID is nil while the game is between templates during a veto.
	TemplateID *int `json:"template_id,omitempty" db:"template_id"`
}

// Participants returns every team id across all sides, in side order.
func (g *Game) Participants() []int {
	var ids []int
	for _, side := range g.Sides {
		ids = append(ids, side...)
	}
	return ids
}

// SideOf returns the index of the side containing teamID, or -1.
func (g *Game) SideOf(teamID int) int {
	for i, side := range g.Sides {
		for _, id := range side {
			if id == teamID {
				return i
			}
		}
	}
	return -1
}

// HasVetoed reports whether the game already burned the given template.
func (g *Game) HasVetoed(templateID int) bool {
	for _, id := range g.VetoedTemplates {
		if id == templateID {
			return true
		}
	}
	return false
}
