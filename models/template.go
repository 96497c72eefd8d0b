package models

type Template struct {
	ID       int `json:"id" db:"id"`
	LeagueID int `json:"league_id" db:"league_id"`

	// ExternalID identifies the map/scenario on the remote platform.
	ExternalID string `json:"external_id" db:"external_id"`

	Active bool `json:"active" db:"active"`

	// Usage counts non-deleted games currently referencing the template.
	// Kept monotonic per reference so load spreads evenly across templates.
	Usage int `json:"usage" db:"usage_count"`

	// Scheme the template supports: players per team, teams per side,
	// sides per game.
	TeamSize int `json:"team_size" db:"team_size"`
	SideSize int `json:"side_size" db:"side_size"`
	GameSize int `json:"game_size" db:"game_size"`
}

// SupportsScheme reports whether the template can host a game of the given
// shape.
func (t *Template) SupportsScheme(teamSize, sideSize, gameSize int) bool {
	return t.Active &&
		t.TeamSize == teamSize &&
		t.SideSize == sideSize &&
		t.GameSize == gameSize
}
