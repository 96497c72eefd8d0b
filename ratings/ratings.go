// Package ratings implements the pluggable rating systems of the ladder:
// Elo, Glicko-2, TrueSkill, win-count and win-rate. Every system works on
// opaque string-encoded records owned by the teams; decoding a record that was
// written by a different system is undefined, which is why the league settings
// pin one system per league.
package ratings

import (
	"fmt"
	"math"
)

// System is one rating model. Update receives the game's ordered sides (each
// a set of team ids), the index of the winning side, and the prior encoded
// record per team, and returns the new record for every participant.
//
// An encoded record that fails to decode is treated as Default() rather than
// failing the update; a corrupt row must not sink the whole game resolution.
type System interface {
	Name() string

	// Default returns the encoded record for a fresh team.
	Default() string

	// Score returns the primary numeric value of a record, used for ranking
	// and for cost-matrix distances.
	Score(encoded string) float64

	// Prettify projects a record to the short human-readable form shown in
	// standings (deviation, sigma and denominators dropped).
	Prettify(encoded string) string

	// Update resolves a finished game. winner indexes into sides; -1 means
	// no winner was established and the game counts as a draw.
	Update(sides [][]int, winner int, prior map[int]string) map[int]string

	// Penalize lowers a record's primary value by amount, flooring as the
	// system requires. Used for veto and decline penalties.
	Penalize(encoded string, amount float64) string

	// Parity returns a [0,1] closeness metric between two records; 1 means
	// an even match, 0 a foregone conclusion.
	Parity(a, b string) float64
}

// Config carries the league-configured defaults each system seeds new
// records from.
type Config struct {
	InitialRating    float64 // Elo and Glicko starting rating
	KFactor          float64 // Elo K before side-size scaling
	InitialDeviation float64 // Glicko starting deviation
	InitialMu        float64 // TrueSkill starting mu
	InitialSigma     float64 // TrueSkill starting sigma
}

// System names as stored in SET_RATING_SYSTEM.
const (
	SystemElo       = "ELO"
	SystemGlicko    = "GLICKO"
	SystemTrueSkill = "TRUESKILL"
	SystemWinCount  = "WIN_COUNT"
	SystemWinRate   = "WIN_RATE"
)

// New returns the System registered under name.
func New(name string, cfg Config) (System, error) {
	switch name {
	case SystemElo:
		return &eloSystem{cfg: cfg}, nil
	case SystemGlicko:
		return &glickoSystem{cfg: cfg}, nil
	case SystemTrueSkill:
		return &trueSkillSystem{cfg: cfg}, nil
	case SystemWinCount:
		return &winCountSystem{}, nil
	case SystemWinRate:
		return &winRateSystem{}, nil
	default:
		return nil, fmt.Errorf("unknown rating system: %q", name)
	}
}

// pairScore maps an ordered side pair to a 1/0.5/0 outcome given the winning
// side index.
func pairScore(i, j, winner int) float64 {
	switch {
	case i == winner:
		return 1
	case j == winner:
		return 0
	default:
		return 0.5
	}
}

// probabilityParity folds a win probability into the [0,1] closeness metric:
// an even 0.5 chance scores 1, certainty scores 0.
func probabilityParity(p float64) float64 {
	return 1 - 2*math.Abs(p-0.5)
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
