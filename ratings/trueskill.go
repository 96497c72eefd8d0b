package ratings

import (
	"math"
	"strconv"
	"strings"

	"github.com/intinig/go-openskill/rating"
	"github.com/intinig/go-openskill/types"
)

// trueSkillSystem delegates to go-openskill. Unlike the Elo and Glicko
// models, member teams are not aggregated: each team enters the multi-team
// update as its own (mu, sigma) distribution and gets its own posterior back.
type trueSkillSystem struct {
	cfg Config
}

func (s *trueSkillSystem) Name() string { return SystemTrueSkill }

func (s *trueSkillSystem) Default() string {
	return s.encode(s.cfg.InitialMu, s.cfg.InitialSigma)
}

func (s *trueSkillSystem) encode(mu, sigma float64) string {
	return strconv.FormatFloat(mu, 'f', 3, 64) + "/" + strconv.FormatFloat(sigma, 'f', 3, 64)
}

func (s *trueSkillSystem) decode(encoded string) (mu, sigma float64) {
	parts := strings.SplitN(encoded, "/", 2)
	if len(parts) != 2 {
		return s.cfg.InitialMu, s.cfg.InitialSigma
	}
	mu, errMu := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	sigma, errSigma := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errMu != nil || errSigma != nil || sigma <= 0 {
		return s.cfg.InitialMu, s.cfg.InitialSigma
	}
	return mu, sigma
}

func (s *trueSkillSystem) Score(encoded string) float64 {
	mu, _ := s.decode(encoded)
	return mu
}

func (s *trueSkillSystem) Prettify(encoded string) string {
	mu, _ := s.decode(encoded)
	return strconv.Itoa(int(mu))
}

func (s *trueSkillSystem) Update(sides [][]int, winner int, prior map[int]string) map[int]string {
	teams := make([]types.Team, len(sides))
	scores := make([]int, len(sides))
	for i, side := range sides {
		team := make(types.Team, len(side))
		for j, teamID := range side {
			mu, sigma := s.decode(prior[teamID])
			team[j] = types.Rating{Z: 3, Mu: mu, Sigma: sigma}
		}
		teams[i] = team
		if i == winner {
			scores[i] = 1
		}
	}

	teams = rating.Rate(teams, &types.OpenSkillOptions{Score: scores})

	updated := make(map[int]string, len(prior))
	for i, side := range sides {
		for j, teamID := range side {
			updated[teamID] = s.encode(teams[i][j].Mu, teams[i][j].Sigma)
		}
	}
	return updated
}

func (s *trueSkillSystem) Penalize(encoded string, amount float64) string {
	mu, sigma := s.decode(encoded)
	return s.encode(mu-amount, sigma)
}

// Parity folds both distributions into the win probability of a vs b with
// the conventional beta = mu0/6 performance noise.
func (s *trueSkillSystem) Parity(a, b string) float64 {
	muA, sigmaA := s.decode(a)
	muB, sigmaB := s.decode(b)
	beta := s.cfg.InitialMu / 6
	denom := math.Sqrt(2*beta*beta + sigmaA*sigmaA + sigmaB*sigmaB)
	return probabilityParity(normCDF((muA - muB) / denom))
}
