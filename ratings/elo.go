package ratings

import (
	"math"
	"strconv"
)

// eloSystem implements the classic logistic-expectation Elo model. A side's
// rating is the sum of its members' ratings; every side plays every other
// side pairwise and the accumulated delta is applied once, split evenly
// across the side's members.
type eloSystem struct {
	cfg Config
}

func (s *eloSystem) Name() string { return SystemElo }

func (s *eloSystem) Default() string {
	return formatFloat(s.cfg.InitialRating)
}

func (s *eloSystem) decode(encoded string) float64 {
	v, err := strconv.ParseFloat(encoded, 64)
	if err != nil {
		return s.cfg.InitialRating
	}
	return v
}

func (s *eloSystem) Score(encoded string) float64 { return s.decode(encoded) }

func (s *eloSystem) Prettify(encoded string) string {
	return strconv.Itoa(int(math.Round(s.decode(encoded))))
}

func expectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

func (s *eloSystem) Update(sides [][]int, winner int, prior map[int]string) map[int]string {
	sideRatings := make([]float64, len(sides))
	for i, side := range sides {
		for _, teamID := range side {
			sideRatings[i] += s.decode(prior[teamID])
		}
	}

	// Accumulate each side's pairwise diffs before applying anything, so the
	// order of pairings cannot leak into the result.
	deltas := make([]float64, len(sides))
	for i := range sides {
		k := s.cfg.KFactor * float64(len(sides[i]))
		for j := range sides {
			if i == j {
				continue
			}
			expected := expectedScore(sideRatings[i], sideRatings[j])
			deltas[i] += k * (pairScore(i, j, winner) - expected)
		}
	}

	updated := make(map[int]string, len(prior))
	for i, side := range sides {
		perMember := deltas[i] / float64(len(side))
		for _, teamID := range side {
			updated[teamID] = formatFloat(s.decode(prior[teamID]) + perMember)
		}
	}
	return updated
}

func (s *eloSystem) Penalize(encoded string, amount float64) string {
	return formatFloat(s.decode(encoded) - amount)
}

func (s *eloSystem) Parity(a, b string) float64 {
	return probabilityParity(expectedScore(s.decode(a), s.decode(b)))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
