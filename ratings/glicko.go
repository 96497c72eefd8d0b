package ratings

import (
	"math"
	"strconv"
	"strings"

	"github.com/treepeck/glicko"
)

// glickoSystem layers the ladder's additive side model on top of the
// Glicko-2 math: a side's rating and deviation are the sums over its members,
// the per-side posterior comes from the standard algorithm, and the side's
// delta is attributed back to members in proportion to their share of the
// side rating. Volatility is not persisted; each update starts from the
// paper's recommended 0.06.
type glickoSystem struct {
	cfg Config
}

const glickoVolatility = 0.06

func (s *glickoSystem) Name() string { return SystemGlicko }

func (s *glickoSystem) Default() string {
	return formatFloat(s.cfg.InitialRating) + "/" + formatFloat(s.cfg.InitialDeviation)
}

func (s *glickoSystem) decode(encoded string) (rating, deviation float64) {
	parts := strings.SplitN(encoded, "/", 2)
	if len(parts) != 2 {
		return s.cfg.InitialRating, s.cfg.InitialDeviation
	}
	r, errR := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	d, errD := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errR != nil || errD != nil || d <= 0 {
		return s.cfg.InitialRating, s.cfg.InitialDeviation
	}
	return r, d
}

func (s *glickoSystem) encode(rating, deviation float64) string {
	if deviation < 1 {
		deviation = 1
	}
	return formatFloat(rating) + "/" + formatFloat(deviation)
}

func (s *glickoSystem) Score(encoded string) float64 {
	r, _ := s.decode(encoded)
	return r
}

func (s *glickoSystem) Prettify(encoded string) string {
	r, _ := s.decode(encoded)
	return strconv.Itoa(int(math.Round(r)))
}

func (s *glickoSystem) Update(sides [][]int, winner int, prior map[int]string) map[int]string {
	sideRatings := make([]float64, len(sides))
	sideDeviations := make([]float64, len(sides))
	for i, side := range sides {
		for _, teamID := range side {
			r, d := s.decode(prior[teamID])
			sideRatings[i] += r
			sideDeviations[i] += d
		}
	}

	updated := make(map[int]string, len(prior))
	for i, side := range sides {
		outcomes := make([]glicko.Outcome, 0, len(sides)-1)
		for j := range sides {
			if i == j {
				continue
			}
			outcomes = append(outcomes, glicko.NewOutcome(
				sideRatings[i], sideRatings[j], sideDeviations[j], pairScore(i, j, winner)))
		}
		posterior := glicko.EvaluatePlayer(glicko.Evaluation{
			Rating:     sideRatings[i],
			Deviation:  sideDeviations[i],
			Volatility: glickoVolatility,
		}, outcomes)

		ratingDelta := posterior.Rating - sideRatings[i]
		deviationDelta := posterior.Deviation - sideDeviations[i]
		for _, teamID := range side {
			r, d := s.decode(prior[teamID])
			share := 1 / float64(len(side))
			if sideRatings[i] != 0 {
				share = r / sideRatings[i]
			}
			updated[teamID] = s.encode(
				r+ratingDelta*share,
				d+deviationDelta/float64(len(side)),
			)
		}
	}
	return updated
}

func (s *glickoSystem) Penalize(encoded string, amount float64) string {
	r, d := s.decode(encoded)
	return s.encode(r-amount, d)
}

// Parity uses the Glicko expected-score of a vs b with both deviations
// folded in, so uncertain ratings read as closer matches than their point
// difference alone would suggest.
func (s *glickoSystem) Parity(a, b string) float64 {
	ra, da := s.decode(a)
	rb, db := s.decode(b)
	return probabilityParity(glickoExpected(ra, da, rb, db))
}

// glickoExpected computes E on the Glicko-2 scale per Glickman's paper, with
// the pooled deviation of both records feeding the g weighting.
func glickoExpected(ra, da, rb, db float64) float64 {
	const scale = 173.7178
	muA := (ra - 1500) / scale
	muB := (rb - 1500) / scale
	phi := math.Sqrt(da*da+db*db) / scale
	g := 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
	return 1 / (1 + math.Exp(-g*(muA-muB)))
}
