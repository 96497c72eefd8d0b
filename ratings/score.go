package ratings

import (
	"math"
	"strconv"
	"strings"
)

// The two bookkeeping systems. Neither models skill; they only count
// outcomes, which keeps casual leagues legible.

type winCountSystem struct{}

func (s *winCountSystem) Name() string { return SystemWinCount }

func (s *winCountSystem) Default() string { return "0" }

func (s *winCountSystem) decode(encoded string) int {
	v, err := strconv.Atoi(strings.TrimSpace(encoded))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func (s *winCountSystem) Score(encoded string) float64 { return float64(s.decode(encoded)) }

func (s *winCountSystem) Prettify(encoded string) string {
	return strconv.Itoa(s.decode(encoded))
}

// Update credits each winning team with one win per opposing team faced.
// Losing sides are untouched.
func (s *winCountSystem) Update(sides [][]int, winner int, prior map[int]string) map[int]string {
	updated := make(map[int]string, len(prior))
	for teamID, encoded := range prior {
		updated[teamID] = strconv.Itoa(s.decode(encoded))
	}
	if winner < 0 || winner >= len(sides) {
		return updated
	}
	opposing := 0
	for i, side := range sides {
		if i != winner {
			opposing += len(side)
		}
	}
	for _, teamID := range sides[winner] {
		updated[teamID] = strconv.Itoa(s.decode(prior[teamID]) + opposing)
	}
	return updated
}

func (s *winCountSystem) Penalize(encoded string, amount float64) string {
	v := s.decode(encoded) - int(amount)
	if v < 0 {
		v = 0
	}
	return strconv.Itoa(v)
}

func (s *winCountSystem) Parity(a, b string) float64 {
	return countParity(float64(s.decode(a)), float64(s.decode(b)))
}

type winRateSystem struct{}

func (s *winRateSystem) Name() string { return SystemWinRate }

func (s *winRateSystem) Default() string { return "0/0" }

func (s *winRateSystem) decode(encoded string) (wins, total int) {
	parts := strings.SplitN(encoded, "/", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	wins, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	total, errT := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errT != nil || wins < 0 || total < 0 {
		return 0, 0
	}
	return wins, total
}

func (s *winRateSystem) encode(wins, total int) string {
	return strconv.Itoa(wins) + "/" + strconv.Itoa(total)
}

func (s *winRateSystem) Score(encoded string) float64 {
	wins, total := s.decode(encoded)
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

func (s *winRateSystem) Prettify(encoded string) string {
	wins, _ := s.decode(encoded)
	return strconv.Itoa(wins)
}

// Update increments total for every participant exactly once per game; wins
// increment only on the winning side.
func (s *winRateSystem) Update(sides [][]int, winner int, prior map[int]string) map[int]string {
	updated := make(map[int]string, len(prior))
	for i, side := range sides {
		for _, teamID := range side {
			wins, total := s.decode(prior[teamID])
			if i == winner {
				wins++
			}
			updated[teamID] = s.encode(wins, total+1)
		}
	}
	return updated
}

func (s *winRateSystem) Penalize(encoded string, amount float64) string {
	wins, total := s.decode(encoded)
	wins -= int(amount)
	if wins < 0 {
		wins = 0
	}
	return s.encode(wins, total)
}

func (s *winRateSystem) Parity(a, b string) float64 {
	// Compare raw win totals, not rates: a 1/1 team is nothing like 50/50.
	wa, _ := s.decode(a)
	wb, _ := s.decode(b)
	return countParity(float64(wa), float64(wb))
}

// countParity is the normalized-variance closeness for counter systems:
// identical counts score 1, the gap is normalized by the pooled magnitude.
func countParity(a, b float64) float64 {
	p := 1 - math.Abs(a-b)/(a+b+1)
	if p < 0 {
		return 0
	}
	return p
}
