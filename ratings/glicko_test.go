package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlickoDefaultPrettify(t *testing.T) {
	sys, err := New(SystemGlicko, testConfig())
	require.NoError(t, err)

	assert.Equal(t, "1500/350", sys.Default())
	assert.Equal(t, "1500", sys.Prettify(sys.Default()))
}

func TestGlickoUpdateMovesWinnerUp(t *testing.T) {
	sys, _ := New(SystemGlicko, testConfig())

	prior := map[int]string{1: "1500/350", 2: "1500/350"}
	updated := sys.Update([][]int{{1}, {2}}, 0, prior)

	assert.Greater(t, sys.Score(updated[1]), 1500.0)
	assert.Less(t, sys.Score(updated[2]), 1500.0)
}

func TestGlickoDeviationShrinksWithPlay(t *testing.T) {
	sys, _ := New(SystemGlicko, testConfig())
	g := sys.(*glickoSystem)

	updated := sys.Update([][]int{{1}, {2}}, 0, map[int]string{1: "1500/350", 2: "1500/350"})
	_, dev := g.decode(updated[1])
	assert.Less(t, dev, 350.0)
	assert.Greater(t, dev, 0.0)
}

func TestGlickoCorruptRecordFallsBackToDefault(t *testing.T) {
	sys, _ := New(SystemGlicko, testConfig())

	assert.Equal(t, 1500.0, sys.Score("mangled"))
	assert.Equal(t, 1500.0, sys.Score("1500/-3"))
}

func TestGlickoParityOrdering(t *testing.T) {
	sys, _ := New(SystemGlicko, testConfig())

	assert.InDelta(t, 1, sys.Parity("1500/350", "1500/350"), 1e-9)
	// A wide deviation softens a large point gap.
	certain := sys.Parity("1500/40", "1900/40")
	uncertain := sys.Parity("1500/350", "1900/350")
	assert.Greater(t, uncertain, certain)
}

func TestGlickoPenalize(t *testing.T) {
	sys, _ := New(SystemGlicko, testConfig())
	g := sys.(*glickoSystem)

	r, d := g.decode(sys.Penalize("1500/120", 25))
	assert.Equal(t, 1475.0, r)
	assert.Equal(t, 120.0, d)
}

func TestGlickoRoundTrip(t *testing.T) {
	sys, _ := New(SystemGlicko, testConfig())
	g := sys.(*glickoSystem)

	for _, encoded := range []string{"1500/350", "1612.5/87.25", "987/31"} {
		r, d := g.decode(encoded)
		assert.Equal(t, encoded, g.encode(r, d))
	}
}
