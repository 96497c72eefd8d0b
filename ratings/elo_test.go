package ratings

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		InitialRating:    1500,
		KFactor:          32,
		InitialDeviation: 350,
		InitialMu:        25,
		InitialSigma:     25.0 / 3,
	}
}

func TestNewUnknownSystem(t *testing.T) {
	_, err := New("BOGUS", testConfig())
	require.Error(t, err)
}

func TestEloDefaultPrettify(t *testing.T) {
	sys, err := New(SystemElo, testConfig())
	require.NoError(t, err)
	assert.Equal(t, "1500", sys.Prettify(sys.Default()))
}

func TestEloUpdateZeroSum(t *testing.T) {
	sys, err := New(SystemElo, testConfig())
	require.NoError(t, err)

	prior := map[int]string{1: "1500", 2: "1520"}
	updated := sys.Update([][]int{{1}, {2}}, 0, prior)

	delta1 := sys.Score(updated[1]) - 1500
	delta2 := sys.Score(updated[2]) - 1520
	assert.InDelta(t, 0, delta1+delta2, 1e-9)
	assert.Greater(t, delta1, 0.0, "winner gains points")
	assert.Less(t, delta2, 0.0, "loser loses points")
}

func TestEloFavoriteGainsLess(t *testing.T) {
	sys, _ := New(SystemElo, testConfig())

	even := sys.Update([][]int{{1}, {2}}, 0, map[int]string{1: "1500", 2: "1500"})
	upset := sys.Update([][]int{{1}, {2}}, 0, map[int]string{1: "1500", 2: "1900"})

	evenGain := sys.Score(even[1]) - 1500
	upsetGain := sys.Score(upset[1]) - 1500
	assert.Greater(t, upsetGain, evenGain)
}

func TestEloSideDeltaSplitAcrossMembers(t *testing.T) {
	sys, _ := New(SystemElo, testConfig())

	prior := map[int]string{1: "1500", 2: "1500", 3: "1500", 4: "1500"}
	updated := sys.Update([][]int{{1, 2}, {3, 4}}, 0, prior)

	assert.Equal(t, updated[1], updated[2], "side delta splits evenly")
	assert.Equal(t, updated[3], updated[4])
	// K is scaled by side size, then split back across members: per member the
	// even-match winner gain stays K/2.
	assert.InDelta(t, 16, sys.Score(updated[1])-1500, 1e-9)
}

func TestEloCorruptRecordFallsBackToDefault(t *testing.T) {
	sys, _ := New(SystemElo, testConfig())

	assert.Equal(t, 1500.0, sys.Score("not-a-rating"))

	updated := sys.Update([][]int{{1}, {2}}, 0, map[int]string{1: "garbage", 2: "1500"})
	assert.InDelta(t, 1516, sys.Score(updated[1]), 1e-9)
}

func TestEloPenalize(t *testing.T) {
	sys, _ := New(SystemElo, testConfig())
	assert.Equal(t, "1475", sys.Penalize("1500", 25))
}

func TestEloParity(t *testing.T) {
	sys, _ := New(SystemElo, testConfig())

	assert.InDelta(t, 1, sys.Parity("1500", "1500"), 1e-9)
	close := sys.Parity("1500", "1520")
	far := sys.Parity("1500", "3000")
	assert.Greater(t, close, far)
	assert.GreaterOrEqual(t, far, 0.0)
}

func TestEloRoundTrip(t *testing.T) {
	sys, _ := New(SystemElo, testConfig())
	for _, encoded := range []string{"1500", "1516.5", "987.25"} {
		v, err := strconv.ParseFloat(encoded, 64)
		require.NoError(t, err)
		assert.Equal(t, encoded, formatFloat(v))
		assert.Equal(t, v, sys.Score(encoded))
	}
}
