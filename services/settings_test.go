package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ladder-system/ratings"
)

func TestSettingsDefaults(t *testing.T) {
	st := NewSettings(nil, "alpha", discardLogger())

	assert.Equal(t, ratings.SystemElo, st.RatingSystemName())
	assert.Equal(t, 1, st.TeamSize())
	assert.Equal(t, 1, st.SideSize())
	assert.Equal(t, 2, st.GameSize())
	assert.Equal(t, 2, st.VetoLimit())
	assert.Equal(t, 7, st.WaitingExpiryDays())
	assert.Equal(t, 2, st.RematchWindow())
	assert.True(t, st.AvoidClanConflicts())
	assert.True(t, st.ApplyDeclinePenalty())
	assert.False(t, st.PreserveRecords())
	assert.Equal(t, 0.0, st.RankDecayFactor())
	assert.Equal(t, 1.0, st.CostPower())
}

func TestSettingsParsesConfiguredValues(t *testing.T) {
	st := NewSettings(map[string]string{
		KeyRatingSystem:    ratings.SystemGlicko,
		KeyVetoLimit:       "5",
		KeySideSize:        "2",
		KeyGameSize:        "4",
		KeyParityThreshold: "0.7",
		KeyPreserveRecords: "true",
		KeyEloDefault:      "1200",
	}, "alpha", discardLogger())

	assert.Equal(t, ratings.SystemGlicko, st.RatingSystemName())
	assert.Equal(t, 5, st.VetoLimit())
	assert.Equal(t, 2, st.SideSize())
	assert.Equal(t, 4, st.GameSize())
	assert.Equal(t, 0.7, st.ParityThreshold())
	assert.True(t, st.PreserveRecords())
	assert.Equal(t, 1200.0, st.RatingConfig().InitialRating)
}

func TestSettingsMalformedValueFallsBackToDefault(t *testing.T) {
	st := NewSettings(map[string]string{
		KeyVetoLimit:          "many",
		KeyParityThreshold:    "high",
		KeyAvoidClanConflicts: "sometimes",
	}, "alpha", discardLogger())

	assert.Equal(t, 2, st.VetoLimit())
	assert.Equal(t, 0.0, st.ParityThreshold())
	assert.True(t, st.AvoidClanConflicts())
}

func TestSettingsRatingSystem(t *testing.T) {
	st := NewSettings(map[string]string{KeyRatingSystem: ratings.SystemWinRate}, "alpha", discardLogger())
	sys, err := st.RatingSystem()
	require.NoError(t, err)
	assert.Equal(t, ratings.SystemWinRate, sys.Name())

	st = NewSettings(map[string]string{KeyRatingSystem: "CHESS"}, "alpha", discardLogger())
	_, err = st.RatingSystem()
	assert.ErrorIs(t, err, ErrUnknownRatingSystem)
}
