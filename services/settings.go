package services

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/Dosada05/ladder-system/ratings"
)

// League settings keys. The store keeps every value as a string; the typed
// accessors below parse on demand and substitute the documented default when
// a value is missing or malformed, logging one warning per lookup.
const (
	KeyRatingSystem           = "SET_RATING_SYSTEM"
	KeyEloDefault             = "SET_ELO_DEFAULT"
	KeyEloK                   = "SET_ELO_K"
	KeyGlickoDefaultDeviation = "SET_GLICKO_DEFAULT_DEVIATION"
	KeyTrueSkillDefaultMu     = "SET_TRUESKILL_DEFAULT_MU"
	KeyTrueSkillDefaultSigma  = "SET_TRUESKILL_DEFAULT_SIGMA"
	KeyTeamSize               = "SET_TEAM_SIZE"
	KeySideSize               = "SET_SIDE_SIZE"
	KeyGameSize               = "SET_GAME_SIZE"
	KeyVetoLimit              = "SET_VETO_LIMIT"
	KeyVetoPenalty            = "SET_VETO_PENALTY"
	KeyDeclinePenalty         = "SET_DECLINE_PENALTY"
	KeyApplyDeclinePenalty    = "SET_APPLY_DECLINE_PENALTY"
	KeyRemoveOnDecline        = "SET_REMOVE_ON_DECLINE"
	KeyVetoOnDecline          = "SET_VETO_ON_DECLINE"
	KeyPreserveRecords        = "SET_PRESERVE_RECORDS"
	KeyShrinkLimitOnBoot      = "SET_SHRINK_LIMIT_ON_BOOT"
	KeyWaitingExpiryDays      = "SET_WAITING_EXPIRY_DAYS"
	KeyRematchWindow          = "SET_REMATCH_WINDOW"
	KeyAvoidClanConflicts     = "SET_AVOID_CLAN_CONFLICTS"
	KeyParityThreshold        = "SET_PARITY_THRESHOLD"
	KeyCostPower              = "SET_COST_POWER"
	KeyRankDecayFactor        = "SET_RANK_DECAY_FACTOR"
	KeyRescaleRatings         = "SET_RESCALE_RATINGS"
)

// Settings wraps the league's flat key→value map with typed accessors. The
// map is read-only per tick; nothing here mutates it.
type Settings struct {
	raw    map[string]string
	league string
	logger *slog.Logger
}

func NewSettings(raw map[string]string, leagueName string, logger *slog.Logger) *Settings {
	if raw == nil {
		raw = map[string]string{}
	}
	return &Settings{raw: raw, league: leagueName, logger: logger}
}

func (s *Settings) warn(key, value string) {
	if s.logger != nil {
		s.logger.WarnContext(context.Background(), "malformed league setting, using default",
			slog.String("league", s.league),
			slog.String("key", key),
			slog.String("value", value))
	}
}

func (s *Settings) str(key, def string) string {
	value, ok := s.raw[key]
	if !ok || value == "" {
		return def
	}
	return value
}

func (s *Settings) intVal(key string, def int) int {
	value, ok := s.raw[key]
	if !ok || value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		s.warn(key, value)
		return def
	}
	return parsed
}

func (s *Settings) floatVal(key string, def float64) float64 {
	value, ok := s.raw[key]
	if !ok || value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		s.warn(key, value)
		return def
	}
	return parsed
}

func (s *Settings) boolVal(key string, def bool) bool {
	value, ok := s.raw[key]
	if !ok || value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		s.warn(key, value)
		return def
	}
	return parsed
}

func (s *Settings) RatingSystemName() string { return s.str(KeyRatingSystem, ratings.SystemElo) }

func (s *Settings) RatingConfig() ratings.Config {
	return ratings.Config{
		InitialRating:    s.floatVal(KeyEloDefault, 1500),
		KFactor:          s.floatVal(KeyEloK, 32),
		InitialDeviation: s.floatVal(KeyGlickoDefaultDeviation, 350),
		InitialMu:        s.floatVal(KeyTrueSkillDefaultMu, 25),
		InitialSigma:     s.floatVal(KeyTrueSkillDefaultSigma, 25.0/3),
	}
}

func (s *Settings) TeamSize() int { return s.intVal(KeyTeamSize, 1) }
func (s *Settings) SideSize() int { return s.intVal(KeySideSize, 1) }
func (s *Settings) GameSize() int { return s.intVal(KeyGameSize, 2) }

func (s *Settings) VetoLimit() int           { return s.intVal(KeyVetoLimit, 2) }
func (s *Settings) VetoPenalty() float64     { return s.floatVal(KeyVetoPenalty, 25) }
func (s *Settings) DeclinePenalty() float64  { return s.floatVal(KeyDeclinePenalty, 25) }
func (s *Settings) ApplyDeclinePenalty() bool {
	return s.boolVal(KeyApplyDeclinePenalty, true)
}
func (s *Settings) RemoveOnDecline() bool   { return s.boolVal(KeyRemoveOnDecline, false) }
func (s *Settings) VetoOnDecline() bool     { return s.boolVal(KeyVetoOnDecline, false) }
func (s *Settings) PreserveRecords() bool   { return s.boolVal(KeyPreserveRecords, false) }
func (s *Settings) ShrinkLimitOnBoot() bool { return s.boolVal(KeyShrinkLimitOnBoot, false) }

func (s *Settings) WaitingExpiryDays() int { return s.intVal(KeyWaitingExpiryDays, 7) }
func (s *Settings) RematchWindow() int     { return s.intVal(KeyRematchWindow, 2) }
func (s *Settings) AvoidClanConflicts() bool {
	return s.boolVal(KeyAvoidClanConflicts, true)
}
func (s *Settings) ParityThreshold() float64 { return s.floatVal(KeyParityThreshold, 0) }
func (s *Settings) CostPower() float64       { return s.floatVal(KeyCostPower, 1) }

func (s *Settings) RankDecayFactor() float64 { return s.floatVal(KeyRankDecayFactor, 0) }
func (s *Settings) RescaleRatings() bool     { return s.boolVal(KeyRescaleRatings, false) }

// RatingSystem builds the configured rating system for the league.
func (s *Settings) RatingSystem() (ratings.System, error) {
	sys, err := ratings.New(s.RatingSystemName(), s.RatingConfig())
	if err != nil {
		return nil, ErrUnknownRatingSystem
	}
	return sys, nil
}
