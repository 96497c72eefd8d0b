package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/ladder-system/broadcast"
	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/ratings"
	"github.com/Dosada05/ladder-system/repositories"
	"github.com/Dosada05/ladder-system/storage"
)

// Standing is one row of the exported league table.
type Standing struct {
	Rank          int     `json:"rank"`
	TeamID        int     `json:"team_id"`
	Name          string  `json:"name"`
	Rating        string  `json:"rating"`
	Score         float64 `json:"score"`
	FinishedGames int     `json:"finished_games"`
	OngoingGames  int     `json:"ongoing_games"`
}

type standingsSnapshot struct {
	League      string     `json:"league"`
	Cluster     string     `json:"cluster"`
	System      string     `json:"rating_system"`
	GeneratedAt time.Time  `json:"generated_at"`
	Standings   []Standing `json:"standings"`
}

// StandingsService maintains per-league ranks and publishes the league table.
type StandingsService interface {
	// UpdateStandings applies the configured decay and rescale passes,
	// recomputes every team's rank and returns the table in rank order.
	UpdateStandings(ctx context.Context, league *models.League, st *Settings, sys ratings.System) ([]Standing, error)

	// Export archives the table as a JSON snapshot and announces the new
	// ranks to subscribers.
	Export(ctx context.Context, league *models.League, sys ratings.System, standings []Standing) error
}

type standingsService struct {
	teamRepo repositories.TeamRepository
	uploader storage.FileUploader
	hub      *broadcast.Hub
	logger   *slog.Logger
	now      func() time.Time
}

func NewStandingsService(teamRepo repositories.TeamRepository, uploader storage.FileUploader, hub *broadcast.Hub, logger *slog.Logger) StandingsService {
	return &standingsService{
		teamRepo: teamRepo,
		uploader: uploader,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *standingsService) UpdateStandings(ctx context.Context, league *models.League, st *Settings, sys ratings.System) ([]Standing, error) {
	teams, err := s.teamRepo.ListByLeague(ctx, league.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams for league %s: %w", league.Name, err)
	}
	if len(teams) == 0 {
		return nil, nil
	}

	if factor := st.RankDecayFactor(); factor > 0 {
		s.applyDecay(teams, sys, factor)
	}
	if st.RescaleRatings() {
		s.rescale(teams, sys)
	}

	// Rank by score, ties to the lower team id so reranking a static league
	// is stable.
	sort.SliceStable(teams, func(i, j int) bool {
		si, sj := sys.Score(teams[i].Rating), sys.Score(teams[j].Rating)
		if si != sj {
			return si > sj
		}
		return teams[i].ID < teams[j].ID
	})

	standings := make([]Standing, 0, len(teams))
	for i, team := range teams {
		rank := i + 1
		team.Rank = &rank
		if err := s.teamRepo.Update(ctx, team); err != nil {
			s.logger.WarnContext(ctx, "failed to persist team rank, skipping",
				slog.String("league", league.Name),
				slog.Int("team_id", team.ID),
				slog.Any("error", err))
		}
		standings = append(standings, Standing{
			Rank:          rank,
			TeamID:        team.ID,
			Name:          team.Name,
			Rating:        sys.Prettify(team.Rating),
			Score:         sys.Score(team.Rating),
			FinishedGames: team.FinishedGames,
			OngoingGames:  team.OngoingGames,
		})
	}
	return standings, nil
}

// applyDecay pulls idle teams' scores toward the system default. A team is
// idle when it has no running game; active teams earn their score the normal
// way.
func (s *standingsService) applyDecay(teams []*models.Team, sys ratings.System, factor float64) {
	if factor > 1 {
		factor = 1
	}
	baseline := sys.Score(sys.Default())
	for _, team := range teams {
		if team.OngoingGames > 0 {
			continue
		}
		drift := (sys.Score(team.Rating) - baseline) * factor
		if drift == 0 {
			continue
		}
		team.Rating = sys.Penalize(team.Rating, drift)
	}
}

// rescale shifts every score by the same amount so the league mean sits back
// at the system default, countering long-run rating inflation.
func (s *standingsService) rescale(teams []*models.Team, sys ratings.System) {
	baseline := sys.Score(sys.Default())
	sum := 0.0
	for _, team := range teams {
		sum += sys.Score(team.Rating)
	}
	shift := sum/float64(len(teams)) - baseline
	if shift == 0 {
		return
	}
	for _, team := range teams {
		team.Rating = sys.Penalize(team.Rating, shift)
	}
}

func (s *standingsService) Export(ctx context.Context, league *models.League, sys ratings.System, standings []Standing) error {
	if s.uploader != nil {
		snapshot := standingsSnapshot{
			League:      league.Name,
			Cluster:     league.Cluster,
			System:      sys.Name(),
			GeneratedAt: s.now(),
			Standings:   standings,
		}
		payload, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return fmt.Errorf("encode standings for league %s: %w", league.Name, err)
		}
		key := fmt.Sprintf("standings/%s/%s.json", league.Cluster, league.Name)
		if _, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
			return fmt.Errorf("archive standings for league %s: %w", league.Name, err)
		}
	}

	if s.hub != nil {
		s.hub.Publish(broadcast.Event{
			Type:    broadcast.EventRanksUpdated,
			League:  league.Name,
			Payload: standings,
		})
	}
	return nil
}
