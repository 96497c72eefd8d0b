package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/ladder-system/matchmaking"
	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/ratings"
	"github.com/Dosada05/ladder-system/repositories"
)

// ScheduleService drives the periodic tick: resolve what finished, match who
// is waiting, create what was matched, publish where everyone stands.
type ScheduleService interface {
	// TickLeague runs one full scheduling pass over a single league.
	TickLeague(ctx context.Context, league *models.League) error

	// RunCluster ticks every active league of the cluster in turn. A failing
	// or panicking league is logged and contained; the rest of the cluster
	// still runs.
	RunCluster(ctx context.Context, cluster string) error
}

type scheduleService struct {
	leagueRepo   repositories.LeagueRepository
	teamRepo     repositories.TeamRepository
	templateRepo repositories.TemplateRepository
	lifecycle    LifecycleService
	batch        BatchService
	standings    StandingsService
	logger       *slog.Logger
}

func NewScheduleService(
	leagueRepo repositories.LeagueRepository,
	teamRepo repositories.TeamRepository,
	templateRepo repositories.TemplateRepository,
	lifecycle LifecycleService,
	batch BatchService,
	standings StandingsService,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		leagueRepo:   leagueRepo,
		teamRepo:     teamRepo,
		templateRepo: templateRepo,
		lifecycle:    lifecycle,
		batch:        batch,
		standings:    standings,
		logger:       logger,
	}
}

func (s *scheduleService) TickLeague(ctx context.Context, league *models.League) error {
	raw, err := league.Settings()
	if err != nil {
		return fmt.Errorf("league %s settings: %w", league.Name, err)
	}
	st := NewSettings(raw, league.Name, s.logger)
	sys, err := st.RatingSystem()
	if err != nil {
		return err
	}

	if err := s.lifecycle.ReconcileOpenGames(ctx, league, st, sys); err != nil {
		return err
	}

	created, err := s.matchAndCreate(ctx, league, st, sys)
	if err != nil {
		return err
	}
	if created > 0 {
		s.logger.InfoContext(ctx, "created games",
			slog.String("league", league.Name),
			slog.Int("count", created))
	}

	table, err := s.standings.UpdateStandings(ctx, league, st, sys)
	if err != nil {
		return err
	}
	if err := s.standings.Export(ctx, league, sys, table); err != nil {
		// The snapshot is best effort; the next tick republishes anyway.
		s.logger.WarnContext(ctx, "failed to export standings",
			slog.String("league", league.Name),
			slog.Any("error", err))
	}
	return nil
}

// matchAndCreate runs the matchmaking pipeline over the league's current
// pool and turns the selected batch into games.
func (s *scheduleService) matchAndCreate(ctx context.Context, league *models.League, st *Settings, sys ratings.System) (int, error) {
	teams, err := s.teamRepo.ListByLeague(ctx, league.ID)
	if err != nil {
		return 0, fmt.Errorf("list teams for league %s: %w", league.Name, err)
	}
	templates, err := s.templateRepo.ListByLeague(ctx, league.ID)
	if err != nil {
		return 0, fmt.Errorf("list templates for league %s: %w", league.Name, err)
	}

	pool := matchmaking.BuildPool(teams, matchmaking.PoolOptions{
		RematchWindow:      st.RematchWindow(),
		AvoidClanConflicts: st.AvoidClanConflicts(),
	})
	if len(pool) < 2 {
		return 0, nil
	}

	opts := matchmaking.GroupingOptions{
		GameSize:        st.GameSize(),
		ParityThreshold: st.ParityThreshold(),
		CostPower:       st.CostPower(),
		TeamSize:        st.TeamSize(),
		SideSize:        st.SideSize(),
	}

	// Solo duels go straight through the assignment solver; anything bigger
	// takes the full enumeration path.
	var matchings []*matchmaking.Matching
	if opts.SideSize <= 1 && opts.GameSize == 2 {
		matchings = matchmaking.PairwiseMatchings(pool, templates, sys, opts)
	} else {
		sides := matchmaking.FormSides(pool, opts.SideSize, sys, opts.ParityThreshold)
		matchings = matchmaking.FormMatchings(sides, templates, sys, opts)
	}
	if len(matchings) == 0 {
		return 0, nil
	}

	budgets := make(map[int]int, len(pool))
	for _, entrant := range pool {
		budgets[entrant.Team.ID] = entrant.Desired
	}
	batch := matchmaking.SelectBatch(matchings, templates, budgets, opts)
	if len(batch) == 0 {
		return 0, nil
	}
	return s.batch.CreateBatch(ctx, league, batch)
}

func (s *scheduleService) RunCluster(ctx context.Context, cluster string) error {
	leagues, err := s.leagueRepo.ListActiveByCluster(ctx, cluster)
	if err != nil {
		return fmt.Errorf("list leagues of cluster %s: %w", cluster, err)
	}
	for _, league := range leagues {
		s.tickContained(ctx, league)
	}
	return nil
}

// tickContained isolates one league's tick: a panic or error there must not
// take the rest of the cluster down with it.
func (s *scheduleService) tickContained(ctx context.Context, league *models.League) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "panic in league tick",
				slog.String("league", league.Name),
				slog.Any("panic", r))
		}
	}()
	if err := s.TickLeague(ctx, league); err != nil {
		s.logger.ErrorContext(ctx, "league tick failed",
			slog.String("league", league.Name),
			slog.Any("error", err))
	}
}
