package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/ladder-system/broadcast"
	"github.com/Dosada05/ladder-system/matchmaking"
	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/platform"
	"github.com/Dosada05/ladder-system/repositories"
)

// opponentHistoryCap bounds the per-team opponent history column; the pool
// builder only ever reads the most recent window of it.
const opponentHistoryCap = 32

// IDAllocator hands out fresh game ids for one batch. It is seeded past the
// highest id currently stored and thrown away after the batch, so a fresh
// allocator per tick never collides with persisted rows.
type IDAllocator struct {
	next int
}

func NewIDAllocator(ctx context.Context, teamRepo repositories.TeamRepository, gameRepo repositories.GameRepository) (*IDAllocator, error) {
	maxTeam, err := teamRepo.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed allocator from teams: %w", err)
	}
	maxGame, err := gameRepo.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed allocator from games: %w", err)
	}
	next := maxTeam
	if maxGame > next {
		next = maxGame
	}
	return &IDAllocator{next: next + 1}, nil
}

func (a *IDAllocator) Next() int {
	id := a.next
	a.next++
	return id
}

// BatchService turns a selected batch of assignments into persisted games
// and their remote counterparts.
type BatchService interface {
	// CreateBatch creates one game per assignment and returns how many were
	// actually created. A game that persists but fails to materialize on the
	// platform is rolled back; either kind of failure is logged and the rest
	// of the batch proceeds.
	CreateBatch(ctx context.Context, league *models.League, batch []matchmaking.Assignment) (int, error)
}

type batchService struct {
	teamRepo     repositories.TeamRepository
	gameRepo     repositories.GameRepository
	templateRepo repositories.TemplateRepository
	client       platform.Client
	hub          *broadcast.Hub
	logger       *slog.Logger
	now          func() time.Time
}

func NewBatchService(
	teamRepo repositories.TeamRepository,
	gameRepo repositories.GameRepository,
	templateRepo repositories.TemplateRepository,
	client platform.Client,
	hub *broadcast.Hub,
	logger *slog.Logger,
) BatchService {
	return &batchService{
		teamRepo:     teamRepo,
		gameRepo:     gameRepo,
		templateRepo: templateRepo,
		client:       client,
		hub:          hub,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *batchService) CreateBatch(ctx context.Context, league *models.League, batch []matchmaking.Assignment) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	allocator, err := NewIDAllocator(ctx, s.teamRepo, s.gameRepo)
	if err != nil {
		return 0, err
	}
	teams, err := s.leagueTeamIndex(ctx, league.ID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, assignment := range batch {
		if s.createGame(ctx, league, allocator, assignment, teams) {
			created++
		}
	}
	return created, nil
}

func (s *batchService) leagueTeamIndex(ctx context.Context, leagueID int) (map[int]*models.Team, error) {
	list, err := s.teamRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teams := make(map[int]*models.Team, len(list))
	for _, team := range list {
		teams[team.ID] = team
	}
	return teams, nil
}

func (s *batchService) createGame(ctx context.Context, league *models.League, allocator *IDAllocator, assignment matchmaking.Assignment, teams map[int]*models.Team) bool {
	tpl := assignment.Template
	game := &models.Game{
		ID:         allocator.Next(),
		LeagueID:   league.ID,
		CreatedAt:  s.now(),
		Sides:      assignment.Matching.Sides,
		TemplateID: &tpl.ID,
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		s.logger.WarnContext(ctx, "failed to persist game, skipping",
			slog.String("league", league.Name),
			slog.Int("game_id", game.ID),
			slog.Any("error", err))
		return false
	}

	externalID, err := s.client.CreateGame(ctx, tpl.ExternalID, playerSides(game, teams))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to create game on platform, rolling back",
			slog.String("league", league.Name),
			slog.Int("game_id", game.ID),
			slog.Any("error", err))
		if delErr := s.gameRepo.Delete(ctx, game.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back game row",
				slog.String("league", league.Name),
				slog.Int("game_id", game.ID),
				slog.Any("error", delErr))
		}
		// SelectBatch bumped the in-memory usage counter when it picked the
		// template; undo it so the persisted value stays in step.
		if tpl.Usage > 0 {
			tpl.Usage--
		}
		return false
	}

	game.ExternalID = &externalID
	if err := s.gameRepo.Update(ctx, game); err != nil {
		s.logger.WarnContext(ctx, "failed to record external game id",
			slog.String("league", league.Name),
			slog.Int("game_id", game.ID),
			slog.Any("error", err))
	}
	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		s.logger.WarnContext(ctx, "failed to persist template usage",
			slog.String("league", league.Name),
			slog.Int("template_id", tpl.ID),
			slog.Any("error", err))
	}

	s.recordParticipants(ctx, league, game, teams)

	if s.hub != nil {
		s.hub.Publish(broadcast.Event{
			Type:   broadcast.EventGameCreated,
			League: league.Name,
			Payload: map[string]any{
				"game_id":     game.ID,
				"sides":       game.Sides,
				"template_id": tpl.ID,
			},
		})
	}
	return true
}

// recordParticipants bumps each participant's ongoing counter and appends its
// new opponents to the rematch history.
func (s *batchService) recordParticipants(ctx context.Context, league *models.League, game *models.Game, teams map[int]*models.Team) {
	for sideIdx, side := range game.Sides {
		for _, teamID := range side {
			team := teams[teamID]
			if team == nil {
				continue
			}
			team.OngoingGames++
			for otherIdx, other := range game.Sides {
				if otherIdx == sideIdx {
					continue
				}
				team.OpponentHistory = append(team.OpponentHistory, other...)
			}
			if len(team.OpponentHistory) > opponentHistoryCap {
				team.OpponentHistory = team.OpponentHistory[len(team.OpponentHistory)-opponentHistoryCap:]
			}
			if err := s.teamRepo.Update(ctx, team); err != nil {
				s.logger.WarnContext(ctx, "failed to persist team, skipping",
					slog.String("league", league.Name),
					slog.Int("team_id", team.ID),
					slog.Any("error", err))
			}
		}
	}
}
