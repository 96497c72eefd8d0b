package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/ladder-system/broadcast"
	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/platform"
	"github.com/Dosada05/ladder-system/ratings"
	"github.com/Dosada05/ladder-system/repositories"
)

// LifecycleService reconciles the remote state of open games into rating
// updates, veto bookkeeping and team counter adjustments.
type LifecycleService interface {
	// ReconcileOpenGames polls every open game of the league and applies
	// whatever transition its remote state dictates. Per-game failures are
	// logged and skipped; the tick continues.
	ReconcileOpenGames(ctx context.Context, league *models.League, st *Settings, sys ratings.System) error

	// VetoTemplate records a team's rejection of the game's current
	// template: within the veto limit the game moves to a fresh template,
	// past it the game is discarded and every participant pays the veto
	// penalty.
	VetoTemplate(ctx context.Context, league *models.League, gameID, teamID int) error
}

type lifecycleService struct {
	teamRepo     repositories.TeamRepository
	gameRepo     repositories.GameRepository
	templateRepo repositories.TemplateRepository
	client       platform.Client
	hub          *broadcast.Hub
	logger       *slog.Logger
	now          func() time.Time
}

func NewLifecycleService(
	teamRepo repositories.TeamRepository,
	gameRepo repositories.GameRepository,
	templateRepo repositories.TemplateRepository,
	client platform.Client,
	hub *broadcast.Hub,
	logger *slog.Logger,
) LifecycleService {
	return &lifecycleService{
		teamRepo:     teamRepo,
		gameRepo:     gameRepo,
		templateRepo: templateRepo,
		client:       client,
		hub:          hub,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *lifecycleService) ReconcileOpenGames(ctx context.Context, league *models.League, st *Settings, sys ratings.System) error {
	games, err := s.gameRepo.ListOpenByLeague(ctx, league.ID)
	if err != nil {
		return fmt.Errorf("list open games for league %s: %w", league.Name, err)
	}
	teams, err := s.leagueTeams(ctx, league.ID)
	if err != nil {
		return err
	}

	for _, game := range games {
		if game.ExternalID == nil {
			// Created locally but never materialized remotely; the batch
			// creator rolls these back, nothing to reconcile.
			continue
		}
		status, err := s.client.QueryGame(ctx, *game.ExternalID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to query game state, skipping",
				slog.String("league", league.Name),
				slog.Int("game_id", game.ID),
				slog.Any("error", err))
			continue
		}

		switch status.State {
		case platform.GameFinished:
			err = s.resolveRemoteFinished(ctx, league, st, sys, game, status, teams)
		case platform.GameWaitingForPlayers:
			err = s.resolveWaiting(ctx, league, st, sys, game, status, teams)
		default:
			// Still running: pure no-op poll.
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to resolve game, skipping",
				slog.String("league", league.Name),
				slog.Int("game_id", game.ID),
				slog.Any("error", err))
		}
	}
	return nil
}

func (s *lifecycleService) leagueTeams(ctx context.Context, leagueID int) (map[int]*models.Team, error) {
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

// teamOfPlayer maps a remote player id back to its owning team among the
// game's participants.
func teamOfPlayer(game *models.Game, teams map[int]*models.Team, playerID int) *models.Team {
	for _, teamID := range game.Participants() {
		team := teams[teamID]
		if team == nil {
			continue
		}
		for _, p := range team.Players {
			if p == playerID {
				return team
			}
		}
	}
	return nil
}

// resolveRemoteFinished handles a game the platform reports as finished.
// A lingering non-terminal player state means the game never ran its course,
// so it is abandoned without rating impact; otherwise the explicit winners
// resolve it.
func (s *lifecycleService) resolveRemoteFinished(ctx context.Context, league *models.League, st *Settings, sys ratings.System, game *models.Game, status *platform.GameStatus, teams map[int]*models.Team) error {
	winnerTeams := make(map[int]struct{})
	bootedTeams := make(map[int]struct{})
	for _, player := range status.Players {
		if !player.State.Terminal() {
			return s.abandonGame(ctx, league, game, teams)
		}
		team := teamOfPlayer(game, teams, player.PlayerID)
		if team == nil {
			continue
		}
		switch player.State {
		case platform.PlayerWon:
			winnerTeams[team.ID] = struct{}{}
		case platform.PlayerBooted:
			bootedTeams[team.ID] = struct{}{}
		}
	}

	winnerSide := -1
	for teamID := range winnerTeams {
		winnerSide = game.SideOf(teamID)
		break
	}

	if st.ShrinkLimitOnBoot() {
		for teamID := range bootedTeams {
			team := teams[teamID]
			if team == nil || team.Limit <= 0 {
				continue
			}
			team.Limit--
			s.persistTeam(ctx, league, team)
		}
	}

	return s.finishGame(ctx, league, st, sys, game, game.Sides, winnerSide, false, nil, teams)
}

// resolveWaiting handles a game stuck in player setup. Nothing happens until
// the expiry threshold elapses; after that the decliners decide the outcome.
func (s *lifecycleService) resolveWaiting(ctx context.Context, league *models.League, st *Settings, sys ratings.System, game *models.Game, status *platform.GameStatus, teams map[int]*models.Team) error {
	expiry := time.Duration(st.WaitingExpiryDays()) * 24 * time.Hour
	if s.now().Sub(game.CreatedAt) < expiry {
		return nil
	}

	// Players that never accepted count as decliners alongside explicit
	// declines; both block the game the same way.
	declining := make(map[int]struct{})
	for _, player := range status.Players {
		if player.State != platform.PlayerDeclined && player.State != platform.PlayerWaiting {
			continue
		}
		if team := teamOfPlayer(game, teams, player.PlayerID); team != nil {
			declining[team.ID] = struct{}{}
		}
	}
	if len(declining) == 0 {
		return nil
	}

	remaining := 0
	decliningSides := 0
	for _, side := range game.Sides {
		hasKeeper, hasDecliner := false, false
		for _, teamID := range side {
			if _, ok := declining[teamID]; ok {
				hasDecliner = true
			} else {
				hasKeeper = true
			}
		}
		if hasKeeper {
			remaining++
		}
		if hasDecliner {
			decliningSides++
		}
	}

	// Decliners scattered across several sides of a still-viable game leave
	// nothing coherent to salvage.
	if remaining == 0 || (decliningSides > 1 && remaining > 1) {
		return s.abandonGame(ctx, league, game, teams)
	}

	s.applyDeclinePolicy(ctx, league, st, game, declining, teams)

	fakeSides, winnerSide := makeFakeSides(game.Sides, declining)
	if len(fakeSides) == 2 {
		var penalized []int
		if st.ApplyDeclinePenalty() {
			for teamID := range declining {
				penalized = append(penalized, teamID)
			}
		}
		return s.finishGame(ctx, league, st, sys, game, fakeSides, winnerSide, true, penalized, teams)
	}

	// The rebuilt game is not two-sided; the best remaining move is a
	// template veto so the matchup gets another chance elsewhere.
	return s.applyVeto(ctx, league, st, sys, game, teams)
}

// makeFakeSides rebuilds the game without the declining teams: each side
// keeps its non-declining members, and all decliners merge into one trailing
// side. The returned winner index points at the non-decliner side when
// exactly two sides result.
func makeFakeSides(sides [][]int, declining map[int]struct{}) ([][]int, int) {
	var fake [][]int
	var decliners []int
	for _, side := range sides {
		var keepers []int
		for _, teamID := range side {
			if _, ok := declining[teamID]; ok {
				decliners = append(decliners, teamID)
			} else {
				keepers = append(keepers, teamID)
			}
		}
		if len(keepers) > 0 {
			fake = append(fake, keepers)
		}
	}
	winner := -1
	if len(fake) == 1 {
		winner = 0
	}
	if len(decliners) > 0 {
		fake = append(fake, decliners)
	}
	return fake, winner
}

func (s *lifecycleService) applyDeclinePolicy(ctx context.Context, league *models.League, st *Settings, game *models.Game, declining map[int]struct{}, teams map[int]*models.Team) {
	if !st.RemoveOnDecline() && !st.VetoOnDecline() {
		return
	}
	for teamID := range declining {
		team := teams[teamID]
		if team == nil {
			continue
		}
		if st.RemoveOnDecline() {
			team.Limit = 0
		}
		if st.VetoOnDecline() && game.TemplateID != nil {
			if team.VetoCounts == nil {
				team.VetoCounts = make(map[int]int)
			}
			team.VetoCounts[*game.TemplateID]++
		}
		s.persistTeam(ctx, league, team)
	}
}

// finishGame applies the rating update over the given sides, adjusts every
// original participant's counters, and either retains or deletes the row per
// the preserve-records policy.
func (s *lifecycleService) finishGame(ctx context.Context, league *models.League, st *Settings, sys ratings.System, game *models.Game, sides [][]int, winnerSide int, byDecline bool, penalized []int, teams map[int]*models.Team) error {
	prior := make(map[int]string)
	for _, side := range sides {
		for _, teamID := range side {
			if team := teams[teamID]; team != nil {
				prior[teamID] = team.Rating
			}
		}
	}
	updated := sys.Update(sides, winnerSide, prior)
	for teamID, record := range updated {
		if team := teams[teamID]; team != nil {
			team.Rating = record
		}
	}
	for _, teamID := range penalized {
		if team := teams[teamID]; team != nil {
			team.Rating = sys.Penalize(team.Rating, st.DeclinePenalty())
		}
	}

	if winnerSide >= 0 && winnerSide < len(sides) {
		game.Winners = sides[winnerSide]
	}
	game.WonByDecline = byDecline

	for _, teamID := range game.Participants() {
		team := teams[teamID]
		if team == nil {
			continue
		}
		if team.OngoingGames > 0 {
			team.OngoingGames--
		}
		team.FinishedGames++
		s.persistTeam(ctx, league, team)
	}

	if st.PreserveRecords() {
		finishedAt := s.now()
		game.FinishedAt = &finishedAt
		if err := s.gameRepo.Update(ctx, game); err != nil {
			return fmt.Errorf("retain finished game %d: %w", game.ID, err)
		}
	} else {
		if err := s.gameRepo.Delete(ctx, game.ID); err != nil {
			return fmt.Errorf("delete finished game %d: %w", game.ID, err)
		}
		s.releaseTemplate(ctx, league, game)
	}

	s.publish(broadcast.Event{
		Type:   broadcast.EventGameFinished,
		League: league.Name,
		Payload: map[string]any{
			"game_id":        game.ID,
			"winners":        game.Winners,
			"won_by_decline": byDecline,
		},
	})
	return nil
}

// abandonGame returns every participant to the pool unchanged and discards
// the game: no rating impact, no finished-count increment.
func (s *lifecycleService) abandonGame(ctx context.Context, league *models.League, game *models.Game, teams map[int]*models.Team) error {
	for _, teamID := range game.Participants() {
		team := teams[teamID]
		if team == nil {
			continue
		}
		if team.OngoingGames > 0 {
			team.OngoingGames--
		}
		s.persistTeam(ctx, league, team)
	}
	s.deleteRemote(ctx, league, game)
	if err := s.gameRepo.Delete(ctx, game.ID); err != nil {
		return fmt.Errorf("delete abandoned game %d: %w", game.ID, err)
	}
	s.releaseTemplate(ctx, league, game)

	s.publish(broadcast.Event{
		Type:    broadcast.EventGameAbandoned,
		League:  league.Name,
		Payload: map[string]any{"game_id": game.ID},
	})
	return nil
}

func (s *lifecycleService) VetoTemplate(ctx context.Context, league *models.League, gameID, teamID int) error {
	raw, err := league.Settings()
	if err != nil {
		return fmt.Errorf("league %s settings: %w", league.Name, err)
	}
	st := NewSettings(raw, league.Name, s.logger)
	sys, err := st.RatingSystem()
	if err != nil {
		return err
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return err
	}
	if game.FinishedAt != nil {
		return ErrGameAlreadyResolved
	}
	if game.ExternalID == nil {
		return ErrGameNotCreatedYet
	}
	if game.SideOf(teamID) < 0 {
		return fmt.Errorf("%w: team %d, game %d", ErrTeamNotInGame, teamID, gameID)
	}

	teams, err := s.leagueTeams(ctx, league.ID)
	if err != nil {
		return err
	}
	if team := teams[teamID]; team != nil && game.TemplateID != nil {
		if team.VetoCounts == nil {
			team.VetoCounts = make(map[int]int)
		}
		team.VetoCounts[*game.TemplateID]++
		s.persistTeam(ctx, league, team)
	}

	return s.applyVeto(ctx, league, st, sys, game, teams)
}

// applyVeto burns the game's current template. Within the veto limit the
// game is moved to the least-used compatible template it has not vetoed yet;
// past the limit it is discarded and every participant pays the penalty.
func (s *lifecycleService) applyVeto(ctx context.Context, league *models.League, st *Settings, sys ratings.System, game *models.Game, teams map[int]*models.Team) error {
	game.Vetos++
	if game.TemplateID != nil {
		game.VetoedTemplates = append(game.VetoedTemplates, *game.TemplateID)
		s.releaseTemplate(ctx, league, game)
		game.TemplateID = nil
	}

	if game.Vetos > st.VetoLimit() {
		return s.discardOverVetoed(ctx, league, st, sys, game, teams)
	}

	next, err := s.nextTemplate(ctx, league, st, game, teams)
	if err != nil {
		return err
	}
	if next == nil {
		// No compatible template left to try; same ending as exceeding the
		// limit.
		return s.discardOverVetoed(ctx, league, st, sys, game, teams)
	}

	s.deleteRemote(ctx, league, game)
	game.TemplateID = &next.ID
	game.ExternalID = nil
	externalID, err := s.client.CreateGame(ctx, next.ExternalID, playerSides(game, teams))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to recreate vetoed game remotely",
			slog.String("league", league.Name),
			slog.Int("game_id", game.ID),
			slog.Any("error", err))
	} else {
		game.ExternalID = &externalID
	}

	next.Usage++
	if err := s.templateRepo.Update(ctx, next); err != nil {
		s.logger.WarnContext(ctx, "failed to persist template usage",
			slog.String("league", league.Name),
			slog.Int("template_id", next.ID),
			slog.Any("error", err))
	}
	if err := s.gameRepo.Update(ctx, game); err != nil {
		return fmt.Errorf("persist vetoed game %d: %w", game.ID, err)
	}

	s.publish(broadcast.Event{
		Type:   broadcast.EventGameVetoed,
		League: league.Name,
		Payload: map[string]any{
			"game_id":     game.ID,
			"vetos":       game.Vetos,
			"template_id": next.ID,
		},
	})
	return nil
}

func (s *lifecycleService) discardOverVetoed(ctx context.Context, league *models.League, st *Settings, sys ratings.System, game *models.Game, teams map[int]*models.Team) error {
	for _, teamID := range game.Participants() {
		team := teams[teamID]
		if team == nil {
			continue
		}
		team.Rating = sys.Penalize(team.Rating, st.VetoPenalty())
		if team.OngoingGames > 0 {
			team.OngoingGames--
		}
		s.persistTeam(ctx, league, team)
	}
	s.deleteRemote(ctx, league, game)
	if err := s.gameRepo.Delete(ctx, game.ID); err != nil {
		return fmt.Errorf("delete over-vetoed game %d: %w", game.ID, err)
	}

	s.publish(broadcast.Event{
		Type:    broadcast.EventGameAbandoned,
		League:  league.Name,
		Payload: map[string]any{"game_id": game.ID, "vetos": game.Vetos},
	})
	return nil
}

// nextTemplate picks the least-used active template matching the league
// scheme that the game has not vetoed yet and no participant has dropped;
// ties go to the lowest id.
func (s *lifecycleService) nextTemplate(ctx context.Context, league *models.League, st *Settings, game *models.Game, teams map[int]*models.Team) (*models.Template, error) {
	templates, err := s.templateRepo.ListByLeague(ctx, league.ID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var best *models.Template
	for _, tpl := range templates {
		if game.HasVetoed(tpl.ID) {
			continue
		}
		if !tpl.SupportsScheme(st.TeamSize(), st.SideSize(), st.GameSize()) {
			continue
		}
		if droppedByParticipant(game, teams, tpl.ID) {
			continue
		}
		if best == nil || tpl.Usage < best.Usage || (tpl.Usage == best.Usage && tpl.ID < best.ID) {
			best = tpl
		}
	}
	return best, nil
}

func droppedByParticipant(game *models.Game, teams map[int]*models.Team, templateID int) bool {
	for _, teamID := range game.Participants() {
		if team := teams[teamID]; team != nil && team.HasDropped(templateID) {
			return true
		}
	}
	return false
}

// playerSides expands the game's team sides into per-side player id lists
// for the platform.
func playerSides(game *models.Game, teams map[int]*models.Team) [][]int {
	sides := make([][]int, len(game.Sides))
	for i, side := range game.Sides {
		for _, teamID := range side {
			if team := teams[teamID]; team != nil {
				sides[i] = append(sides[i], team.Players...)
			}
		}
	}
	return sides
}

func (s *lifecycleService) releaseTemplate(ctx context.Context, league *models.League, game *models.Game) {
	if game.TemplateID == nil {
		return
	}
	tpl, err := s.templateRepo.GetByID(ctx, *game.TemplateID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load template for usage release",
			slog.String("league", league.Name),
			slog.Int("template_id", *game.TemplateID),
			slog.Any("error", err))
		return
	}
	if tpl.Usage > 0 {
		tpl.Usage--
	}
	if err := s.templateRepo.Update(ctx, tpl); err != nil {
		s.logger.WarnContext(ctx, "failed to persist template usage",
			slog.String("league", league.Name),
			slog.Int("template_id", tpl.ID),
			slog.Any("error", err))
	}
}

func (s *lifecycleService) deleteRemote(ctx context.Context, league *models.League, game *models.Game) {
	if game.ExternalID == nil {
		return
	}
	if err := s.client.DeleteGame(ctx, *game.ExternalID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete remote game",
			slog.String("league", league.Name),
			slog.Int("game_id", game.ID),
			slog.Any("error", err))
	}
}

// persistTeam writes a team update, logging and carrying on when the store
// rejects it; one bad row must not abort the tick.
func (s *lifecycleService) persistTeam(ctx context.Context, league *models.League, team *models.Team) {
	if err := s.teamRepo.Update(ctx, team); err != nil {
		s.logger.WarnContext(ctx, "failed to persist team, skipping",
			slog.String("league", league.Name),
			slog.Int("team_id", team.ID),
			slog.Any("error", err))
	}
}

func (s *lifecycleService) publish(event broadcast.Event) {
	if s.hub != nil {
		s.hub.Publish(event)
	}
}
