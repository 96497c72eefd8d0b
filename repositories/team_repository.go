package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByLeague(ctx context.Context, leagueID int) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id int) error
	MaxID(ctx context.Context) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, league_id, name, players, confirmed, rating, veto_counts,
	dropped_templates, rank, opponent_history, clan, finished_games, ongoing_games,
	game_limit, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (id, league_id, name, players, confirmed, rating, veto_counts,
			dropped_templates, rank, opponent_history, clan, finished_games, ongoing_games,
			game_limit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.ExecContext(ctx, query,
		team.ID,
		team.LeagueID,
		team.Name,
		models.FormatIDList(team.Players),
		models.FormatIDList(confirmedList(team)),
		team.Rating,
		models.FormatVetoCounts(team.VetoCounts),
		models.FormatIDList(team.DroppedTemplates),
		team.Rank,
		models.FormatIDList(team.OpponentHistory),
		team.Clan,
		team.FinishedGames,
		team.OngoingGames,
		team.Limit,
		team.CreatedAt,
	)
	return err
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByLeague(ctx context.Context, leagueID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE league_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams
		SET name = $2, players = $3, confirmed = $4, rating = $5, veto_counts = $6,
			dropped_templates = $7, rank = $8, opponent_history = $9, clan = $10,
			finished_games = $11, ongoing_games = $12, game_limit = $13
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		team.ID,
		team.Name,
		models.FormatIDList(team.Players),
		models.FormatIDList(confirmedList(team)),
		team.Rating,
		models.FormatVetoCounts(team.VetoCounts),
		models.FormatIDList(team.DroppedTemplates),
		team.Rank,
		models.FormatIDList(team.OpponentHistory),
		team.Clan,
		team.FinishedGames,
		team.OngoingGames,
		team.Limit,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) MaxID(ctx context.Context) (int, error) {
	var maxID sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(id) FROM teams`).Scan(&maxID); err != nil {
		return 0, err
	}
	return int(maxID.Int64), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*models.Team, error) {
	team := &models.Team{}
	var players, confirmed, vetoCounts, droppedTemplates, opponentHistory string
	err := row.Scan(
		&team.ID,
		&team.LeagueID,
		&team.Name,
		&players,
		&confirmed,
		&team.Rating,
		&vetoCounts,
		&droppedTemplates,
		&team.Rank,
		&opponentHistory,
		&team.Clan,
		&team.FinishedGames,
		&team.OngoingGames,
		&team.Limit,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if team.Players, err = models.ParseIDList(players); err != nil {
		return nil, fmt.Errorf("team %d: %w", team.ID, err)
	}
	confirmedIDs, err := models.ParseIDList(confirmed)
	if err != nil {
		return nil, fmt.Errorf("team %d: %w", team.ID, err)
	}
	team.Confirmed = make(map[int]struct{}, len(confirmedIDs))
	for _, id := range confirmedIDs {
		team.Confirmed[id] = struct{}{}
	}
	if team.VetoCounts, err = models.ParseVetoCounts(vetoCounts); err != nil {
		return nil, fmt.Errorf("team %d: %w", team.ID, err)
	}
	if team.DroppedTemplates, err = models.ParseIDList(droppedTemplates); err != nil {
		return nil, fmt.Errorf("team %d: %w", team.ID, err)
	}
	if team.OpponentHistory, err = models.ParseIDList(opponentHistory); err != nil {
		return nil, fmt.Errorf("team %d: %w", team.ID, err)
	}
	return team, nil
}

func confirmedList(team *models.Team) []int {
	var ids []int
	for _, playerID := range team.Players {
		if _, ok := team.Confirmed[playerID]; ok {
			ids = append(ids, playerID)
		}
	}
	return ids
}
