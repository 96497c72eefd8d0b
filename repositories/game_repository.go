package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/ladder-system/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	// ListOpenByLeague returns games that have not resolved yet: no finish
	// timestamp recorded.
	ListOpenByLeague(ctx context.Context, leagueID int) ([]*models.Game, error)
	Update(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id int) error
	MaxID(ctx context.Context) (int, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `id, league_id, external_id, created_at, finished_at, sides,
	winners, won_by_decline, vetos, vetoed_templates, template_id`

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (id, league_id, external_id, created_at, finished_at, sides,
			winners, won_by_decline, vetos, vetoed_templates, template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		game.ID,
		game.LeagueID,
		game.ExternalID,
		game.CreatedAt,
		game.FinishedAt,
		models.FormatSides(game.Sides),
		models.FormatIDList(game.Winners),
		game.WonByDecline,
		game.Vetos,
		models.FormatIDList(game.VetoedTemplates),
		game.TemplateID,
	)
	return err
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return game, nil
}

func (r *postgresGameRepository) ListOpenByLeague(ctx context.Context, leagueID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games
		WHERE league_id = $1 AND finished_at IS NULL
		ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

func (r *postgresGameRepository) Update(ctx context.Context, game *models.Game) error {
	query := `
		UPDATE games
		SET external_id = $2, finished_at = $3, sides = $4, winners = $5,
			won_by_decline = $6, vetos = $7, vetoed_templates = $8, template_id = $9
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		game.ID,
		game.ExternalID,
		game.FinishedAt,
		models.FormatSides(game.Sides),
		models.FormatIDList(game.Winners),
		game.WonByDecline,
		game.Vetos,
		models.FormatIDList(game.VetoedTemplates),
		game.TemplateID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) MaxID(ctx context.Context) (int, error) {
	var maxID sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(id) FROM games`).Scan(&maxID); err != nil {
		return 0, err
	}
	return int(maxID.Int64), nil
}

func scanGame(row rowScanner) (*models.Game, error) {
	game := &models.Game{}
	var sides, winners, vetoedTemplates string
	err := row.Scan(
		&game.ID,
		&game.LeagueID,
		&game.ExternalID,
		&game.CreatedAt,
		&game.FinishedAt,
		&sides,
		&winners,
		&game.WonByDecline,
		&game.Vetos,
		&vetoedTemplates,
		&game.TemplateID,
	)
	if err != nil {
		return nil, err
	}
	if game.Sides, err = models.ParseSides(sides); err != nil {
		return nil, fmt.Errorf("game %d: %w", game.ID, err)
	}
	if game.Winners, err = models.ParseIDList(winners); err != nil {
		return nil, fmt.Errorf("game %d: %w", game.ID, err)
	}
	if game.VetoedTemplates, err = models.ParseIDList(vetoedTemplates); err != nil {
		return nil, fmt.Errorf("game %d: %w", game.ID, err)
	}
	return game, nil
}
