package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/ladder-system/models"
)

var ErrTemplateNotFound = errors.New("template not found")

type TemplateRepository interface {
	GetByID(ctx context.Context, id int) (*models.Template, error)
	ListByLeague(ctx context.Context, leagueID int) ([]*models.Template, error)
	Update(ctx context.Context, template *models.Template) error
}

type postgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) TemplateRepository {
	return &postgresTemplateRepository{db: db}
}

const templateColumns = `id, league_id, external_id, active, usage_count, team_size, side_size, game_size`

func (r *postgresTemplateRepository) GetByID(ctx context.Context, id int) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	template := &models.Template{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&template.ID,
		&template.LeagueID,
		&template.ExternalID,
		&template.Active,
		&template.Usage,
		&template.TeamSize,
		&template.SideSize,
		&template.GameSize,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

func (r *postgresTemplateRepository) ListByLeague(ctx context.Context, leagueID int) ([]*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE league_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*models.Template
	for rows.Next() {
		template := &models.Template{}
		err := rows.Scan(
			&template.ID,
			&template.LeagueID,
			&template.ExternalID,
			&template.Active,
			&template.Usage,
			&template.TeamSize,
			&template.SideSize,
			&template.GameSize,
		)
		if err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

func (r *postgresTemplateRepository) Update(ctx context.Context, template *models.Template) error {
	query := `
		UPDATE templates
		SET external_id = $2, active = $3, usage_count = $4, team_size = $5, side_size = $6, game_size = $7
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		template.ID,
		template.ExternalID,
		template.Active,
		template.Usage,
		template.TeamSize,
		template.SideSize,
		template.GameSize,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTemplateNotFound)
}
