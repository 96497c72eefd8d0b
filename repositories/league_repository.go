package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/ladder-system/models"
)

var ErrLeagueNotFound = errors.New("league not found")

type LeagueRepository interface {
	GetByID(ctx context.Context, id int) (*models.League, error)
	ListActiveByCluster(ctx context.Context, cluster string) ([]*models.League, error)
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, id int) (*models.League, error) {
	query := `SELECT id, name, cluster, active, settings_json FROM leagues WHERE id = $1`
	league := &models.League{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&league.ID,
		&league.Name,
		&league.Cluster,
		&league.Active,
		&league.SettingsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return league, nil
}

func (r *postgresLeagueRepository) ListActiveByCluster(ctx context.Context, cluster string) ([]*models.League, error) {
	query := `SELECT id, name, cluster, active, settings_json FROM leagues
		WHERE cluster = $1 AND active = TRUE
		ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, cluster)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leagues []*models.League
	for rows.Next() {
		league := &models.League{}
		err := rows.Scan(
			&league.ID,
			&league.Name,
			&league.Cluster,
			&league.Active,
			&league.SettingsJSON,
		)
		if err != nil {
			return nil, err
		}
		leagues = append(leagues, league)
	}
	return leagues, rows.Err()
}
