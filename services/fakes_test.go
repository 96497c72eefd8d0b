package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/Dosada05/ladder-system/models"
	"github.com/Dosada05/ladder-system/platform"
	"github.com/Dosada05/ladder-system/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// In-memory repositories. They share pointers with the caller, which is fine
// for the service tests: the assertions read the same structs the service
// mutated.

type memTeamRepo struct {
	mu    sync.Mutex
	teams map[int]*models.Team
}

func newMemTeamRepo(teams ...*models.Team) *memTeamRepo {
	repo := &memTeamRepo{teams: make(map[int]*models.Team)}
	for _, team := range teams {
		repo.teams[team.ID] = team
	}
	return repo
}

func (r *memTeamRepo) Create(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams[team.ID] = team
	return nil
}

func (r *memTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return team, nil
}

func (r *memTeamRepo) ListByLeague(ctx context.Context, leagueID int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Team
	for _, team := range r.teams {
		if team.LeagueID == leagueID {
			out = append(out, team)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTeamRepo) Update(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	r.teams[team.ID] = team
	return nil
}

func (r *memTeamRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *memTeamRepo) MaxID(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for id := range r.teams {
		if id > max {
			max = id
		}
	}
	return max, nil
}

type memGameRepo struct {
	mu    sync.Mutex
	games map[int]*models.Game
}

func newMemGameRepo(games ...*models.Game) *memGameRepo {
	repo := &memGameRepo{games: make(map[int]*models.Game)}
	for _, game := range games {
		repo.games[game.ID] = game
	}
	return repo
}

func (r *memGameRepo) Create(ctx context.Context, game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[game.ID] = game
	return nil
}

func (r *memGameRepo) GetByID(ctx context.Context, id int) (*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return game, nil
}

func (r *memGameRepo) ListOpenByLeague(ctx context.Context, leagueID int) ([]*models.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Game
	for _, game := range r.games {
		if game.LeagueID == leagueID && game.FinishedAt == nil {
			out = append(out, game)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memGameRepo) Update(ctx context.Context, game *models.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[game.ID]; !ok {
		return repositories.ErrGameNotFound
	}
	r.games[game.ID] = game
	return nil
}

func (r *memGameRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; !ok {
		return repositories.ErrGameNotFound
	}
	delete(r.games, id)
	return nil
}

func (r *memGameRepo) MaxID(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for id := range r.games {
		if id > max {
			max = id
		}
	}
	return max, nil
}

type memTemplateRepo struct {
	mu        sync.Mutex
	templates map[int]*models.Template
}

func newMemTemplateRepo(templates ...*models.Template) *memTemplateRepo {
	repo := &memTemplateRepo{templates: make(map[int]*models.Template)}
	for _, tpl := range templates {
		repo.templates[tpl.ID] = tpl
	}
	return repo
}

func (r *memTemplateRepo) GetByID(ctx context.Context, id int) (*models.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl, ok := r.templates[id]
	if !ok {
		return nil, repositories.ErrTemplateNotFound
	}
	return tpl, nil
}

func (r *memTemplateRepo) ListByLeague(ctx context.Context, leagueID int) ([]*models.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Template
	for _, tpl := range r.templates {
		if tpl.LeagueID == leagueID {
			out = append(out, tpl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTemplateRepo) Update(ctx context.Context, template *models.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[template.ID]; !ok {
		return repositories.ErrTemplateNotFound
	}
	r.templates[template.ID] = template
	return nil
}

type memLeagueRepo struct {
	mu      sync.Mutex
	leagues map[int]*models.League
}

func newMemLeagueRepo(leagues ...*models.League) *memLeagueRepo {
	repo := &memLeagueRepo{leagues: make(map[int]*models.League)}
	for _, league := range leagues {
		repo.leagues[league.ID] = league
	}
	return repo
}

func (r *memLeagueRepo) GetByID(ctx context.Context, id int) (*models.League, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	league, ok := r.leagues[id]
	if !ok {
		return nil, repositories.ErrLeagueNotFound
	}
	return league, nil
}

func (r *memLeagueRepo) ListActiveByCluster(ctx context.Context, cluster string) ([]*models.League, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.League
	for _, league := range r.leagues {
		if league.Cluster == cluster && league.Active {
			out = append(out, league)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type createdGame struct {
	Template string
	Sides    [][]int
}

// fakePlatform is a scripted platform.Client: statuses keyed by external id,
// created games recorded in order.
type fakePlatform struct {
	mu        sync.Mutex
	statuses  map[string]*platform.GameStatus
	created   []createdGame
	deleted   []string
	nextID    int
	createErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{statuses: make(map[string]*platform.GameStatus)}
}

func (f *fakePlatform) CreateGame(ctx context.Context, templateExternalID string, sides [][]int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", &platform.Error{Op: "create game", Err: f.createErr}
	}
	f.nextID++
	f.created = append(f.created, createdGame{Template: templateExternalID, Sides: sides})
	return fmt.Sprintf("ext-%d", f.nextID), nil
}

func (f *fakePlatform) QueryGame(ctx context.Context, externalID string) (*platform.GameStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[externalID]
	if !ok {
		return nil, &platform.Error{Op: "query game", Err: fmt.Errorf("unknown game %s", externalID)}
	}
	return status, nil
}

func (f *fakePlatform) DeleteGame(ctx context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, externalID)
	return nil
}
