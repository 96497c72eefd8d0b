package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/ladder-system/models"
)

func ladderTeam(id, player int, rating string) *models.Team {
	team := duelTeam(id, player)
	team.Rating = rating
	team.OngoingGames = 0
	team.Limit = 1
	return team
}

func TestTickLeagueMatchesAndCreates(t *testing.T) {
	teams := []*models.Team{
		ladderTeam(1, 11, "1500"),
		ladderTeam(2, 21, "1520"),
		ladderTeam(3, 31, "1700"),
		ladderTeam(4, 41, "1710"),
	}
	teamRepo := newMemTeamRepo(teams...)
	gameRepo := newMemGameRepo()
	templateRepo := newMemTemplateRepo(duelTemplate(1, 0), duelTemplate(2, 0))
	client := newFakePlatform()
	uploader := &recordingUploader{}
	logger := discardLogger()

	lifecycle := NewLifecycleService(teamRepo, gameRepo, templateRepo, client, nil, logger)
	batch := NewBatchService(teamRepo, gameRepo, templateRepo, client, nil, logger)
	standings := NewStandingsService(teamRepo, uploader, nil, logger)
	svc := NewScheduleService(newMemLeagueRepo(), teamRepo, templateRepo, lifecycle, batch, standings, logger)

	require.NoError(t, svc.TickLeague(context.Background(), alphaLeague()))

	open, err := gameRepo.ListOpenByLeague(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, open, 2)

	// Closest ratings pair up: 1500 with 1520, 1700 with 1710. The tighter
	// pair is created first.
	assert.Equal(t, [][]int{{3}, {4}}, open[0].Sides)
	assert.Equal(t, [][]int{{1}, {2}}, open[1].Sides)

	for _, team := range teams {
		assert.Equal(t, 1, team.OngoingGames)
	}

	// One game per template, not two on the same one.
	tpl1, _ := templateRepo.GetByID(context.Background(), 1)
	tpl2, _ := templateRepo.GetByID(context.Background(), 2)
	assert.Equal(t, 1, tpl1.Usage)
	assert.Equal(t, 1, tpl2.Usage)

	require.Len(t, uploader.uploads, 1)
	assert.Equal(t, "standings/main/alpha.json", uploader.uploads[0].Key)
}

func TestTickLeagueRespectsGameLimits(t *testing.T) {
	busy := ladderTeam(1, 11, "1500")
	busy.OngoingGames = 1 // at its limit already
	idle := ladderTeam(2, 21, "1510")
	teamRepo := newMemTeamRepo(busy, idle)
	gameRepo := newMemGameRepo()
	templateRepo := newMemTemplateRepo(duelTemplate(1, 0))
	client := newFakePlatform()
	logger := discardLogger()

	lifecycle := NewLifecycleService(teamRepo, gameRepo, templateRepo, client, nil, logger)
	batch := NewBatchService(teamRepo, gameRepo, templateRepo, client, nil, logger)
	standings := NewStandingsService(teamRepo, nil, nil, logger)
	svc := NewScheduleService(newMemLeagueRepo(), teamRepo, templateRepo, lifecycle, batch, standings, logger)

	require.NoError(t, svc.TickLeague(context.Background(), alphaLeague()))

	open, err := gameRepo.ListOpenByLeague(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, open, "a saturated team leaves no one to pair with")
}

func TestRunClusterContainsFailingLeague(t *testing.T) {
	badSettings := "{not json"
	bad := &models.League{ID: 1, Name: "broken", Cluster: "main", Active: true, SettingsJSON: &badSettings}
	good := &models.League{ID: 2, Name: "alpha", Cluster: "main", Active: true}

	teamRepo := newMemTeamRepo(
		func() *models.Team { t := ladderTeam(1, 11, "1500"); t.LeagueID = 2; return t }(),
		func() *models.Team { t := ladderTeam(2, 21, "1510"); t.LeagueID = 2; return t }(),
	)
	gameRepo := newMemGameRepo()
	tpl := duelTemplate(1, 0)
	tpl.LeagueID = 2
	templateRepo := newMemTemplateRepo(tpl)
	client := newFakePlatform()
	logger := discardLogger()

	lifecycle := NewLifecycleService(teamRepo, gameRepo, templateRepo, client, nil, logger)
	batch := NewBatchService(teamRepo, gameRepo, templateRepo, client, nil, logger)
	standings := NewStandingsService(teamRepo, nil, nil, logger)
	svc := NewScheduleService(newMemLeagueRepo(bad, good), teamRepo, templateRepo, lifecycle, batch, standings, logger)

	require.NoError(t, svc.RunCluster(context.Background(), "main"))

	open, err := gameRepo.ListOpenByLeague(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, open, 1, "healthy league still gets its games")
}
