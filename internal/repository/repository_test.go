//go:build integration

package repository

import (
	"database/sql"
	"testing"
	"time"

	"sportsdata/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeagueRepository_UpsertIsIdempotent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	league := &models.League{
		LeagueID:  9001,
		Name:      "Test League",
		ShortCode: sql.NullString{String: "TL", Valid: true},
		Active:    true,
	}

	success, failure := db.Leagues.Upsert(ctx, []*models.League{league})
	assert.Equal(t, 1, success)
	assert.Equal(t, 0, failure)

	// Update existing league
	league.Name = "Test League Renamed"
	success, failure = db.Leagues.Upsert(ctx, []*models.League{league})
	assert.Equal(t, 1, success)
	assert.Equal(t, 0, failure)

	retrieved, err := db.Leagues.GetByLeagueID(ctx, league.LeagueID)
	require.NoError(t, err)
	assert.Equal(t, "Test League Renamed", retrieved.Name)

	success, _ = db.Leagues.UpsertTranslations(ctx, []*models.Translation{
		{EntityID: 9001, Locale: "pt", Name: "Liga Teste"},
	})
	assert.Equal(t, 1, success)

	translations, err := db.Leagues.Translations(ctx, 9001)
	require.NoError(t, err)
	require.Len(t, translations, 1)
	assert.Equal(t, "Liga Teste", translations[0].Name)
}

func TestTeamRepository_BadRecordDoesNotAbortBatch(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	teams := []*models.Team{
		{TeamID: 9101, Name: "Home FC"},
		{TeamID: 9103, Name: "Away FC", Founded: sql.NullInt32{Int32: 1899, Valid: true}},
	}
	success, failure := db.Teams.Upsert(ctx, teams)
	assert.Equal(t, 2, success)
	assert.Equal(t, 0, failure)

	// The middle translation points at a team that does not exist.
	success, failure = db.Teams.UpsertTranslations(ctx, []*models.Translation{
		{EntityID: 9101, Locale: "pt", Name: "Casa FC"},
		{EntityID: 9199, Locale: "pt", Name: "Ninguem"},
		{EntityID: 9103, Locale: "pt", Name: "Fora FC"},
	})
	assert.Equal(t, 2, success)
	assert.Equal(t, 1, failure)

	translations, err := db.Teams.Translations(ctx, 9103)
	require.NoError(t, err)
	require.Len(t, translations, 1)
	assert.Equal(t, "Fora FC", translations[0].Name)

	retrieved, err := db.Teams.GetByTeamID(ctx, 9103)
	require.NoError(t, err)
	assert.Equal(t, int32(1899), retrieved.Founded.Int32)
}

func TestTeamRepository_GetNotFound(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Teams.GetByTeamID(ctx, 999999)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSeasonRepository_CurrentSeasonIDs(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	seasons := []*models.Season{
		{SeasonID: 9201, LeagueID: 9001, Name: "2023/2024", Finished: true},
		{SeasonID: 9202, LeagueID: 9001, Name: "2024/2025", IsCurrent: true},
	}
	success, failure := db.Seasons.Upsert(ctx, seasons)
	assert.Equal(t, 2, success)
	assert.Equal(t, 0, failure)

	ids, err := db.Seasons.CurrentSeasonIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, int64(9202))
	assert.NotContains(t, ids, int64(9201))
}

func TestFixtureRepository_UpsertWithOddsAndEvents(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	kickoff := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	fixture := &models.Fixture{
		FixtureID:  9301,
		LeagueID:   9001,
		SeasonID:   9202,
		StartingAt: kickoff,
		Name:       sql.NullString{String: "Home FC vs Away FC", Valid: true},
		HomeScore:  sql.NullInt32{Int32: 2, Valid: true},
		AwayScore:  sql.NullInt32{Int32: 1, Valid: true},
		ExtraInfo:  []byte(`{"leg":"1/1"}`),
	}
	success, failure := db.Fixtures.Upsert(ctx, []*models.Fixture{fixture})
	require.Equal(t, 1, success)
	require.Equal(t, 0, failure)

	retrieved, err := db.Fixtures.GetByFixtureID(ctx, 9301)
	require.NoError(t, err)
	assert.True(t, kickoff.Equal(retrieved.StartingAt))
	assert.Equal(t, int32(2), retrieved.HomeScore.Int32)
	assert.JSONEq(t, `{"leg":"1/1"}`, string(retrieved.ExtraInfo))

	listed, err := db.Fixtures.ListBetween(ctx, kickoff.Add(-time.Hour), kickoff.Add(time.Hour))
	require.NoError(t, err)
	assert.NotEmpty(t, listed)

	odd := &models.FixtureOdd{
		FixtureID:    9301,
		BookmakerID:  2,
		MarketID:     1,
		Label:        "Home",
		Value:        sql.NullString{String: "1.85", Valid: true},
		DecimalValue: sql.NullFloat64{Float64: 1.85, Valid: true},
	}
	live := *odd
	live.IsLive = true
	live.DecimalValue = sql.NullFloat64{Float64: 1.40, Valid: true}

	success, _ = db.Odds.Upsert(ctx, []*models.FixtureOdd{odd, &live})
	assert.Equal(t, 2, success)

	// Same key updates in place
	odd.DecimalValue = sql.NullFloat64{Float64: 1.90, Valid: true}
	success, _ = db.Odds.Upsert(ctx, []*models.FixtureOdd{odd})
	assert.Equal(t, 1, success)

	odds, err := db.Odds.GetByFixture(ctx, 9301)
	require.NoError(t, err)
	require.Len(t, odds, 2)
	assert.Equal(t, 1.90, odds[0].DecimalValue.Float64)
	assert.True(t, odds[1].IsLive)

	event := &models.FixtureEvent{
		EventID:    9401,
		FixtureID:  9301,
		PlayerName: sql.NullString{String: "Striker", Valid: true},
		Minute:     sql.NullInt32{Int32: 23, Valid: true},
	}
	success, _ = db.Events.Upsert(ctx, []*models.FixtureEvent{event})
	assert.Equal(t, 1, success)

	events, err := db.Events.GetByFixture(ctx, 9301)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Striker", events[0].PlayerName.String)
}

func TestReferenceRepositories(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	success, _ := db.States.Upsert(ctx, []*models.MatchState{{StateID: 5, State: "FT", Name: "Full Time"}})
	assert.Equal(t, 1, success)
	state, err := db.States.GetByStateID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "FT", state.State)

	success, _ = db.Bookmakers.Upsert(ctx, []*models.Bookmaker{{BookmakerID: 2, Name: "bet365"}})
	assert.Equal(t, 1, success)
	bookmaker, err := db.Bookmakers.GetByBookmakerID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "bet365", bookmaker.Name)

	success, _ = db.Markets.Upsert(ctx, []*models.Market{{MarketID: 1, Name: "Fulltime Result"}})
	assert.Equal(t, 1, success)
	market, err := db.Markets.GetByMarketID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Fulltime Result", market.Name)
}
