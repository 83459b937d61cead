package ingest

import (
	"context"
	"errors"

	"sportsdata/ingestion/internal/models"
	"sportsdata/ingestion/internal/repository"
)

// LeagueStore persists leagues.
type LeagueStore interface {
	Upsert(ctx context.Context, leagues []*models.League) (int, int)
	UpsertTranslations(ctx context.Context, translations []*models.Translation) (int, int)
}

// SeasonStore persists seasons and lists the current ones.
type SeasonStore interface {
	Upsert(ctx context.Context, seasons []*models.Season) (int, int)
	CurrentSeasonIDs(ctx context.Context) ([]int64, error)
}

// TeamStore persists teams.
type TeamStore interface {
	Upsert(ctx context.Context, teams []*models.Team) (int, int)
	UpsertTranslations(ctx context.Context, translations []*models.Translation) (int, int)
}

// StateStore persists fixture states.
type StateStore interface {
	Upsert(ctx context.Context, states []*models.MatchState) (int, int)
	UpsertTranslations(ctx context.Context, translations []*models.Translation) (int, int)
}

// BookmakerStore persists bookmakers.
type BookmakerStore interface {
	Upsert(ctx context.Context, bookmakers []*models.Bookmaker) (int, int)
}

// MarketStore persists markets.
type MarketStore interface {
	Upsert(ctx context.Context, markets []*models.Market) (int, int)
}

// FixtureStore persists fixtures.
type FixtureStore interface {
	Upsert(ctx context.Context, fixtures []*models.Fixture) (int, int)
	UpsertTranslations(ctx context.Context, translations []*models.Translation) (int, int)
}

// OddsStore persists fixture odds.
type OddsStore interface {
	Upsert(ctx context.Context, odds []*models.FixtureOdd) (int, int)
}

// EventStore persists match events.
type EventStore interface {
	Upsert(ctx context.Context, events []*models.FixtureEvent) (int, int)
}

// Stores groups the persistence targets of every job.
type Stores struct {
	Leagues    LeagueStore
	Seasons    SeasonStore
	Teams      TeamStore
	States     StateStore
	Bookmakers BookmakerStore
	Markets    MarketStore
	Fixtures   FixtureStore
	Odds       OddsStore
	Events     EventStore
}

// StoresFrom wires the repositories of db.
func StoresFrom(db *repository.Database) Stores {
	return Stores{
		Leagues:    db.Leagues,
		Seasons:    db.Seasons,
		Teams:      db.Teams,
		States:     db.States,
		Bookmakers: db.Bookmakers,
		Markets:    db.Markets,
		Fixtures:   db.Fixtures,
		Odds:       db.Odds,
		Events:     db.Events,
	}
}

func (s Stores) validate() error {
	if s.Leagues == nil || s.Seasons == nil || s.Teams == nil || s.States == nil ||
		s.Bookmakers == nil || s.Markets == nil || s.Fixtures == nil || s.Odds == nil || s.Events == nil {
		return errors.New("ingest: every store is required")
	}
	return nil
}
