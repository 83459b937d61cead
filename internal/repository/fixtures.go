package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"sportsdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// FixtureRepository handles fixture database operations
type FixtureRepository struct {
	db *Database
}

const fixtureColumns = `
	fixture_id, league_id, season_id, venue_id, home_team_id, away_team_id,
	starting_at, state_id, name, home_score, away_score, home_aggregate,
	away_aggregate, referee_name, extra_info, created_at, updated_at
`

// Upsert inserts or updates fixtures
func (r *FixtureRepository) Upsert(ctx context.Context, fixtures []*models.Fixture) (int, int) {
	query := `
		INSERT INTO fixtures (
			fixture_id, league_id, season_id, venue_id, home_team_id, away_team_id,
			starting_at, state_id, name, home_score, away_score, home_aggregate,
			away_aggregate, referee_name, extra_info
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (fixture_id) DO UPDATE SET
			league_id = EXCLUDED.league_id,
			season_id = EXCLUDED.season_id,
			venue_id = EXCLUDED.venue_id,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			starting_at = EXCLUDED.starting_at,
			state_id = EXCLUDED.state_id,
			name = EXCLUDED.name,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			home_aggregate = EXCLUDED.home_aggregate,
			away_aggregate = EXCLUDED.away_aggregate,
			referee_name = EXCLUDED.referee_name,
			extra_info = EXCLUDED.extra_info,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "fixtures", fixtures,
		func(f *models.Fixture) string { return strconv.FormatInt(f.FixtureID, 10) },
		func(ctx context.Context, tx pgx.Tx, f *models.Fixture) error {
			_, err := tx.Exec(ctx, query,
				f.FixtureID, f.LeagueID, f.SeasonID, f.VenueID, f.HomeTeamID, f.AwayTeamID,
				f.StartingAt, f.StateID, f.Name, f.HomeScore, f.AwayScore, f.HomeAggregate,
				f.AwayAggregate, f.RefereeName, f.ExtraInfo,
			)
			return err
		},
	)
}

// UpsertTranslations inserts or updates localised fixture names.
func (r *FixtureRepository) UpsertTranslations(ctx context.Context, translations []*models.Translation) (int, int) {
	return upsertTranslations(ctx, r.db, fixtureTranslations, translations)
}

// GetByFixtureID retrieves a fixture by its SportMonks id
func (r *FixtureRepository) GetByFixtureID(ctx context.Context, fixtureID int64) (*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + ` FROM fixtures WHERE fixture_id = $1`

	f, err := scanFixture(r.db.Pool.QueryRow(ctx, query, fixtureID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fixture not found: fixture_id=%d", fixtureID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fixture: %w", err)
	}

	return f, nil
}

// ListBetween retrieves fixtures starting in [from, to)
func (r *FixtureRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Fixture, error) {
	query := `SELECT ` + fixtureColumns + `
		FROM fixtures
		WHERE starting_at >= $1 AND starting_at < $2
		ORDER BY starting_at, fixture_id
	`

	rows, err := r.db.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	defer rows.Close()

	var fixtures []*models.Fixture
	for rows.Next() {
		f, err := scanFixture(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fixture: %w", err)
		}
		fixtures = append(fixtures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fixtures: %w", err)
	}

	return fixtures, nil
}

func scanFixture(row pgx.Row) (*models.Fixture, error) {
	var f models.Fixture
	err := row.Scan(
		&f.FixtureID, &f.LeagueID, &f.SeasonID, &f.VenueID, &f.HomeTeamID, &f.AwayTeamID,
		&f.StartingAt, &f.StateID, &f.Name, &f.HomeScore, &f.AwayScore, &f.HomeAggregate,
		&f.AwayAggregate, &f.RefereeName, &f.ExtraInfo, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
