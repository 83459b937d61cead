package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"sportsdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

// Upsert inserts or updates teams (for the nightly refresh)
func (r *TeamRepository) Upsert(ctx context.Context, teams []*models.Team) (int, int) {
	query := `
		INSERT INTO teams (
			team_id, country_id, name, short_code, logo_url, founded,
			venue_name, venue_capacity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (team_id) DO UPDATE SET
			country_id = EXCLUDED.country_id,
			name = EXCLUDED.name,
			short_code = EXCLUDED.short_code,
			logo_url = EXCLUDED.logo_url,
			founded = EXCLUDED.founded,
			venue_name = EXCLUDED.venue_name,
			venue_capacity = EXCLUDED.venue_capacity,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "teams", teams,
		func(t *models.Team) string { return strconv.FormatInt(t.TeamID, 10) },
		func(ctx context.Context, tx pgx.Tx, t *models.Team) error {
			_, err := tx.Exec(ctx, query,
				t.TeamID, t.CountryID, t.Name, t.ShortCode, t.LogoURL, t.Founded,
				t.VenueName, t.VenueCapacity,
			)
			return err
		},
	)
}

// UpsertTranslations inserts or updates localised team names.
func (r *TeamRepository) UpsertTranslations(ctx context.Context, translations []*models.Translation) (int, int) {
	return upsertTranslations(ctx, r.db, teamTranslations, translations)
}

// Translations lists the stored translations of a team.
func (r *TeamRepository) Translations(ctx context.Context, teamID int64) ([]*models.Translation, error) {
	return listTranslations(ctx, r.db, teamTranslations, teamID)
}

// GetByTeamID retrieves a team by its SportMonks id
func (r *TeamRepository) GetByTeamID(ctx context.Context, teamID int64) (*models.Team, error) {
	query := `
		SELECT team_id, country_id, name, short_code, logo_url, founded,
		       venue_name, venue_capacity, created_at, updated_at
		FROM teams
		WHERE team_id = $1
	`

	var team models.Team
	err := r.db.Pool.QueryRow(ctx, query, teamID).Scan(
		&team.TeamID, &team.CountryID, &team.Name, &team.ShortCode,
		&team.LogoURL, &team.Founded, &team.VenueName, &team.VenueCapacity,
		&team.CreatedAt, &team.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team not found: team_id=%d", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// List retrieves all teams
func (r *TeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `
		SELECT team_id, country_id, name, short_code, logo_url, founded,
		       venue_name, venue_capacity, created_at, updated_at
		FROM teams
		ORDER BY name
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var team models.Team
		err := rows.Scan(
			&team.TeamID, &team.CountryID, &team.Name, &team.ShortCode,
			&team.LogoURL, &team.Founded, &team.VenueName, &team.VenueCapacity,
			&team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}
