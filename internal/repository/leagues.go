package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"sportsdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// LeagueRepository handles league database operations
type LeagueRepository struct {
	db *Database
}

// Upsert inserts or updates leagues and reports how many rows succeeded
// and failed.
func (r *LeagueRepository) Upsert(ctx context.Context, leagues []*models.League) (int, int) {
	query := `
		INSERT INTO leagues (league_id, country_id, name, short_code, logo_url, type, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (league_id) DO UPDATE SET
			country_id = EXCLUDED.country_id,
			name = EXCLUDED.name,
			short_code = EXCLUDED.short_code,
			logo_url = EXCLUDED.logo_url,
			type = EXCLUDED.type,
			active = EXCLUDED.active,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "leagues", leagues,
		func(l *models.League) string { return strconv.FormatInt(l.LeagueID, 10) },
		func(ctx context.Context, tx pgx.Tx, l *models.League) error {
			_, err := tx.Exec(ctx, query,
				l.LeagueID, l.CountryID, l.Name, l.ShortCode, l.LogoURL, l.Type, l.Active,
			)
			return err
		},
	)
}

// UpsertTranslations inserts or updates localised league names.
func (r *LeagueRepository) UpsertTranslations(ctx context.Context, translations []*models.Translation) (int, int) {
	return upsertTranslations(ctx, r.db, leagueTranslations, translations)
}

// Translations lists the stored translations of a league.
func (r *LeagueRepository) Translations(ctx context.Context, leagueID int64) ([]*models.Translation, error) {
	return listTranslations(ctx, r.db, leagueTranslations, leagueID)
}

// GetByLeagueID retrieves a league by its SportMonks id
func (r *LeagueRepository) GetByLeagueID(ctx context.Context, leagueID int64) (*models.League, error) {
	query := `
		SELECT league_id, country_id, name, short_code, logo_url, type, active, created_at, updated_at
		FROM leagues
		WHERE league_id = $1
	`

	var l models.League
	err := r.db.Pool.QueryRow(ctx, query, leagueID).Scan(
		&l.LeagueID, &l.CountryID, &l.Name, &l.ShortCode, &l.LogoURL,
		&l.Type, &l.Active, &l.CreatedAt, &l.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("league not found: league_id=%d", leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}

	return &l, nil
}
