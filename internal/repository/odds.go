package repository

import (
	"context"
	"fmt"

	"sportsdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// OddsRepository handles fixture odds database operations
type OddsRepository struct {
	db *Database
}

// Upsert inserts or updates odds keyed by
// (fixture, bookmaker, market, label, is_live)
func (r *OddsRepository) Upsert(ctx context.Context, odds []*models.FixtureOdd) (int, int) {
	query := `
		INSERT INTO fixture_odds (
			fixture_id, bookmaker_id, market_id, label, value, decimal_value,
			api_updated_at, is_live, extra_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fixture_id, bookmaker_id, market_id, label, is_live) DO UPDATE SET
			value = EXCLUDED.value,
			decimal_value = EXCLUDED.decimal_value,
			api_updated_at = EXCLUDED.api_updated_at,
			extra_data = EXCLUDED.extra_data,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "fixture_odds", odds,
		func(o *models.FixtureOdd) string {
			return fmt.Sprintf("%d/%d/%d/%s/%t", o.FixtureID, o.BookmakerID, o.MarketID, o.Label, o.IsLive)
		},
		func(ctx context.Context, tx pgx.Tx, o *models.FixtureOdd) error {
			_, err := tx.Exec(ctx, query,
				o.FixtureID, o.BookmakerID, o.MarketID, o.Label, o.Value, o.DecimalValue,
				o.APIUpdatedAt, o.IsLive, o.ExtraData,
			)
			return err
		},
	)
}

// GetByFixture retrieves every stored price of a fixture
func (r *OddsRepository) GetByFixture(ctx context.Context, fixtureID int64) ([]*models.FixtureOdd, error) {
	query := `
		SELECT fixture_id, bookmaker_id, market_id, label, value, decimal_value,
		       api_updated_at, is_live, extra_data, updated_at
		FROM fixture_odds
		WHERE fixture_id = $1
		ORDER BY bookmaker_id, market_id, label, is_live
	`

	rows, err := r.db.Pool.Query(ctx, query, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get odds: %w", err)
	}
	defer rows.Close()

	var odds []*models.FixtureOdd
	for rows.Next() {
		var o models.FixtureOdd
		err := rows.Scan(
			&o.FixtureID, &o.BookmakerID, &o.MarketID, &o.Label, &o.Value, &o.DecimalValue,
			&o.APIUpdatedAt, &o.IsLive, &o.ExtraData, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan odds: %w", err)
		}
		odds = append(odds, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating odds: %w", err)
	}

	return odds, nil
}
