package repository

import (
	"context"
	"fmt"

	"sportsdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// translationTable names a (<entity>_id, locale) -> name table.
type translationTable struct {
	table    string
	idColumn string
}

var (
	leagueTranslations  = translationTable{table: "league_translations", idColumn: "league_id"}
	teamTranslations    = translationTable{table: "team_translations", idColumn: "team_id"}
	fixtureTranslations = translationTable{table: "fixture_translations", idColumn: "fixture_id"}
	stateTranslations   = translationTable{table: "match_state_translations", idColumn: "state_id"}
)

func upsertTranslations(ctx context.Context, db *Database, t translationTable, records []*models.Translation) (int, int) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, locale, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (%[2]s, locale) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = NOW()
	`, t.table, t.idColumn)

	return upsertBatch(ctx, db, t.table, records,
		func(tr *models.Translation) string {
			return fmt.Sprintf("%d/%s", tr.EntityID, tr.Locale)
		},
		func(ctx context.Context, tx pgx.Tx, tr *models.Translation) error {
			_, err := tx.Exec(ctx, query, tr.EntityID, tr.Locale, tr.Name)
			return err
		},
	)
}

func listTranslations(ctx context.Context, db *Database, t translationTable, entityID int64) ([]*models.Translation, error) {
	query := fmt.Sprintf(`
		SELECT %[2]s, locale, name
		FROM %[1]s
		WHERE %[2]s = $1
		ORDER BY locale
	`, t.table, t.idColumn)

	rows, err := db.Pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.table, err)
	}
	defer rows.Close()

	var out []*models.Translation
	for rows.Next() {
		var tr models.Translation
		if err := rows.Scan(&tr.EntityID, &tr.Locale, &tr.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.table, err)
		}
		out = append(out, &tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", t.table, err)
	}

	return out, nil
}
