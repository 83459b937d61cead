package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"sportsdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// SeasonRepository handles season database operations
type SeasonRepository struct {
	db *Database
}

// Upsert inserts or updates seasons
func (r *SeasonRepository) Upsert(ctx context.Context, seasons []*models.Season) (int, int) {
	query := `
		INSERT INTO seasons (season_id, league_id, name, starting_at, ending_at, is_current, finished)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (season_id) DO UPDATE SET
			league_id = EXCLUDED.league_id,
			name = EXCLUDED.name,
			starting_at = EXCLUDED.starting_at,
			ending_at = EXCLUDED.ending_at,
			is_current = EXCLUDED.is_current,
			finished = EXCLUDED.finished,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "seasons", seasons,
		func(s *models.Season) string { return strconv.FormatInt(s.SeasonID, 10) },
		func(ctx context.Context, tx pgx.Tx, s *models.Season) error {
			_, err := tx.Exec(ctx, query,
				s.SeasonID, s.LeagueID, s.Name, s.StartingAt, s.EndingAt, s.IsCurrent, s.Finished,
			)
			return err
		},
	)
}

// GetBySeasonID retrieves a season by its SportMonks id
func (r *SeasonRepository) GetBySeasonID(ctx context.Context, seasonID int64) (*models.Season, error) {
	query := `
		SELECT season_id, league_id, name, starting_at, ending_at, is_current, finished, created_at, updated_at
		FROM seasons
		WHERE season_id = $1
	`

	var s models.Season
	err := r.db.Pool.QueryRow(ctx, query, seasonID).Scan(
		&s.SeasonID, &s.LeagueID, &s.Name, &s.StartingAt, &s.EndingAt,
		&s.IsCurrent, &s.Finished, &s.CreatedAt, &s.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("season not found: season_id=%d", seasonID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get season: %w", err)
	}

	return &s, nil
}

// CurrentSeasonIDs returns the ids of seasons flagged as current.
func (r *SeasonRepository) CurrentSeasonIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT season_id FROM seasons WHERE is_current ORDER BY season_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list current seasons: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan current seasons: %w", err)
	}
	return ids, nil
}
