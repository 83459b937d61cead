package repository

import (
	"context"
	"fmt"
	"strconv"

	"sportsdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// EventRepository handles fixture event database operations
type EventRepository struct {
	db *Database
}

// Upsert inserts or updates match events
func (r *EventRepository) Upsert(ctx context.Context, events []*models.FixtureEvent) (int, int) {
	query := `
		INSERT INTO fixture_events (
			event_id, fixture_id, team_id, player_id, player_name, related_player_id,
			related_player_name, type_id, type_name, minute, extra_minute, period_id,
			info, extra_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (event_id) DO UPDATE SET
			fixture_id = EXCLUDED.fixture_id,
			team_id = EXCLUDED.team_id,
			player_id = EXCLUDED.player_id,
			player_name = EXCLUDED.player_name,
			related_player_id = EXCLUDED.related_player_id,
			related_player_name = EXCLUDED.related_player_name,
			type_id = EXCLUDED.type_id,
			type_name = EXCLUDED.type_name,
			minute = EXCLUDED.minute,
			extra_minute = EXCLUDED.extra_minute,
			period_id = EXCLUDED.period_id,
			info = EXCLUDED.info,
			extra_data = EXCLUDED.extra_data,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "fixture_events", events,
		func(e *models.FixtureEvent) string { return strconv.FormatInt(e.EventID, 10) },
		func(ctx context.Context, tx pgx.Tx, e *models.FixtureEvent) error {
			_, err := tx.Exec(ctx, query,
				e.EventID, e.FixtureID, e.TeamID, e.PlayerID, e.PlayerName, e.RelatedPlayerID,
				e.RelatedPlayerName, e.TypeID, e.TypeName, e.Minute, e.ExtraMinute, e.PeriodID,
				e.Info, e.ExtraData,
			)
			return err
		},
	)
}

// GetByFixture retrieves the events of a fixture in match order
func (r *EventRepository) GetByFixture(ctx context.Context, fixtureID int64) ([]*models.FixtureEvent, error) {
	query := `
		SELECT event_id, fixture_id, team_id, player_id, player_name, related_player_id,
		       related_player_name, type_id, type_name, minute, extra_minute, period_id,
		       info, extra_data, updated_at
		FROM fixture_events
		WHERE fixture_id = $1
		ORDER BY minute NULLS LAST, extra_minute NULLS FIRST, event_id
	`

	rows, err := r.db.Pool.Query(ctx, query, fixtureID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*models.FixtureEvent
	for rows.Next() {
		var e models.FixtureEvent
		err := rows.Scan(
			&e.EventID, &e.FixtureID, &e.TeamID, &e.PlayerID, &e.PlayerName, &e.RelatedPlayerID,
			&e.RelatedPlayerName, &e.TypeID, &e.TypeName, &e.Minute, &e.ExtraMinute, &e.PeriodID,
			&e.Info, &e.ExtraData, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}
