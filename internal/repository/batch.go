package repository

import (
	"context"
	"time"

	"sportsdata/ingestion/internal/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// upsertBatch writes records in one transaction, each inside its own
// savepoint. A failing record is rolled back to its savepoint and counted
// as a failure; the rest of the batch still commits. If the transaction
// itself cannot begin or commit, nothing is persisted and every record is
// reported as failed.
func upsertBatch[T any](
	ctx context.Context,
	db *Database,
	table string,
	records []T,
	key func(T) string,
	exec func(ctx context.Context, tx pgx.Tx, rec T) error,
) (success, failure int) {
	if len(records) == 0 {
		return 0, 0
	}

	start := time.Now()
	defer func() {
		metrics.RecordUpsert(table, success, failure, time.Since(start).Seconds())
	}()

	tx, err := db.beginner.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("Failed to begin upsert transaction")
		return 0, len(records)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, rec := range records {
		sp, err := tx.Begin(ctx)
		if err != nil {
			log.Error().Err(err).Str("table", table).Msg("Failed to create savepoint, aborting batch")
			return 0, len(records)
		}

		if err := exec(ctx, sp, rec); err != nil {
			_ = sp.Rollback(ctx)
			failure++
			log.Error().
				Err(err).
				Str("table", table).
				Str("key", key(rec)).
				Msg("Failed to upsert record")
			continue
		}

		if err := sp.Commit(ctx); err != nil {
			log.Error().Err(err).Str("table", table).Msg("Failed to release savepoint, aborting batch")
			return 0, len(records)
		}
		success++
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error().Err(err).Str("table", table).Msg("Failed to commit upsert transaction")
		return 0, len(records)
	}

	log.Debug().
		Str("table", table).
		Int("success", success).
		Int("failure", failure).
		Msg("Batch upsert complete")

	return success, failure
}
