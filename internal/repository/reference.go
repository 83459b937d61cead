package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"sportsdata/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// MatchStateRepository handles fixture state database operations
type MatchStateRepository struct {
	db *Database
}

// Upsert inserts or updates match states
func (r *MatchStateRepository) Upsert(ctx context.Context, states []*models.MatchState) (int, int) {
	query := `
		INSERT INTO match_states (state_id, state, name, short_name, developer_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (state_id) DO UPDATE SET
			state = EXCLUDED.state,
			name = EXCLUDED.name,
			short_name = EXCLUDED.short_name,
			developer_name = EXCLUDED.developer_name,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "match_states", states,
		func(s *models.MatchState) string { return strconv.FormatInt(s.StateID, 10) },
		func(ctx context.Context, tx pgx.Tx, s *models.MatchState) error {
			_, err := tx.Exec(ctx, query, s.StateID, s.State, s.Name, s.ShortName, s.DeveloperName)
			return err
		},
	)
}

// UpsertTranslations inserts or updates localised state names.
func (r *MatchStateRepository) UpsertTranslations(ctx context.Context, translations []*models.Translation) (int, int) {
	return upsertTranslations(ctx, r.db, stateTranslations, translations)
}

// GetByStateID retrieves a match state by its SportMonks id
func (r *MatchStateRepository) GetByStateID(ctx context.Context, stateID int64) (*models.MatchState, error) {
	query := `
		SELECT state_id, state, name, short_name, developer_name, updated_at
		FROM match_states
		WHERE state_id = $1
	`

	var s models.MatchState
	err := r.db.Pool.QueryRow(ctx, query, stateID).Scan(
		&s.StateID, &s.State, &s.Name, &s.ShortName, &s.DeveloperName, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("match state not found: state_id=%d", stateID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match state: %w", err)
	}

	return &s, nil
}

// BookmakerRepository handles bookmaker database operations
type BookmakerRepository struct {
	db *Database
}

// Upsert inserts or updates bookmakers
func (r *BookmakerRepository) Upsert(ctx context.Context, bookmakers []*models.Bookmaker) (int, int) {
	query := `
		INSERT INTO bookmakers (bookmaker_id, name, logo_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (bookmaker_id) DO UPDATE SET
			name = EXCLUDED.name,
			logo_url = EXCLUDED.logo_url,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "bookmakers", bookmakers,
		func(b *models.Bookmaker) string { return strconv.FormatInt(b.BookmakerID, 10) },
		func(ctx context.Context, tx pgx.Tx, b *models.Bookmaker) error {
			_, err := tx.Exec(ctx, query, b.BookmakerID, b.Name, b.LogoURL)
			return err
		},
	)
}

// GetByBookmakerID retrieves a bookmaker by its SportMonks id
func (r *BookmakerRepository) GetByBookmakerID(ctx context.Context, bookmakerID int64) (*models.Bookmaker, error) {
	var b models.Bookmaker
	err := r.db.Pool.QueryRow(ctx,
		`SELECT bookmaker_id, name, logo_url, updated_at FROM bookmakers WHERE bookmaker_id = $1`,
		bookmakerID,
	).Scan(&b.BookmakerID, &b.Name, &b.LogoURL, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bookmaker not found: bookmaker_id=%d", bookmakerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmaker: %w", err)
	}

	return &b, nil
}

// MarketRepository handles betting market database operations
type MarketRepository struct {
	db *Database
}

// Upsert inserts or updates markets
func (r *MarketRepository) Upsert(ctx context.Context, markets []*models.Market) (int, int) {
	query := `
		INSERT INTO markets (market_id, name, developer_name, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (market_id) DO UPDATE SET
			name = EXCLUDED.name,
			developer_name = EXCLUDED.developer_name,
			description = EXCLUDED.description,
			updated_at = NOW()
	`

	return upsertBatch(ctx, r.db, "markets", markets,
		func(m *models.Market) string { return strconv.FormatInt(m.MarketID, 10) },
		func(ctx context.Context, tx pgx.Tx, m *models.Market) error {
			_, err := tx.Exec(ctx, query, m.MarketID, m.Name, m.DeveloperName, m.Description)
			return err
		},
	)
}

// GetByMarketID retrieves a market by its SportMonks id
func (r *MarketRepository) GetByMarketID(ctx context.Context, marketID int64) (*models.Market, error) {
	var m models.Market
	err := r.db.Pool.QueryRow(ctx,
		`SELECT market_id, name, developer_name, description, updated_at FROM markets WHERE market_id = $1`,
		marketID,
	).Scan(&m.MarketID, &m.Name, &m.DeveloperName, &m.Description, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("market not found: market_id=%d", marketID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}

	return &m, nil
}
