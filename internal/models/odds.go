package models

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// FixtureOdd is one priced outcome of a market at one bookmaker.
// (fixture, bookmaker, market, label, live) identifies the row.
type FixtureOdd struct {
	FixtureID    int64           `db:"fixture_id"`
	BookmakerID  int64           `db:"bookmaker_id"`
	MarketID     int64           `db:"market_id"`
	Label        string          `db:"label"`
	Value        sql.NullString  `db:"value"`
	DecimalValue sql.NullFloat64 `db:"decimal_value"`
	APIUpdatedAt sql.NullTime    `db:"api_updated_at"`
	IsLive       bool            `db:"is_live"`
	ExtraData    []byte          `db:"extra_data"` // JSONB
	UpdatedAt    time.Time       `db:"updated_at"`
}

// FixtureOddInput is an odds record from the API
type FixtureOddInput struct {
	ID                    int64   `json:"id"`
	FixtureID             int64   `json:"fixture_id"`
	MarketID              int64   `json:"market_id"`
	BookmakerID           int64   `json:"bookmaker_id"`
	Label                 string  `json:"label"`
	Value                 string  `json:"value"`
	Name                  string  `json:"name"`
	MarketDescription     string  `json:"market_description"`
	Probability           string  `json:"probability"`
	Fractional            string  `json:"fractional"`
	American              string  `json:"american"`
	Total                 *string `json:"total"`
	Handicap              *string `json:"handicap"`
	Winning               bool    `json:"winning"`
	Stopped               bool    `json:"stopped"`
	LatestBookmakerUpdate string  `json:"latest_bookmaker_update"`
}

// ToFixtureOdd converts FixtureOddInput (from API) to FixtureOdd model
func (oi *FixtureOddInput) ToFixtureOdd(live bool) *FixtureOdd {
	odd := &FixtureOdd{
		FixtureID:    oi.FixtureID,
		BookmakerID:  oi.BookmakerID,
		MarketID:     oi.MarketID,
		Label:        strings.TrimSpace(oi.Label),
		Value:        nullString(oi.Value),
		APIUpdatedAt: nullTime(oi.LatestBookmakerUpdate),
		IsLive:       live,
	}

	if v, err := strconv.ParseFloat(strings.TrimSpace(oi.Value), 64); err == nil {
		odd.DecimalValue = sql.NullFloat64{Float64: v, Valid: true}
	}

	extra := map[string]any{
		"odd_id":             oi.ID,
		"name":               oi.Name,
		"market_description": oi.MarketDescription,
		"probability":        oi.Probability,
		"fractional":         oi.Fractional,
		"american":           oi.American,
		"winning":            oi.Winning,
		"stopped":            oi.Stopped,
	}
	if oi.Total != nil {
		extra["total"] = *oi.Total
	}
	if oi.Handicap != nil {
		extra["handicap"] = *oi.Handicap
	}
	odd.ExtraData = marshalExtra(extra)

	return odd
}
