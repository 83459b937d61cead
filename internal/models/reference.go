package models

import (
	"database/sql"
	"time"
)

// MatchState is a fixture status such as NS, LIVE or FT
type MatchState struct {
	StateID       int64          `db:"state_id"`
	State         string         `db:"state"`
	Name          string         `db:"name"`
	ShortName     sql.NullString `db:"short_name"`
	DeveloperName sql.NullString `db:"developer_name"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// MatchStateInput is a state record from the API
type MatchStateInput struct {
	ID            int64              `json:"id"`
	State         string             `json:"state"`
	Name          string             `json:"name"`
	ShortName     string             `json:"short_name"`
	DeveloperName string             `json:"developer_name"`
	Translations  []TranslationInput `json:"translations"`
}

// ToMatchState converts MatchStateInput (from API) to MatchState model
func (mi *MatchStateInput) ToMatchState() *MatchState {
	return &MatchState{
		StateID:       mi.ID,
		State:         mi.State,
		Name:          mi.Name,
		ShortName:     nullString(mi.ShortName),
		DeveloperName: nullString(mi.DeveloperName),
	}
}

// ToTranslations returns the localised state names.
func (mi *MatchStateInput) ToTranslations() []*Translation {
	return translationsFor(mi.ID, mi.Translations)
}

// Bookmaker is an odds provider
type Bookmaker struct {
	BookmakerID int64          `db:"bookmaker_id"`
	Name        string         `db:"name"`
	LogoURL     sql.NullString `db:"logo_url"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// BookmakerInput is a bookmaker record from the API
type BookmakerInput struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ImagePath string `json:"image_path"`
}

// ToBookmaker converts BookmakerInput (from API) to Bookmaker model
func (bi *BookmakerInput) ToBookmaker() *Bookmaker {
	return &Bookmaker{
		BookmakerID: bi.ID,
		Name:        bi.Name,
		LogoURL:     nullString(bi.ImagePath),
	}
}

// Market is a betting market such as "Fulltime Result"
type Market struct {
	MarketID      int64          `db:"market_id"`
	Name          string         `db:"name"`
	DeveloperName sql.NullString `db:"developer_name"`
	Description   sql.NullString `db:"description"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// MarketInput is a market record from the API
type MarketInput struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	DeveloperName string `json:"developer_name"`
	Description   string `json:"description"`
}

// ToMarket converts MarketInput (from API) to Market model
func (mi *MarketInput) ToMarket() *Market {
	return &Market{
		MarketID:      mi.ID,
		Name:          mi.Name,
		DeveloperName: nullString(mi.DeveloperName),
		Description:   nullString(mi.Description),
	}
}
