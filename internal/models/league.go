package models

import (
	"database/sql"
	"time"
)

// League represents a competition
type League struct {
	LeagueID  int64          `db:"league_id"`
	CountryID sql.NullInt64  `db:"country_id"`
	Name      string         `db:"name"`
	ShortCode sql.NullString `db:"short_code"`
	LogoURL   sql.NullString `db:"logo_url"`
	Type      sql.NullString `db:"type"`
	Active    bool           `db:"active"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// LeagueInput is a league record from the API
type LeagueInput struct {
	ID           int64              `json:"id"`
	CountryID    *int64             `json:"country_id"`
	Name         string             `json:"name"`
	ShortCode    string             `json:"short_code"`
	ImagePath    string             `json:"image_path"`
	Type         string             `json:"type"`
	Active       bool               `json:"active"`
	Translations []TranslationInput `json:"translations"`
}

// ToLeague converts LeagueInput (from API) to League model
func (li *LeagueInput) ToLeague() *League {
	return &League{
		LeagueID:  li.ID,
		CountryID: nullInt64(li.CountryID),
		Name:      li.Name,
		ShortCode: nullString(li.ShortCode),
		LogoURL:   nullString(li.ImagePath),
		Type:      nullString(li.Type),
		Active:    li.Active,
	}
}

// ToTranslations returns the localised league names.
func (li *LeagueInput) ToTranslations() []*Translation {
	return translationsFor(li.ID, li.Translations)
}
