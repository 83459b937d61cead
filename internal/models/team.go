package models

import (
	"database/sql"
	"time"
)

// Team represents a club or national team
type Team struct {
	TeamID        int64          `db:"team_id"`
	CountryID     sql.NullInt64  `db:"country_id"`
	Name          string         `db:"name"`
	ShortCode     sql.NullString `db:"short_code"`
	LogoURL       sql.NullString `db:"logo_url"`
	Founded       sql.NullInt32  `db:"founded"`
	VenueName     sql.NullString `db:"venue_name"`
	VenueCapacity sql.NullInt32  `db:"venue_capacity"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// TeamInput is used for creating/updating teams
type TeamInput struct {
	ID           int64              `json:"id"`
	CountryID    *int64             `json:"country_id"`
	Name         string             `json:"name"`
	ShortCode    string             `json:"short_code"`
	ImagePath    string             `json:"image_path"`
	Founded      *int               `json:"founded"`
	Venue        *VenueInput        `json:"venue,omitempty"` // present with include=venue
	Translations []TranslationInput `json:"translations"`
}

// VenueInput is the subset of a venue include stored on the team row
type VenueInput struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Capacity *int   `json:"capacity"`
}

// ToTeam converts TeamInput (from API) to Team model
func (ti *TeamInput) ToTeam() *Team {
	team := &Team{
		TeamID:    ti.ID,
		CountryID: nullInt64(ti.CountryID),
		Name:      ti.Name,
		ShortCode: nullString(ti.ShortCode),
		LogoURL:   nullString(ti.ImagePath),
		Founded:   nullInt32(ti.Founded),
	}

	if ti.Venue != nil {
		team.VenueName = nullString(ti.Venue.Name)
		team.VenueCapacity = nullInt32(ti.Venue.Capacity)
	}

	return team
}

// ToTranslations returns the localised team names.
func (ti *TeamInput) ToTranslations() []*Translation {
	return translationsFor(ti.ID, ti.Translations)
}
