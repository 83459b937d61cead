package models

import (
	"database/sql"
	"time"
)

// Season is one edition of a league
type Season struct {
	SeasonID   int64        `db:"season_id"`
	LeagueID   int64        `db:"league_id"`
	Name       string       `db:"name"`
	StartingAt sql.NullTime `db:"starting_at"`
	EndingAt   sql.NullTime `db:"ending_at"`
	IsCurrent  bool         `db:"is_current"`
	Finished   bool         `db:"finished"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

// SeasonInput is a season record from the API
type SeasonInput struct {
	ID         int64  `json:"id"`
	LeagueID   int64  `json:"league_id"`
	Name       string `json:"name"`
	StartingAt string `json:"starting_at"`
	EndingAt   string `json:"ending_at"`
	IsCurrent  bool   `json:"is_current"`
	Finished   bool   `json:"finished"`
}

// ToSeason converts SeasonInput (from API) to Season model
func (si *SeasonInput) ToSeason() *Season {
	return &Season{
		SeasonID:   si.ID,
		LeagueID:   si.LeagueID,
		Name:       si.Name,
		StartingAt: nullTime(si.StartingAt),
		EndingAt:   nullTime(si.EndingAt),
		IsCurrent:  si.IsCurrent,
		Finished:   si.Finished,
	}
}
