package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Fixture represents a single match
type Fixture struct {
	FixtureID     int64          `db:"fixture_id"`
	LeagueID      int64          `db:"league_id"`
	SeasonID      int64          `db:"season_id"`
	VenueID       sql.NullInt64  `db:"venue_id"`
	HomeTeamID    sql.NullInt64  `db:"home_team_id"`
	AwayTeamID    sql.NullInt64  `db:"away_team_id"`
	StartingAt    time.Time      `db:"starting_at"`
	StateID       sql.NullInt64  `db:"state_id"`
	Name          sql.NullString `db:"name"`
	HomeScore     sql.NullInt32  `db:"home_score"`
	AwayScore     sql.NullInt32  `db:"away_score"`
	HomeAggregate sql.NullInt32  `db:"home_aggregate"`
	AwayAggregate sql.NullInt32  `db:"away_aggregate"`
	RefereeName   sql.NullString `db:"referee_name"`
	ExtraInfo     []byte         `db:"extra_info"` // JSONB
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// FixtureInput is a fixture record from fixtures/date/{date}
type FixtureInput struct {
	ID           int64              `json:"id"`
	LeagueID     int64              `json:"league_id"`
	SeasonID     int64              `json:"season_id"`
	VenueID      *int64             `json:"venue_id"`
	StateID      *int64             `json:"state_id"`
	Name         string             `json:"name"`
	StartingAt   string             `json:"starting_at"`
	ResultInfo   string             `json:"result_info"`
	Leg          string             `json:"leg"`
	Length       *int               `json:"length"`
	Participants []ParticipantInput `json:"participants"`
	Scores       []ScoreInput       `json:"scores"`
	Referees     []RefereeInput     `json:"referees"`
	Odds         []FixtureOddInput  `json:"odds"`
	Events       []EventInput       `json:"events"`
	Translations []TranslationInput `json:"translations"`
}

// ParticipantInput is a team taking part in a fixture
type ParticipantInput struct {
	ID   int64 `json:"id"`
	Meta struct {
		Location string `json:"location"` // "home" or "away"
	} `json:"meta"`
}

// ScoreInput is one entry of the scores include
type ScoreInput struct {
	ParticipantID int64  `json:"participant_id"`
	Description   string `json:"description"` // CURRENT, AGGREGATED, 1ST_HALF...
	Score         struct {
		Goals       int    `json:"goals"`
		Participant string `json:"participant"` // "home" or "away"
	} `json:"score"`
}

// RefereeInput is one entry of the referees include
type RefereeInput struct {
	RefereeID int64 `json:"referee_id"`
	TypeID    int64 `json:"type_id"`
	Referee   *struct {
		CommonName string `json:"common_name"`
		Name       string `json:"name"`
	} `json:"referee,omitempty"`
}

// mainRefereeTypeID is the SportMonks type for the centre referee.
const mainRefereeTypeID = 6

// ToFixture converts FixtureInput (from API) to Fixture model
func (fi *FixtureInput) ToFixture() (*Fixture, error) {
	startingAt, err := ParseProviderTime(fi.StartingAt)
	if err != nil {
		return nil, fmt.Errorf("fixture %d: %w", fi.ID, err)
	}

	fixture := &Fixture{
		FixtureID:  fi.ID,
		LeagueID:   fi.LeagueID,
		SeasonID:   fi.SeasonID,
		VenueID:    nullInt64(fi.VenueID),
		StateID:    nullInt64(fi.StateID),
		StartingAt: startingAt,
		Name:       nullString(fi.Name),
	}

	for _, p := range fi.Participants {
		switch p.Meta.Location {
		case "home":
			fixture.HomeTeamID = sql.NullInt64{Int64: p.ID, Valid: true}
		case "away":
			fixture.AwayTeamID = sql.NullInt64{Int64: p.ID, Valid: true}
		}
	}

	for _, s := range fi.Scores {
		goals := sql.NullInt32{Int32: int32(s.Score.Goals), Valid: true}
		switch strings.ToUpper(s.Description) {
		case "CURRENT":
			if s.Score.Participant == "home" {
				fixture.HomeScore = goals
			} else if s.Score.Participant == "away" {
				fixture.AwayScore = goals
			}
		case "AGGREGATED":
			if s.Score.Participant == "home" {
				fixture.HomeAggregate = goals
			} else if s.Score.Participant == "away" {
				fixture.AwayAggregate = goals
			}
		}
	}

	for _, r := range fi.Referees {
		if r.TypeID == mainRefereeTypeID && r.Referee != nil {
			fixture.RefereeName = nullString(firstNonEmpty(r.Referee.CommonName, r.Referee.Name))
			break
		}
	}

	extra := map[string]any{
		"result_info": fi.ResultInfo,
		"leg":         fi.Leg,
	}
	if fi.Length != nil {
		extra["length"] = *fi.Length
	}
	fixture.ExtraInfo = marshalExtra(extra)

	return fixture, nil
}

// ToTranslations returns the localised fixture names.
func (fi *FixtureInput) ToTranslations() []*Translation {
	return translationsFor(fi.ID, fi.Translations)
}

// ToOdds converts the nested odds include. live marks in-play prices.
func (fi *FixtureInput) ToOdds(live bool) []*FixtureOdd {
	out := make([]*FixtureOdd, 0, len(fi.Odds))
	for i := range fi.Odds {
		odd := &fi.Odds[i]
		if odd.FixtureID == 0 {
			odd.FixtureID = fi.ID
		}
		out = append(out, odd.ToFixtureOdd(live))
	}
	return out
}

// ToEvents converts the nested events include.
func (fi *FixtureInput) ToEvents() []*FixtureEvent {
	out := make([]*FixtureEvent, 0, len(fi.Events))
	for i := range fi.Events {
		event := &fi.Events[i]
		if event.FixtureID == 0 {
			event.FixtureID = fi.ID
		}
		out = append(out, event.ToFixtureEvent())
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
