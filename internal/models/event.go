package models

import (
	"database/sql"
	"time"
)

// FixtureEvent is a goal, card, substitution or similar match event
type FixtureEvent struct {
	EventID           int64          `db:"event_id"`
	FixtureID         int64          `db:"fixture_id"`
	TeamID            sql.NullInt64  `db:"team_id"`
	PlayerID          sql.NullInt64  `db:"player_id"`
	PlayerName        sql.NullString `db:"player_name"`
	RelatedPlayerID   sql.NullInt64  `db:"related_player_id"`
	RelatedPlayerName sql.NullString `db:"related_player_name"`
	TypeID            sql.NullInt64  `db:"type_id"`
	TypeName          sql.NullString `db:"type_name"`
	Minute            sql.NullInt32  `db:"minute"`
	ExtraMinute       sql.NullInt32  `db:"extra_minute"`
	PeriodID          sql.NullInt64  `db:"period_id"`
	Info              sql.NullString `db:"info"`
	ExtraData         []byte         `db:"extra_data"` // JSONB
	UpdatedAt         time.Time      `db:"updated_at"`
}

// EventInput is an event record from the events include
type EventInput struct {
	ID                int64  `json:"id"`
	FixtureID         int64  `json:"fixture_id"`
	ParticipantID     *int64 `json:"participant_id"`
	TypeID            *int64 `json:"type_id"`
	SubTypeID         *int64 `json:"sub_type_id"`
	PeriodID          *int64 `json:"period_id"`
	PlayerID          *int64 `json:"player_id"`
	PlayerName        string `json:"player_name"`
	RelatedPlayerID   *int64 `json:"related_player_id"`
	RelatedPlayerName string `json:"related_player_name"`
	Minute            *int   `json:"minute"`
	ExtraMinute       *int   `json:"extra_minute"`
	Info              string `json:"info"`
	Addition          string `json:"addition"`
	Result            string `json:"result"`
	Injured           *bool  `json:"injured"`
	OnBench           bool   `json:"on_bench"`
	SortOrder         *int   `json:"sort_order"`
	Type              *struct {
		Name string `json:"name"`
	} `json:"type,omitempty"`
}

// ToFixtureEvent converts EventInput (from API) to FixtureEvent model
func (ei *EventInput) ToFixtureEvent() *FixtureEvent {
	event := &FixtureEvent{
		EventID:           ei.ID,
		FixtureID:         ei.FixtureID,
		TeamID:            nullInt64(ei.ParticipantID),
		PlayerID:          nullInt64(ei.PlayerID),
		PlayerName:        nullString(ei.PlayerName),
		RelatedPlayerID:   nullInt64(ei.RelatedPlayerID),
		RelatedPlayerName: nullString(ei.RelatedPlayerName),
		TypeID:            nullInt64(ei.TypeID),
		Minute:            nullInt32(ei.Minute),
		ExtraMinute:       nullInt32(ei.ExtraMinute),
		PeriodID:          nullInt64(ei.PeriodID),
		Info:              nullString(ei.Info),
	}
	if ei.Type != nil {
		event.TypeName = nullString(ei.Type.Name)
	}

	extra := map[string]any{
		"addition": ei.Addition,
		"result":   ei.Result,
	}
	if ei.SubTypeID != nil {
		extra["sub_type_id"] = *ei.SubTypeID
	}
	if ei.Injured != nil {
		extra["injured"] = *ei.Injured
	}
	if ei.OnBench {
		extra["on_bench"] = true
	}
	if ei.SortOrder != nil {
		extra["sort_order"] = *ei.SortOrder
	}
	event.ExtraData = marshalExtra(extra)

	return event
}
