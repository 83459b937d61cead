package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// providerTimeLayouts are the timestamp formats SportMonks emits.
var providerTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02",
}

// ParseProviderTime parses a SportMonks timestamp as UTC.
func ParseProviderTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range providerTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// TranslationInput is one entry of a SportMonks translations include.
type TranslationInput struct {
	Locale string `json:"locale"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Translation is a localised name shared by every translated entity.
type Translation struct {
	EntityID int64  `db:"entity_id"`
	Locale   string `db:"locale"`
	Name     string `db:"name"`
}

// translationsFor keeps the non-empty "name" translations of one entity.
func translationsFor(entityID int64, in []TranslationInput) []*Translation {
	var out []*Translation
	for _, t := range in {
		if t.Locale == "" || strings.TrimSpace(t.Value) == "" {
			continue
		}
		if t.Column != "" && t.Column != "name" {
			continue
		}
		out = append(out, &Translation{EntityID: entityID, Locale: t.Locale, Name: strings.TrimSpace(t.Value)})
	}
	return out
}

// Decode unmarshals one raw API record into T.
func Decode[T any](raw json.RawMessage) (*T, error) {
	var v T
	if err := jsonAPI.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// marshalExtra encodes provider fields without a dedicated column. An empty
// map yields nil so the column stays NULL.
func marshalExtra(fields map[string]any) []byte {
	for k, v := range fields {
		if v == nil || v == "" {
			delete(fields, k)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	b, err := jsonAPI.Marshal(fields)
	if err != nil {
		return nil
	}
	return b
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt32(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func nullTime(raw string) sql.NullTime {
	if strings.TrimSpace(raw) == "" {
		return sql.NullTime{}
	}
	t, err := ParseProviderTime(raw)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
