package models

import (
	"encoding/json"
	"strconv"
)

// RawVacancy is one item of a search page, kept as the API returned it.
type RawVacancy map[string]any

func (v RawVacancy) ID() string {
	return idString(v["id"])
}

type SearchPage struct {
	Items   []RawVacancy `json:"items"`
	Found   int          `json:"found"`
	Pages   int          `json:"pages"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
}

// DetailRecord is the nested vacancy detail document. Its schema is owned by the
// platform and drifts, so it is never decoded into a fixed struct.
type DetailRecord map[string]any

func (d DetailRecord) ID() string {
	return idString(d["id"])
}

func (d DetailRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}

func (d *DetailRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, d)
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}
