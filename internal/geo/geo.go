package geo

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanCity drops any parenthetical qualifier, e.g. a metro station or district.
// The result is only a lookup key for coordinates, NFC-normalized so composed and
// decomposed spellings share one cache entry.
func CleanCity(raw string) string {
	before, _, _ := strings.Cut(raw, "(")
	return norm.NFC.String(strings.TrimSpace(before))
}

type Coordinates struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
}

func NewCoordinates(lat, lon float64) Coordinates {
	return Coordinates{Latitude: &lat, Longitude: &lon}
}

func (c Coordinates) Resolved() bool {
	return c.Latitude != nil && c.Longitude != nil
}

func (c Coordinates) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}

func (c *Coordinates) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, c)
}
