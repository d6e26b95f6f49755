package geo

import (
	"context"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
)

type Stats struct {
	Rows             int
	UniqueCities     int
	ResolvedCities   int
	UnresolvedCities int
	UnresolvedRows   int
	GeocoderCalls    int
}

type Enricher struct {
	memo *Memo
}

func NewEnricher(memo *Memo) *Enricher {
	return &Enricher{memo: memo}
}

// Enrich attaches coordinates to every row in place. Rows are never dropped.
func (e *Enricher) Enrich(ctx context.Context, rows []models.DerivedPosting) Stats {
	stats := Stats{Rows: len(rows)}
	callsBefore := e.memo.Calls()
	byCity := make(map[string]Coordinates)

	for i := range rows {
		city := CleanCity(rows[i].City)
		coords, ok := byCity[city]
		if !ok {
			coords = e.memo.Lookup(ctx, city)
			byCity[city] = coords
			if coords.Resolved() {
				stats.ResolvedCities++
			} else {
				stats.UnresolvedCities++
			}
		}
		rows[i].Latitude = coords.Latitude
		rows[i].Longitude = coords.Longitude
		if !coords.Resolved() {
			stats.UnresolvedRows++
		}
	}

	stats.UniqueCities = len(byCity)
	stats.GeocoderCalls = e.memo.Calls() - callsBefore
	return stats
}
