package geo

import (
	"context"
	stderrors "errors"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/cache"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"

	"go.uber.org/zap"
)

// Memo resolves each city at most once per process. Definite answers, found or
// not found, are also written to the backing store so later runs skip the
// geocoder. Failed lookups stay in memory only and are retried on the next run.
type Memo struct {
	geocoder Geocoder
	store    cache.Cache
	logger   *zap.Logger
	seen     map[string]Coordinates
	calls    int
}

func NewMemo(geocoder Geocoder, store cache.Cache, logger *zap.Logger) *Memo {
	return &Memo{
		geocoder: geocoder,
		store:    store,
		logger:   logger,
		seen:     make(map[string]Coordinates),
	}
}

// Lookup returns the coordinates for city, calling the geocoder only when neither
// the in-process map nor the store knows it. Geocoder failures yield an
// unresolved pair, never an error.
func (m *Memo) Lookup(ctx context.Context, city string) Coordinates {
	if c, ok := m.seen[city]; ok {
		return c
	}
	if city == "" {
		m.seen[city] = Coordinates{}
		return Coordinates{}
	}

	var cached Coordinates
	err := m.store.Get(ctx, city, &cached)
	if err == nil {
		m.seen[city] = cached
		return cached
	} else if !stderrors.Is(err, cache.ErrNotFound) {
		m.logger.Warn("geocode cache read failed", zap.String("city", city), zap.Error(err))
	}

	m.calls++
	coords, err := m.geocoder.Geocode(ctx, city)
	if err != nil {
		m.logger.Warn("geocoding failed", zap.String("city", city), zap.Error(errors.UnresolvedGeocode(city, err)))
		m.seen[city] = Coordinates{}
		return Coordinates{}
	}

	m.seen[city] = coords
	if err := m.store.Set(ctx, city, coords, 0); err != nil {
		m.logger.Warn("geocode cache write failed", zap.String("city", city), zap.Error(err))
	}
	return coords
}

// Calls is the number of geocoder invocations made by this memo.
func (m *Memo) Calls() int {
	return m.calls
}
