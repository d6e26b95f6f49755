package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = telemetry.GetTracer("vacancylens/geo")

// Geocoder resolves a city name. An unknown city is not an error: it returns
// Coordinates with nil fields.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (Coordinates, error)
}

type NominatimOptions struct {
	BaseURL   string
	UserAgent string
	Country   string
	Interval  time.Duration
	Timeout   time.Duration
}

type nominatimGeocoder struct {
	client  *http.Client
	logger  *zap.Logger
	opts    NominatimOptions
	limiter *rate.Limiter
}

func NewNominatimGeocoder(logger *zap.Logger, opts NominatimOptions) Geocoder {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &nominatimGeocoder{
		client:  &http.Client{Timeout: opts.Timeout},
		logger:  logger,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
	}
}

type nominatimPlace struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *nominatimGeocoder) Geocode(ctx context.Context, city string) (Coordinates, error) {
	ctx, span := tracer.Start(ctx, "Geocode")
	defer span.End()
	span.SetAttributes(telemetry.String("geo.city", city))

	if err := g.limiter.Wait(ctx); err != nil {
		return Coordinates{}, err
	}

	query := city
	if g.opts.Country != "" {
		query = fmt.Sprintf("%s, %s", city, g.opts.Country)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	endpoint := fmt.Sprintf("%s/search?%s", g.opts.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Coordinates{}, errors.Internal("creating request", err)
	}
	req.Header.Set("User-Agent", g.opts.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return Coordinates{}, errors.Unavailable("executing geocode request", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			g.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Coordinates{}, errors.RateLimit("geocoder rate limit", nil)
	case resp.StatusCode != http.StatusOK:
		return Coordinates{}, errors.Unavailable(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, errors.Internal("decoding geocode response", err)
	}
	if len(places) == 0 {
		span.SetAttributes(telemetry.Bool("geo.resolved", false))
		return Coordinates{}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, errors.Internal("parsing latitude", err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, errors.Internal("parsing longitude", err)
	}
	span.SetAttributes(
		telemetry.Bool("geo.resolved", true),
		telemetry.Float64("geo.lat", lat),
		telemetry.Float64("geo.lon", lon),
	)
	return NewCoordinates(lat, lon), nil
}
