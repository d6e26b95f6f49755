package pipeline

import (
	"context"
	"fmt"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/dataset"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/geo"

	"go.uber.org/zap"
)

// Geocode adds latitude and longitude columns. Unresolved cities keep their rows
// with empty coordinates.
func (p *Processor) Geocode(ctx context.Context, in, out string) (*RunReport, error) {
	ctx, span := p.tracer.Start(ctx, "Geocode")
	defer span.End()

	report := newRunReport(StageGeocode, in, out)

	ds, err := dataset.ReadCSV(in)
	if err != nil {
		span.RecordError(err)
		p.logger.Error("cannot read dataset", zap.String("path", in), zap.Error(err))
		return nil, err
	}
	report.InputRows = len(ds.Rows)

	stats := geo.NewEnricher(p.memo).Enrich(ctx, ds.Rows)
	report.UniqueCities = stats.UniqueCities
	report.UnresolvedCities = stats.UnresolvedCities
	report.UnresolvedRows = stats.UnresolvedRows
	report.GeocoderCalls = stats.GeocoderCalls

	ds.HasCoordinates = true
	if err := dataset.WriteCSV(out, ds); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("write dataset: %w", err)
	}
	report.OutputRows = len(ds.Rows)

	if err := p.sink.SaveVacancies(ctx, report.RunID, ds.Rows); err != nil {
		p.logger.Warn("failed to export vacancies", zap.Error(err))
	}

	span.SetAttributes(
		telemetry.Int("geocode.unique_cities", stats.UniqueCities),
		telemetry.Int("geocode.unresolved_cities", stats.UnresolvedCities),
	)
	p.finish(ctx, report)
	return report, nil
}
