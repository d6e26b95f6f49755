package pipeline

import (
	"context"
	"fmt"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/dataset"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"

	"go.uber.org/zap"
)

// Fetch stores the search results for query.
func (p *Processor) Fetch(ctx context.Context, query, out string) (*RunReport, error) {
	ctx, span := p.tracer.Start(ctx, "Fetch")
	defer span.End()

	if p.collector == nil {
		return nil, errors.Internal("no vacancy collector configured", nil)
	}
	report := newRunReport(StageFetch, "", out)

	raws, stats, err := p.collector.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	report.InputRows = stats.Found

	if err := dataset.WriteJSON(out, raws); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("write search results: %w", err)
	}
	report.OutputRows = len(raws)

	p.finish(ctx, report)
	return report, nil
}

// Enrich replaces each search result with its detail record. Vacancies that fail
// to load are left out and counted.
func (p *Processor) Enrich(ctx context.Context, in, out string) (*RunReport, error) {
	ctx, span := p.tracer.Start(ctx, "Enrich")
	defer span.End()

	if p.collector == nil {
		return nil, errors.Internal("no vacancy collector configured", nil)
	}
	report := newRunReport(StageEnrich, in, out)

	var raws []models.RawVacancy
	if err := dataset.ReadJSON(in, &raws); err != nil {
		span.RecordError(err)
		p.logger.Error("cannot read search results", zap.String("path", in), zap.Error(err))
		return nil, err
	}
	report.InputRows = len(raws)

	details, stats, err := p.collector.Enrich(ctx, raws)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	report.FailedDetails = int(stats.Failed + stats.Skipped)

	if err := dataset.WriteJSON(out, details); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("write detail records: %w", err)
	}
	report.OutputRows = len(details)

	p.finish(ctx, report)
	return report, nil
}
