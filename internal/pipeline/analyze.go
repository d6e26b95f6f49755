package pipeline

import (
	"context"
	"fmt"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/dataset"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/models"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/normalizer"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/projector"

	"go.uber.org/zap"
)

// Analyze turns detail records into the derived dataset: projection, text
// normalization, salary normalization with the currency filter, then skill flags.
func (p *Processor) Analyze(ctx context.Context, in, out string) (*RunReport, error) {
	ctx, span := p.tracer.Start(ctx, "Analyze")
	defer span.End()

	report := newRunReport(StageAnalyze, in, out)

	var records []map[string]any
	if err := dataset.ReadJSON(in, &records); err != nil {
		span.RecordError(err)
		p.logger.Error("cannot read detail records", zap.String("path", in), zap.Error(err))
		return nil, err
	}
	report.InputRows = len(records)

	postings := make([]models.Posting, 0, len(records))
	var searchable []string
	for _, record := range records {
		projection := projector.Project(record)
		posting := projection.Posting()
		for _, field := range projection.Missing {
			report.SchemaDrift[field]++
			p.logger.Debug("field omitted from projection",
				zap.String("id", posting.ID),
				zap.Error(errors.SchemaDrift(field)))
		}

		text := normalizer.Normalize(posting)
		if text.Malformed {
			report.MalformedMarkup++
			p.logger.Debug("recovered malformed markup",
				zap.String("id", posting.ID),
				zap.Error(errors.MalformedMarkup("description text extracted best-effort", nil)))
		}

		postings = append(postings, posting)
		if p.salary.Supported(posting) {
			searchable = append(searchable, text.Searchable)
		}
	}

	rows, stats := p.salary.Normalize(postings)
	report.MissingSalary = stats.MissingSalary
	report.DroppedCurrency = stats.DroppedCurrency
	if len(rows) != len(searchable) {
		return nil, fmt.Errorf("salary filter kept %d rows for %d texts", len(rows), len(searchable))
	}

	flags, err := p.engine.InferAll(ctx, searchable, p.config.SkillWorkers)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("infer skills: %w", err)
	}
	for i := range rows {
		rows[i].Skills = flags[i]
	}

	ds := dataset.Dataset{Rows: rows, SkillLabels: p.engine.Labels()}
	if err := dataset.WriteCSV(out, ds); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("write dataset: %w", err)
	}
	report.OutputRows = len(rows)

	if err := p.sink.SaveVacancies(ctx, report.RunID, rows); err != nil {
		p.logger.Warn("failed to export vacancies", zap.Error(err))
	}

	span.SetAttributes(
		telemetry.Int("analyze.input", report.InputRows),
		telemetry.Int("analyze.output", report.OutputRows),
		telemetry.Int("analyze.dropped_currency", report.DroppedCurrency),
	)
	p.finish(ctx, report)
	return report, nil
}
