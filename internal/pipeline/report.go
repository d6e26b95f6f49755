package pipeline

import (
	"context"
	"io"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/dataset"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/report"

	"go.uber.org/zap"
)

func (p *Processor) Report(ctx context.Context, in string, w io.Writer, topCities int) (*RunReport, error) {
	ctx, span := p.tracer.Start(ctx, "Report")
	defer span.End()

	run := newRunReport(StageReport, in, "")

	ds, err := dataset.ReadCSV(in)
	if err != nil {
		span.RecordError(err)
		p.logger.Error("cannot read dataset", zap.String("path", in), zap.Error(err))
		return nil, err
	}
	run.InputRows = len(ds.Rows)

	summary := report.Build(ds, topCities)
	run.MissingSalary = summary.Rows - summary.WithSalary
	if err := report.Render(w, summary); err != nil {
		span.RecordError(err)
		return nil, err
	}

	p.finish(ctx, run)
	return run, nil
}
