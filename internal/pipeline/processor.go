package pipeline

import (
	"context"
	"time"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/collector"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/config"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/events"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/geo"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/salary"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/skills"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/store"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Processor runs one pipeline stage at a time. Every stage reads the previous
// stage's file and writes its own; nothing is written when the input is missing.
type Processor struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	config    *config.Config
	salary    *salary.Normalizer
	engine    *skills.Engine
	memo      *geo.Memo
	collector *collector.Collector
	sink      store.Sink
	publisher events.Publisher
}

func NewProcessor(
	logger *zap.Logger,
	config *config.Config,
	engine *skills.Engine,
	memo *geo.Memo,
	collector *collector.Collector,
	sink store.Sink,
	publisher events.Publisher,
) *Processor {
	return &Processor{
		logger:    logger,
		tracer:    telemetry.GetTracer("vacancylens/pipeline"),
		config:    config,
		salary:    salary.NewNormalizer(config.GrossUpFactor, config.SupportedCurrency),
		engine:    engine,
		memo:      memo,
		collector: collector,
		sink:      sink,
		publisher: publisher,
	}
}

// finish logs the report and hands it to the optional warehouse and event bus.
// Neither failure undoes a stage whose output is already on disk.
func (p *Processor) finish(ctx context.Context, report *RunReport) {
	report.Finished = time.Now()
	report.Log(p.logger)

	if err := p.sink.SaveStageRun(ctx, report.stageRun()); err != nil {
		p.logger.Warn("failed to export stage run", zap.String("stage", report.Stage), zap.Error(err))
	}
	if err := p.publisher.PublishStageCompleted(ctx, report.event()); err != nil {
		p.logger.Warn("failed to publish stage event", zap.String("stage", report.Stage), zap.Error(err))
	}
}
