package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Klorm286/data-analyst-market-analysis-russia/common/telemetry"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/config"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("vacancylens/events")

const (
	StageCompletedSubject = "vacancies.stage.completed"
)

type StageCompleted struct {
	RunID      string         `json:"run_id"`
	Stage      string         `json:"stage"`
	Input      string         `json:"input,omitempty"`
	Output     string         `json:"output,omitempty"`
	InputRows  int            `json:"input_rows"`
	OutputRows int            `json:"output_rows"`
	Counts     map[string]int `json:"counts,omitempty"`
	FinishedAt time.Time      `json:"finished_at"`
}

type Publisher interface {
	PublishStageCompleted(ctx context.Context, event StageCompleted) error
	Close()
}

type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

type natsPublisher struct {
	conn   conn
	logger *zap.Logger
}

// NewPublisher connects to NATS_URL. Without one, events are dropped.
func NewPublisher(logger *zap.Logger, config *config.Config) (Publisher, error) {
	if config.NATSURL == "" {
		return noopPublisher{}, nil
	}

	opts := []nats.Option{
		nats.Timeout(config.NATSConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	nc, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}

	return &natsPublisher{
		conn:   nc,
		logger: logger,
	}, nil
}

func (p *natsPublisher) PublishStageCompleted(ctx context.Context, event StageCompleted) error {
	_, span := tracer.Start(ctx, "PublishStageCompleted")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling stage event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", StageCompletedSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(StageCompletedSubject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish stage event",
			zap.String("stage", event.Stage),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published stage event",
		zap.String("stage", event.Stage),
		zap.String("run_id", event.RunID),
		zap.String("subject", StageCompletedSubject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

type noopPublisher struct{}

func (noopPublisher) PublishStageCompleted(context.Context, StageCompleted) error { return nil }
func (noopPublisher) Close()                                                      {}
