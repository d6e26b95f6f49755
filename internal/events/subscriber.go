package events

import (
	"context"
	"encoding/json"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type HandlerFunc func(ctx context.Context, event StageCompleted) error

// Subscriber delivers stage events to a handler, one queue group member at a time.
type Subscriber struct {
	logger  *zap.Logger
	nc      *nats.Conn
	handler HandlerFunc
	sub     *nats.Subscription
}

func NewSubscriber(logger *zap.Logger, nc *nats.Conn, handler HandlerFunc) *Subscriber {
	return &Subscriber{
		logger:  logger,
		nc:      nc,
		handler: handler,
	}
}

func (s *Subscriber) Start(queue string) error {
	sub, err := s.nc.QueueSubscribe(StageCompletedSubject, queue, s.handle)
	if err != nil {
		return errors.Unavailable("subscribing to "+StageCompletedSubject, err)
	}
	s.sub = sub
	s.logger.Info("registered NATS subscription",
		zap.String("subject", StageCompletedSubject),
		zap.String("queue", queue))
	return nil
}

func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}

func (s *Subscriber) handle(msg *nats.Msg) {
	ctx, span := tracer.Start(context.Background(), "handleStageCompleted")
	defer span.End()

	event, err := Decode(msg.Data)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to decode stage event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}

	if err := s.handler(ctx, event); err != nil {
		span.RecordError(err)
		s.logger.Error("failed to handle stage event",
			zap.String("stage", event.Stage),
			zap.Error(err))
	}
}

func Decode(data []byte) (StageCompleted, error) {
	var event StageCompleted
	if err := json.Unmarshal(data, &event); err != nil {
		return event, errors.InvalidInput("decoding stage event", err)
	}
	if event.Stage == "" {
		return event, errors.InvalidInput("stage event has no stage", nil)
	}
	return event, nil
}
