package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/config"
	"github.com/Klorm286/data-analyst-market-analysis-russia/internal/errors"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
	closed  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	c.subject = subject
	c.data = data
	return c.err
}

func (c *fakeConn) Close() { c.closed = true }

func TestPublishStageCompleted(t *testing.T) {
	conn := &fakeConn{}
	p := &natsPublisher{conn: conn, logger: zap.NewNop()}

	event := StageCompleted{
		RunID:      "run-1",
		Stage:      "analyze",
		InputRows:  3,
		OutputRows: 2,
		Counts:     map[string]int{"dropped_currency": 1},
		FinishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishStageCompleted(context.Background(), event))
	assert.Equal(t, StageCompletedSubject, conn.subject)

	got, err := Decode(conn.data)
	require.NoError(t, err)
	assert.Equal(t, event, got)

	p.Close()
	assert.True(t, conn.closed)
}

func TestPublishFailure(t *testing.T) {
	p := &natsPublisher{conn: &fakeConn{err: fmt.Errorf("nats: connection closed")}, logger: zap.NewNop()}
	err := p.PublishStageCompleted(context.Background(), StageCompleted{Stage: "geocode"})
	assert.True(t, errors.Is(err, errors.ErrTypeUnavailable))
}

func TestNewPublisherWithoutURL(t *testing.T) {
	p, err := NewPublisher(zap.NewNop(), &config.Config{})
	require.NoError(t, err)
	assert.NoError(t, p.PublishStageCompleted(context.Background(), StageCompleted{Stage: "report"}))
	p.Close()
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	_, err := Decode([]byte("{"))
	assert.True(t, errors.Is(err, errors.ErrTypeInvalidInput))

	_, err = Decode([]byte(`{"run_id": "x"}`))
	assert.True(t, errors.Is(err, errors.ErrTypeInvalidInput))
}

func TestSubscriberHandle(t *testing.T) {
	var got []string
	s := NewSubscriber(zap.NewNop(), nil, func(_ context.Context, e StageCompleted) error {
		got = append(got, e.Stage)
		return nil
	})

	s.handle(&nats.Msg{Subject: StageCompletedSubject, Data: []byte(`{"stage": "analyze"}`)})
	s.handle(&nats.Msg{Subject: StageCompletedSubject, Data: []byte(`not json`)})
	assert.Equal(t, []string{"analyze"}, got)
	assert.NoError(t, s.Stop())
}
