package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

func sampleEvent() OrderEvent {
	return OrderEvent{
		Type:     TypeStatusChanged,
		OrderID:  "665f",
		From:     domain.StatusAwaiting,
		To:       domain.StatusProcessing,
		Actor:    "admin",
		Occurred: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

type recordingChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
	closed        bool
}

func (c *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func (c *recordingChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublish(t *testing.T) {
	ch := &recordingChannel{}
	p := &AMQP{ch: ch, exchange: "orders_topic"}

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))

	assert.Equal(t, "orders_topic", ch.exchange)
	assert.Equal(t, "order.status_changed.665f", ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var got OrderEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, sampleEvent(), got)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublishError(t *testing.T) {
	p := &AMQP{ch: &recordingChannel{err: errors.New("channel closed")}, exchange: "x"}
	assert.ErrorContains(t, p.Publish(context.Background(), sampleEvent()), "channel closed")
}

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublish(t *testing.T) {
	w := &recordingWriter{}
	p := &Kafka{w: w}

	e := sampleEvent()
	e.Type = TypeDeleted
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "665f", string(w.msgs[0].Key))
	assert.Equal(t, "type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, TypeDeleted, string(w.msgs[0].Headers[0].Value))
	assert.NoError(t, p.Close())
}

func TestNewKafkaDoesNotWaitToBatch(t *testing.T) {
	p := NewKafka([]string{"localhost:9092"}, "admin.orders")
	w, ok := p.w.(*kafka.Writer)
	require.True(t, ok)

	assert.Equal(t, 1, w.BatchSize)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.NoError(t, p.Close())
}

func TestKafkaPublishError(t *testing.T) {
	p := &Kafka{w: &recordingWriter{err: errors.New("leader not available")}}
	assert.Error(t, p.Publish(context.Background(), sampleEvent()))
}

func TestNew(t *testing.T) {
	p, err := New(Config{Backend: "none"}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))

	p, err = New(Config{Backend: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "t"}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &Kafka{}, p)

	_, err = New(Config{Backend: "carrier-pigeon"}, slog.Default())
	assert.Error(t, err)
}
