package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events keyed by order id so all events of one order land
// on the same partition.
type Kafka struct {
	w messageWriter
}

// kafkaBatchTimeout bounds how long a publish waits for more messages to
// batch with. Events are published one at a time on the request path.
const kafkaBatchTimeout = 10 * time.Millisecond

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: kafkaBatchTimeout,
		WriteTimeout: 5 * time.Second,
	}}
}

func (p *Kafka) Publish(ctx context.Context, e OrderEvent) error {
	body, err := e.encode()
	if err != nil {
		return err
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: body,
		Time:  e.Occurred,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", e.Type, err)
	}
	return nil
}

func (p *Kafka) Close() error {
	return p.w.Close()
}
