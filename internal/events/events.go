// Package events publishes order changes made from the console so other
// services (notifications, reporting) can follow along.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/dikaadmin/internal/domain"
)

const (
	TypeStatusChanged = "order.status_changed"
	TypeDeleted       = "order.deleted"
)

type OrderEvent struct {
	Type     string             `json:"type"`
	OrderID  string             `json:"order_id"`
	From     domain.OrderStatus `json:"from,omitempty"`
	To       domain.OrderStatus `json:"to,omitempty"`
	Actor    string             `json:"actor,omitempty"`
	Occurred time.Time          `json:"occurred_at"`
}

// RoutingKey is the topic routing key, e.g. "order.deleted.665f".
func (e OrderEvent) RoutingKey() string {
	return e.Type + "." + e.OrderID
}

func (e OrderEvent) encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, OrderEvent) error { return nil }
func (Noop) Close() error                               { return nil }

// Config selects and configures a publisher backend.
type Config struct {
	Backend      string
	AMQPURL      string
	AMQPExchange string
	KafkaBrokers []string
	KafkaTopic   string
}

// New builds the publisher for cfg.Backend ("none", "amqp" or "kafka").
func New(cfg Config, logger *slog.Logger) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Noop{}, nil
	case "amqp":
		p, err := DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		logger.Info("publishing order events to amqp", "exchange", cfg.AMQPExchange)
		return p, nil
	case "kafka":
		logger.Info("publishing order events to kafka", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}
