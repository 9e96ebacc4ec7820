package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/district-stress-dashboard/internal/config"
	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
	"github.com/couchcryptid/district-stress-dashboard/internal/observability"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Order is the message value for one deployment order.
type Order struct {
	domain.District
	Region      string          `json:"region"`
	Scenario    domain.Scenario `json:"scenario"`
	PublishedAt time.Time       `json:"published_at"`
}

// Publisher sends deployment schedules to the orders topic.
type Publisher struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured orders topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaOrdersTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newPublisher(w, metrics, logger)
}

func newPublisher(w messageWriter, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// PublishOrders writes one message per order in a single WriteMessages call
// and returns the number published. Orders of a district share a key, so they
// land on the same partition.
func (p *Publisher) PublishOrders(ctx context.Context, region string, scenario domain.Scenario, orders []domain.District) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	publishedAt := domain.Now()
	msgs := make([]kafkago.Message, len(orders))
	for i := range orders {
		msg, err := serializeToMessage(Order{
			District:    orders[i],
			Region:      region,
			Scenario:    scenario,
			PublishedAt: publishedAt,
		})
		if err != nil {
			p.metrics.PublishErrors.Inc()
			return 0, err
		}
		msgs[i] = msg
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.PublishErrors.Inc()
		return 0, fmt.Errorf("publish orders: %w", err)
	}

	p.metrics.OrdersPublished.Add(float64(len(msgs)))
	p.logger.Info("orders published", "region", region, "mode", scenario.Mode, "count", len(msgs))
	return len(msgs), nil
}

// Close flushes pending writes and closes the producer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Order into a Kafka message.
func serializeToMessage(order Order) (kafkago.Message, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize order %s: %w", order.Key(), err)
	}
	return kafkago.Message{
		Key:   []byte(order.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(order.Region)},
			{Key: "priority", Value: []byte(order.Priority.String())},
			{Key: "scenario", Value: []byte(order.Scenario.Mode)},
			{Key: "published_at", Value: []byte(order.PublishedAt.Format(time.RFC3339))},
		},
	}, nil
}
