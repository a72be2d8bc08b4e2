// Package kafka publishes registry events to a Kafka topic using franz-go.
// Records are keyed by content id (falling back to the source identity) so a
// record's lifecycle lands in one partition in order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"veracity/internal/registry/events"
)

// Publisher is an events.Sink backed by a Kafka producer.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher dials the given brokers and verifies connectivity.
func NewPublisher(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(0),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka brokers: %w", err)
	}
	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Emit produces the event synchronously. A broker outage surfaces to the
// caller; the registry write itself has already committed.
func (p *Publisher) Emit(ctx context.Context, event events.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := string(event.ContentID)
	if key == "" {
		key = string(event.Publisher)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.logger.ErrorContext(ctx, "event publish failed",
			"topic", p.topic,
			"event_type", string(event.Type),
			"error", err.Error(),
		)
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the producer.
func (p *Publisher) Close() {
	p.client.Close()
}
