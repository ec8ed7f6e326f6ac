// Package mq wraps the Kafka producer used for domain events.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/casadecor/backoffice/pkg/logging"
)

// Producer publishes JSON messages to Kafka topics.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer builds a producer for the given brokers. Topics are set per
// message so one producer serves all event streams.
func NewProducer(brokers []string, maxRetries int, retryBackoff time.Duration) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:            kafka.TCP(brokers...),
			Balancer:        &kafka.Hash{},
			MaxAttempts:     maxRetries,
			WriteBackoffMax: retryBackoff,
			RequiredAcks:    kafka.RequireOne,
			Async:           false,
		},
	}
}

// SendMessage marshals value as JSON and publishes it keyed for ordering.
func (p *Producer) SendMessage(ctx context.Context, topic, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message to %s: %w", topic, err)
	}
	logging.Debug(ctx, "message published", "topic", topic, "key", key)
	return nil
}

// Close flushes and releases the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
