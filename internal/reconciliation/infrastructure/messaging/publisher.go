// Package messaging adapts the Kafka producer to the domain's event port.
package messaging

import (
	"context"
	"time"

	"github.com/casadecor/backoffice/pkg/mq"
)

// KafkaPublisher implements domain.EventPublisher over pkg/mq.
type KafkaPublisher struct {
	producer *mq.Producer
}

func NewKafkaPublisher(brokers []string, maxRetries int, retryBackoff time.Duration) *KafkaPublisher {
	return &KafkaPublisher{producer: mq.NewProducer(brokers, maxRetries, retryBackoff)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	return p.producer.SendMessage(ctx, topic, key, event)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
