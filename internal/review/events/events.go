// Package events publishes review change events to the review stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"vouch/internal/review/models"
)

// Producer is the subset of the Kafka producer used here.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaPublisher writes events keyed by agency ID so one agency's events stay
// ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal review event: %w", err)
	}
	return p.producer.Publish(ctx, p.topic, []byte(event.AgencyID), payload)
}

// Decode parses a payload written by KafkaPublisher.
func Decode(payload []byte) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.Event{}, fmt.Errorf("decode review event: %w", err)
	}
	return event, nil
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, models.Event) error { return nil }
