// Package events publishes itinerary lifecycle events to Kafka. Consumers
// downstream (trip feeds, analytics) key on trip id, so all events for one
// trip land on one partition in order.
package events

import (
	"context"
	"time"

	"tripflow/pkg/kafka"
	"tripflow/pkg/logger"
)

const (
	TopicScheduleSaved = "itinerary.schedule.saved"
	TopicScheduleDLQ   = "itinerary.schedule.saved.dlq"

	EventTypeScheduleSaved = "schedule.saved"

	schemaVersion = "1"
	sourceService = "itinerary"
)

type ScheduleSavedEvent struct {
	TripID  string    `json:"trip_id"`
	Version int64     `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

type Publisher interface {
	PublishScheduleSaved(ctx context.Context, event ScheduleSavedEvent) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log}
}

func (p *kafkaPublisher) PublishScheduleSaved(ctx context.Context, event ScheduleSavedEvent) error {
	msg := kafka.NewMessage().
		WithKey(event.TripID).
		WithValue(event).
		WithEventType(EventTypeScheduleSaved).
		WithSchemaVersion(schemaVersion).
		WithSource(sourceService).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish schedule.saved event",
			"trip_id", event.TripID,
			"version", event.Version,
			"error", err,
		)
		return err
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// noopPublisher is used when Kafka is disabled.
type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishScheduleSaved(ctx context.Context, event ScheduleSavedEvent) error {
	return nil
}

func (noopPublisher) Close() error { return nil }
