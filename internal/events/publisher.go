package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventPublisher publishes domain events to the message broker
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// topicForEvent maps event types to broker topics. Everything under one
// application topic for now, split when consumers need it.
func topicForEvent(event *Event) string {
	switch event.Type {
	case EventMessageSent:
		return "case-service.messages"
	default:
		return "case-service.applications"
	}
}

// WatermillEventPublisher publishes events through any watermill publisher
type WatermillEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewGoChannelEventPublisher builds an in-process publisher. Used in
// single-node deployments and as the default when Kafka is not configured.
func NewGoChannelEventPublisher(logger *slog.Logger) *WatermillEventPublisher {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)

	return &WatermillEventPublisher{
		publisher: pubSub,
		logger:    logger,
	}
}

// NewKafkaEventPublisher builds a Kafka-backed publisher
func NewKafkaEventPublisher(brokers []string, logger *slog.Logger) (*WatermillEventPublisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &WatermillEventPublisher{
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Publish marshals the event and sends it to the topic for its type
func (p *WatermillEventPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.Type)
	msg.Metadata.Set("source", event.Source)

	topic := topicForEvent(event)
	if err := p.publisher.Publish(topic, msg); err != nil {
		p.logger.Error("Failed to publish event",
			"error", err,
			"event_type", event.Type,
			"topic", topic)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", topic)

	return nil
}

// Close shuts down the underlying publisher
func (p *WatermillEventPublisher) Close() error {
	return p.publisher.Close()
}

// Subscriber returns the in-process subscriber side when the publisher is
// a GoChannel, nil otherwise. In-process consumers use this to attach.
func (p *WatermillEventPublisher) Subscriber() message.Subscriber {
	if sub, ok := p.publisher.(message.Subscriber); ok {
		return sub
	}
	return nil
}
