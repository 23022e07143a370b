// Package events publishes domain events about notes and categories.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"
)

// Event types.
const (
	NoteCreated     = "note.created"
	NoteUpdated     = "note.updated"
	NoteDeleted     = "note.deleted"
	CategoryCreated = "category.created"
	CategoryUpdated = "category.updated"
	CategoryDeleted = "category.deleted"
)

// DefaultSource is the EventBridge source of every event.
const DefaultSource = "notes-service"

// Event is a single domain event.
type Event struct {
	Type     string      `json:"type"`
	UserID   string      `json:"userId"`
	EntityID string      `json:"entityId"`
	Detail   interface{} `json:"detail,omitempty"`
}

// Publisher delivers events. Delivery is best effort: implementations log
// failures instead of returning them, so a write that already succeeded is
// never reported as failed.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// EventBridgeAPI is the subset of the EventBridge client the publisher uses.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher implements Publisher using AWS EventBridge.
type EventBridgePublisher struct {
	client   EventBridgeAPI
	eventBus string
	source   string
	logger   *zap.Logger
	now      func() time.Time
}

// NewEventBridgePublisher creates a publisher for eventBus.
func NewEventBridgePublisher(client EventBridgeAPI, eventBus string, logger *zap.Logger) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	return &EventBridgePublisher{
		client:   client,
		eventBus: eventBus,
		source:   DefaultSource,
		logger:   logger,
		now:      time.Now,
	}
}

// Publish sends event to EventBridge.
func (p *EventBridgePublisher) Publish(ctx context.Context, event Event) {
	if err := p.publish(ctx, event); err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("type", event.Type),
			zap.String("entity_id", event.EntityID),
			zap.Error(err))
	}
}

func (p *EventBridgePublisher) publish(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	output, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(p.eventBus),
			Source:       aws.String(p.source),
			DetailType:   aws.String(event.Type),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(p.now()),
			Resources:    []string{event.EntityID},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to put events: %w", err)
	}
	if output.FailedEntryCount > 0 {
		return fmt.Errorf("%d events failed to publish", output.FailedEntryCount)
	}
	return nil
}

// LogPublisher writes events to the log. It is used when no event bus is
// configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs event at debug level.
func (p *LogPublisher) Publish(_ context.Context, event Event) {
	p.logger.Debug("Domain event",
		zap.String("type", event.Type),
		zap.String("user_id", event.UserID),
		zap.String("entity_id", event.EntityID),
		zap.Any("detail", event.Detail))
}
