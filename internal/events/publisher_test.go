package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockEventBridge struct {
	inputs []*eventbridge.PutEventsInput
	out    *eventbridge.PutEventsOutput
	err    error
}

func (m *mockEventBridge) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	if m.out != nil {
		return m.out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func TestEventBridgePublisher_Publish(t *testing.T) {
	client := &mockEventBridge{}
	p := NewEventBridgePublisher(client, "notes-bus", zap.NewNop())
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.Publish(context.Background(), Event{
		Type:     NoteCreated,
		UserID:   "u1",
		EntityID: "n1",
		Detail:   map[string]string{"categoryId": "c1"},
	})

	require.Len(t, client.inputs, 1)
	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "notes-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, DefaultSource, aws.ToString(entry.Source))
	assert.Equal(t, NoteCreated, aws.ToString(entry.DetailType))
	assert.Equal(t, fixed, aws.ToTime(entry.Time))
	assert.Equal(t, []string{"n1"}, entry.Resources)

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "u1", detail["userId"])
}

func TestEventBridgePublisher_DefaultBus(t *testing.T) {
	client := &mockEventBridge{}
	NewEventBridgePublisher(client, "", zap.NewNop()).Publish(context.Background(), Event{Type: NoteDeleted})
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "default", aws.ToString(client.inputs[0].Entries[0].EventBusName))
}

func TestEventBridgePublisher_FailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	client := &mockEventBridge{err: errors.New("throttled")}
	NewEventBridgePublisher(client, "bus", zap.New(core)).Publish(context.Background(), Event{Type: NoteUpdated})
	assert.Equal(t, 1, logs.FilterMessage("Failed to publish event").Len())

	client = &mockEventBridge{out: &eventbridge.PutEventsOutput{FailedEntryCount: 1}}
	NewEventBridgePublisher(client, "bus", zap.New(core)).Publish(context.Background(), Event{Type: NoteUpdated})
	assert.Equal(t, 2, logs.FilterMessage("Failed to publish event").Len())
}
