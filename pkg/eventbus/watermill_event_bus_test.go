package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeskhq/flowdesk/pkg/channels/gochannel"
	"github.com/flowdeskhq/flowdesk/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	publisher, subscriber, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(publisher, subscriber)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBusRoutesByEventType(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan any, 1)

	require.NoError(t, bus.Handle(events.NotificationQueuedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	// No handler is registered for this type; the subscriber acks and skips it.
	unmatched := events.ActionFailed{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.ActionFailedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-1",
		},
		ExecutionID: "exec-1",
		ActionType:  "api_call",
		Error:       "connection refused",
	}
	require.NoError(t, bus.Publish(t.Context(), "wf-1", unmatched))

	queued := events.NotificationQueued{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.NotificationQueuedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-1",
		},
		ExecutionID: "exec-1",
		Recipient:   "user-1",
		Message:     "order shipped",
	}
	require.NoError(t, bus.Publish(t.Context(), "wf-1", queued))

	select {
	case got := <-received:
		delivered, ok := got.(*events.NotificationQueued)
		require.True(t, ok)
		assert.Equal(t, "order shipped", delivered.Message)
		assert.Equal(t, "user-1", delivered.Recipient)
		assert.Equal(t, "exec-1", delivered.ExecutionID)
	case <-time.After(5 * time.Second):
		t.Fatal("queued notification was never delivered")
	}
}

func TestWatermillEventBusHandlesFailureAlerts(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan any, 1)

	require.NoError(t, bus.Handle(events.ActionFailedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	failed := events.ActionFailed{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.ActionFailedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: "wf-2",
		},
		ExecutionID: "exec-2",
		ActionType:  "create_task",
		Attempts:    3,
		Error:       "task backend unavailable",
		Message:     "task sync broke",
	}
	require.NoError(t, bus.Publish(t.Context(), "wf-2", failed))

	select {
	case got := <-received:
		delivered, ok := got.(*events.ActionFailed)
		require.True(t, ok)
		assert.Equal(t, "task sync broke", delivered.Message)
		assert.Equal(t, 3, delivered.Attempts)
	case <-time.After(5 * time.Second):
		t.Fatal("failure alert was never delivered")
	}
}
