package main

import (
	"context"
	"log/slog"

	"github.com/flowdeskhq/flowdesk/pkg/eventbus"
	"github.com/flowdeskhq/flowdesk/pkg/events"
)

// Notifier consumes notification events off the bus and dispatches them.
// The log sink stands in for delivery transports; a mail or chat client
// plugs into these handlers.
type Notifier struct {
	logger   *slog.Logger
	eventBus eventbus.EventBus
}

func NewNotifier(eventBus eventbus.EventBus, logger *slog.Logger) *Notifier {
	return &Notifier{
		logger:   logger.With("module", "notifier"),
		eventBus: eventBus,
	}
}

func (n *Notifier) Start(ctx context.Context) error {
	err := n.eventBus.Handle(events.NotificationQueuedEvent, n.handleNotificationQueued)
	if err != nil {
		return err
	}

	err = n.eventBus.Handle(events.ActionFailedEvent, n.handleActionFailed)
	if err != nil {
		return err
	}

	err = n.eventBus.Subscribe(ctx)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	n.logger.InfoContext(ctx, "Notifier started")

	return nil
}

func (n *Notifier) handleNotificationQueued(ctx context.Context, event any) error {
	queued, ok := event.(*events.NotificationQueued)
	if !ok {
		n.logger.ErrorContext(ctx, "Invalid event type for NotificationQueued")

		return nil
	}

	n.logger.InfoContext(ctx, "Dispatching notification",
		"workflow_id", queued.WorkflowID,
		"execution_id", queued.ExecutionID,
		"recipient", queued.Recipient,
		"channel", queued.Channel,
		"urgency", queued.Urgency,
		"message", queued.Message,
	)

	return nil
}

func (n *Notifier) handleActionFailed(ctx context.Context, event any) error {
	failed, ok := event.(*events.ActionFailed)
	if !ok {
		n.logger.ErrorContext(ctx, "Invalid event type for ActionFailed")

		return nil
	}

	message := failed.Message
	if message == "" {
		message = failed.Error
	}

	n.logger.WarnContext(ctx, "Dispatching failure alert",
		"workflow_id", failed.WorkflowID,
		"execution_id", failed.ExecutionID,
		"action_type", failed.ActionType,
		"attempts", failed.Attempts,
		"message", message,
	)

	return nil
}
