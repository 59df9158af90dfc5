// Package messaging executes send_message and notify_user actions by queueing
// outbound notifications on the event bus. Delivery itself (mail, chat, push)
// is handled by downstream consumers.
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowdeskhq/flowdesk/pkg/eventbus"
	"github.com/flowdeskhq/flowdesk/pkg/events"
	"github.com/flowdeskhq/flowdesk/pkg/models"
)

type Handler struct {
	bus    eventbus.EventBus
	logger *slog.Logger
}

func NewHandler(bus eventbus.EventBus, logger *slog.Logger) *Handler {
	return &Handler{
		bus:    bus,
		logger: logger.With("module", "messaging_action"),
	}
}

func (h *Handler) Execute(ctx context.Context, params models.ActionParams, execCtx models.ExecutionContext) error {
	event := events.NotificationQueued{
		BaseEvent: events.BaseEvent{
			ID:         h.bus.GenerateID(),
			Type:       events.NotificationQueuedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: execCtx.Workflow.ID,
		},
		ExecutionID: execCtx.ID,
	}

	switch p := params.(type) {
	case *models.SendMessageParams:
		event.Message = p.Message
		event.Recipient = p.Recipient
		event.Channel = p.Channel
	case *models.NotifyUserParams:
		event.Message = p.Message
		event.Recipient = p.UserID
		event.Urgency = p.Urgency
	default:
		return fmt.Errorf("messaging handler received %T parameters", params)
	}

	err := h.bus.Publish(ctx, execCtx.Workflow.ID, event)
	if err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}

	h.logger.InfoContext(ctx, "Queued outbound notification",
		"execution_id", execCtx.ID,
		"recipient", event.Recipient,
	)

	return nil
}
