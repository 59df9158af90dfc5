// Package events defines event types and structures for workflow run notifications.
package events

import (
	"time"
)

type EventType string

// Topic carries every workflow run event.
const Topic = "flowdesk.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"

	// ActionFailedEvent doubles as the notify-on-error hook: subscribers turn
	// it into user-facing notifications.
	ActionFailedEvent EventType = "action.failed"

	// NotificationQueuedEvent carries outbound messages produced by
	// send_message and notify_user actions.
	NotificationQueuedEvent EventType = "notification.queued"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID    string `json:"execution_id"`
	ExecutionOrder string `json:"execution_order"`
	ActionCount    int    `json:"action_count"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Success     bool          `json:"success"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ActionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	ActionType  string `json:"action_type"`
	ActionIndex int    `json:"action_index"`
	Attempts    int    `json:"attempts"`
	Error       string `json:"error"`
	// Message carries the workflow's configured error message, when set.
	Message string `json:"message,omitempty"`
}

func (e ActionFailed) GetType() EventType {
	return ActionFailedEvent
}

type NotificationQueued struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Recipient   string `json:"recipient,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Message     string `json:"message"`
	Urgency     string `json:"urgency,omitempty"`
}

func (e NotificationQueued) GetType() EventType {
	return NotificationQueuedEvent
}
