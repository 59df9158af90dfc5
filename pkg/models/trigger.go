package models

import (
	"errors"

	"github.com/robfig/cron/v3"
)

// TriggerEvent identifies the external condition that initiates a workflow run.
type TriggerEvent string

const (
	EventMessageReceived TriggerEvent = "message_received"
	EventTaskCompleted   TriggerEvent = "task_completed"
	EventScheduleTime    TriggerEvent = "schedule_time"
	EventCustomerAction  TriggerEvent = "customer_action"
	EventDataThreshold   TriggerEvent = "data_threshold"
	EventAPIWebhook      TriggerEvent = "api_webhook"
)

// TriggerEvents lists every known trigger event.
var TriggerEvents = []TriggerEvent{
	EventMessageReceived,
	EventTaskCompleted,
	EventScheduleTime,
	EventCustomerAction,
	EventDataThreshold,
	EventAPIWebhook,
}

// Known reports whether the event is one of the supported trigger events.
func (e TriggerEvent) Known() bool {
	for _, known := range TriggerEvents {
		if e == known {
			return true
		}
	}

	return false
}

// Schedule carries the cron expression for a schedule_time trigger.
// Uses standard 5-field cron format (minute hour day month weekday).
type Schedule struct {
	CronExpression string `json:"cron_expression"`
	Timezone       string `json:"timezone,omitempty"`
}

var ErrInvalidCronExpression = errors.New("invalid cron expression")

// Validate parses the cron expression with the 5-field parser.
func (s *Schedule) Validate() error {
	if s.CronExpression == "" {
		return ErrInvalidCronExpression
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	_, err := parser.Parse(s.CronExpression)
	if err != nil {
		return errors.Join(ErrInvalidCronExpression, err)
	}

	return nil
}

// Trigger is a declarative condition that initiates a workflow run when
// satisfied externally. The initiation mechanism itself lives outside the
// engine; the engine only validates and stores the declaration.
type Trigger struct {
	Event      TriggerEvent   `json:"event"      validate:"required"`
	Conditions map[string]any `json:"conditions,omitempty"`
	Schedule   *Schedule      `json:"schedule,omitempty"` // required when Event is schedule_time
}

// Copy returns a deep copy of the trigger.
func (t *Trigger) Copy() *Trigger {
	copied := &Trigger{Event: t.Event}

	if t.Conditions != nil {
		copied.Conditions = make(map[string]any, len(t.Conditions))
		for k, v := range t.Conditions {
			copied.Conditions[k] = v
		}
	}

	if t.Schedule != nil {
		schedule := *t.Schedule
		copied.Schedule = &schedule
	}

	return copied
}
