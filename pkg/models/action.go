package models

import (
	"encoding/json"
	"fmt"
)

// ActionType identifies the unit of work an action performs during a run.
type ActionType string

const (
	ActionSendMessage    ActionType = "send_message"
	ActionCreateTask     ActionType = "create_task"
	ActionUpdateData     ActionType = "update_data"
	ActionNotifyUser     ActionType = "notify_user"
	ActionAPICall        ActionType = "api_call"
	ActionAssignAgent    ActionType = "assign_agent"
	ActionEscalateIssue  ActionType = "escalate_issue"
	ActionGenerateReport ActionType = "generate_report"
)

// ActionTypes lists every known action type.
var ActionTypes = []ActionType{
	ActionSendMessage,
	ActionCreateTask,
	ActionUpdateData,
	ActionNotifyUser,
	ActionAPICall,
	ActionAssignAgent,
	ActionEscalateIssue,
	ActionGenerateReport,
}

// Known reports whether the type is one of the supported action types.
func (t ActionType) Known() bool {
	for _, known := range ActionTypes {
		if t == known {
			return true
		}
	}

	return false
}

const (
	DefaultMaxAttempts       = 3
	DefaultBackoffMultiplier = 2.0
)

// RetryConfig bounds the retry behaviour of a single action. The delay before
// the nth retry is BackoffMultiplier^n seconds, so the sequence is strictly
// increasing for multipliers above 1.
type RetryConfig struct {
	MaxAttempts       int     `json:"max_attempts"       validate:"omitempty,min=1"`
	BackoffMultiplier float64 `json:"backoff_multiplier" validate:"omitempty,min=1"`
}

// Normalize fills zero values with the documented defaults and clamps the
// fields to their minimums.
func (r *RetryConfig) Normalize() {
	if r.MaxAttempts < 1 {
		r.MaxAttempts = DefaultMaxAttempts
	}

	if r.BackoffMultiplier < 1 {
		r.BackoffMultiplier = DefaultBackoffMultiplier
	}
}

// Action is one unit of work performed during a workflow run. Parameters is a
// tagged union decoded by action type when the definition is unmarshalled, so
// a missing or malformed parameter set is caught at construction time instead
// of at dispatch time.
type Action struct {
	Type        ActionType   `json:"type"`
	Parameters  ActionParams `json:"parameters"`
	RetryConfig RetryConfig  `json:"retry_config"`
}

// Copy returns a deep copy of the action.
func (a *Action) Copy() *Action {
	copied := &Action{
		Type:        a.Type,
		RetryConfig: a.RetryConfig,
	}

	if a.Parameters != nil {
		copied.Parameters = a.Parameters.copy()
	}

	return copied
}

type actionEnvelope struct {
	Type        ActionType      `json:"type"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	RetryConfig RetryConfig     `json:"retry_config"`
}

// UnmarshalJSON decodes the parameters object into the variant matching the
// action type. Unknown types fail here so an invalid definition never reaches
// the dispatcher.
func (a *Action) UnmarshalJSON(data []byte) error {
	var envelope actionEnvelope

	err := json.Unmarshal(data, &envelope)
	if err != nil {
		return err
	}

	params, err := DecodeParams(envelope.Type, envelope.Parameters)
	if err != nil {
		return fmt.Errorf("action %q: %w", envelope.Type, err)
	}

	envelope.RetryConfig.Normalize()

	a.Type = envelope.Type
	a.Parameters = params
	a.RetryConfig = envelope.RetryConfig

	return nil
}

func (a Action) MarshalJSON() ([]byte, error) {
	var (
		raw json.RawMessage
		err error
	)

	if a.Parameters != nil {
		raw, err = json.Marshal(a.Parameters)
		if err != nil {
			return nil, err
		}
	}

	return json.Marshal(actionEnvelope{
		Type:        a.Type,
		Parameters:  raw,
		RetryConfig: a.RetryConfig,
	})
}
