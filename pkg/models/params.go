package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownActionType = errors.New("unknown action type")

	ErrMissingMessage    = errors.New("send_message action requires a message parameter")
	ErrMissingTaskTitle  = errors.New("create_task action requires a title parameter")
	ErrMissingEntity     = errors.New("update_data action requires an entity parameter")
	ErrMissingRecipient  = errors.New("notify_user action requires a user_id parameter")
	ErrMissingURL        = errors.New("api_call action requires a url parameter")
	ErrMissingAgentID    = errors.New("assign_agent action requires an agent_id parameter")
	ErrMissingReason     = errors.New("escalate_issue action requires a reason parameter")
	ErrMissingReportType = errors.New("generate_report action requires a report_type parameter")
)

// ActionParams is the closed union of per-type action parameter sets. Each
// variant validates its own required fields.
type ActionParams interface {
	Kind() ActionType
	Validate() error

	// copy keeps the union closed to this package.
	copy() ActionParams
}

// SendMessageParams configures a send_message action.
type SendMessageParams struct {
	Message   string `json:"message"`
	Channel   string `json:"channel,omitempty"`
	Recipient string `json:"recipient,omitempty"`
}

func (p *SendMessageParams) Kind() ActionType { return ActionSendMessage }

func (p *SendMessageParams) Validate() error {
	if p.Message == "" {
		return ErrMissingMessage
	}

	return nil
}

func (p *SendMessageParams) copy() ActionParams {
	copied := *p

	return &copied
}

// CreateTaskParams configures a create_task action.
type CreateTaskParams struct {
	Title    string `json:"title"`
	Assignee string `json:"assignee,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
	Priority string `json:"priority,omitempty"`
}

func (p *CreateTaskParams) Kind() ActionType { return ActionCreateTask }

func (p *CreateTaskParams) Validate() error {
	if p.Title == "" {
		return ErrMissingTaskTitle
	}

	return nil
}

func (p *CreateTaskParams) copy() ActionParams {
	copied := *p

	return &copied
}

// UpdateDataParams configures an update_data action.
type UpdateDataParams struct {
	Entity string         `json:"entity"`
	Fields map[string]any `json:"fields,omitempty"`
}

func (p *UpdateDataParams) Kind() ActionType { return ActionUpdateData }

func (p *UpdateDataParams) Validate() error {
	if p.Entity == "" {
		return ErrMissingEntity
	}

	return nil
}

func (p *UpdateDataParams) copy() ActionParams {
	copied := UpdateDataParams{Entity: p.Entity}

	if p.Fields != nil {
		copied.Fields = make(map[string]any, len(p.Fields))
		for k, v := range p.Fields {
			copied.Fields[k] = v
		}
	}

	return &copied
}

// NotifyUserParams configures a notify_user action.
type NotifyUserParams struct {
	UserID  string `json:"user_id"`
	Message string `json:"message,omitempty"`
	Urgency string `json:"urgency,omitempty"`
}

func (p *NotifyUserParams) Kind() ActionType { return ActionNotifyUser }

func (p *NotifyUserParams) Validate() error {
	if p.UserID == "" {
		return ErrMissingRecipient
	}

	return nil
}

func (p *NotifyUserParams) copy() ActionParams {
	copied := *p

	return &copied
}

// APICallParams configures an api_call action.
type APICallParams struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

func (p *APICallParams) Kind() ActionType { return ActionAPICall }

func (p *APICallParams) Validate() error {
	if p.URL == "" {
		return ErrMissingURL
	}

	return nil
}

func (p *APICallParams) copy() ActionParams {
	copied := APICallParams{URL: p.URL, Method: p.Method, Body: p.Body}

	if p.Headers != nil {
		copied.Headers = make(map[string]string, len(p.Headers))
		for k, v := range p.Headers {
			copied.Headers[k] = v
		}
	}

	return &copied
}

// AssignAgentParams configures an assign_agent action.
type AssignAgentParams struct {
	AgentID string `json:"agent_id"`
	Target  string `json:"target,omitempty"`
}

func (p *AssignAgentParams) Kind() ActionType { return ActionAssignAgent }

func (p *AssignAgentParams) Validate() error {
	if p.AgentID == "" {
		return ErrMissingAgentID
	}

	return nil
}

func (p *AssignAgentParams) copy() ActionParams {
	copied := *p

	return &copied
}

// EscalateIssueParams configures an escalate_issue action.
type EscalateIssueParams struct {
	Reason   string `json:"reason"`
	Priority string `json:"priority,omitempty"`
	AssignTo string `json:"assign_to,omitempty"`
}

func (p *EscalateIssueParams) Kind() ActionType { return ActionEscalateIssue }

func (p *EscalateIssueParams) Validate() error {
	if p.Reason == "" {
		return ErrMissingReason
	}

	return nil
}

func (p *EscalateIssueParams) copy() ActionParams {
	copied := *p

	return &copied
}

// GenerateReportParams configures a generate_report action.
type GenerateReportParams struct {
	ReportType string `json:"report_type"`
	Format     string `json:"format,omitempty"`
	Period     string `json:"period,omitempty"`
}

func (p *GenerateReportParams) Kind() ActionType { return ActionGenerateReport }

func (p *GenerateReportParams) Validate() error {
	if p.ReportType == "" {
		return ErrMissingReportType
	}

	return nil
}

func (p *GenerateReportParams) copy() ActionParams {
	copied := *p

	return &copied
}

// DecodeParams decodes a raw parameters object into the variant for the given
// action type. A nil or empty raw document decodes to the zero value of the
// variant, which then fails Validate on its required fields.
func DecodeParams(actionType ActionType, raw json.RawMessage) (ActionParams, error) {
	var params ActionParams

	switch actionType {
	case ActionSendMessage:
		params = &SendMessageParams{}
	case ActionCreateTask:
		params = &CreateTaskParams{}
	case ActionUpdateData:
		params = &UpdateDataParams{}
	case ActionNotifyUser:
		params = &NotifyUserParams{}
	case ActionAPICall:
		params = &APICallParams{}
	case ActionAssignAgent:
		params = &AssignAgentParams{}
	case ActionEscalateIssue:
		params = &EscalateIssueParams{}
	case ActionGenerateReport:
		params = &GenerateReportParams{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, actionType)
	}

	if len(raw) == 0 {
		return params, nil
	}

	err := json.Unmarshal(raw, params)
	if err != nil {
		return nil, err
	}

	return params, nil
}
