// Package models defines the core domain models for trigger/action workflow automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Executable
	WorkflowStatusInactive WorkflowStatus = "inactive" // Disabled, not executable
)

// ExecutionOrder determines whether a run's actions execute one at a time or
// concurrently.
type ExecutionOrder string

const (
	ExecutionOrderSequential ExecutionOrder = "sequential"
	ExecutionOrderParallel   ExecutionOrder = "parallel"
)

// WorkflowCategory groups workflows by the department they automate.
type WorkflowCategory string

const (
	CategoryHR        WorkflowCategory = "hr"
	CategoryFinance   WorkflowCategory = "finance"
	CategorySales     WorkflowCategory = "sales"
	CategoryMarketing WorkflowCategory = "marketing"
	CategorySupport   WorkflowCategory = "support"
	CategoryGeneral   WorkflowCategory = "general"
)

// ErrorHandling controls how a run reacts to a failing action.
type ErrorHandling struct {
	ContinueOnError bool   `json:"continue_on_error"`
	NotifyOnError   bool   `json:"notify_on_error"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

// ExecutionMetrics holds the running execution statistics of a workflow.
// TotalExecutions is always the sum of successful and failed executions.
type ExecutionMetrics struct {
	TotalExecutions      int64      `json:"total_executions"`
	SuccessfulExecutions int64      `json:"successful_executions"`
	FailedExecutions     int64      `json:"failed_executions"`
	AverageExecutionTime float64    `json:"average_execution_time"` // milliseconds
	LastExecutionTime    *time.Time `json:"last_execution_time,omitempty"`
}

// Workflow is the unit of automation: an ordered set of triggers that initiate
// it and an ordered set of actions performed when it runs.
type Workflow struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"            validate:"required,min=3"`
	Description    string           `json:"description,omitempty"`
	Owner          string           `json:"owner"           validate:"required"`
	Agents         []string         `json:"agents,omitempty"`
	Category       WorkflowCategory `json:"category"        validate:"required"`
	Status         WorkflowStatus   `json:"status"`
	ExecutionOrder ExecutionOrder   `json:"execution_order"`
	Version        int64            `json:"version"`
	Triggers       []*Trigger       `json:"triggers"`
	Actions        []*Action        `json:"actions"`
	ErrorHandling  ErrorHandling    `json:"error_handling"`
	Metrics        ExecutionMetrics `json:"metrics"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Executable reports whether the workflow may be run.
func (w *Workflow) Executable() bool {
	return w.Status == WorkflowStatusActive
}

// Clone returns a copy of the workflow as a fresh draft: new identity supplied
// by the caller, metrics zeroed, version reset to 1 and status forced to draft.
// Triggers and actions are deep-copied so later edits never alias the source.
func (w *Workflow) Clone(id, name string) *Workflow {
	now := time.Now().UTC()

	clone := &Workflow{
		ID:             id,
		Name:           name,
		Description:    w.Description,
		Owner:          w.Owner,
		Agents:         append([]string(nil), w.Agents...),
		Category:       w.Category,
		Status:         WorkflowStatusDraft,
		ExecutionOrder: w.ExecutionOrder,
		Version:        1,
		Triggers:       make([]*Trigger, 0, len(w.Triggers)),
		Actions:        make([]*Action, 0, len(w.Actions)),
		ErrorHandling:  w.ErrorHandling,
		Metrics:        ExecutionMetrics{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, trigger := range w.Triggers {
		clone.Triggers = append(clone.Triggers, trigger.Copy())
	}

	for _, action := range w.Actions {
		clone.Actions = append(clone.Actions, action.Copy())
	}

	return clone
}
