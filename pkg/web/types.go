// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/validation"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	Name           string                  `json:"name"                     validate:"required,min=3"`
	Description    string                  `json:"description,omitempty"`
	Owner          string                  `json:"owner,omitempty"`
	Agents         []string                `json:"agents,omitempty"`
	Category       models.WorkflowCategory `json:"category"                 validate:"required"`
	ExecutionOrder models.ExecutionOrder   `json:"execution_order,omitempty"`
	Triggers       []*models.Trigger       `json:"triggers"`
	Actions        []*models.Action        `json:"actions"`
	ErrorHandling  models.ErrorHandling    `json:"error_handling"`
}

func (r *CreateWorkflowRequest) ToModel() *models.Workflow {
	return &models.Workflow{
		Name:           r.Name,
		Description:    r.Description,
		Owner:          r.Owner,
		Agents:         r.Agents,
		Category:       r.Category,
		ExecutionOrder: r.ExecutionOrder,
		Triggers:       r.Triggers,
		Actions:        r.Actions,
		ErrorHandling:  r.ErrorHandling,
	}
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates; nil slices
// leave the stored triggers or actions untouched.
type UpdateWorkflowRequest struct {
	Name           *string                  `json:"name,omitempty"            validate:"omitempty,min=3"`
	Description    *string                  `json:"description,omitempty"`
	Agents         []string                 `json:"agents,omitempty"`
	Category       *models.WorkflowCategory `json:"category,omitempty"`
	ExecutionOrder *models.ExecutionOrder   `json:"execution_order,omitempty"`
	Triggers       []*models.Trigger        `json:"triggers,omitempty"`
	Actions        []*models.Action         `json:"actions,omitempty"`
	ErrorHandling  *models.ErrorHandling    `json:"error_handling,omitempty"`
}

// ApplyTo merges the partial update onto a copy of the stored workflow.
func (r *UpdateWorkflowRequest) ApplyTo(workflow *models.Workflow) {
	if r.Name != nil {
		workflow.Name = *r.Name
	}

	if r.Description != nil {
		workflow.Description = *r.Description
	}

	if r.Agents != nil {
		workflow.Agents = r.Agents
	}

	if r.Category != nil {
		workflow.Category = *r.Category
	}

	if r.ExecutionOrder != nil {
		workflow.ExecutionOrder = *r.ExecutionOrder
	}

	if r.Triggers != nil {
		workflow.Triggers = r.Triggers
	}

	if r.Actions != nil {
		workflow.Actions = r.Actions
	}

	if r.ErrorHandling != nil {
		workflow.ErrorHandling = *r.ErrorHandling
	}
}

// WorkflowResponse pairs a stored workflow with the warnings its definition
// produced during validation.
type WorkflowResponse struct {
	Workflow *models.Workflow `json:"workflow"`
	Warnings []string         `json:"warnings"`
}

// ValidationFailedResponse is the 400 body for definitions that fail
// validation. It mirrors the validation result so clients see every problem
// at once.
type ValidationFailedResponse struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newValidationFailedResponse(result validation.Result) ValidationFailedResponse {
	return ValidationFailedResponse{
		IsValid:  false,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}
}

// ExecuteWorkflowRequest carries the trigger payload for a manual run.
type ExecuteWorkflowRequest struct {
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

// ExecuteWorkflowResponse reports the overall success of a run.
type ExecuteWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
	Success    bool   `json:"success"`
}

// CloneWorkflowRequest optionally names the cloned workflow.
type CloneWorkflowRequest struct {
	Name string `json:"name,omitempty"`
}

// SuggestWorkflowRequest asks the advisor for a workflow outline.
type SuggestWorkflowRequest struct {
	Description string                  `json:"description" validate:"required"`
	Category    models.WorkflowCategory `json:"category,omitempty"`
}
