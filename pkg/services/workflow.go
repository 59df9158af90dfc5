package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/flowdeskhq/flowdesk/pkg/advisor"
	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/persistence"
	"github.com/flowdeskhq/flowdesk/pkg/validation"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Executor runs a workflow and reports its overall success.
type Executor interface {
	Execute(ctx context.Context, workflow *models.Workflow, triggerData map[string]any) (bool, error)
}

type Workflow struct {
	persistence persistence.Persistence
	executor    Executor
	advisor     advisor.Advisor
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(p persistence.Persistence, executor Executor, adv advisor.Advisor, logger *slog.Logger) *Workflow {
	return &Workflow{
		persistence: p,
		executor:    executor,
		advisor:     adv,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "workflow_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains filters for listing workflows.
type ListWorkflowsRequest struct {
	OwnerID  string
	Status   string
	Category string
	Agent    string
}

// ListWorkflows retrieves the workflows matching the request filters.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) ([]*models.Workflow, error) {
	opts := persistence.ListWorkflowsOptions{
		OwnerID: req.OwnerID,
		Agent:   req.Agent,
	}

	if req.Status != "" {
		status := models.WorkflowStatus(req.Status)
		if status != models.WorkflowStatusDraft && status != models.WorkflowStatusActive && status != models.WorkflowStatusInactive {
			return nil, NewValidationError("ListWorkflows", "INVALID_STATUS",
				fmt.Sprintf("invalid status %q", req.Status), ErrInvalidStatus)
		}

		opts.Status = &status
	}

	if req.Category != "" {
		category := models.WorkflowCategory(req.Category)
		opts.Category = &category
	}

	workflows, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID. When ownerID is non-empty the
// lookup is scoped to that owner: another owner's workflow reads as not found.
func (w *Workflow) FetchByID(ctx context.Context, ownerID, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ownerID != "" && workflow.Owner != ownerID {
		return nil, persistence.NewWorkflowError("FetchByID", id, ErrWorkflowNotFound)
	}

	return workflow, nil
}

// Create validates and stores a new workflow. New workflows always start as
// drafts at version 1 regardless of the submitted status. The validation
// result is returned alongside the workflow so callers can surface warnings.
func (w *Workflow) Create(ctx context.Context, ownerID string, workflow *models.Workflow) (*models.Workflow, validation.Result, error) {
	if workflow == nil {
		return nil, validation.Result{}, ErrWorkflowNil
	}

	if ownerID != "" {
		workflow.Owner = ownerID
	}

	result, err := w.check(workflow)
	if err != nil {
		return nil, result, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.Status = models.WorkflowStatusDraft
	workflow.Version = 1
	workflow.Metrics = models.ExecutionMetrics{}
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.ExecutionOrder == "" {
		workflow.ExecutionOrder = models.ExecutionOrderSequential
	}

	err = w.persistence.WorkflowRepository().Create(ctx, workflow)
	if err != nil {
		return nil, result, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, result, nil
}

// Update re-validates and replaces an existing workflow definition. The stored
// version increments by exactly one per successful update; a concurrent write
// in between surfaces as ErrConcurrentUpdate.
func (w *Workflow) Update(ctx context.Context, ownerID, workflowID string, workflow *models.Workflow) (*models.Workflow, validation.Result, error) {
	if workflow == nil {
		return nil, validation.Result{}, ErrWorkflowNil
	}

	existing, err := w.FetchByID(ctx, ownerID, workflowID)
	if err != nil {
		return nil, validation.Result{}, err
	}

	workflow.ID = workflowID
	workflow.Owner = existing.Owner
	workflow.Status = existing.Status
	workflow.Metrics = existing.Metrics
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()
	workflow.Version = existing.Version + 1

	result, err := w.check(workflow)
	if err != nil {
		return nil, result, err
	}

	err = w.persistence.WorkflowRepository().Update(ctx, workflow, existing.Version)
	if err != nil {
		if persistence.IsVersionConflict(err) {
			return nil, result, NewValidationError("Update", "CONCURRENT_UPDATE",
				"workflow version changed during update", ErrConcurrentUpdate)
		}

		return nil, result, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, result, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, ownerID, workflowID string) error {
	_, err := w.FetchByID(ctx, ownerID, workflowID)
	if err != nil {
		return err
	}

	err = w.persistence.WorkflowRepository().Delete(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// Activate moves a workflow into the active status so it becomes executable.
// The definition must still validate at activation time.
func (w *Workflow) Activate(ctx context.Context, ownerID, workflowID string) (*models.Workflow, error) {
	existing, err := w.FetchByID(ctx, ownerID, workflowID)
	if err != nil {
		return nil, err
	}

	if existing.Status == models.WorkflowStatusActive {
		return nil, NewValidationError("Activate", "ALREADY_ACTIVE",
			"workflow is already active", ErrWorkflowAlreadyActive)
	}

	result := validation.Validate(existing)
	if !result.IsValid {
		return nil, NewValidationError("Activate", "INVALID_WORKFLOW",
			fmt.Sprintf("workflow cannot be activated: %v", result.Errors), ErrWorkflowInvalid)
	}

	existing.Status = models.WorkflowStatusActive
	existing.UpdatedAt = time.Now().UTC()

	expectedVersion := existing.Version
	existing.Version++

	err = w.persistence.WorkflowRepository().Update(ctx, existing, expectedVersion)
	if err != nil {
		if persistence.IsVersionConflict(err) {
			return nil, NewValidationError("Activate", "CONCURRENT_UPDATE",
				"workflow version changed during activation", ErrConcurrentUpdate)
		}

		return nil, fmt.Errorf("failed to activate workflow: %w", err)
	}

	return existing, nil
}

// CloneWorkflow stores a draft copy of an existing workflow with fresh
// identity and zeroed metrics.
func (w *Workflow) CloneWorkflow(ctx context.Context, ownerID, workflowID, name string) (*models.Workflow, error) {
	source, err := w.FetchByID(ctx, ownerID, workflowID)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = source.Name + " (copy)"
	}

	clone := source.Clone(uuid.New().String(), name)

	err = w.persistence.WorkflowRepository().Create(ctx, clone)
	if err != nil {
		return nil, fmt.Errorf("failed to clone workflow: %w", err)
	}

	return clone, nil
}

// Execute runs an active workflow and reports the overall run success. Only
// active workflows are executable.
func (w *Workflow) Execute(ctx context.Context, ownerID, workflowID string, triggerData map[string]any) (bool, error) {
	workflow, err := w.FetchByID(ctx, ownerID, workflowID)
	if err != nil {
		return false, err
	}

	if !workflow.Executable() {
		return false, NewValidationError("Execute", "NOT_EXECUTABLE",
			fmt.Sprintf("workflow status is %q", workflow.Status), ErrWorkflowNotExecutable)
	}

	return w.executor.Execute(ctx, workflow, triggerData)
}

// PerformanceReport summarizes a workflow's execution statistics with
// improvement recommendations from the advisor.
type PerformanceReport struct {
	WorkflowID      string                  `json:"workflow_id"`
	Name            string                  `json:"name"`
	Metrics         models.ExecutionMetrics `json:"metrics"`
	SuccessRate     float64                 `json:"success_rate"`
	StartDate       *time.Time              `json:"start_date,omitempty"`
	EndDate         *time.Time              `json:"end_date,omitempty"`
	Recommendations []string                `json:"recommendations"`
}

// Performance builds the performance report for a workflow. Advisor failures
// degrade to an empty recommendation list, they never fail the report.
func (w *Workflow) Performance(ctx context.Context, ownerID, workflowID string, startDate, endDate *time.Time) (*PerformanceReport, error) {
	workflow, err := w.FetchByID(ctx, ownerID, workflowID)
	if err != nil {
		return nil, err
	}

	report := &PerformanceReport{
		WorkflowID: workflow.ID,
		Name:       workflow.Name,
		Metrics:    workflow.Metrics,
		StartDate:  startDate,
		EndDate:    endDate,
	}

	if workflow.Metrics.TotalExecutions > 0 {
		report.SuccessRate = float64(workflow.Metrics.SuccessfulExecutions) / float64(workflow.Metrics.TotalExecutions)
	}

	period := advisor.Period{}
	if startDate != nil {
		period.StartDate = *startDate
	}

	if endDate != nil {
		period.EndDate = *endDate
	}

	recommendations, err := w.advisor.RecommendImprovements(ctx, workflow, period)
	if err != nil {
		w.logger.WarnContext(ctx, "Advisor recommendations unavailable",
			"workflow_id", workflow.ID, "error", err)

		recommendations = []string{}
	}

	report.Recommendations = recommendations

	return report, nil
}

// Suggest asks the advisor for a workflow outline matching a free-form
// description.
func (w *Workflow) Suggest(ctx context.Context, description string, category models.WorkflowCategory) (*advisor.Suggestion, error) {
	if description == "" {
		return nil, NewValidationError("Suggest", "EMPTY_DESCRIPTION",
			"description is required", ErrEmptyDescription)
	}

	return w.advisor.SuggestWorkflow(ctx, description, category)
}

// check runs both struct-level and semantic validation, mapping failures to
// ErrWorkflowInvalid with the full error list preserved in the result.
func (w *Workflow) check(workflow *models.Workflow) (validation.Result, error) {
	err := w.validate.Struct(workflow)
	if err != nil {
		result := validation.Result{Errors: []string{err.Error()}, Warnings: []string{}}

		return result, NewValidationError("check", "INVALID_WORKFLOW", err.Error(), ErrWorkflowInvalid)
	}

	result := validation.Validate(workflow)
	if !result.IsValid {
		return result, NewValidationError("check", "INVALID_WORKFLOW",
			fmt.Sprintf("workflow failed validation: %v", result.Errors), ErrWorkflowInvalid)
	}

	return result, nil
}
