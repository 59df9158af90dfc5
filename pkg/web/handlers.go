// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/flowdeskhq/flowdesk/pkg/execution"
	"github.com/flowdeskhq/flowdesk/pkg/registry"
	"github.com/flowdeskhq/flowdesk/pkg/services"
)

// OwnerHeader scopes every request to a single owner's workflows.
const OwnerHeader = "X-Owner-ID"

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
		registry:        registry,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req := services.ListWorkflowsRequest{
		OwnerID:  c.Get(OwnerHeader),
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Agent:    c.Query("agent"),
	}

	workflows, err := h.workflowService.ListWorkflows(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), c.Get(OwnerHeader), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, result, err := h.workflowService.Create(c.Context(), c.Get(OwnerHeader), req.ToModel())
	if err != nil {
		if errors.Is(err, services.ErrWorkflowInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(newValidationFailedResponse(result))
		}

		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(WorkflowResponse{
		Workflow: created,
		Warnings: result.Warnings,
	})
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	ownerID := c.Get(OwnerHeader)

	existing, err := h.workflowService.FetchByID(c.Context(), ownerID, id)
	if err != nil {
		return handleServiceError(c, err)
	}

	merged := *existing
	req.ApplyTo(&merged)

	updated, result, err := h.workflowService.Update(c.Context(), ownerID, id, &merged)
	if err != nil {
		if errors.Is(err, services.ErrWorkflowInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(newValidationFailedResponse(result))
		}

		return handleServiceError(c, err)
	}

	return c.JSON(WorkflowResponse{
		Workflow: updated,
		Warnings: result.Warnings,
	})
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), c.Get(OwnerHeader), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	activated, err := h.workflowService.Activate(c.Context(), c.Get(OwnerHeader), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(activated)
}

func (h *APIHandlers) CloneWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req CloneWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	clone, err := h.workflowService.CloneWorkflow(c.Context(), c.Get(OwnerHeader), id, req.Name)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(clone)
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req ExecuteWorkflowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	success, err := h.workflowService.Execute(c.Context(), c.Get(OwnerHeader), id, req.TriggerData)
	if err != nil {
		// An aborted run is reported as a failed execution, not a 500: the
		// run happened and its outcome is the answer.
		var execErr *execution.ExecutionError
		if errors.As(err, &execErr) {
			return c.JSON(ExecuteWorkflowResponse{WorkflowID: id, Success: false})
		}

		return handleServiceError(c, err)
	}

	return c.JSON(ExecuteWorkflowResponse{WorkflowID: id, Success: success})
}

func (h *APIHandlers) GetWorkflowPerformance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	startDate, err := parseDateQuery(c.Query("start_date"))
	if err != nil {
		return badRequest(c, "Invalid start_date: "+err.Error())
	}

	endDate, err := parseDateQuery(c.Query("end_date"))
	if err != nil {
		return badRequest(c, "Invalid end_date: "+err.Error())
	}

	report, err := h.workflowService.Performance(c.Context(), c.Get(OwnerHeader), id, startDate, endDate)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(report)
}

func (h *APIHandlers) SuggestWorkflow(c fiber.Ctx) error {
	var req SuggestWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	suggestion, err := h.workflowService.Suggest(c.Context(), req.Description, req.Category)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(suggestion)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowdesk API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Flowdesk API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func parseDateQuery(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil, err
		}
	}

	return &parsed, nil
}
