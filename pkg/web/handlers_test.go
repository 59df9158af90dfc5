package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeskhq/flowdesk/pkg/advisor"
	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/persistence/file"
	"github.com/flowdeskhq/flowdesk/pkg/registry"
	"github.com/flowdeskhq/flowdesk/pkg/services"
)

type stubExecutor struct {
	success bool
}

func (e *stubExecutor) Execute(_ context.Context, _ *models.Workflow, _ map[string]any) (bool, error) {
	return e.success, nil
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	service := services.NewWorkflow(p, &stubExecutor{success: true}, advisor.NewHeuristic(), slog.Default())
	handlers := NewAPIHandlers(service, validator.New(validator.WithRequiredStructEnabled()), registry.NewRegistry(slog.Default()))

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/suggest", handlers.SuggestWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/clone", handlers.CloneWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Get("/:id/performance", handlers.GetWorkflowPerformance)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(OwnerHeader, "owner-1")

	resp, err := app.Test(req)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = resp.Body.Close()
	})

	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func validCreatePayload() map[string]any {
	return map[string]any{
		"name":     "Customer Follow Up",
		"category": "support",
		"triggers": []map[string]any{
			{"event": "customer_action"},
		},
		"actions": []map[string]any{
			{
				"type":       "send_message",
				"parameters": map[string]any{"message": "thanks for reaching out"},
			},
		},
	}
}

func createWorkflow(t *testing.T, app *fiber.App) *models.Workflow {
	t.Helper()

	resp := doJSON(t, app, http.MethodPost, "/workflows", validCreatePayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeJSON[WorkflowResponse](t, resp)
	require.NotNil(t, created.Workflow)

	return created.Workflow
}

func TestCreateWorkflowReturnsCreated(t *testing.T) {
	app := setupTestApp(t)

	workflow := createWorkflow(t, app)

	assert.NotEmpty(t, workflow.ID)
	assert.Equal(t, models.WorkflowStatusDraft, workflow.Status)
	assert.Equal(t, int64(1), workflow.Version)
	assert.Equal(t, "owner-1", workflow.Owner)
}

func TestCreateWorkflowInvalidDefinition(t *testing.T) {
	app := setupTestApp(t)

	payload := validCreatePayload()
	payload["actions"] = []map[string]any{
		{"type": "api_call", "parameters": map[string]any{}},
	}

	resp := doJSON(t, app, http.MethodPost, "/workflows", payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeJSON[ValidationFailedResponse](t, resp)
	assert.False(t, body.IsValid)
	assert.Contains(t, body.Errors, "action 0: api_call action requires a url parameter")
	assert.Contains(t, body.Errors, "incompatible trigger-action pair: customer_action-api_call")
}

func TestCreateWorkflowReturnsWarnings(t *testing.T) {
	app := setupTestApp(t)

	payload := validCreatePayload()
	payload["triggers"] = []map[string]any{
		{"event": "schedule_time", "schedule": map[string]any{"cron_expression": "0 9 * * 1"}},
	}
	payload["actions"] = []map[string]any{
		{"type": "generate_report", "parameters": map[string]any{"report_type": "weekly"}},
	}

	resp := doJSON(t, app, http.MethodPost, "/workflows", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeJSON[WorkflowResponse](t, resp)
	assert.Contains(t, body.Warnings,
		"workflow contains resource-intensive operations (api_call/generate_report)")
}

func TestGetWorkflowScopedToOwner(t *testing.T) {
	app := setupTestApp(t)
	workflow := createWorkflow(t, app)

	resp := doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/workflows/"+workflow.ID, nil)
	req.Header.Set(OwnerHeader, "someone-else")

	foreign, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = foreign.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, foreign.StatusCode)

	problem := decodeJSON[map[string]any](t, foreign)
	assert.Equal(t, "not_found", problem["type"])
	assert.Equal(t, "workflow not found", problem["detail"])
}

func TestUpdateWorkflowBumpsVersion(t *testing.T) {
	app := setupTestApp(t)
	workflow := createWorkflow(t, app)

	resp := doJSON(t, app, http.MethodPatch, "/workflows/"+workflow.ID, map[string]any{
		"name": "Customer Follow Up v2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON[WorkflowResponse](t, resp)
	assert.Equal(t, "Customer Follow Up v2", body.Workflow.Name)
	assert.Equal(t, int64(2), body.Workflow.Version)
}

func TestDeleteWorkflow(t *testing.T) {
	app := setupTestApp(t)
	workflow := createWorkflow(t, app)

	resp := doJSON(t, app, http.MethodDelete, "/workflows/"+workflow.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/workflows/"+workflow.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecuteWorkflowRequiresActiveStatus(t *testing.T) {
	app := setupTestApp(t)
	workflow := createWorkflow(t, app)

	resp := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/execute", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/activate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/execute", map[string]any{
		"trigger_data": map[string]any{"customer_id": "c-1"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON[ExecuteWorkflowResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, workflow.ID, body.WorkflowID)
}

func TestCloneWorkflow(t *testing.T) {
	app := setupTestApp(t)
	workflow := createWorkflow(t, app)

	resp := doJSON(t, app, http.MethodPost, "/workflows/"+workflow.ID+"/clone", map[string]any{
		"name": "Cloned Follow Up",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	clone := decodeJSON[models.Workflow](t, resp)
	assert.NotEqual(t, workflow.ID, clone.ID)
	assert.Equal(t, "Cloned Follow Up", clone.Name)
	assert.Equal(t, models.WorkflowStatusDraft, clone.Status)
	assert.Equal(t, int64(1), clone.Version)
}

func TestGetWorkflowPerformance(t *testing.T) {
	app := setupTestApp(t)
	workflow := createWorkflow(t, app)

	resp := doJSON(t, app, http.MethodGet,
		"/workflows/"+workflow.ID+"/performance?start_date=2026-01-01&end_date=2026-02-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report := decodeJSON[services.PerformanceReport](t, resp)
	assert.Equal(t, workflow.ID, report.WorkflowID)
	assert.NotEmpty(t, report.Recommendations)
}

func TestGetWorkflowPerformanceRejectsBadDate(t *testing.T) {
	app := setupTestApp(t)
	workflow := createWorkflow(t, app)

	resp := doJSON(t, app, http.MethodGet,
		"/workflows/"+workflow.ID+"/performance?start_date=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSuggestWorkflow(t *testing.T) {
	app := setupTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/workflows/suggest", map[string]any{
		"description": "route customer complaints to the support queue",
		"category":    "support",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	suggestion := decodeJSON[advisor.Suggestion](t, resp)
	assert.Equal(t, models.CategorySupport, suggestion.Category)
	assert.NotEmpty(t, suggestion.ActionTypes)
}

func TestListWorkflowsFilterByStatus(t *testing.T) {
	app := setupTestApp(t)
	workflow := createWorkflow(t, app)

	resp := doJSON(t, app, http.MethodGet, "/workflows?status=draft", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	workflows := decodeJSON[[]*models.Workflow](t, resp)
	require.Len(t, workflows, 1)
	assert.Equal(t, workflow.ID, workflows[0].ID)

	resp = doJSON(t, app, http.MethodGet, "/workflows?status=active", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	workflows = decodeJSON[[]*models.Workflow](t, resp)
	assert.Empty(t, workflows)
}
