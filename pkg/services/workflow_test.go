package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeskhq/flowdesk/pkg/advisor"
	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/persistence"
	"github.com/flowdeskhq/flowdesk/pkg/persistence/file"
)

type fakeExecutor struct {
	called  bool
	success bool
}

func (e *fakeExecutor) Execute(_ context.Context, _ *models.Workflow, _ map[string]any) (bool, error) {
	e.called = true

	return e.success, nil
}

func newService(t *testing.T) (*Workflow, *fakeExecutor) {
	t.Helper()

	executor := &fakeExecutor{success: true}
	p := file.NewPersistence(t.TempDir())
	service := NewWorkflow(p, executor, advisor.NewHeuristic(), slog.Default())

	return service, executor
}

func validDefinition() *models.Workflow {
	return &models.Workflow{
		Name:     "Customer Follow Up",
		Owner:    "owner-1",
		Category: models.CategorySupport,
		Triggers: []*models.Trigger{{Event: models.EventCustomerAction}},
		Actions: []*models.Action{
			{
				Type:       models.ActionSendMessage,
				Parameters: &models.SendMessageParams{Message: "thanks for reaching out"},
			},
		},
	}
}

func TestCreateStoresDraftAtVersionOne(t *testing.T) {
	service, _ := newService(t)

	created, result, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, models.ExecutionOrderSequential, created.ExecutionOrder)
	assert.Zero(t, created.Metrics.TotalExecutions)
}

func TestCreateRejectsInvalidDefinition(t *testing.T) {
	service, _ := newService(t)

	definition := validDefinition()
	definition.Actions = []*models.Action{
		{
			Type:       models.ActionAPICall,
			Parameters: &models.APICallParams{},
		},
	}

	_, result, err := service.Create(t.Context(), "owner-1", definition)

	require.ErrorIs(t, err, ErrWorkflowInvalid)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, result.Errors, "action 0: api_call action requires a url parameter")
	assert.Contains(t, result.Errors, "incompatible trigger-action pair: customer_action-api_call")
}

func TestCreateSurfacesWarnings(t *testing.T) {
	service, _ := newService(t)

	definition := validDefinition()
	definition.Triggers = []*models.Trigger{{
		Event:    models.EventScheduleTime,
		Schedule: &models.Schedule{CronExpression: "0 9 * * 1"},
	}}
	definition.Actions = []*models.Action{
		{
			Type:       models.ActionGenerateReport,
			Parameters: &models.GenerateReportParams{ReportType: "weekly"},
		},
	}

	_, result, err := service.Create(t.Context(), "owner-1", definition)
	require.NoError(t, err)

	assert.True(t, result.IsValid)
	assert.Contains(t, result.Warnings,
		"workflow contains resource-intensive operations (api_call/generate_report)")
}

func TestUpdateBumpsVersionByOne(t *testing.T) {
	service, _ := newService(t)

	created, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	updated := validDefinition()
	updated.Name = "Customer Follow Up v2"

	stored, _, err := service.Update(t.Context(), "owner-1", created.ID, updated)
	require.NoError(t, err)

	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, "Customer Follow Up v2", stored.Name)
	assert.Equal(t, created.CreatedAt, stored.CreatedAt)
}

func TestUpdateRejectsInvalidDefinition(t *testing.T) {
	service, _ := newService(t)

	created, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	invalid := validDefinition()
	invalid.Triggers = nil

	_, result, err := service.Update(t.Context(), "owner-1", created.ID, invalid)

	require.ErrorIs(t, err, ErrWorkflowInvalid)
	assert.Contains(t, result.Errors, "workflow must have at least one trigger")

	stored, err := service.FetchByID(t.Context(), "owner-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
}

func TestFetchByIDScopesToOwner(t *testing.T) {
	service, _ := newService(t)

	created, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	_, err = service.FetchByID(t.Context(), "someone-else", created.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	found, err := service.FetchByID(t.Context(), "owner-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestActivateMakesWorkflowExecutable(t *testing.T) {
	service, executor := newService(t)

	created, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	_, err = service.Execute(t.Context(), "owner-1", created.ID, nil)
	require.ErrorIs(t, err, ErrWorkflowNotExecutable)
	assert.True(t, IsConflictError(err))
	assert.False(t, executor.called)

	activated, err := service.Activate(t.Context(), "owner-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusActive, activated.Status)
	assert.Equal(t, int64(2), activated.Version)

	success, err := service.Execute(t.Context(), "owner-1", created.ID, nil)
	require.NoError(t, err)
	assert.True(t, success)
	assert.True(t, executor.called)

	_, err = service.Activate(t.Context(), "owner-1", created.ID)
	assert.ErrorIs(t, err, ErrWorkflowAlreadyActive)
}

func TestCloneResetsMetricsAndVersion(t *testing.T) {
	service, _ := newService(t)

	created, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	_, err = service.Activate(t.Context(), "owner-1", created.ID)
	require.NoError(t, err)

	clone, err := service.CloneWorkflow(t.Context(), "owner-1", created.ID, "")
	require.NoError(t, err)

	assert.NotEqual(t, created.ID, clone.ID)
	assert.Equal(t, "Customer Follow Up (copy)", clone.Name)
	assert.Equal(t, models.WorkflowStatusDraft, clone.Status)
	assert.Equal(t, int64(1), clone.Version)
	assert.Zero(t, clone.Metrics.TotalExecutions)
}

func TestDeleteRemovesWorkflow(t *testing.T) {
	service, _ := newService(t)

	created, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), "owner-1", created.ID))

	_, err = service.FetchByID(t.Context(), "owner-1", created.ID)
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestListWorkflowsFiltersByStatus(t *testing.T) {
	service, _ := newService(t)

	first, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	second := validDefinition()
	second.Name = "Second Workflow"

	_, _, err = service.Create(t.Context(), "owner-1", second)
	require.NoError(t, err)

	_, err = service.Activate(t.Context(), "owner-1", first.ID)
	require.NoError(t, err)

	active, err := service.ListWorkflows(t.Context(), ListWorkflowsRequest{OwnerID: "owner-1", Status: "active"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	_, err = service.ListWorkflows(t.Context(), ListWorkflowsRequest{Status: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestPerformanceIncludesRecommendations(t *testing.T) {
	service, _ := newService(t)

	created, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	report, err := service.Performance(t.Context(), "owner-1", created.ID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, created.ID, report.WorkflowID)
	assert.Zero(t, report.SuccessRate)
	assert.NotEmpty(t, report.Recommendations)
}

type failingAdvisor struct{}

func (failingAdvisor) SuggestWorkflow(_ context.Context, _ string, _ models.WorkflowCategory) (*advisor.Suggestion, error) {
	return nil, errors.New("advisor unavailable")
}

func (failingAdvisor) RecommendImprovements(_ context.Context, _ *models.Workflow, _ advisor.Period) ([]string, error) {
	return nil, errors.New("advisor unavailable")
}

func TestPerformanceDegradesWhenAdvisorFails(t *testing.T) {
	executor := &fakeExecutor{success: true}
	service := NewWorkflow(file.NewPersistence(t.TempDir()), executor, failingAdvisor{}, slog.Default())

	created, _, err := service.Create(t.Context(), "owner-1", validDefinition())
	require.NoError(t, err)

	report, err := service.Performance(t.Context(), "owner-1", created.ID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, created.ID, report.WorkflowID)
	assert.Equal(t, []string{}, report.Recommendations)
}

func TestSuggestRequiresDescription(t *testing.T) {
	service, _ := newService(t)

	_, err := service.Suggest(t.Context(), "", models.CategorySupport)
	require.ErrorIs(t, err, ErrEmptyDescription)

	suggestion, err := service.Suggest(t.Context(), "route customer complaints to the support queue", models.CategorySupport)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySupport, suggestion.Category)
	assert.NotEmpty(t, suggestion.ActionTypes)
}
