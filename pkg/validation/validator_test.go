package validation

import (
	"testing"

	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageWorkflow() *models.Workflow {
	return &models.Workflow{
		Name:     "Greeting",
		Owner:    "owner-1",
		Category: models.CategorySupport,
		Triggers: []*models.Trigger{
			{Event: models.EventMessageReceived},
		},
		Actions: []*models.Action{
			{
				Type:       models.ActionSendMessage,
				Parameters: &models.SendMessageParams{Message: "hi there"},
			},
		},
	}
}

func TestValidateAcceptsCompatibleWorkflow(t *testing.T) {
	result := Validate(messageWorkflow())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateRejectsEmptyTriggers(t *testing.T) {
	workflow := messageWorkflow()
	workflow.Triggers = nil

	result := Validate(workflow)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "workflow must have at least one trigger")
}

func TestValidateRejectsEmptyActions(t *testing.T) {
	workflow := messageWorkflow()
	workflow.Actions = nil

	result := Validate(workflow)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "workflow must have at least one action")
}

func TestValidateScheduleTriggerRequiresCronExpression(t *testing.T) {
	workflow := messageWorkflow()
	workflow.Triggers = []*models.Trigger{{Event: models.EventScheduleTime}}
	workflow.Actions = []*models.Action{
		{
			Type:       models.ActionUpdateData,
			Parameters: &models.UpdateDataParams{Entity: "orders"},
		},
	}

	result := Validate(workflow)

	assert.False(t, result.IsValid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "cron expression")
}

func TestValidateScheduleTriggerWithCronPasses(t *testing.T) {
	workflow := messageWorkflow()
	workflow.Triggers = []*models.Trigger{
		{Event: models.EventScheduleTime, Schedule: &models.Schedule{CronExpression: "0 8 * * *"}},
	}
	workflow.Actions = []*models.Action{
		{
			Type:       models.ActionUpdateData,
			Parameters: &models.UpdateDataParams{Entity: "orders"},
		},
	}

	result := Validate(workflow)

	assert.True(t, result.IsValid)
}

func TestValidateMissingMessageParameter(t *testing.T) {
	workflow := messageWorkflow()
	workflow.Actions[0].Parameters = &models.SendMessageParams{}

	result := Validate(workflow)

	assert.False(t, result.IsValid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "message parameter")
}

func TestValidateMissingURLParameter(t *testing.T) {
	workflow := messageWorkflow()
	workflow.Triggers = []*models.Trigger{
		{Event: models.EventScheduleTime, Schedule: &models.Schedule{CronExpression: "0 8 * * *"}},
	}
	workflow.Actions = []*models.Action{
		{Type: models.ActionAPICall, Parameters: &models.APICallParams{}},
	}

	result := Validate(workflow)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "action 0: api_call action requires a url parameter")
}

func TestValidateResourceIntensiveWarning(t *testing.T) {
	workflow := messageWorkflow()
	workflow.Triggers = []*models.Trigger{
		{Event: models.EventScheduleTime, Schedule: &models.Schedule{CronExpression: "0 8 * * *"}},
	}
	workflow.Actions = []*models.Action{
		{
			Type:       models.ActionGenerateReport,
			Parameters: &models.GenerateReportParams{ReportType: "sales"},
		},
	}

	result := Validate(workflow)

	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "resource-intensive")
}

func TestValidateIncompatiblePair(t *testing.T) {
	workflow := messageWorkflow()
	workflow.Actions = append(workflow.Actions, &models.Action{
		Type:       models.ActionGenerateReport,
		Parameters: &models.GenerateReportParams{ReportType: "sales"},
	})

	result := Validate(workflow)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors,
		"incompatible trigger-action pair: message_received-generate_report")
}

func TestValidateEventsWithoutAllowedActions(t *testing.T) {
	// Events absent from the compatibility table allow no pairings at all.
	workflow := messageWorkflow()
	workflow.Triggers = []*models.Trigger{{Event: models.EventTaskCompleted}}

	result := Validate(workflow)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors,
		"incompatible trigger-action pair: task_completed-send_message")
}

func TestValidateAggregatesErrors(t *testing.T) {
	workflow := &models.Workflow{
		Triggers: []*models.Trigger{{Event: models.EventScheduleTime}},
		Actions: []*models.Action{
			{Type: models.ActionSendMessage, Parameters: &models.SendMessageParams{}},
		},
	}

	result := Validate(workflow)

	assert.False(t, result.IsValid)
	// cron expression missing, message missing and the incompatible pairing.
	assert.Len(t, result.Errors, 3)
}
