// Package advisor produces workflow suggestions and performance
// recommendations. Implementations are best-effort collaborators: callers
// treat their failures as "no advice", never as a run failure.
package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/flowdeskhq/flowdesk/pkg/models"
)

// Period bounds the execution window a recommendation should consider.
type Period struct {
	StartDate time.Time
	EndDate   time.Time
}

// Suggestion is a proposed workflow outline generated from a free-form
// description.
type Suggestion struct {
	Name           string                  `json:"name"`
	Description    string                  `json:"description"`
	Category       models.WorkflowCategory `json:"category"`
	TriggerEvents  []models.TriggerEvent   `json:"trigger_events"`
	ActionTypes    []models.ActionType     `json:"action_types"`
	ExecutionOrder models.ExecutionOrder   `json:"execution_order"`
}

type Advisor interface {
	SuggestWorkflow(ctx context.Context, description string, category models.WorkflowCategory) (*Suggestion, error)
	RecommendImprovements(ctx context.Context, workflow *models.Workflow, period Period) ([]string, error)
}

// Heuristic is the built-in advisor. It derives advice from the workflow's own
// metrics and shape, so it works without any external service.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) SuggestWorkflow(_ context.Context, description string, category models.WorkflowCategory) (*Suggestion, error) {
	if category == "" {
		category = models.CategoryGeneral
	}

	suggestion := &Suggestion{
		Name:           "Suggested workflow",
		Description:    description,
		Category:       category,
		ExecutionOrder: models.ExecutionOrderSequential,
	}

	switch category {
	case models.CategorySupport:
		suggestion.TriggerEvents = []models.TriggerEvent{models.EventCustomerAction}
		suggestion.ActionTypes = []models.ActionType{models.ActionCreateTask, models.ActionNotifyUser}
	case models.CategoryFinance:
		suggestion.TriggerEvents = []models.TriggerEvent{models.EventScheduleTime}
		suggestion.ActionTypes = []models.ActionType{models.ActionGenerateReport}
	default:
		suggestion.TriggerEvents = []models.TriggerEvent{models.EventMessageReceived}
		suggestion.ActionTypes = []models.ActionType{models.ActionSendMessage}
	}

	return suggestion, nil
}

func (h *Heuristic) RecommendImprovements(_ context.Context, workflow *models.Workflow, _ Period) ([]string, error) {
	metrics := workflow.Metrics

	var recommendations []string

	if metrics.TotalExecutions == 0 {
		return []string{"workflow has not executed yet, no performance data to analyze"}, nil
	}

	successRate := float64(metrics.SuccessfulExecutions) / float64(metrics.TotalExecutions)
	if successRate < 0.8 {
		recommendations = append(recommendations, fmt.Sprintf(
			"success rate is %.0f%%, review failing actions or enable retries with a higher max attempts",
			successRate*100))
	}

	if metrics.AverageExecutionTime > 5000 && workflow.ExecutionOrder == models.ExecutionOrderSequential && len(workflow.Actions) > 1 {
		recommendations = append(recommendations,
			"average execution time exceeds 5s, consider parallel execution order for independent actions")
	}

	if !workflow.ErrorHandling.NotifyOnError && metrics.FailedExecutions > 0 {
		recommendations = append(recommendations,
			"failures occurred but notify_on_error is disabled, enable it to surface failing actions")
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "workflow is performing well, no changes recommended")
	}

	return recommendations, nil
}
