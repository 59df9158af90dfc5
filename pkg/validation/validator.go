// Package validation checks workflow definitions for structural and semantic
// correctness before they are persisted or executed.
package validation

import (
	"fmt"
	"slices"

	"github.com/flowdeskhq/flowdesk/pkg/models"
)

// Result is the outcome of validating a workflow definition. Warnings are
// informational and never block persistence; any error makes the definition
// invalid.
type Result struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// compatibility maps each trigger event to the action types considered
// semantically valid to pair with it. Events absent from the table allow no
// pairings.
var compatibility = map[models.TriggerEvent][]models.ActionType{
	models.EventMessageReceived: {
		models.ActionSendMessage,
		models.ActionCreateTask,
		models.ActionNotifyUser,
	},
	models.EventScheduleTime: {
		models.ActionGenerateReport,
		models.ActionAPICall,
		models.ActionUpdateData,
	},
	models.EventCustomerAction: {
		models.ActionSendMessage,
		models.ActionCreateTask,
		models.ActionNotifyUser,
		models.ActionEscalateIssue,
	},
}

// resourceIntensive flags action types whose execution is expensive enough to
// warrant a warning on the definition.
var resourceIntensive = map[models.ActionType]bool{
	models.ActionAPICall:        true,
	models.ActionGenerateReport: true,
}

// Validate checks a workflow definition and reports every problem found. It is
// pure and performs no I/O: the same definition always yields the same result.
func Validate(workflow *models.Workflow) Result {
	result := Result{
		Errors:   []string{},
		Warnings: []string{},
	}

	validateStructure(workflow, &result)
	validateActionParameters(workflow, &result)
	warnResourceIntensive(workflow, &result)
	checkCircularDependencies(workflow, &result)
	validateCompatibility(workflow, &result)

	result.IsValid = len(result.Errors) == 0

	return result
}

func validateStructure(workflow *models.Workflow, result *Result) {
	if len(workflow.Triggers) == 0 {
		result.Errors = append(result.Errors, "workflow must have at least one trigger")
	}

	if len(workflow.Actions) == 0 {
		result.Errors = append(result.Errors, "workflow must have at least one action")
	}

	for i, trigger := range workflow.Triggers {
		if !trigger.Event.Known() {
			result.Errors = append(result.Errors,
				fmt.Sprintf("trigger %d has unknown event %q", i, trigger.Event))

			continue
		}

		if trigger.Event != models.EventScheduleTime {
			continue
		}

		if trigger.Schedule == nil || trigger.Schedule.CronExpression == "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("trigger %d (schedule_time) requires a cron expression", i))

			continue
		}

		err := trigger.Schedule.Validate()
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("trigger %d has an invalid cron expression: %v", i, err))
		}
	}
}

func validateActionParameters(workflow *models.Workflow, result *Result) {
	for i, action := range workflow.Actions {
		if !action.Type.Known() {
			result.Errors = append(result.Errors,
				fmt.Sprintf("action %d has unknown type %q", i, action.Type))

			continue
		}

		if action.Parameters == nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("action %d (%s) has no parameters", i, action.Type))

			continue
		}

		err := action.Parameters.Validate()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("action %d: %v", i, err))
		}
	}
}

func warnResourceIntensive(workflow *models.Workflow, result *Result) {
	for _, action := range workflow.Actions {
		if resourceIntensive[action.Type] {
			result.Warnings = append(result.Warnings,
				"workflow contains resource-intensive operations (api_call/generate_report)")

			return
		}
	}
}

// checkCircularDependencies is a warning-only slot. The data model declares no
// dependency edges between actions, only ordering and parallelism, so there is
// no graph to cycle-check yet.
// TODO: implement once actions can declare dependencies on one another.
func checkCircularDependencies(_ *models.Workflow, _ *Result) {
}

func validateCompatibility(workflow *models.Workflow, result *Result) {
	for _, trigger := range workflow.Triggers {
		allowed := compatibility[trigger.Event]

		for _, action := range workflow.Actions {
			if !slices.Contains(allowed, action.Type) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("incompatible trigger-action pair: %s-%s", trigger.Event, action.Type))
			}
		}
	}
}
