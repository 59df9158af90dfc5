// Package execution orchestrates workflow runs: it resolves the execution
// order, drives each action through the dispatcher, applies the error-handling
// policy and records metrics on every exit path.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowdeskhq/flowdesk/pkg/dispatcher"
	"github.com/flowdeskhq/flowdesk/pkg/eventbus"
	"github.com/flowdeskhq/flowdesk/pkg/events"
	"github.com/flowdeskhq/flowdesk/pkg/metrics"
	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/otelhelper"
)

// RunStatus tracks a run through its state machine:
// pending -> running -> completed | failed.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ExecutionError reports that a run as a whole could not complete. It wraps
// the action failure that triggered the abort.
type ExecutionError struct {
	WorkflowID  string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution %s of workflow %s failed: %v", e.ExecutionID, e.WorkflowID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

type Engine struct {
	dispatcher *dispatcher.Dispatcher
	aggregator *metrics.Aggregator
	bus        eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewEngine(
	actionDispatcher *dispatcher.Dispatcher,
	aggregator *metrics.Aggregator,
	bus eventbus.EventBus,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		dispatcher: actionDispatcher,
		aggregator: aggregator,
		bus:        bus,
		logger:     logger.With("module", "execution_engine"),
		tracer:     otel.Tracer("flowdesk/execution"),
	}
}

// Execute runs one workflow over an immutable snapshot. The returned bool is
// the overall success of the run; a non-nil error means the run aborted.
// Metrics bookkeeping happens on every exit path, including aborts, so the
// stored counters never miss a run.
func (e *Engine) Execute(ctx context.Context, workflow *models.Workflow, triggerData map[string]any) (success bool, runErr error) {
	execCtx := models.ExecutionContext{
		ID:          "exec-" + uuid.New().String()[:8],
		Workflow:    workflow,
		TriggerData: triggerData,
		StartedAt:   time.Now().UTC(),
	}

	logger := e.logger.With(
		"workflow_id", workflow.ID,
		"execution_id", execCtx.ID,
		"execution_order", workflow.ExecutionOrder,
	)

	status := RunPending
	logger.InfoContext(ctx, "Starting execution of workflow", "status", status)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.String(otelhelper.ExecutionIDKey, execCtx.ID),
		attribute.String(otelhelper.ExecutionOrderKey, string(workflow.ExecutionOrder)),
	)
	defer span.End()

	e.publish(ctx, workflow.ID, events.ExecutionStarted{
		BaseEvent:      e.baseEvent(events.ExecutionStartedEvent, workflow.ID),
		ExecutionID:    execCtx.ID,
		ExecutionOrder: string(workflow.ExecutionOrder),
		ActionCount:    len(workflow.Actions),
	})

	defer func() {
		elapsed := time.Since(execCtx.StartedAt)
		outcome := success && runErr == nil

		if outcome {
			status = RunCompleted
		} else {
			status = RunFailed
		}

		// Metrics must be recorded even when the run context is already
		// cancelled or the run is aborting with an error.
		recordCtx := context.WithoutCancel(ctx)

		_, err := e.aggregator.Record(recordCtx, workflow.ID, outcome, elapsed)
		if err != nil {
			logger.ErrorContext(recordCtx, "Best-effort metrics write failed", "error", err)
		}

		if runErr != nil {
			otelhelper.SetError(span, runErr)
			e.publish(recordCtx, workflow.ID, events.ExecutionFailed{
				BaseEvent:   e.baseEvent(events.ExecutionFailedEvent, workflow.ID),
				ExecutionID: execCtx.ID,
				Error:       runErr.Error(),
				Duration:    elapsed,
			})
		} else {
			e.publish(recordCtx, workflow.ID, events.ExecutionCompleted{
				BaseEvent:   e.baseEvent(events.ExecutionCompletedEvent, workflow.ID),
				ExecutionID: execCtx.ID,
				Success:     success,
				Duration:    elapsed,
			})
		}

		logger.InfoContext(recordCtx, "Finished execution of workflow",
			"status", status,
			"success", outcome,
			"duration", elapsed,
		)
	}()

	status = RunRunning
	logger.InfoContext(ctx, "Walking workflow actions", "status", status, "actions", len(workflow.Actions))

	if workflow.ExecutionOrder == models.ExecutionOrderParallel {
		success = e.runParallel(ctx, execCtx)

		return success, nil
	}

	return e.runSequential(ctx, execCtx)
}

// runSequential walks actions in strict program order. The first failure
// aborts the rest of the run unless continueOnError is set, in which case the
// failure is recorded and the walk continues.
func (e *Engine) runSequential(ctx context.Context, execCtx models.ExecutionContext) (bool, error) {
	workflow := execCtx.Workflow
	allSucceeded := true

	for i, action := range workflow.Actions {
		err := e.executeAction(ctx, execCtx, i, action)
		if err == nil {
			continue
		}

		allSucceeded = false
		e.reportActionFailure(ctx, execCtx, i, action, err)

		if !workflow.ErrorHandling.ContinueOnError {
			return false, &ExecutionError{
				WorkflowID:  workflow.ID,
				ExecutionID: execCtx.ID,
				Err:         err,
			}
		}

		if ctx.Err() != nil {
			return false, &ExecutionError{
				WorkflowID:  workflow.ID,
				ExecutionID: execCtx.ID,
				Err:         ctx.Err(),
			}
		}
	}

	return allSucceeded, nil
}

// runParallel fans out every action concurrently and joins on all of them.
// There is no short-circuiting: a failing action never prevents its siblings
// from completing.
func (e *Engine) runParallel(ctx context.Context, execCtx models.ExecutionContext) bool {
	workflow := execCtx.Workflow
	results := make([]error, len(workflow.Actions))

	var wg sync.WaitGroup

	for i, action := range workflow.Actions {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = e.executeAction(ctx, execCtx, i, action)
		}()
	}

	wg.Wait()

	allSucceeded := true

	for i, err := range results {
		if err != nil {
			allSucceeded = false
			e.reportActionFailure(ctx, execCtx, i, workflow.Actions[i], err)
		}
	}

	return allSucceeded
}

func (e *Engine) executeAction(ctx context.Context, execCtx models.ExecutionContext, index int, action *models.Action) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.action",
		attribute.String(otelhelper.ExecutionIDKey, execCtx.ID),
		attribute.String(otelhelper.ActionTypeKey, string(action.Type)),
		attribute.Int(otelhelper.ActionIndexKey, index),
	)
	defer span.End()

	err := e.dispatcher.ExecuteAction(ctx, action, execCtx)
	if err != nil {
		otelhelper.SetError(span, err)
	}

	return err
}

// reportActionFailure publishes the notify-on-error hook. Notification is
// fire-and-forget: a publish failure is logged, never escalated.
func (e *Engine) reportActionFailure(ctx context.Context, execCtx models.ExecutionContext, index int, action *models.Action, actionErr error) {
	workflow := execCtx.Workflow

	e.logger.WarnContext(ctx, "Action failed",
		"workflow_id", workflow.ID,
		"execution_id", execCtx.ID,
		"action_type", action.Type,
		"action_index", index,
		"error", actionErr,
	)

	if !workflow.ErrorHandling.NotifyOnError {
		return
	}

	attempts := action.RetryConfig.MaxAttempts

	var dispatchErr *dispatcher.ActionExecutionError
	if errors.As(actionErr, &dispatchErr) {
		attempts = dispatchErr.Attempts
	}

	e.publish(ctx, workflow.ID, events.ActionFailed{
		BaseEvent:   e.baseEvent(events.ActionFailedEvent, workflow.ID),
		ExecutionID: execCtx.ID,
		ActionType:  string(action.Type),
		ActionIndex: index,
		Attempts:    attempts,
		Error:       actionErr.Error(),
		Message:     workflow.ErrorHandling.ErrorMessage,
	})
}

func (e *Engine) baseEvent(eventType events.EventType, workflowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:         e.bus.GenerateID(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	err := e.bus.Publish(ctx, key, event)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(),
			"error", err,
		)
	}
}
