// Package dispatcher executes single actions with bounded retries and
// exponential backoff.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/registry"
)

// ActionExecutionError reports that an action exhausted all of its attempts.
// It carries the last underlying cause.
type ActionExecutionError struct {
	ActionType models.ActionType
	Attempts   int
	Err        error
}

func (e *ActionExecutionError) Error() string {
	return fmt.Sprintf("action %s failed after %d attempts: %v", e.ActionType, e.Attempts, e.Err)
}

func (e *ActionExecutionError) Unwrap() error {
	return e.Err
}

// SleepFunc waits for the given duration or until the context is cancelled.
type SleepFunc func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Dispatcher struct {
	registry *registry.Registry
	logger   *slog.Logger
	sleep    SleepFunc
}

func NewDispatcher(reg *registry.Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		logger:   logger.With("module", "action_dispatcher"),
		sleep:    contextSleep,
	}
}

// Backoff returns the delay inserted before the nth retry (n is the 1-based
// count of retries already made): multiplier^n seconds, a strictly increasing
// sequence for multipliers above 1.
func Backoff(multiplier float64, retries int) time.Duration {
	return time.Duration(math.Pow(multiplier, float64(retries)) * float64(time.Second))
}

// ExecuteAction runs one action through its registered handler, retrying up to
// RetryConfig.MaxAttempts times. The backoff sleep suspends only this action:
// sibling actions of a parallel run are unaffected. After the final attempt the
// last error is propagated as an ActionExecutionError.
func (d *Dispatcher) ExecuteAction(ctx context.Context, action *models.Action, execCtx models.ExecutionContext) error {
	handler, err := d.registry.HandlerFor(action.Type)
	if err != nil {
		return &ActionExecutionError{ActionType: action.Type, Attempts: 0, Err: err}
	}

	retryConfig := action.RetryConfig
	retryConfig.Normalize()

	logger := d.logger.With(
		"execution_id", execCtx.ID,
		"workflow_id", execCtx.Workflow.ID,
		"action_type", action.Type,
	)

	var lastErr error

	for attempt := 1; attempt <= retryConfig.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := Backoff(retryConfig.BackoffMultiplier, attempt-1)
			logger.InfoContext(ctx, "Retrying action",
				"attempt", attempt,
				"max_attempts", retryConfig.MaxAttempts,
				"backoff", delay,
			)

			err = d.sleep(ctx, delay)
			if err != nil {
				return &ActionExecutionError{
					ActionType: action.Type,
					Attempts:   attempt - 1,
					Err:        err,
				}
			}
		}

		lastErr = handler.Execute(ctx, action.Parameters, execCtx)
		if lastErr == nil {
			return nil
		}

		logger.WarnContext(ctx, "Action attempt failed",
			"attempt", attempt,
			"error", lastErr,
		)
	}

	return &ActionExecutionError{
		ActionType: action.Type,
		Attempts:   retryConfig.MaxAttempts,
		Err:        lastErr,
	}
}
