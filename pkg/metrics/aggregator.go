// Package metrics maintains the running execution statistics of workflows.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowdeskhq/flowdesk/pkg/locks"
	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/persistence"
)

// maxWriteAttempts bounds the compare-and-swap retry loop. Conflicts only
// come from concurrent runs of the same workflow, which the per-workflow lock
// already serializes, so conflicts here are rare.
const maxWriteAttempts = 5

// WriteError reports that the durable metrics write failed. It is best-effort:
// callers log it and still return the execution result already computed.
type WriteError struct {
	WorkflowID string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write metrics for workflow %s: %v", e.WorkflowID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type Aggregator struct {
	repository persistence.WorkflowRepository
	locker     locks.Locker
	logger     *slog.Logger
	now        func() time.Time
}

func NewAggregator(repository persistence.WorkflowRepository, locker locks.Locker, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		repository: repository,
		locker:     locker,
		logger:     logger.With("module", "metrics_aggregator"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Apply folds one execution outcome into a metrics snapshot using the
// incremental mean: the new average is recomputed from the previous count and
// average, never from stored history.
func Apply(metrics models.ExecutionMetrics, success bool, elapsed time.Duration, now time.Time) models.ExecutionMetrics {
	before := metrics.TotalExecutions
	after := before + 1

	metrics.TotalExecutions = after
	if success {
		metrics.SuccessfulExecutions++
	} else {
		metrics.FailedExecutions++
	}

	elapsedMs := float64(elapsed) / float64(time.Millisecond)
	metrics.AverageExecutionTime = (metrics.AverageExecutionTime*float64(before) + elapsedMs) / float64(after)
	metrics.LastExecutionTime = &now

	return metrics
}

// Record folds the outcome of one run into the workflow's stored metrics and
// returns the updated snapshot. The write goes through the per-workflow lock
// and an optimistic compare-and-swap on the stored version, so concurrent runs
// of the same workflow never lose updates.
func (a *Aggregator) Record(ctx context.Context, workflowID string, success bool, elapsed time.Duration) (*models.Workflow, error) {
	release, err := a.locker.Acquire(ctx, workflowID)
	if err != nil {
		return nil, &WriteError{WorkflowID: workflowID, Err: err}
	}
	defer release()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		workflow, err := a.repository.GetByID(ctx, workflowID)
		if err != nil {
			return nil, &WriteError{WorkflowID: workflowID, Err: err}
		}

		expectedVersion := workflow.Version
		workflow.Metrics = Apply(workflow.Metrics, success, elapsed, a.now())
		workflow.Version++
		workflow.UpdatedAt = a.now()

		err = a.repository.Update(ctx, workflow, expectedVersion)
		if err == nil {
			return workflow, nil
		}

		if !persistence.IsVersionConflict(err) {
			return nil, &WriteError{WorkflowID: workflowID, Err: err}
		}

		a.logger.WarnContext(ctx, "Metrics write lost a version race, retrying",
			"workflow_id", workflowID,
			"attempt", attempt,
		)
	}

	return nil, &WriteError{WorkflowID: workflowID, Err: persistence.ErrVersionConflict}
}
