package metrics

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/flowdeskhq/flowdesk/pkg/locks"
	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRepository(t *testing.T) *file.WorkflowRepository {
	t.Helper()

	repo := file.NewWorkflowRepository(t.TempDir())

	workflow := &models.Workflow{
		ID:       "wf-1",
		Name:     "Metered",
		Owner:    "owner-1",
		Category: models.CategoryFinance,
		Status:   models.WorkflowStatusActive,
		Version:  1,
		Triggers: []*models.Trigger{{Event: models.EventCustomerAction}},
		Actions: []*models.Action{
			{
				Type:       models.ActionSendMessage,
				Parameters: &models.SendMessageParams{Message: "hi"},
			},
		},
	}

	require.NoError(t, repo.Create(t.Context(), workflow))

	return repo
}

func TestApplyIncrementalMean(t *testing.T) {
	now := time.Now().UTC()

	metrics := Apply(models.ExecutionMetrics{}, true, 100*time.Millisecond, now)
	assert.Equal(t, int64(1), metrics.TotalExecutions)
	assert.Equal(t, int64(1), metrics.SuccessfulExecutions)
	assert.InDelta(t, 100.0, metrics.AverageExecutionTime, 0.0001)

	metrics = Apply(metrics, false, 300*time.Millisecond, now)
	assert.Equal(t, int64(2), metrics.TotalExecutions)
	assert.Equal(t, int64(1), metrics.SuccessfulExecutions)
	assert.Equal(t, int64(1), metrics.FailedExecutions)
	assert.InDelta(t, 200.0, metrics.AverageExecutionTime, 0.0001)
	require.NotNil(t, metrics.LastExecutionTime)
	assert.Equal(t, now, *metrics.LastExecutionTime)
}

func TestApplyKeepsTotalInvariant(t *testing.T) {
	metrics := models.ExecutionMetrics{}
	now := time.Now().UTC()

	outcomes := []bool{true, false, true, true, false}
	for _, success := range outcomes {
		metrics = Apply(metrics, success, 50*time.Millisecond, now)
	}

	assert.Equal(t, metrics.TotalExecutions, metrics.SuccessfulExecutions+metrics.FailedExecutions)
}

func TestRecordPersistsAndBumpsVersion(t *testing.T) {
	repo := seededRepository(t)
	aggregator := NewAggregator(repo, locks.NewMemoryLocker(), slog.Default())

	updated, err := aggregator.Record(t.Context(), "wf-1", true, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, int64(1), updated.Metrics.TotalExecutions)

	stored, err := repo.GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Metrics.SuccessfulExecutions)
	assert.InDelta(t, 100.0, stored.Metrics.AverageExecutionTime, 0.0001)
}

func TestRecordAveragesAcrossRuns(t *testing.T) {
	repo := seededRepository(t)
	aggregator := NewAggregator(repo, locks.NewMemoryLocker(), slog.Default())

	_, err := aggregator.Record(t.Context(), "wf-1", true, 100*time.Millisecond)
	require.NoError(t, err)

	updated, err := aggregator.Record(t.Context(), "wf-1", true, 300*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, int64(2), updated.Metrics.TotalExecutions)
	assert.InDelta(t, 200.0, updated.Metrics.AverageExecutionTime, 0.0001)
}

func TestRecordConcurrentRunsLoseNothing(t *testing.T) {
	repo := seededRepository(t)
	aggregator := NewAggregator(repo, locks.NewMemoryLocker(), slog.Default())

	const runs = 20

	var wg sync.WaitGroup

	for i := range runs {
		wg.Add(1)

		success := i%2 == 0

		go func() {
			defer wg.Done()

			_, err := aggregator.Record(t.Context(), "wf-1", success, 10*time.Millisecond)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	stored, err := repo.GetByID(t.Context(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, int64(runs), stored.Metrics.TotalExecutions)
	assert.Equal(t, stored.Metrics.TotalExecutions,
		stored.Metrics.SuccessfulExecutions+stored.Metrics.FailedExecutions)
}

func TestRecordMissingWorkflow(t *testing.T) {
	repo := file.NewWorkflowRepository(t.TempDir())
	aggregator := NewAggregator(repo, locks.NewMemoryLocker(), slog.Default())

	_, err := aggregator.Record(t.Context(), "ghost", true, time.Millisecond)

	var writeErr *WriteError

	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "ghost", writeErr.WorkflowID)
}
