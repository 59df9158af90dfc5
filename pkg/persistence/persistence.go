// Package persistence provides the data storage abstraction for workflows.
package persistence

import (
	"context"

	"github.com/flowdeskhq/flowdesk/pkg/models"
)

// Persistence is the durable store behind the engine.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ListWorkflowsOptions filters a workflow listing. Zero values mean "no
// filter" for that field.
type ListWorkflowsOptions struct {
	OwnerID  string
	Status   *models.WorkflowStatus
	Category *models.WorkflowCategory
	Agent    string
}

// WorkflowRepository stores workflow records with optimistic versioning.
// Update is a compare-and-swap: it only persists when the stored version still
// matches expectedVersion, otherwise it returns ErrVersionConflict so the
// caller can re-read and retry.
type WorkflowRepository interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Create(ctx context.Context, workflow *models.Workflow) error
	Update(ctx context.Context, workflow *models.Workflow, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}
