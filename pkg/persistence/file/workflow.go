package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/flowdeskhq/flowdesk/pkg/models"
	"github.com/flowdeskhq/flowdesk/pkg/persistence"
)

// WorkflowRepository stores each workflow as a JSON document under
// <root>/workflows/<id>.json.
type WorkflowRepository struct {
	root string
	mu   sync.Mutex // serializes read-modify-write cycles for the version CAS
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(id string) string {
	return filepath.Join(wr.dir(), id+".json")
}

// ListWorkflows loads every stored workflow, applies the filters and returns
// the matches sorted by creation time, newest first.
func (wr *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) ([]*models.Workflow, error) {
	root := os.DirFS(wr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := file[:len(file)-5] // strip .json

		workflow, err := wr.GetByID(ctx, workflowID)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, fmt.Errorf("failed to load workflow %s: %w", workflowID, err)
		}

		if !matches(workflow, opts) {
			continue
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func matches(workflow *models.Workflow, opts persistence.ListWorkflowsOptions) bool {
	if opts.OwnerID != "" && workflow.Owner != opts.OwnerID {
		return false
	}

	if opts.Status != nil && workflow.Status != *opts.Status {
		return false
	}

	if opts.Category != nil && workflow.Category != *opts.Category {
		return false
	}

	if opts.Agent != "" && !slices.Contains(workflow.Agents, opts.Agent) {
		return false
	}

	return true
}

// GetByID reads a single workflow document.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	data, err := os.ReadFile(wr.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return &workflow, nil
}

// Create writes a new workflow document, failing if the id is already taken.
func (wr *WorkflowRepository) Create(_ context.Context, workflow *models.Workflow) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	err := os.MkdirAll(wr.dir(), 0o755)
	if err != nil {
		return persistence.NewWorkflowError("Create", workflow.ID, err)
	}

	_, err = os.Stat(wr.path(workflow.ID))
	if err == nil {
		return persistence.NewWorkflowError("Create", workflow.ID, persistence.ErrWorkflowAlreadyExists)
	}

	return wr.write(workflow)
}

// Update persists the workflow only when the stored version still matches
// expectedVersion.
func (wr *WorkflowRepository) Update(ctx context.Context, workflow *models.Workflow, expectedVersion int64) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	stored, err := wr.GetByID(ctx, workflow.ID)
	if err != nil {
		return err
	}

	if stored.Version != expectedVersion {
		return persistence.NewWorkflowError("Update", workflow.ID, persistence.ErrVersionConflict)
	}

	return wr.write(workflow)
}

func (wr *WorkflowRepository) write(workflow *models.Workflow) error {
	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("write", workflow.ID, err)
	}

	err = os.WriteFile(wr.path(workflow.ID), data, 0o644)
	if err != nil {
		return persistence.NewWorkflowError("write", workflow.ID, err)
	}

	return nil
}

// Delete removes a workflow document.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	err := os.Remove(wr.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}
