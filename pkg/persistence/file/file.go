// Package file provides filesystem-backed persistence, used for development
// and tests. Writes are serialized in-process, which makes the version
// compare-and-swap atomic for a single process.
package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/flowdeskhq/flowdesk/pkg/persistence"
)

type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a file-backed persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{
		root:         root,
		workflowRepo: NewWorkflowRepository(root),
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return os.MkdirAll(filepath.Join(p.root, "workflows"), 0o755)
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
