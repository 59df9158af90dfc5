package models

import "time"

// ExecutionContext carries the immutable inputs of one workflow run. The
// engine never mutates the workflow snapshot; a new snapshot with updated
// metrics is produced after the run settles.
type ExecutionContext struct {
	ID          string
	Workflow    *Workflow
	TriggerData map[string]any
	StartedAt   time.Time
}
