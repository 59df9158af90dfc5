// Package report executes generate_report actions. Reports are JSON snapshots
// of the workflow's execution statistics written to a target directory.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/flowdeskhq/flowdesk/pkg/models"
)

type Handler struct {
	dir    string
	logger *slog.Logger
}

func NewHandler(dir string, logger *slog.Logger) *Handler {
	return &Handler{
		dir:    dir,
		logger: logger.With("module", "report_action"),
	}
}

type document struct {
	ReportType  string                  `json:"report_type"`
	Format      string                  `json:"format,omitempty"`
	Period      string                  `json:"period,omitempty"`
	WorkflowID  string                  `json:"workflow_id"`
	Workflow    string                  `json:"workflow_name"`
	Category    models.WorkflowCategory `json:"category"`
	Metrics     models.ExecutionMetrics `json:"metrics"`
	GeneratedAt time.Time               `json:"generated_at"`
}

func (h *Handler) Execute(ctx context.Context, params models.ActionParams, execCtx models.ExecutionContext) error {
	reportParams, ok := params.(*models.GenerateReportParams)
	if !ok {
		return fmt.Errorf("generate_report handler received %T parameters", params)
	}

	workflow := execCtx.Workflow

	doc := document{
		ReportType:  reportParams.ReportType,
		Format:      reportParams.Format,
		Period:      reportParams.Period,
		WorkflowID:  workflow.ID,
		Workflow:    workflow.Name,
		Category:    workflow.Category,
		Metrics:     workflow.Metrics,
		GeneratedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	err = os.MkdirAll(h.dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s-%d.json", workflow.ID, reportParams.ReportType, doc.GeneratedAt.UnixMilli())
	path := filepath.Join(h.dir, name)

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	h.logger.InfoContext(ctx, "Generated report",
		"execution_id", execCtx.ID,
		"report_type", reportParams.ReportType,
		"path", path,
	)

	return nil
}
