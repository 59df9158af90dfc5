// Package backoffice executes the CRUD-flavoured action types (create_task,
// update_data, assign_agent, escalate_issue) against the back-office system.
// The back office itself is a collaborator behind the Client interface.
package backoffice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowdeskhq/flowdesk/pkg/models"
)

// Client is the surface of the back-office system these actions mutate.
type Client interface {
	CreateTask(ctx context.Context, params *models.CreateTaskParams) error
	UpdateData(ctx context.Context, params *models.UpdateDataParams) error
	AssignAgent(ctx context.Context, params *models.AssignAgentParams) error
	EscalateIssue(ctx context.Context, params *models.EscalateIssueParams) error
}

type Handler struct {
	client Client
	logger *slog.Logger
}

func NewHandler(client Client, logger *slog.Logger) *Handler {
	return &Handler{
		client: client,
		logger: logger.With("module", "backoffice_action"),
	}
}

func (h *Handler) Execute(ctx context.Context, params models.ActionParams, execCtx models.ExecutionContext) error {
	h.logger.InfoContext(ctx, "Executing back-office action",
		"execution_id", execCtx.ID,
		"action_type", params.Kind(),
	)

	switch p := params.(type) {
	case *models.CreateTaskParams:
		return h.client.CreateTask(ctx, p)
	case *models.UpdateDataParams:
		return h.client.UpdateData(ctx, p)
	case *models.AssignAgentParams:
		return h.client.AssignAgent(ctx, p)
	case *models.EscalateIssueParams:
		return h.client.EscalateIssue(ctx, p)
	default:
		return fmt.Errorf("backoffice handler received %T parameters", params)
	}
}

// LoggingClient is the default Client: it records each operation instead of
// mutating a real back office. Deployments replace it with a client for their
// department systems.
type LoggingClient struct {
	logger *slog.Logger
}

func NewLoggingClient(logger *slog.Logger) *LoggingClient {
	return &LoggingClient{logger: logger.With("module", "backoffice_client")}
}

func (c *LoggingClient) CreateTask(ctx context.Context, params *models.CreateTaskParams) error {
	c.logger.InfoContext(ctx, "create_task", "title", params.Title, "assignee", params.Assignee)

	return nil
}

func (c *LoggingClient) UpdateData(ctx context.Context, params *models.UpdateDataParams) error {
	c.logger.InfoContext(ctx, "update_data", "entity", params.Entity, "fields", len(params.Fields))

	return nil
}

func (c *LoggingClient) AssignAgent(ctx context.Context, params *models.AssignAgentParams) error {
	c.logger.InfoContext(ctx, "assign_agent", "agent_id", params.AgentID, "target", params.Target)

	return nil
}

func (c *LoggingClient) EscalateIssue(ctx context.Context, params *models.EscalateIssueParams) error {
	c.logger.InfoContext(ctx, "escalate_issue", "reason", params.Reason, "priority", params.Priority)

	return nil
}
