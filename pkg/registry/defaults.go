// Package registry provides handler registration for the built-in action types.
package registry

import (
	"log/slog"

	"github.com/flowdeskhq/flowdesk/pkg/actions/apicall"
	"github.com/flowdeskhq/flowdesk/pkg/actions/backoffice"
	"github.com/flowdeskhq/flowdesk/pkg/actions/messaging"
	"github.com/flowdeskhq/flowdesk/pkg/actions/report"
	"github.com/flowdeskhq/flowdesk/pkg/eventbus"
	"github.com/flowdeskhq/flowdesk/pkg/models"
)

// RegisterDefaultHandlers binds every built-in action type to its handler.
func (r *Registry) RegisterDefaultHandlers(
	bus eventbus.EventBus,
	backofficeClient backoffice.Client,
	reportDir string,
	logger *slog.Logger,
) {
	messagingHandler := messaging.NewHandler(bus, logger)
	r.Register(models.ActionSendMessage, messagingHandler)
	r.Register(models.ActionNotifyUser, messagingHandler)

	backofficeHandler := backoffice.NewHandler(backofficeClient, logger)
	r.Register(models.ActionCreateTask, backofficeHandler)
	r.Register(models.ActionUpdateData, backofficeHandler)
	r.Register(models.ActionAssignAgent, backofficeHandler)
	r.Register(models.ActionEscalateIssue, backofficeHandler)

	r.Register(models.ActionAPICall, apicall.NewHandler(logger))
	r.Register(models.ActionGenerateReport, report.NewHandler(reportDir, logger))
}
