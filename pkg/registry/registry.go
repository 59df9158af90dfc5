// Package registry maps action types to the handlers that perform their side
// effects.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowdeskhq/flowdesk/pkg/models"
)

// ActionHandler performs the side effect of one action type. Retries live in
// the dispatcher, not here: a handler attempts its work exactly once.
type ActionHandler interface {
	Execute(ctx context.Context, params models.ActionParams, execCtx models.ExecutionContext) error
}

// ActionHandlerFunc adapts a function to the ActionHandler interface.
type ActionHandlerFunc func(ctx context.Context, params models.ActionParams, execCtx models.ExecutionContext) error

func (f ActionHandlerFunc) Execute(ctx context.Context, params models.ActionParams, execCtx models.ExecutionContext) error {
	return f(ctx, params, execCtx)
}

type Registry struct {
	logger   *slog.Logger
	handlers map[models.ActionType]ActionHandler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger,
		handlers: make(map[models.ActionType]ActionHandler),
	}
}

// Register binds a handler to an action type, replacing any previous binding.
func (r *Registry) Register(actionType models.ActionType, handler ActionHandler) {
	r.handlers[actionType] = handler
}

// HandlerFor returns the handler bound to the action type.
func (r *Registry) HandlerFor(actionType models.ActionType) (ActionHandler, error) {
	handler, ok := r.handlers[actionType]
	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	return handler, nil
}

// HealthCheck reports whether every known action type has a handler.
func (r *Registry) HealthCheck() (string, bool) {
	for _, actionType := range models.ActionTypes {
		if _, ok := r.handlers[actionType]; !ok {
			return fmt.Sprintf("no handler registered for action type %q", actionType), false
		}
	}

	return "All action handlers registered", true
}
