// Package apicall executes api_call actions as outbound HTTP requests.
package apicall

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flowdeskhq/flowdesk/pkg/models"
)

const defaultTimeoutSeconds = 30

type Handler struct {
	client *http.Client
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{
		client: &http.Client{Timeout: defaultTimeoutSeconds * time.Second},
		logger: logger.With("module", "api_call_action"),
	}
}

// Execute performs a single HTTP request. Retrying a failed request is the
// dispatcher's job, so any non-2xx status or transport error is returned as-is.
func (h *Handler) Execute(ctx context.Context, params models.ActionParams, execCtx models.ExecutionContext) error {
	callParams, ok := params.(*models.APICallParams)
	if !ok {
		return fmt.Errorf("api_call handler received %T parameters", params)
	}

	method := strings.ToUpper(callParams.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if callParams.Body != "" {
		body = strings.NewReader(callParams.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, callParams.URL, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	for key, value := range callParams.Headers {
		req.Header.Set(key, value)
	}

	h.logger.InfoContext(ctx, "Executing api_call action",
		"execution_id", execCtx.ID,
		"method", method,
		"url", callParams.URL,
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("api call to %s returned status %d", callParams.URL, resp.StatusCode)
	}

	return nil
}
