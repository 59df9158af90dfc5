package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flowdeskhq/flowdesk/pkg/models"
)

const defaultTimeout = 15 * time.Second

// HTTPAdvisor calls an external advice service. Any transport or decoding
// failure falls back to the heuristic advisor so callers always get an answer.
type HTTPAdvisor struct {
	baseURL  string
	client   *http.Client
	fallback *Heuristic
}

func NewHTTPAdvisor(baseURL string) *HTTPAdvisor {
	return &HTTPAdvisor{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: defaultTimeout},
		fallback: NewHeuristic(),
	}
}

type suggestRequest struct {
	Description string                  `json:"description"`
	Category    models.WorkflowCategory `json:"category"`
}

type recommendRequest struct {
	Workflow  *models.Workflow `json:"workflow"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
}

type recommendResponse struct {
	Recommendations []string `json:"recommendations"`
}

func (a *HTTPAdvisor) SuggestWorkflow(ctx context.Context, description string, category models.WorkflowCategory) (*Suggestion, error) {
	var suggestion Suggestion

	err := a.post(ctx, "/v1/suggest", suggestRequest{Description: description, Category: category}, &suggestion)
	if err != nil {
		return a.fallback.SuggestWorkflow(ctx, description, category)
	}

	return &suggestion, nil
}

func (a *HTTPAdvisor) RecommendImprovements(ctx context.Context, workflow *models.Workflow, period Period) ([]string, error) {
	var response recommendResponse

	err := a.post(ctx, "/v1/recommend", recommendRequest{
		Workflow:  workflow,
		StartDate: period.StartDate,
		EndDate:   period.EndDate,
	}, &response)
	if err != nil {
		return a.fallback.RecommendImprovements(ctx, workflow, period)
	}

	return response.Recommendations, nil
}

func (a *HTTPAdvisor) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode advisor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build advisor request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("advisor request failed: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("advisor returned status %d", resp.StatusCode)
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode advisor response: %w", err)
	}

	return nil
}
