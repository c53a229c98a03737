// Package engine talks to the external evaluation engine over HTTP.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/couchcryptid/forecast-eval-runner/internal/domain"
	"github.com/couchcryptid/forecast-eval-runner/internal/observability"
)

// maxErrorBody caps how much of a failed response is copied into the error.
const maxErrorBody = 4 << 10

// Client implements domain.Evaluator against the engine's HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an engine client. An empty token sends no Authorization header.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// response is the engine's reply to POST /evaluate.
type response struct {
	RunID string             `json:"run_id"`
	Rows  []domain.ResultRow `json:"rows"`
}

// Evaluate posts the request to {baseURL}/evaluate and returns the result rows.
func (c *Client) Evaluate(ctx context.Context, req domain.EvaluationRequest) ([]domain.ResultRow, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode evaluation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("engine request",
		"run", req.RunName,
		"run_id", req.RunID,
		"cases", req.Cases.Len(),
		"tasks", len(req.Tasks),
	)

	start := time.Now()
	rows, err := c.do(httpReq, req.RunID)
	c.metrics.EngineDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.EngineRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.EngineRequests.WithLabelValues("success").Inc()
	return rows, nil
}

func (c *Client) do(httpReq *http.Request, runID string) ([]domain.ResultRow, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("engine error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read engine response: %w", err)
	}

	var out response
	if err := sonic.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}
	if out.RunID != "" && out.RunID != runID {
		return nil, fmt.Errorf("engine answered run %s, expected %s", out.RunID, runID)
	}
	return out.Rows, nil
}
