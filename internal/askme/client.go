// Package askme talks to the AskMe Bot chat endpoint.
package askme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 * 1024

// Client handles communication with the chat backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewClient creates a new chat client. A zero timeout waits indefinitely.
func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Ask posts question to /api/chat and returns the bot's reply. Non-2xx
// answers are returned as *APIError.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	// Marshal request to JSON
	jsonData, err := json.Marshal(ChatRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// Create HTTP request
	url := fmt.Sprintf("%s/api/chat", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()

	// Execute request
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warnw("Chat request failed", "url", url, "error", err)
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(resp.StatusCode, resp.Header.Get("Content-Type"), body)
		c.logger.Warnw("Chat endpoint returned an error",
			"status", resp.StatusCode,
			"detail", apiErr.Detail,
			"body", apiErr.Body,
			"duration", time.Since(start),
		)
		return "", apiErr
	}

	// Parse response
	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Response == nil {
		return "", fmt.Errorf("failed to parse response: missing \"response\" field")
	}

	c.logger.Debugw("Chat reply received", "status", resp.StatusCode, "duration", time.Since(start))
	return *chatResp.Response, nil
}

// HealthCheck verifies that the backend answers on its root route
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := c.baseURL + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("AskMe backend is unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("AskMe backend returned status %d", resp.StatusCode)
	}
	return nil
}
