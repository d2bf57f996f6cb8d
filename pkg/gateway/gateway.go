// Package gateway is a small fetch-style HTTP client for backend endpoints
// that are not served by the query interface.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/pkg/backend"
	"github.com/suteetoe/orgdesk/pkg/logger"
)

// Client wraps an HTTP client with a base URL and bearer authorization.
// The token is supplied by a provider so credential rotation during a
// session is observed on the next call, not ignored. Logging follows the
// caller: each call logs through the context's logger.
type Client struct {
	baseURL    string
	token      backend.TokenProvider
	httpClient *http.Client
}

// NewClient creates a new gateway client.
func NewClient(baseURL string, token backend.TokenProvider) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CallAPI makes an authenticated request and returns the raw response body.
func (c *Client) CallAPI(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	log := logger.FromContext(ctx)
	log.Debug("Making API call",
		zap.String("method", method),
		zap.String("path", path))

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("API request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		log.Error("API request returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path))
		return nil, fmt.Errorf("API request failed: %d %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// GetJSON fetches path and decodes the JSON response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, dest any) error {
	body, err := c.CallAPI(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}
