// ABOUTME: HTTP client for the virtualization dashboard API
// ABOUTME: Wraps API calls with proper error handling for CLI usage

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markalston/virt-dashboard/internal/search"
	"github.com/markalston/virt-dashboard/internal/snapshot"
	"github.com/markalston/virt-dashboard/internal/view"
)

// Client is the API client for the dashboard backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the given base URL
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the backend URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RefreshStatus mirrors the backend's latest refresh outcome
type RefreshStatus struct {
	Source      string    `json:"source"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

// SnapshotStatus describes the snapshot the backend serves
type SnapshotStatus struct {
	Available   bool      `json:"available"`
	Source      string    `json:"source,omitempty"`
	CollectedAt time.Time `json:"collected_at,omitzero"`
}

// HealthResponse represents the /api/v1/health endpoint response
type HealthResponse struct {
	Status       string         `json:"status"`
	Snapshot     SnapshotStatus `json:"snapshot"`
	Refresh      *RefreshStatus `json:"refresh,omitempty"`
	VSphere      string         `json:"vsphere"`
	CacheEntries int            `json:"cache_entries"`
}

// RefreshResponse represents the /api/v1/refresh endpoint response
type RefreshResponse struct {
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collected_at"`
}

// NavigateResponse represents the /api/v1/navigate endpoint response
type NavigateResponse struct {
	Query string `json:"query"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

// Health calls GET /api/v1/health
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, http.StatusOK, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Snapshot calls GET /api/v1/snapshot
func (c *Client) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/snapshot", nil, http.StatusOK, &raw); err != nil {
		return nil, err
	}
	s, err := snapshot.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid response from backend: %w", err)
	}
	return s, nil
}

// Dashboard calls GET /api/v1/dashboard. A non-empty dialog opens that
// card's drill-down.
func (c *Client) Dashboard(ctx context.Context, dialog string) (*view.DashboardView, error) {
	path := "/api/v1/dashboard"
	if dialog != "" {
		path += "?dialog=" + url.QueryEscape(dialog)
	}
	var v view.DashboardView
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Refresh calls POST /api/v1/refresh
func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/refresh", nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Navigate calls POST /api/v1/navigate and returns the search string the
// backend forwarded.
func (c *Client) Navigate(ctx context.Context, req search.Request) (string, error) {
	var resp NavigateResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/navigate", req, http.StatusAccepted, &resp); err != nil {
		return "", err
	}
	return resp.Query, nil
}

// Name and Fetch let the client serve as a snapshot source.
func (c *Client) Name() string {
	return "api"
}

func (c *Client) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	return c.Snapshot(ctx)
}

var _ snapshot.Source = (*Client)(nil)

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal input: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return c.handleErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("request canceled")
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	if errResp.Details != "" {
		return fmt.Errorf("backend error: %s: %s", errResp.Error, errResp.Details)
	}
	return fmt.Errorf("backend error: %s", errResp.Error)
}
