// Package syncclient implements the pull/merge/push protocol used by the
// CLI against a running daemon.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"linguaflow/internal/api"
)

// Client talks to the daemon's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the given base URL. An empty token disables the
// Authorization header, which only works against a daemon configured
// without one.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Pull fetches the approved snapshot for a project. lang and namespace are
// optional filters.
func (c *Client) Pull(ctx context.Context, projectID int64, lang, namespace string) (*api.PullResponse, error) {
	query := url.Values{}
	query.Set("projectId", strconv.FormatInt(projectID, 10))
	if lang != "" {
		query.Set("lang", lang)
	}
	if namespace != "" {
		query.Set("namespace", namespace)
	}

	var resp api.PullResponse
	if err := c.do(ctx, http.MethodGet, "/sync?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Push uploads a translation map. The server applies overwrite semantics.
func (c *Client) Push(ctx context.Context, req api.PushRequest) (*api.PushResponse, error) {
	var resp api.PushResponse
	if err := c.do(ctx, http.MethodPost, "/sync", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BulkUpload imports keys with per-key conflict resolution.
func (c *Client) BulkUpload(ctx context.Context, projectID int64, req api.BulkUploadRequest) (*api.BulkUploadResponse, error) {
	var resp api.BulkUploadResponse
	path := fmt.Sprintf("/projects/%d/bulk-upload", projectID)
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Enqueue schedules AI translation jobs.
func (c *Client) Enqueue(ctx context.Context, req api.EnqueueRequest) (*api.EnqueueResponse, error) {
	var resp api.EnqueueResponse
	if err := c.do(ctx, http.MethodPost, "/queue", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueHealth returns the queue status counters.
func (c *Client) QueueHealth(ctx context.Context) (*api.QueueHealthResponse, error) {
	var resp api.QueueHealthResponse
	if err := c.do(ctx, http.MethodGet, "/queue/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns the daemon status summary.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var body api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
