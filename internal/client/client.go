package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"serfdom/internal/api"
	"serfdom/internal/overseer"
	"serfdom/internal/serf"
)

const defaultTimeout = 60 * time.Second

// Client talks to the serfdom daemon API over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

// New constructs a client for the daemon at baseURL. A bare host:port is
// accepted and upgraded to http. The token may be empty when the daemon does
// not require authentication.
func New(baseURL, token string) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed != "" && !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	return &Client{
		baseURL: trimmed,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithOptions constructs a client with additional options applied.
func NewWithOptions(baseURL, token string, opts ...Option) *Client {
	c := New(baseURL, token)
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Status fetches the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (api.StatusSnapshot, error) {
	var out api.StatusSnapshot
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out)
	return out, err
}

// Process submits a task request. Synchronous submissions return the final
// task view; async submissions return the accepted pending view.
func (c *Client) Process(ctx context.Context, req api.ProcessRequest) (api.TaskView, error) {
	var out api.TaskView
	err := c.do(ctx, http.MethodPost, "/api/process", req, &out)
	return out, err
}

// Task fetches one task by request id.
func (c *Client) Task(ctx context.Context, requestID string) (api.TaskView, error) {
	var out api.TaskView
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+requestID, nil, &out)
	return out, err
}

// Tasks lists recent task results, newest first. A non-positive limit
// returns everything.
func (c *Client) Tasks(ctx context.Context, limit int) ([]api.TaskView, error) {
	path := "/api/tasks"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out api.TaskListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// Metrics fetches the engine's aggregate counters.
func (c *Client) Metrics(ctx context.Context) (api.MetricsView, error) {
	var out api.MetricsView
	err := c.do(ctx, http.MethodGet, "/api/metrics", nil, &out)
	return out, err
}

// Queue fetches the in-flight request map.
func (c *Client) Queue(ctx context.Context) (api.QueueStatusView, error) {
	var out api.QueueStatusView
	err := c.do(ctx, http.MethodGet, "/api/queue", nil, &out)
	return out, err
}

// Delegate records a delegation through the overseer.
func (c *Client) Delegate(ctx context.Context, req api.DelegateRequest) (api.DelegationView, error) {
	var out api.DelegationView
	err := c.do(ctx, http.MethodPost, "/api/delegate", req, &out)
	return out, err
}

// Delegations lists the delegation history in issue order.
func (c *Client) Delegations(ctx context.Context) ([]api.DelegationView, error) {
	var out api.DelegationListResponse
	if err := c.do(ctx, http.MethodGet, "/api/delegations", nil, &out); err != nil {
		return nil, err
	}
	return out.Delegations, nil
}

// Strategize asks the overseer for a strategic plan.
func (c *Client) Strategize(ctx context.Context, req api.StrategizeRequest) (*overseer.StrategicPlan, error) {
	var out overseer.StrategicPlan
	if err := c.do(ctx, http.MethodPost, "/api/strategize", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Interact routes a user message to the serf agent.
func (c *Client) Interact(ctx context.Context, req api.InteractRequest) (*serf.Response, error) {
	var out serf.Response
	if err := c.do(ctx, http.MethodPost, "/api/interact", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("daemon address not configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
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
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon: unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
