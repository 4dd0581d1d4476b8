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
	"strconv"
	"strings"
	"time"

	"github.com/benvon/todo-api/internal/models"
	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is where the server listens by default
	DefaultBaseURL = "http://localhost:3000"

	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
	requestIDHeader = "X-Request-ID"
)

// APIError is returned for every non-2xx response
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Details    []string
	RequestID  string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.StatusCode, e.Type, e.Message)
	if len(e.Details) > 1 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

// IsNotFound reports whether err is an APIError with status 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the todo API over HTTP
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListOptions narrows a List call. Zero values mean no filter.
type ListOptions struct {
	Status string
	Search string
	Limit  int
}

// ListResult is a page of todos with the matched and unfiltered counts
type ListResult struct {
	Todos []*models.Todo
	Count int
	Total int
}

// TodoRequest is the body of create, replace and patch calls. Nil fields are omitted.
type TodoRequest struct {
	Title    *string          `json:"title,omitempty"`
	Done     *bool            `json:"done,omitempty"`
	Priority *models.Priority `json:"priority,omitempty"`
}

// HealthStatus is the /health response
type HealthStatus struct {
	Success bool              `json:"success"`
	Status  string            `json:"status"`
	Uptime  float64           `json:"uptime"`
	Count   int               `json:"count"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// response covers the envelope keys every endpoint may set
type response struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	Count     int             `json:"count"`
	Total     int             `json:"total"`
	Removed   int             `json:"removed"`
	Remaining int             `json:"remaining"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// List returns todos matching opts
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var resp response
	if err := c.do(ctx, http.MethodGet, "/todos", q, nil, &resp); err != nil {
		return nil, err
	}

	var todos []*models.Todo
	if err := decodeData(resp.Data, &todos); err != nil {
		return nil, err
	}
	return &ListResult{Todos: todos, Count: resp.Count, Total: resp.Total}, nil
}

// Get returns a single todo
func (c *Client) Get(ctx context.Context, id int) (*models.Todo, error) {
	return c.todoCall(ctx, http.MethodGet, todoPath(id), nil)
}

// Create adds a todo
func (c *Client) Create(ctx context.Context, req TodoRequest) (*models.Todo, error) {
	return c.todoCall(ctx, http.MethodPost, "/todos", req)
}

// Update replaces a todo (PUT). Title is required by the server.
func (c *Client) Update(ctx context.Context, id int, req TodoRequest) (*models.Todo, error) {
	return c.todoCall(ctx, http.MethodPut, todoPath(id), req)
}

// Patch applies a partial update
func (c *Client) Patch(ctx context.Context, id int, req TodoRequest) (*models.Todo, error) {
	return c.todoCall(ctx, http.MethodPatch, todoPath(id), req)
}

// Delete removes a todo and returns it
func (c *Client) Delete(ctx context.Context, id int) (*models.Todo, error) {
	return c.todoCall(ctx, http.MethodDelete, todoPath(id), nil)
}

// CompleteAll marks every pending todo done and returns how many changed
func (c *Client) CompleteAll(ctx context.Context) (int, error) {
	var resp response
	if err := c.do(ctx, http.MethodPatch, "/todos/complete-all", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// ClearCompleted removes done todos and returns the removed and remaining counts
func (c *Client) ClearCompleted(ctx context.Context) (removed, remaining int, err error) {
	var resp response
	if err := c.do(ctx, http.MethodDelete, "/todos/completed", nil, nil, &resp); err != nil {
		return 0, 0, err
	}
	return resp.Removed, resp.Remaining, nil
}

// Stats returns aggregate counts
func (c *Client) Stats(ctx context.Context) (*models.TodoStats, error) {
	var resp response
	if err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &resp); err != nil {
		return nil, err
	}
	var stats models.TodoStats
	if err := decodeData(resp.Data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DetailedStats returns counts by priority and recent activity
func (c *Client) DetailedStats(ctx context.Context) (*models.DetailedTodoStats, error) {
	var resp response
	if err := c.do(ctx, http.MethodGet, "/stats/detailed", nil, nil, &resp); err != nil {
		return nil, err
	}
	var stats models.DetailedTodoStats
	if err := decodeData(resp.Data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health queries /health. An unhealthy extended check is reported in the result, not as an error.
func (c *Client) Health(ctx context.Context, extended bool) (*HealthStatus, error) {
	q := url.Values{}
	if extended {
		q.Set("mode", "extended")
	}

	var status HealthStatus
	err := c.do(ctx, http.MethodGet, "/health", q, nil, &status)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && status.Status != "" {
		return &status, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) todoCall(ctx context.Context, method, path string, body any) (*models.Todo, error) {
	var resp response
	if err := c.do(ctx, method, path, nil, body, &resp); err != nil {
		return nil, err
	}
	var todo models.Todo
	if err := decodeData(resp.Data, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// do sends one request. Non-2xx responses become *APIError; the body is still decoded into out
// for 503 so health details survive.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Type:       http.StatusText(resp.StatusCode),
			Message:    http.StatusText(resp.StatusCode),
			RequestID:  resp.Header.Get(requestIDHeader),
		}
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil {
			if e.Error != "" {
				apiErr.Type = e.Error
			}
			if e.Message != "" {
				apiErr.Message = e.Message
			}
			apiErr.Details = e.Details
		}
		if resp.StatusCode == http.StatusServiceUnavailable && out != nil {
			_ = json.Unmarshal(raw, out)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeData(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errors.New("response has no data")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func todoPath(id int) string {
	return "/todos/" + strconv.Itoa(id)
}
