// Package httpapi implements the service.Service interface over the task HTTP JSON API.
package httpapi

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

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"taskboard/internal/config"
	"taskboard/internal/service"
)

const (
	// RequestIDHeader carries a random id per request for server-side correlation.
	RequestIDHeader = "X-Request-ID"

	tasksPath = "/tasks"
)

// Client implements service.Service using the task HTTP API.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

// New creates a client for the API address in cfg.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	base, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}
	return &Client{
		base:    base,
		http:    &http.Client{},
		timeout: cfg.Timeout,
	}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client) (*Client, error) {
	cfg := &config.Config{APIBase: baseURL}
	base, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}
	return &Client{base: base, http: httpClient}, nil
}

// ListTasks returns the tasks matching filter.
// Both a bare JSON array and a {"tasks": [...]} envelope are accepted.
func (c *Client) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, tasksPath, filter.Values(), nil)
	if err != nil {
		return nil, wrapError(err)
	}

	tasks, err := decodeTaskList(body)
	if err != nil {
		return nil, fmt.Errorf("decode task list: %w", err)
	}
	return tasks, nil
}

// CreateTask creates a task. The server's copy is returned when the response has a body.
func (c *Client) CreateTask(ctx context.Context, input service.NewTask) (service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(input)
	if err != nil {
		return service.Task{}, fmt.Errorf("encode task: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, tasksPath, nil, payload)
	if err != nil {
		return service.Task{}, wrapError(err)
	}

	var created service.Task
	if len(bytes.TrimSpace(body)) == 0 {
		return created, nil
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return service.Task{}, fmt.Errorf("%w: %w", service.ErrBadResponse, err)
	}
	return created, nil
}

// ToggleTask flips the completed flag of a task.
func (c *Client) ToggleTask(ctx context.Context, id int64) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.do(ctx, http.MethodPatch, taskPath(id)+"/toggle", nil, nil)
	return wrapError(err)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
	return wrapError(err)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// do sends one request and returns the response body of a 2xx response.
// Non-2xx responses come back as *googleapi.Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	u := c.endpoint(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// endpoint joins path onto the base address, keeping any base path prefix.
func (c *Client) endpoint(path string) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return &u
}

func taskPath(id int64) string {
	return tasksPath + "/" + strconv.FormatInt(id, 10)
}

func decodeTaskList(body []byte) ([]service.Task, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Tasks []service.Task `json:"tasks"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		return envelope.Tasks, nil
	}

	var tasks []service.Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := apiMessage(apiErr)
		switch {
		case apiErr.Code == http.StatusNotFound:
			return service.ErrNotFound
		case apiErr.Code >= 500:
			return fmt.Errorf("server error: %d %s", apiErr.Code, msg)
		default:
			return fmt.Errorf("request rejected: %d %s", apiErr.Code, msg)
		}
	}

	return err
}

// apiMessage extracts a readable message from an error response.
// Servers answering {"error": "..."} get that text; otherwise the raw body or status text.
func apiMessage(e *googleapi.Error) string {
	if e.Message != "" {
		return e.Message
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(e.Body), &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if b := strings.TrimSpace(e.Body); b != "" && len(b) <= 200 {
		return b
	}
	return http.StatusText(e.Code)
}
