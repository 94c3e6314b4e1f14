package letta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kazz187/lettatool/pkg/cerr"
	"github.com/kazz187/lettatool/pkg/clog"
)

const userAgent = "lettatool"

// Client talks to the Letta REST API. It never retries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a response with an unexpected status code. Body holds the
// raw response text so it can be shown to the user verbatim.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// GetAgent fetches an agent with its attached tools.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodGet, "/v1/agents/"+url.PathEscape(agentID), nil, &agent, http.StatusOK); err != nil {
		return nil, wrap(cerr.NotFoundOrAuth, "failed to get agent", err)
	}
	return &agent, nil
}

// UpdateAgentTools overwrites the agent's tool list with toolIDs.
func (c *Client) UpdateAgentTools(ctx context.Context, agentID string, toolIDs []string) (*Agent, error) {
	if toolIDs == nil {
		toolIDs = []string{}
	}
	var agent Agent
	body := &UpdateAgentRequest{ToolIDs: toolIDs}
	if err := c.do(ctx, http.MethodPatch, "/v1/agents/"+url.PathEscape(agentID), body, &agent, http.StatusOK); err != nil {
		return nil, wrap(cerr.RemoteRequestFailed, "failed to update tools", err)
	}
	return &agent, nil
}

// GetTool fetches a tool by name or ID.
func (c *Client) GetTool(ctx context.Context, nameOrID string) (*Tool, error) {
	var tool Tool
	if err := c.do(ctx, http.MethodGet, "/v1/tools/"+url.PathEscape(nameOrID), nil, &tool, http.StatusOK); err != nil {
		return nil, wrap(cerr.RemoteRequestFailed, "could not fetch tool details", err)
	}
	return &tool, nil
}

// CreateTool registers a new tool. Both 200 and 201 count as created.
func (c *Client) CreateTool(ctx context.Context, req *CreateToolRequest) (*Tool, error) {
	var tool Tool
	if err := c.do(ctx, http.MethodPost, "/v1/tools", req, &tool, http.StatusOK, http.StatusCreated); err != nil {
		return nil, wrap(cerr.RemoteRequestFailed, "upload failed", err)
	}
	if tool.ID == "" {
		return nil, cerr.NewError(cerr.RemoteRequestFailed, "upload failed", errors.New("response carries no tool id"))
	}
	return &tool, nil
}

// wrap tags err with code when the server answered with a bad status.
// Transport failures are always RemoteRequestFailed.
func wrap(code cerr.Code, msg string, err error) error {
	if cerr.IsCode(err, cerr.Canceled) {
		return err
	}
	var se *StatusError
	if !errors.As(err, &se) {
		code = cerr.RemoteRequestFailed
	}
	return cerr.NewError(code, msg, err)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, okStatus ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if runID := clog.RunID(ctx); runID != "" {
		req.Header.Set("X-Request-Id", runID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return cerr.NewError(cerr.Canceled, "interrupted", ctx.Err())
		}
		c.logger.WarnContext(ctx, "request failed", "method", method, "path", path, clog.ErrorAttributeKey, err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}
	c.logger.Log(ctx, clog.HTTPStatusToLevel(resp.StatusCode), "api request",
		"method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if !statusIn(resp.StatusCode, okStatus) {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}

func statusIn(status int, ok []int) bool {
	for _, s := range ok {
		if s == status {
			return true
		}
	}
	return false
}
