package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxResponseBodySize = 1 << 20 // 1MB

// connection pooling limits: the client talks to a single API host, so keep
// the pool small and let idle connections expire quickly
const (
	defaultMaxIdleConns    = 10
	defaultMaxConnsPerHost = 10
	defaultIdleConnTimeout = 60 * time.Second
	defaultRequestTimeout  = 15 * time.Second
)

// request throttling: polling plus user actions should never exceed a handful
// of requests per second against the platform API
const (
	requestsPerSecond = 5
	requestBurst      = 10
)

// Client talks to the job-execution platform's REST API.
//
// Credentials and the base URL can be updated at any time via the Update*
// methods; in-flight requests keep the values they started with. All methods
// are safe for concurrent use.
type Client struct {
	mu       sync.RWMutex
	baseURL  string
	username string
	token    string

	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a platform [Client].
//
// baseURL is the API root (e.g. "https://platform.example.com/api/v1").
// Requests are throttled client-side so that aggressive polling cannot
// overwhelm the API, and each request carries a bounded timeout.
func NewClient(baseURL, username, token string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		token:    token,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    defaultMaxIdleConns,
				MaxConnsPerHost: defaultMaxConnsPerHost,
				IdleConnTimeout: defaultIdleConnTimeout,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}
}

// UpdateBaseURL replaces the API root used for subsequent requests.
func (c *Client) UpdateBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.mu.Unlock()
}

// UpdateUsername replaces the username used for subsequent requests.
func (c *Client) UpdateUsername(username string) {
	c.mu.Lock()
	c.username = username
	c.mu.Unlock()
}

// UpdateToken replaces the access token used for subsequent requests.
func (c *Client) UpdateToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ListActiveJobs fetches every job currently in the pending or running state.
//
// The returned order is whatever the platform reports; callers that need a
// stable presentation sort by [JobDescription.CreatedAt].
//
// Returns an [AuthError] when credentials are rejected, a [ValidationError]
// when the response cannot be interpreted, and a plain wrapped error for
// transport failures.
func (c *Client) ListActiveJobs(ctx context.Context) ([]JobDescription, error) {
	query := url.Values{}
	query.Add("status", string(StatusPending))
	query.Add("status", string(StatusRunning))

	body, err := c.do(ctx, http.MethodGet, "/jobs?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Jobs []json.RawMessage `json:"jobs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ValidationError{Msg: "undecodable job listing", Err: err}
	}

	jobs := make([]JobDescription, 0, len(payload.Jobs))
	for _, raw := range payload.Jobs {
		job, err := decodeJob(raw)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Submit submits a job and returns its initial description.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (JobDescription, error) {
	if req.Image == "" {
		return JobDescription{}, &ValidationError{Msg: "submit request is missing an image"}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return JobDescription{}, fmt.Errorf("failed to encode submit request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/jobs", payload)
	if err != nil {
		return JobDescription{}, err
	}
	return decodeJob(body)
}

// SubmitRaw parses a raw parameter string via [ParseSubmitParams], attaches
// the description, and submits the job.
func (c *Client) SubmitRaw(ctx context.Context, description, rawParams string) (JobDescription, error) {
	req, err := ParseSubmitParams(rawParams)
	if err != nil {
		return JobDescription{}, &ValidationError{Msg: "bad job parameters", Err: err}
	}
	req.Description = description
	return c.Submit(ctx, req)
}

// Kill asks the platform to terminate the given job.
func (c *Client) Kill(ctx context.Context, jobID string) error {
	if jobID == "" {
		return &ValidationError{Msg: "job id is empty"}
	}
	_, err := c.do(ctx, http.MethodDelete, "/jobs/"+url.PathEscape(jobID), nil)
	return err
}

// do performs one throttled API request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request throttled: %w", err)
	}

	c.mu.RLock()
	baseURL, username, token := c.baseURL, c.username, c.token
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-User", username)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Status: resp.StatusCode}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &ValidationError{Msg: fmt.Sprintf("platform rejected request (HTTP %d): %s",
			resp.StatusCode, apiErrorMessage(body))}
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected platform response: HTTP %d", resp.StatusCode)
	}

	return body, nil
}

// apiErrorMessage extracts the error field from an API error body, falling
// back to a trimmed copy of the body itself.
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "no details"
	}
	return msg
}
