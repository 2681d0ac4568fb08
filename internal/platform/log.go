package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// JobLog streams the job's log output into w.
//
// With follow set, the connection stays open and new output is written as
// the platform produces it until ctx is cancelled or the job finishes. The
// per-request timeout used by the other methods does not apply here.
func (c *Client) JobLog(ctx context.Context, jobID string, w io.Writer, follow bool) error {
	if jobID == "" {
		return &ValidationError{Msg: "job id is empty"}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("request throttled: %w", err)
	}

	c.mu.RLock()
	baseURL, username, token := c.baseURL, c.username, c.token
	c.mu.RUnlock()

	path := baseURL + "/jobs/" + url.PathEscape(jobID) + "/log"
	if follow {
		path += "?follow=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-User", username)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Status: resp.StatusCode}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ValidationError{Msg: fmt.Sprintf("platform rejected log request (HTTP %d)", resp.StatusCode)}
	case resp.StatusCode >= 300:
		return fmt.Errorf("unexpected platform response: HTTP %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil && ctx.Err() == nil {
		return fmt.Errorf("log stream interrupted: %w", err)
	}
	return nil
}
