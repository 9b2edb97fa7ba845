// Package inventory provides the client for the cloud inventory REST API and
// the MCP tool server that exposes it to the chat loop.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultTimeout bounds a single inventory API request when no explicit
// timeout is configured.
const defaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response body is kept for the
// error message.
const maxErrorBody = 4 << 10

// StatusError is returned when the inventory API responds with a non-2xx
// status code.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inventory: unexpected status %d: %s", e.Status, e.Body)
}

// Client queries the cloud inventory REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout. The default is 10 seconds.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Mostly useful in tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a [Client] for the inventory API rooted at apiURL.
// A trailing slash on apiURL is tolerated.
func NewClient(apiURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(apiURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Overview fetches the inventory summary: counts of running, stopped, and
// archived clusters, total instances, and provider details.
func (c *Client) Overview(ctx context.Context) (map[string]any, error) {
	return c.get(ctx, "/overview")
}

// Accounts fetches all accounts, or a single account when name is non-empty.
// The returned slice is the "accounts" list from the API response.
func (c *Client) Accounts(ctx context.Context, name string) ([]any, error) {
	path := "/accounts"
	if name != "" {
		path += "/" + url.PathEscape(name)
	}
	res, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	list, _ := res["accounts"].([]any)
	return list, nil
}

// Clusters fetches all clusters, or a single cluster when name is non-empty.
// The returned slice is the "clusters" list from the API response.
func (c *Client) Clusters(ctx context.Context, name string) ([]any, error) {
	path := "/clusters"
	if name != "" {
		path += "/" + url.PathEscape(name)
	}
	res, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	list, _ := res["clusters"].([]any)
	return list, nil
}

// Instances fetches all instances, or the instances belonging to a single
// cluster when clusterName is non-empty. The returned slice is the
// "instances" list from the API response.
func (c *Client) Instances(ctx context.Context, clusterName string) ([]any, error) {
	path := "/instances"
	if clusterName != "" {
		path += "/" + url.PathEscape(clusterName)
	}
	res, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	list, _ := res["instances"].([]any)
	return list, nil
}

// get performs a GET against the API and decodes the JSON object response.
func (c *Client) get(ctx context.Context, path string) (map[string]any, error) {
	fullURL := c.baseURL + path
	slog.Debug("inventory api call", "method", http.MethodGet, "url", fullURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("inventory: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var res map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("inventory: GET %s: decode response: %w", path, err)
	}

	slog.Debug("inventory api call successful", "path", path, "status", resp.StatusCode)
	return res, nil
}
