package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// defaultTimeout bounds every cloud request.
	defaultTimeout = 30 * time.Second

	// userAgent is required by the cloud; unknown agents are rejected.
	userAgent = "android client"

	// maxErrorBody caps how much of an error response is kept for logs.
	maxErrorBody = 512
)

// Client is a small JSON-over-HTTP client for the vendor cloud.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Client struct {
	baseURL string
	country string
	http    *http.Client
}

// NewClient creates a cloud client.
//
// Parameters:
//   - baseURL: cloud root, e.g. https://appapi.cp.dyson.com
//   - country: ISO country code sent with every request
//   - timeout: per-request timeout, zero for the default
func NewClient(baseURL, country string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		country: country,
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path, authorization string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.baseURL + path
	if c.country != "" {
		u += "?" + url.Values{"country": {c.country}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%w: building %s request: %w", ErrCloudUnavailable, path, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrCloudUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w: %s %s", ErrCloudUnavailable, ErrUnauthorized, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrCloudUnavailable, path, err)
	}
	return nil
}

// StatusError describes an unexpected HTTP status. It matches ErrCloudUnavailable.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %s %s: status %d", ErrCloudUnavailable, e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%v: %s %s: status %d: %s", ErrCloudUnavailable, e.Method, e.Path, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrCloudUnavailable) match.
func (e *StatusError) Is(target error) bool { return target == ErrCloudUnavailable }

// ClientError reports whether the request was rejected as a client error (4xx).
func (e *StatusError) ClientError() bool { return e.Code >= 400 && e.Code < 500 }
