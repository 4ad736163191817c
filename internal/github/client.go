package github

import (
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

	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every outbound request. There are no retries
// and no backoff; a timeout surfaces like any other transport failure.
const DefaultTimeout = 30 * time.Second

// ErrNotFound is returned when the remote API answers 404 for the
// requested path. Callers use it to tell "the resource is absent
// upstream" apart from a transport or server failure.
var ErrNotFound = errors.New("github: resource not found")

// ResponseError is returned for any non-2xx status other than 404.
type ResponseError struct {
	StatusCode int
	URL        string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("github: %s returned status %d", e.URL, e.StatusCode)
}

// RequestError is returned when the request never produced a usable
// response: dial failures, timeouts, or an unreadable body.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("github: request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client issues GET requests against a GitHub-style REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the given base URL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	// Relative paths must resolve under the base path, not replace it.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Get issues a single GET against the base URL joined with path. A
// non-empty accessToken is sent as a bearer credential. The raw JSON
// body is returned on any 2xx status; otherwise the error is
// ErrNotFound for a 404, *ResponseError for any other status, or
// *RequestError for a transport-level failure.
func (c *Client) Get(ctx context.Context, path, accessToken string, params url.Values) (json.RawMessage, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, &RequestError{URL: path, Err: err}
	}
	target := c.baseURL.ResolveReference(ref)
	if len(params) > 0 {
		target.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, &RequestError{URL: target.String(), Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	c.logger.Info("Requesting GitHub API", "url", target.String())

	resp, err := c.httpFor(accessToken).Do(req)
	if err != nil {
		return nil, &RequestError{URL: target.String(), Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, &ResponseError{StatusCode: resp.StatusCode, URL: target.String()}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{URL: target.String(), Err: err}
	}
	return json.RawMessage(body), nil
}

// httpFor returns the HTTP client for a single call. Tokens vary per
// authenticated user, so the bearer transport is assembled per call
// rather than at construction.
func (c *Client) httpFor(accessToken string) *http.Client {
	if accessToken == "" {
		return c.httpClient
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return &http.Client{
		Transport: &oauth2.Transport{Source: src},
		Timeout:   c.httpClient.Timeout,
	}
}
