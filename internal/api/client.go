// Package api is the typed HTTP client for the Loomon backend. Every
// backend endpoint the product consumes has a method here; callers never
// inspect raw responses: network failures, non-2xx statuses, and non-JSON
// bodies are all normalized into errors by this package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

const defaultTimeout = 60 * time.Second

// CredentialProvider supplies the CSRF token attached to mutating requests.
// Session-cookie credentials ride along in the client's cookie jar; the CSRF
// token is the only credential callers have to provide explicitly.
type CredentialProvider interface {
	CSRFToken(ctx context.Context) (string, error)
}

// StaticCredentials is a CredentialProvider returning a fixed token.
// An empty token disables the CSRF header.
type StaticCredentials string

func (s StaticCredentials) CSRFToken(ctx context.Context) (string, error) {
	return string(s), nil
}

// Client communicates with a Loomon backend deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialProvider
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The provided client's
// cookie jar is left untouched, so callers own cookie persistence.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCredentials sets the CSRF credential provider.
func WithCredentials(p CredentialProvider) Option {
	return func(c *Client) { c.creds = p }
}

// New creates a Client targeting the given base URL (including the /api
// prefix, e.g. "https://loomon.example.com/api"). The default HTTP client
// carries an in-memory cookie jar so the backend's session cookie survives
// across calls within a process.
func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		creds: StaticCredentials(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs a single request. One attempt, no retries: failures surface
// immediately to the caller.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if method != http.MethodGet && c.creds != nil {
		token, err := c.creds.CSRFToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting CSRF token: %w", err)
		}
		if token != "" {
			req.Header.Set("X-CSRFToken", token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(resp, v)
}

func (c *Client) post(ctx context.Context, path string, body, v any) error {
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decode(resp, v)
}

func (c *Client) patch(ctx context.Context, path string, body, v any) error {
	resp, err := c.do(ctx, http.MethodPatch, path, body)
	if err != nil {
		return err
	}
	return decode(resp, v)
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// decode consumes a response body, translating non-2xx statuses and
// non-JSON bodies into normalized errors. Pass a nil target to discard a
// successful body (204 deletes and message-only responses).
func decode(resp *http.Response, v any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return newError(resp)
	}
	if v == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned non-JSON response: %s", firstLine(body, resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func firstLine(body []byte, fallback string) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return fallback
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
