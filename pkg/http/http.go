// Package http is a small fluent JSON client for talking to the storefront
// API (or any other JSON service).
//
// Usage:
//
//	api := http.NewClient("http://localhost:8080", http.WithTimeout(10*time.Second))
//
//	resp, err := api.Post("/api/orders").
//	    Body(order).
//	    Send(ctx)
//
//	var out struct{ Data models.Order }
//	err = resp.JSON(&out)
//
// Retry is opt-in per request and only repeats attempts that never got a
// response; it is meant for idempotent reads.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

var defaultTransport = &gohttp.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

// ─── Client ──────────────────────────────────────────────────────────────────

// Client holds the base URL and transport shared by its requests.
type Client struct {
	baseURL string
	http    *gohttp.Client
	timeout time.Duration
	headers map[string]string
}

type Option func(*Client)

// WithTimeout sets the per-attempt timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient swaps the underlying client, e.g. for an httptest server.
func WithHTTPClient(hc *gohttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &gohttp.Client{Transport: defaultTransport},
		timeout: 30 * time.Second,
		headers: map[string]string{"Accept": "application/json"},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the URL paths are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(path string) *Request    { return c.newRequest(gohttp.MethodGet, path) }
func (c *Client) Post(path string) *Request   { return c.newRequest(gohttp.MethodPost, path) }
func (c *Client) Put(path string) *Request    { return c.newRequest(gohttp.MethodPut, path) }
func (c *Client) Delete(path string) *Request { return c.newRequest(gohttp.MethodDelete, path) }

func (c *Client) newRequest(method, path string) *Request {
	headers := make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = c.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	return &Request{
		client:    c,
		method:    method,
		url:       url,
		headers:   headers,
		timeout:   c.timeout,
		retries:   1,
		retryWait: 500 * time.Millisecond,
	}
}

// ─── Request ─────────────────────────────────────────────────────────────────

// Request is a fluent HTTP request builder.
type Request struct {
	client    *Client
	method    string
	url       string
	headers   map[string]string
	body      any
	timeout   time.Duration
	retries   int
	retryWait time.Duration
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header.
func (r *Request) Bearer(token string) *Request {
	if token == "" {
		return r
	}
	return r.Header("Authorization", "Bearer "+token)
}

// Body sets the request body. v is marshalled to JSON unless it is a string
// or []byte.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry sets the total attempts (1 = no retry) and the initial backoff,
// which doubles after each failed attempt.
func (r *Request) Retry(n int, wait time.Duration) *Request {
	if n < 1 {
		n = 1
	}
	r.retries = n
	r.retryWait = wait
	return r
}

// Send executes the request. A non-2xx response is not an error; use OK or
// Throw. Errors are transport failures, including timeouts, which can be
// detected with errors.Is(err, context.DeadlineExceeded).
func (r *Request) Send(ctx context.Context) (*Response, error) {
	var lastErr error
	wait := r.retryWait
	for attempt := 1; attempt <= r.retries; attempt++ {
		resp, err := r.do(ctx)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == r.retries || ctx.Err() != nil {
			break
		}
		logger.WithCtx(ctx).Warn("http: request failed, retrying",
			"url", r.url, "attempt", attempt, "backoff", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, lastErr)
}

func (r *Request) do(ctx context.Context) (*Response, error) {
	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := r.client.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

// ─── Response ────────────────────────────────────────────────────────────────

type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

func (r *Response) Text() string { return string(r.Raw) }

// Throw returns an error if the status is not 2xx.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: request failed with status %d: %s", r.StatusCode, string(r.Raw))
	}
	return nil
}
