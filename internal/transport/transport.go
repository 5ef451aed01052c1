package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ssc/internal/cli"
	"ssc/pkg/logging"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultTimeout bounds a single request when the caller does not set one.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 10 << 20

// Request describes exactly one HTTP exchange. Body is JSON encoded when non-nil.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Query   url.Values
	Body    any
	Timeout time.Duration
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Doer performs a Request.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Client is the production Doer backed by a pooled cleanhttp client.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{httpClient: cleanhttp.DefaultPooledClient()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req and reads the whole response.
//
// It returns *NoResponseError when nothing came back from the server, including
// when req.Timeout elapsed, and *ResponseError for any status of 400 or above.
// If ctx itself is done the context error is returned instead, since the caller
// gave up rather than the network.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.build(reqCtx, req)
	if err != nil {
		return nil, err
	}

	logging.Debug("Transport", "%s %s", req.Method, httpReq.URL.Redacted())
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, ctx.Err())
		}
		return nil, &NoResponseError{
			Method:     req.Method,
			URL:        req.URL,
			Connection: cli.ClassifyConnectionError(err, req.URL),
		}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, ctx.Err())
		}
		return nil, &NoResponseError{
			Method:     req.Method,
			URL:        req.URL,
			Connection: cli.ClassifyConnectionError(err, req.URL),
		}
	}

	resp := &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body}
	if resp.Status >= http.StatusBadRequest {
		return nil, &ResponseError{Method: req.Method, URL: req.URL, Response: resp}
	}
	return resp, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", req.URL, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	return httpReq, nil
}
