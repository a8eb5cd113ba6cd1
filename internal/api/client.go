package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Auth decorates an outgoing request with credentials.
type Auth func(req *http.Request)

// BearerAuth authenticates with an OAuth bearer token.
func BearerAuth(token string) Auth {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// BasicAuth authenticates with an account email and API token.
func BasicAuth(email, token string) Auth {
	return func(req *http.Request) {
		req.SetBasicAuth(email, token)
	}
}

// ClientOptions configures a Client. Zero values fall back to defaults.
type ClientOptions struct {
	BaseURL    string
	Auth       Auth
	HTTPClient *http.Client
	UserAgent  string
	// RequestsPerMinute is the request budget shared by every caller of the
	// client. Zero disables client-side limiting.
	RequestsPerMinute int
}

// Client performs single HTTP exchanges against one tenant endpoint.
// It never retries; see Executor.
type Client struct {
	baseURL    string
	auth       Auth
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
}

// NewClient creates a Client for the given tenant base URL.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "janitor"
	}
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		auth:       opts.Auth,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c
}

// BaseURL returns the tenant endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one API call. At most one of Form and JSON is set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	JSON   any
}

// Do sends the request and returns the response as a Result. Transport
// failures are returned as errors; any HTTP status is a Result.
func (c *Client) Do(ctx context.Context, r Request) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for request budget: %w", err)
		}
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		endpoint += "?" + r.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, fmt.Errorf("marshalling request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case r.Form != nil:
		body = strings.NewReader(r.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.auth != nil {
		c.auth(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, r.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", r.Path, err)
	}

	res := &Result{
		StatusCode: resp.StatusCode,
		Category:   categorize(resp.StatusCode),
		Body:       respBody,
	}
	if res.Category == CategoryRateLimited {
		res.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return res, nil
}

// IsTimeout reports whether err is a network or socket timeout, or an error
// whose message says the call timed out.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout")
}
