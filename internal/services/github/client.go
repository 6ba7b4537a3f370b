// Package github fetches contribution calendars and pull request totals from
// the GitHub GraphQL API.
package github

import (
	"net/http"
	"time"

	"github.com/benvon/portfolio-api/internal/services/provider"
	"github.com/shurcooL/githubv4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the GitHub GraphQL endpoint
	DefaultEndpoint = "https://api.github.com/graphql"
	// DefaultConcurrency bounds parallel per-year queries
	DefaultConcurrency = 4

	providerName = "github"
)

// Client queries the GitHub GraphQL API for a single user
type Client struct {
	gql         *githubv4.Client
	httpClient  *http.Client
	endpoint    string
	login       string
	hasToken    bool
	concurrency int
	logger      *zap.Logger
	tracer      trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithEndpoint overrides the GraphQL endpoint (GitHub Enterprise, tests)
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient replaces the HTTP client. The caller is responsible for
// authentication on the supplied client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConcurrency bounds how many per-year queries run at once
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient creates a GitHub client for login authenticated with token
func NewClient(token, login string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient:  provider.NewHTTPClient(token, timeout),
		endpoint:    DefaultEndpoint,
		login:       login,
		hasToken:    token != "",
		concurrency: DefaultConcurrency,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer("github.com/benvon/portfolio-api/internal/services/github"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.gql = newGraphQLClient(c.endpoint, c.httpClient)
	return c
}

// Name returns the provider name
func (c *Client) Name() string {
	return providerName
}

// statusTransport turns non-2xx responses into *provider.APIError so callers
// can tell rate limits apart from other upstream failures
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", provider.UserAgent)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if err := provider.CheckResponse(providerName, resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// newGraphQLClient wraps a copy of httpClient so the caller's client is left untouched
func newGraphQLClient(endpoint string, httpClient *http.Client) *githubv4.Client {
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc := *httpClient
	hc.Transport = statusTransport{base: base}
	return githubv4.NewEnterpriseClient(endpoint, &hc)
}
