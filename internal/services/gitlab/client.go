// Package gitlab derives per-year commit and merge request counts from the
// GitLab REST API.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/benvon/portfolio-api/internal/services/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the gitlab.com REST API root
	DefaultBaseURL = "https://gitlab.com/api/v4"

	providerName = "gitlab"
)

// Client talks to the GitLab REST API as the token's owner
type Client struct {
	httpClient *http.Client
	baseURL    string
	hasToken   bool
	pageSize   int
	logger     *zap.Logger
	tracer     trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API root (self-hosted instances, tests)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the HTTP client
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

// WithPageSize sets the per_page value used for collections
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a GitLab client authenticated with token
func NewClient(token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: provider.NewHTTPClient(token, timeout),
		baseURL:    DefaultBaseURL,
		hasToken:   token != "",
		logger:     zap.NewNop(),
		tracer:     otel.Tracer("github.com/benvon/portfolio-api/internal/services/gitlab"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name
func (c *Client) Name() string {
	return providerName
}

type user struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// currentUserID resolves the id of the token's owner
func (c *Client) currentUserID(ctx context.Context) (int, error) {
	var u user
	if err := c.get(ctx, "/user", nil, &u); err != nil {
		return 0, fmt.Errorf("resolve user: %w", err)
	}
	if u.ID == 0 {
		return 0, provider.ErrUserNotFound
	}
	return u.ID, nil
}

// get issues a GET against path relative to the base URL and decodes the JSON body
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", provider.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if err := provider.CheckResponse(providerName, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func pageQuery(base url.Values, page, pageSize int) url.Values {
	q := url.Values{}
	for k, v := range base {
		q[k] = v
	}
	q.Set("per_page", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	return q
}
