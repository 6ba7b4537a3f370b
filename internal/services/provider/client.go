package provider

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default timeout for a single provider request
	DefaultTimeout = 10 * time.Second
	// UserAgent identifies this service to provider APIs
	UserAgent = "portfolio-api/1.0"
)

// NewHTTPClient returns an HTTP client that sends token as an OAuth2 bearer
// token. An empty token yields a plain client.
func NewHTTPClient(token string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if token == "" {
		return &http.Client{Timeout: timeout}
	}

	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = timeout
	return client
}
