package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrMissingToken indicates the source has no access token configured
	ErrMissingToken = errors.New("access token not configured")
	// ErrUserNotFound indicates the configured account does not exist on the provider
	ErrUserNotFound = errors.New("user not found")
)

// maxErrorBodyBytes bounds how much of an error response body is kept
const maxErrorBodyBytes = 1024

// APIError represents a non-2xx response from a provider API
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error (status %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimitError checks if an error is a provider rate limit error.
// GitHub reports secondary rate limits as 403 with a message.
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return apiErr.StatusCode == http.StatusForbidden &&
		strings.Contains(strings.ToLower(apiErr.Message), "rate limit")
}

// CheckResponse returns an *APIError for any non-2xx response
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}

// Hard reports whether a failure must abort the whole aggregation rather than
// degrade a single source. Only cancellation of the caller's context counts.
func Hard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("provider fetch aborted: %w", err)
	}
	return nil
}
