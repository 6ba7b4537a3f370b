package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("rate limit"), false},
		{"429", &APIError{Provider: "gitlab", StatusCode: 429}, true},
		{"wrapped 429", fmt.Errorf("fetch: %w", &APIError{StatusCode: 429}), true},
		{"403 secondary rate limit", &APIError{StatusCode: 403, Message: "You have exceeded a secondary rate limit"}, true},
		{"403 forbidden", &APIError{StatusCode: 403, Message: "Resource not accessible"}, false},
		{"500", &APIError{StatusCode: 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCheckResponse(t *testing.T) {
	t.Parallel()

	ok := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}
	if err := CheckResponse("github", ok); err != nil {
		t.Errorf("Expected nil error for 200, got %v", err)
	}

	bad := &http.Response{StatusCode: http.StatusUnauthorized, Body: io.NopCloser(strings.NewReader(" Bad credentials \n"))}
	err := CheckResponse("github", bad)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Bad credentials" {
		t.Errorf("Expected trimmed message, got '%s'", apiErr.Message)
	}
	if !strings.Contains(err.Error(), "github API error (status 401)") {
		t.Errorf("Unexpected error string: %s", err.Error())
	}
}

func TestHard(t *testing.T) {
	t.Parallel()

	if err := Hard(context.Background()); err != nil {
		t.Errorf("Expected nil for live context, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Hard(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewHTTPClient_SendsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPClient("secret-token", 0)
	if client.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultTimeout, client.Timeout)
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer secret-token" {
		t.Errorf("Expected bearer token header, got '%s'", gotAuth)
	}
}

func TestNewHTTPClient_NoToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	resp, err := NewHTTPClient("", 0).Get(srv.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "" {
		t.Errorf("Expected no Authorization header, got '%s'", gotAuth)
	}
}
