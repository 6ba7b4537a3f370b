package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/redis/go-redis/v9"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pinger     RedisPinger
		query      string
		wantStatus int
		wantHealth string
		wantRedis  string
	}{
		{name: "basic mode", pinger: fakePinger{err: errors.New("down")}, query: "", wantStatus: http.StatusOK, wantHealth: "healthy"},
		{name: "extended healthy", pinger: fakePinger{}, query: "?mode=extended", wantStatus: http.StatusOK, wantHealth: "healthy", wantRedis: "healthy"},
		{name: "extended redis down", pinger: fakePinger{err: errors.New("connection refused")}, query: "?mode=extended", wantStatus: http.StatusServiceUnavailable, wantHealth: "unhealthy", wantRedis: "unhealthy: connection refused"},
		{name: "extended without redis", pinger: nil, query: "?mode=extended", wantStatus: http.StatusOK, wantHealth: "healthy", wantRedis: "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthChecker(tt.pinger, "1.2.3")
			w := httptest.NewRecorder()
			h.HealthCheck(w, httptest.NewRequest("GET", "/healthz"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var body HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body.Status != tt.wantHealth {
				t.Errorf("Expected status '%s', got '%s'", tt.wantHealth, body.Status)
			}
			if got := body.Checks["redis"]; got != tt.wantRedis {
				t.Errorf("Expected redis check '%s', got '%s'", tt.wantRedis, got)
			}
		})
	}
}

func TestVersionAndLiveness(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(nil, "1.2.3")

	w := httptest.NewRecorder()
	h.Version(w, httptest.NewRequest("GET", "/version", nil))
	var version VersionResponse
	if err := json.NewDecoder(w.Body).Decode(&version); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if version.Version != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", version.Version)
	}

	w = httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}
