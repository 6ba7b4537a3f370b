package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

// RedisPinger is the part of a Redis client used for health checks
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthChecker handles health and version requests
type HealthChecker struct {
	redis   RedisPinger
	version string
}

// NewHealthChecker creates a health checker. redis may be nil when rate
// limiting runs in memory.
func NewHealthChecker(redis RedisPinger, version string) *HealthChecker {
	return &HealthChecker{redis: redis, version: version}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the version response
type VersionResponse struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// RegisterRoutes registers /healthz, /health and /version
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/health", h.Liveness).Methods("GET")
	r.HandleFunc("/version", h.Version).Methods("GET")
}

// HealthCheck handles /healthz. With ?mode=extended it also checks Redis.
// Upstream providers are not contacted.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: timestamp(),
	}

	status := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string)

		switch {
		case h.redis == nil:
			checks["redis"] = "not configured"
		default:
			if err := h.checkRedis(r.Context()); err != nil {
				response.Status = "unhealthy"
				checks["redis"] = "unhealthy: " + sanitizeErrorMessage(err.Error())
			} else {
				checks["redis"] = "healthy"
			}
		}

		response.Checks = checks
		if response.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, response)
}

// Liveness handles the legacy /health endpoint
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Timestamp: timestamp()})
}

// Version handles /version
func (h *HealthChecker) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: h.version, Timestamp: timestamp()})
}

func (h *HealthChecker) checkRedis(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return h.redis.Ping(ctx).Err()
}

// writeJSON writes v without the success envelope
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
