package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	logpkg "github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/request"
	"github.com/benvon/portfolio-api/internal/services/contributions"
	"github.com/benvon/portfolio-api/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// DegradedHeader is set to "true" when any source failed to contribute
const DegradedHeader = "X-Git-Stats-Degraded"

// Aggregator produces git statistics for a set of years
type Aggregator interface {
	Aggregate(ctx context.Context, years []string) (*models.GitStatsData, error)
}

// FailureRecorder counts aggregations that failed outright
type FailureRecorder interface {
	RecordAggregationError(ctx context.Context)
}

// GitStatsHandler serves the aggregated contribution statistics
type GitStatsHandler struct {
	aggregator Aggregator
	failures   FailureRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// GitStatsOption configures a GitStatsHandler
type GitStatsOption func(*GitStatsHandler)

// WithFailureRecorder records hard aggregation failures
func WithFailureRecorder(r FailureRecorder) GitStatsOption {
	return func(h *GitStatsHandler) {
		h.failures = r
	}
}

// WithClock overrides the clock used for the default year range
func WithClock(now func() time.Time) GitStatsOption {
	return func(h *GitStatsHandler) {
		h.now = now
	}
}

// NewGitStatsHandler creates a new git stats handler
func NewGitStatsHandler(aggregator Aggregator, logger *zap.Logger, opts ...GitStatsOption) *GitStatsHandler {
	h := &GitStatsHandler{
		aggregator: aggregator,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers git stats routes
func (h *GitStatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/git-stats", h.GetGitStats).Methods("GET")
}

// GetGitStats handles GET /api/v1/git-stats?years=2019,2020. Repeated years
// parameters are combined. Without years it covers every year from the first
// calendar year through the current one.
func (h *GitStatsHandler) GetGitStats(w http.ResponseWriter, r *http.Request) {
	var years []string
	if raw, ok := r.URL.Query()["years"]; ok {
		parsed, err := validation.ParseYears(strings.Join(raw, ","))
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		years = parsed
	} else {
		years = validation.DefaultYears(contributions.FirstYear, h.now())
	}

	data, err := h.aggregator.Aggregate(r.Context(), years)
	if err != nil {
		h.logger.Error("git_stats_request_failed",
			zap.Strings("years", years),
			zap.String("error", logpkg.SanitizeError(err)),
			zap.String("request_id", request.RequestID(r.Context())),
		)
		if h.failures != nil {
			h.failures.RecordAggregationError(r.Context())
		}
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to fetch contribution data from upstream providers")
		return
	}

	// A partial result must not outlive the upstream outage in shared caches
	if data.Degraded() {
		w.Header().Set(DegradedHeader, "true")
		w.Header().Set("Cache-Control", "no-store")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=300")
	}
	respondJSON(w, http.StatusOK, data)
}
