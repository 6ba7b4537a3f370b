package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type fakeAggregator struct {
	mu    sync.Mutex
	years []string
	data  *models.GitStatsData
	err   error
}

func (f *fakeAggregator) Aggregate(ctx context.Context, years []string) (*models.GitStatsData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.years = years
	return f.data, f.err
}

type countingRecorder struct {
	mu    sync.Mutex
	count int
}

func (c *countingRecorder) RecordAggregationError(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func sampleStats(sources ...models.SourceStatus) *models.GitStatsData {
	return &models.GitStatsData{
		TotalCommits:      12,
		YearlyCommits:     map[string]int{"2020": 12},
		MonthlyCommits:    map[string]int{},
		TopLanguages:      []models.Language{{Name: "Go", Percentage: 100, Color: "#00ADD8"}},
		TotalPullRequests: 3,
		ContributionData:  models.Skeleton{"2020": {Total: 12}},
		Sources:           sources,
	}
}

func serveGitStats(h *GitStatsHandler, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
	return w
}

func TestGetGitStats(t *testing.T) {
	t.Parallel()

	fixed := func() time.Time { return time.Date(2018, time.June, 1, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name         string
		target       string
		aggregator   *fakeAggregator
		wantStatus   int
		wantYears    []string
		wantDegraded bool
		wantCache    string
		wantFailures int
	}{
		{
			name:       "explicit years",
			target:     "/api/v1/git-stats?years=2020,2019",
			aggregator: &fakeAggregator{data: sampleStats(models.SourceStatus{Source: "private", OK: true})},
			wantStatus: http.StatusOK,
			wantYears:  []string{"2020", "2019"},
			wantCache:  "public, max-age=300",
		},
		{
			name:       "default years",
			target:     "/api/v1/git-stats",
			aggregator: &fakeAggregator{data: sampleStats()},
			wantStatus: http.StatusOK,
			wantYears:  []string{"2016", "2017", "2018"},
		},
		{
			name:       "repeated years parameters",
			target:     "/api/v1/git-stats?years=2019&years=2020,2021",
			aggregator: &fakeAggregator{data: sampleStats()},
			wantStatus: http.StatusOK,
			wantYears:  []string{"2019", "2020", "2021"},
		},
		{
			name:       "repeated parameter with bad year",
			target:     "/api/v1/git-stats?years=2019&years=nope",
			aggregator: &fakeAggregator{data: sampleStats()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid year",
			target:     "/api/v1/git-stats?years=20x0",
			aggregator: &fakeAggregator{data: sampleStats()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty years parameter",
			target:     "/api/v1/git-stats?years=",
			aggregator: &fakeAggregator{data: sampleStats()},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:         "degraded sources",
			target:       "/api/v1/git-stats?years=2020",
			aggregator:   &fakeAggregator{data: sampleStats(models.SourceStatus{Source: "gitlab.commits", Error: "boom"})},
			wantStatus:   http.StatusOK,
			wantYears:    []string{"2020"},
			wantDegraded: true,
			wantCache:    "no-store",
		},
		{
			name:         "aggregation failure",
			target:       "/api/v1/git-stats?years=2020",
			aggregator:   &fakeAggregator{err: errors.New("load private contributions: no such file")},
			wantStatus:   http.StatusBadGateway,
			wantYears:    []string{"2020"},
			wantFailures: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder := &countingRecorder{}
			h := NewGitStatsHandler(tt.aggregator, zap.NewNop(), WithClock(fixed), WithFailureRecorder(recorder))
			w := serveGitStats(h, tt.target)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantYears != nil && !slices.Equal(tt.aggregator.years, tt.wantYears) {
				t.Errorf("Expected years %v, got %v", tt.wantYears, tt.aggregator.years)
			}
			if got := w.Header().Get(DegradedHeader) == "true"; got != tt.wantDegraded {
				t.Errorf("Expected degraded header %v, got %v", tt.wantDegraded, got)
			}
			if tt.wantCache != "" && w.Header().Get("Cache-Control") != tt.wantCache {
				t.Errorf("Expected Cache-Control %q, got %q", tt.wantCache, w.Header().Get("Cache-Control"))
			}
			if recorder.count != tt.wantFailures {
				t.Errorf("Expected %d recorded failures, got %d", tt.wantFailures, recorder.count)
			}
		})
	}
}

func TestGetGitStatsEnvelope(t *testing.T) {
	t.Parallel()

	h := NewGitStatsHandler(&fakeAggregator{data: sampleStats()}, zap.NewNop())
	w := serveGitStats(h, "/api/v1/git-stats?years=2020")

	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("Expected Cache-Control 'public, max-age=300', got '%s'", cc)
	}

	var body struct {
		Success bool                `json:"success"`
		Data    models.GitStatsData `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !body.Success {
		t.Error("Expected success to be true")
	}
	if body.Data.TotalCommits != 12 || body.Data.TotalPullRequests != 3 {
		t.Errorf("Unexpected totals: commits=%d pull requests=%d", body.Data.TotalCommits, body.Data.TotalPullRequests)
	}
	if _, ok := body.Data.ContributionData["2020"]; !ok {
		t.Error("Expected contributionData for 2020")
	}
}

func TestGetGitStatsBadGatewayHidesUpstreamError(t *testing.T) {
	t.Parallel()

	h := NewGitStatsHandler(&fakeAggregator{err: errors.New("secret upstream detail")}, zap.NewNop())
	w := serveGitStats(h, "/api/v1/git-stats?years=2020")

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Error != "Bad Gateway" {
		t.Errorf("Expected error 'Bad Gateway', got '%s'", body.Error)
	}
	if body.Message != "Failed to fetch contribution data from upstream providers" {
		t.Errorf("Unexpected message '%s'", body.Message)
	}
}
