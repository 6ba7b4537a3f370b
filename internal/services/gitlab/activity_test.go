package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benvon/portfolio-api/internal/services/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGitLab struct {
	userStatus   int
	events       []map[string]any
	mergeReqs    []map[string]any
	eventsStatus int
	eventCalls   atomic.Int32
}

func items(n int, createdAt string) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"id": i + 1, "created_at": createdAt}
	}
	return out
}

func paginate(w http.ResponseWriter, r *http.Request, all []map[string]any) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	_ = json.NewEncoder(w).Encode(all[start:end])
}

func (f *fakeGitLab) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		if f.userStatus != 0 {
			w.WriteHeader(f.userStatus)
			return
		}
		_, _ = w.Write([]byte(`{"id":42,"username":"dev"}`))
	})
	mux.HandleFunc("/users/42/events", func(w http.ResponseWriter, r *http.Request) {
		f.eventCalls.Add(1)
		assert.Equal(t, "pushed", r.URL.Query().Get("action"))
		if f.eventsStatus != 0 {
			w.WriteHeader(f.eventsStatus)
			return
		}
		paginate(w, r, f.events)
	})
	mux.HandleFunc("/merge_requests", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "42", q.Get("author_id"))
		assert.Equal(t, "all", q.Get("scope"))
		assert.Equal(t, "all", q.Get("state"))
		paginate(w, r, f.mergeReqs)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestActivityCountsByYear(t *testing.T) {
	fake := &fakeGitLab{}
	fake.events = append(items(3, "2020-03-01T10:00:00.000Z"), items(2, "2021-07-04T12:00:00Z")...)
	fake.events = append(fake.events, items(4, "2015-01-01T00:00:00Z")...)
	fake.mergeReqs = items(5, "2021-02-02T00:00:00Z")
	srv := fake.server(t)

	client := NewClient("test-token", time.Second, WithBaseURL(srv.URL), WithPageSize(2))
	activity, err := client.Activity(context.Background(), []string{"2020", "2021", "2022"})
	require.NoError(t, err)

	commits, ok := activity.Commits.Get()
	require.True(t, ok, "commits: %v", activity.Commits.Err())
	assert.Equal(t, map[string]int{"2020": 3, "2021": 2, "2022": 0}, commits)

	mrs, ok := activity.MergeRequests.Get()
	require.True(t, ok, "merge requests: %v", activity.MergeRequests.Err())
	assert.Equal(t, map[string]int{"2020": 0, "2021": 5, "2022": 0}, mrs)

	// 9 events at 2 per page: pages 1..5, the last one short
	assert.Equal(t, int32(5), fake.eventCalls.Load())
}

func TestActivityExactMultipleFetchesEmptyPage(t *testing.T) {
	fake := &fakeGitLab{events: items(4, "2020-01-01T00:00:00Z")}
	srv := fake.server(t)

	client := NewClient("test-token", time.Second, WithBaseURL(srv.URL), WithPageSize(2))
	activity, err := client.Activity(context.Background(), []string{"2020"})
	require.NoError(t, err)

	commits, ok := activity.Commits.Get()
	require.True(t, ok)
	assert.Equal(t, 4, commits["2020"])
	assert.Equal(t, int32(3), fake.eventCalls.Load())
}

func TestActivityCollectionsFailIndependently(t *testing.T) {
	fake := &fakeGitLab{
		eventsStatus: http.StatusInternalServerError,
		mergeReqs:    items(1, "2020-05-05T00:00:00Z"),
	}
	srv := fake.server(t)

	client := NewClient("test-token", time.Second, WithBaseURL(srv.URL))
	activity, err := client.Activity(context.Background(), []string{"2020"})
	require.NoError(t, err)

	var apiErr *provider.APIError
	require.ErrorAs(t, activity.Commits.Err(), &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	mrs, ok := activity.MergeRequests.Get()
	require.True(t, ok)
	assert.Equal(t, 1, mrs["2020"])
}

func TestActivityUserFailureFailsBoth(t *testing.T) {
	fake := &fakeGitLab{userStatus: http.StatusUnauthorized}
	srv := fake.server(t)

	client := NewClient("test-token", time.Second, WithBaseURL(srv.URL))
	activity, err := client.Activity(context.Background(), []string{"2020"})
	require.NoError(t, err)

	assert.ErrorContains(t, activity.Commits.Err(), "resolve user")
	assert.ErrorContains(t, activity.MergeRequests.Err(), "resolve user")
	assert.Zero(t, fake.eventCalls.Load())
}

func TestActivityMissingToken(t *testing.T) {
	client := NewClient("", time.Second, WithBaseURL("http://127.0.0.1:0"))
	activity, err := client.Activity(context.Background(), []string{"2020"})
	require.NoError(t, err)

	assert.ErrorIs(t, activity.Commits.Err(), provider.ErrMissingToken)
	assert.ErrorIs(t, activity.MergeRequests.Err(), provider.ErrMissingToken)
}

func TestActivityCancelledContext(t *testing.T) {
	fake := &fakeGitLab{}
	srv := fake.server(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-token", time.Second, WithBaseURL(srv.URL))
	_, err := client.Activity(ctx, []string{"2020"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountByYearStopsOnError(t *testing.T) {
	wantErr := fmt.Errorf("boom")
	pages := func(yield func([]event, error) bool) {
		if !yield([]event{{CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}}, nil) {
			return
		}
		yield(nil, wantErr)
	}

	_, err := countByYear[event](pages, map[string]struct{}{"2020": {}})
	assert.ErrorIs(t, err, wantErr)
}
