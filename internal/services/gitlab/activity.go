package gitlab

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/pagination"
	"github.com/benvon/portfolio-api/internal/services/provider"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// event is a push event; only its timestamp is used
type event struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// mergeRequest is a merge request authored by the user
type mergeRequest struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (e event) created() time.Time        { return e.CreatedAt }
func (m mergeRequest) created() time.Time { return m.CreatedAt }

type timestamped interface {
	created() time.Time
}

// Activity counts push events and authored merge requests per year. The two
// collections fail independently. The returned error is non-nil only when ctx
// was cancelled.
func (c *Client) Activity(ctx context.Context, years []string) (models.Activity, error) {
	ctx, span := c.tracer.Start(ctx, "gitlab.Activity", trace.WithAttributes(attribute.StringSlice("years", years)))
	defer span.End()

	if !c.hasToken {
		return models.Activity{
			Commits:       models.Fail[map[string]int](provider.ErrMissingToken),
			MergeRequests: models.Fail[map[string]int](provider.ErrMissingToken),
		}, nil
	}

	userID, err := c.currentUserID(ctx)
	if err != nil {
		if hard := provider.Hard(ctx); hard != nil {
			return models.Activity{}, hard
		}
		c.logFailure(span, "user", err)
		return models.Activity{
			Commits:       models.Fail[map[string]int](err),
			MergeRequests: models.Fail[map[string]int](err),
		}, nil
	}

	wanted := make(map[string]struct{}, len(years))
	for _, y := range years {
		wanted[y] = struct{}{}
	}

	var activity models.Activity
	var g errgroup.Group
	g.Go(func() error {
		activity.Commits = c.countCommits(ctx, span, userID, wanted)
		return nil
	})
	g.Go(func() error {
		activity.MergeRequests = c.countMergeRequests(ctx, span, userID, wanted)
		return nil
	})
	_ = g.Wait()

	if err := provider.Hard(ctx); err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (c *Client) countCommits(ctx context.Context, span trace.Span, userID int, wanted map[string]struct{}) models.Result[map[string]int] {
	path := fmt.Sprintf("/users/%d/events", userID)
	base := url.Values{"action": {"pushed"}}

	pages := pagination.Pages(ctx, c.pageSize, func(ctx context.Context, page, pageSize int) ([]event, error) {
		var events []event
		err := c.get(ctx, path, pageQuery(base, page, pageSize), &events)
		return events, err
	})

	counts, err := countByYear(pages, wanted)
	if err != nil {
		c.logFailure(span, "commits", err)
		return models.Fail[map[string]int](err)
	}
	return models.Ok(counts)
}

func (c *Client) countMergeRequests(ctx context.Context, span trace.Span, userID int, wanted map[string]struct{}) models.Result[map[string]int] {
	base := url.Values{
		"author_id": {strconv.Itoa(userID)},
		"scope":     {"all"},
		"state":     {"all"},
	}

	pages := pagination.Pages(ctx, c.pageSize, func(ctx context.Context, page, pageSize int) ([]mergeRequest, error) {
		var mrs []mergeRequest
		err := c.get(ctx, "/merge_requests", pageQuery(base, page, pageSize), &mrs)
		return mrs, err
	})

	counts, err := countByYear(pages, wanted)
	if err != nil {
		c.logFailure(span, "merge_requests", err)
		return models.Fail[map[string]int](err)
	}
	return models.Ok(counts)
}

// countByYear groups items by the UTC year of their creation time, keeping
// only wanted years. Every wanted year is present in the result.
func countByYear[T timestamped](pages iter.Seq2[[]T, error], wanted map[string]struct{}) (map[string]int, error) {
	counts := make(map[string]int, len(wanted))
	for y := range wanted {
		counts[y] = 0
	}

	for items, err := range pages {
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			year := strconv.Itoa(item.created().UTC().Year())
			if _, ok := wanted[year]; ok {
				counts[year]++
			}
		}
	}
	return counts, nil
}

func (c *Client) logFailure(span trace.Span, kind string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Warn("gitlab_fetch_failed",
		zap.String("kind", kind),
		zap.Error(err),
	)
}
