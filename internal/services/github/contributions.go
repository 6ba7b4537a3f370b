package github

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/services/provider"
	"github.com/shurcooL/githubv4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// calendarQuery selects one year of the contribution calendar. Field names
// map to the GraphQL selection, so models.CommitCalendar doubles as its shape.
type calendarQuery struct {
	User *struct {
		ContributionsCollection struct {
			ContributionCalendar models.CommitCalendar
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

type pullRequestsQuery struct {
	User *struct {
		ContributionsCollection struct {
			TotalPullRequestContributions int
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// CommitCalendars fetches the contribution calendar of every year concurrently.
// A failing year yields a failed result for that year only. The returned error
// is non-nil only when ctx was cancelled.
func (c *Client) CommitCalendars(ctx context.Context, years []string) ([]models.YearCalendar, error) {
	results := make([]models.YearCalendar, len(years))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, year := range years {
		g.Go(func() error {
			results[i] = models.YearCalendar{Year: year, Calendar: c.fetchCalendar(ctx, year)}
			return nil
		})
	}
	_ = g.Wait()

	if err := provider.Hard(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// PullRequests fetches the pull request contribution total of every year
// concurrently, with the same failure semantics as CommitCalendars.
func (c *Client) PullRequests(ctx context.Context, years []string) ([]models.YearPullRequests, error) {
	results := make([]models.YearPullRequests, len(years))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, year := range years {
		g.Go(func() error {
			results[i] = models.YearPullRequests{Year: year, PullRequests: c.fetchPullRequests(ctx, year)}
			return nil
		})
	}
	_ = g.Wait()

	if err := provider.Hard(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) fetchCalendar(ctx context.Context, year string) models.Result[models.CommitCalendar] {
	ctx, span := c.tracer.Start(ctx, "github.CommitCalendar", trace.WithAttributes(attribute.String("year", year)))
	defer span.End()

	vars, err := c.yearVariables(year)
	if err != nil {
		return fail[models.CommitCalendar](c, span, "calendar", year, err)
	}

	var q calendarQuery
	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return fail[models.CommitCalendar](c, span, "calendar", year, fmt.Errorf("github graphql: %w", err))
	}
	if q.User == nil {
		return fail[models.CommitCalendar](c, span, "calendar", year, fmt.Errorf("%w: %s", provider.ErrUserNotFound, c.login))
	}

	return models.Ok(q.User.ContributionsCollection.ContributionCalendar)
}

func (c *Client) fetchPullRequests(ctx context.Context, year string) models.Result[int] {
	ctx, span := c.tracer.Start(ctx, "github.PullRequests", trace.WithAttributes(attribute.String("year", year)))
	defer span.End()

	vars, err := c.yearVariables(year)
	if err != nil {
		return fail[int](c, span, "pull_requests", year, err)
	}

	var q pullRequestsQuery
	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return fail[int](c, span, "pull_requests", year, fmt.Errorf("github graphql: %w", err))
	}
	if q.User == nil {
		return fail[int](c, span, "pull_requests", year, fmt.Errorf("%w: %s", provider.ErrUserNotFound, c.login))
	}

	return models.Ok(q.User.ContributionsCollection.TotalPullRequestContributions)
}

// yearVariables builds the query variables spanning one calendar year
func (c *Client) yearVariables(year string) (map[string]any, error) {
	if !c.hasToken {
		return nil, provider.ErrMissingToken
	}

	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return nil, fmt.Errorf("invalid year %q", year)
	}

	return map[string]any{
		"login": githubv4.String(c.login),
		"from":  githubv4.DateTime{Time: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)},
		"to":    githubv4.DateTime{Time: time.Date(y, time.December, 31, 23, 59, 59, 0, time.UTC)},
	}, nil
}

func fail[T any](c *Client, span trace.Span, kind, year string, err error) models.Result[T] {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	level := c.logger.Warn
	if provider.IsRateLimitError(err) {
		level = c.logger.Error
	}
	level("github_fetch_failed",
		zap.String("kind", kind),
		zap.String("year", year),
		zap.Error(err),
	)

	return models.Fail[T](err)
}
