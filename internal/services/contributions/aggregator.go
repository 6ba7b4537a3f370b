package contributions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSourceNotConfigured marks a source that was never wired up
var ErrSourceNotConfigured = errors.New("source not configured")

// CalendarSource provides per-year commit calendars and pull request totals
type CalendarSource interface {
	Name() string
	CommitCalendars(ctx context.Context, years []string) ([]models.YearCalendar, error)
	PullRequests(ctx context.Context, years []string) ([]models.YearPullRequests, error)
}

// ActivitySource provides per-year commit and merge request counts
type ActivitySource interface {
	Name() string
	Activity(ctx context.Context, years []string) (models.Activity, error)
}

// PrivateLoader provides the static private-contributions document
type PrivateLoader interface {
	Load(ctx context.Context) (*models.PrivateContributions, error)
}

// Recorder receives the outcome of every completed aggregation
type Recorder interface {
	RecordAggregation(ctx context.Context, duration time.Duration, sources []models.SourceStatus)
}

// Aggregator merges every source onto a fresh calendar per call
type Aggregator struct {
	calendar  CalendarSource
	activity  ActivitySource
	private   PrivateLoader
	languages []models.Language
	recorder  Recorder
	logger    *zap.Logger
	tracer    trace.Tracer
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithLanguages replaces the curated language breakdown
func WithLanguages(languages []models.Language) Option {
	return func(a *Aggregator) {
		a.languages = languages
	}
}

// WithRecorder sets a recorder for aggregation metrics
func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) {
		a.recorder = r
	}
}

// NewAggregator creates an aggregator. Any source may be nil, in which case it
// is reported as failed in every result.
func NewAggregator(calendar CalendarSource, activity ActivitySource, private PrivateLoader, logger *zap.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		calendar:  calendar,
		activity:  activity,
		private:   private,
		languages: DefaultLanguages(),
		logger:    logger,
		tracer:    otel.Tracer("github.com/benvon/portfolio-api/internal/services/contributions"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type fetched struct {
	calendars    []models.YearCalendar
	pullRequests []models.YearPullRequests
	activity     models.Activity
	private      *models.PrivateContributions
}

// Aggregate fetches every source concurrently and merges the results. A
// source that fails softly is skipped and reported in Sources. An error is
// returned only when a source aborts, which cancels the others.
func (a *Aggregator) Aggregate(ctx context.Context, years []string) (*models.GitStatsData, error) {
	start := time.Now()
	years = dedupe(years)

	ctx, span := a.tracer.Start(ctx, "contributions.Aggregate", trace.WithAttributes(attribute.StringSlice("years", years)))
	defer span.End()

	cal := BuildSkeleton()

	f, err := a.fetch(ctx, years)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error("git_stats_aggregation_failed", zap.Strings("years", years), zap.Error(err))
		return nil, err
	}

	out := &models.GitStatsData{
		YearlyCommits: make(map[string]int, len(years)),
		TopLanguages:  append([]models.Language(nil), a.languages...),
	}
	for _, y := range years {
		out.YearlyCommits[y] = 0
	}

	out.Sources = append(out.Sources, a.mergeCalendars(cal, out, f.calendars)...)
	out.Sources = append(out.Sources, a.mergePullRequests(out, f.pullRequests)...)
	out.Sources = append(out.Sources, a.mergeActivity(out, f.activity)...)
	out.Sources = append(out.Sources, mergePrivate(cal, out, f.private))

	out.MonthlyCommits = cal.Recompute()
	out.ContributionData = cal.Skeleton()

	failed := 0
	for _, s := range out.Sources {
		if s.OK {
			continue
		}
		failed++
		a.logger.Warn("git_stats_source_failed", zap.String("source", s.Source), zap.String("error", s.Error))
	}

	span.SetAttributes(
		attribute.Int("total_commits", out.TotalCommits),
		attribute.Int("failed_sources", failed),
	)

	duration := time.Since(start)
	a.logger.Info("git_stats_aggregated",
		zap.Strings("years", years),
		zap.Int("total_commits", out.TotalCommits),
		zap.Int("total_pull_requests", out.TotalPullRequests),
		zap.Int("failed_sources", failed),
		zap.Duration("duration", duration),
	)

	if a.recorder != nil {
		a.recorder.RecordAggregation(ctx, duration, out.Sources)
	}

	return out, nil
}

// fetch runs every configured source concurrently and waits for all of them
func (a *Aggregator) fetch(ctx context.Context, years []string) (*fetched, error) {
	f := &fetched{}
	g, gctx := errgroup.WithContext(ctx)

	if a.calendar != nil {
		g.Go(func() error {
			cals, err := a.calendar.CommitCalendars(gctx, years)
			if err != nil {
				return fmt.Errorf("%s calendars: %w", a.calendar.Name(), err)
			}
			f.calendars = cals
			return nil
		})
		g.Go(func() error {
			prs, err := a.calendar.PullRequests(gctx, years)
			if err != nil {
				return fmt.Errorf("%s pull requests: %w", a.calendar.Name(), err)
			}
			f.pullRequests = prs
			return nil
		})
	}

	if a.activity != nil {
		g.Go(func() error {
			act, err := a.activity.Activity(gctx, years)
			if err != nil {
				return fmt.Errorf("%s activity: %w", a.activity.Name(), err)
			}
			f.activity = act
			return nil
		})
	}

	if a.private != nil {
		g.Go(func() error {
			doc, err := a.private.Load(gctx)
			if err != nil {
				return fmt.Errorf("private contributions: %w", err)
			}
			f.private = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

func (a *Aggregator) mergeCalendars(cal *Calendar, out *models.GitStatsData, calendars []models.YearCalendar) []models.SourceStatus {
	if a.calendar == nil {
		return []models.SourceStatus{notConfigured("calendar")}
	}

	statuses := make([]models.SourceStatus, 0, len(calendars))
	for _, yc := range calendars {
		statuses = append(statuses, yc.Calendar.Status(a.calendar.Name()+".calendar."+yc.Year))

		data, ok := yc.Calendar.Get()
		if !ok {
			continue
		}

		out.YearlyCommits[yc.Year] += data.TotalContributions
		out.TotalCommits += data.TotalContributions

		for _, week := range data.Weeks {
			for _, day := range week.ContributionDays {
				cal.Add(day.Date, day.ContributionCount, ColorToIntensity(day.Color))
			}
		}
	}
	return statuses
}

func (a *Aggregator) mergePullRequests(out *models.GitStatsData, prs []models.YearPullRequests) []models.SourceStatus {
	if a.calendar == nil {
		return []models.SourceStatus{notConfigured("pull_requests")}
	}

	statuses := make([]models.SourceStatus, 0, len(prs))
	for _, yp := range prs {
		statuses = append(statuses, yp.PullRequests.Status(a.calendar.Name()+".pull_requests."+yp.Year))
		if n, ok := yp.PullRequests.Get(); ok {
			out.TotalPullRequests += n
		}
	}
	return statuses
}

func (a *Aggregator) mergeActivity(out *models.GitStatsData, act models.Activity) []models.SourceStatus {
	if a.activity == nil {
		return []models.SourceStatus{notConfigured("activity")}
	}

	name := a.activity.Name()
	if commits, ok := act.Commits.Get(); ok {
		for year, n := range commits {
			out.YearlyCommits[year] += n
			out.TotalCommits += n
		}
	}
	if mrs, ok := act.MergeRequests.Get(); ok {
		for _, n := range mrs {
			out.TotalPullRequests += n
		}
	}

	return []models.SourceStatus{
		act.Commits.Status(name + ".commits"),
		act.MergeRequests.Status(name + ".merge_requests"),
	}
}

// mergePrivate folds the static document in. Boundary days listed under a
// neighbouring year in the document are skipped so each date counts once.
func mergePrivate(cal *Calendar, out *models.GitStatsData, doc *models.PrivateContributions) models.SourceStatus {
	if doc == nil {
		return notConfigured("private")
	}

	for year, yd := range doc.ContributionData {
		if yd == nil {
			continue
		}
		for _, week := range yd.Weeks {
			if week == nil {
				continue
			}
			for _, day := range week.ContributionDays {
				if day == nil || len(day.Date) < 4 || day.Date[:4] != year {
					continue
				}
				out.YearlyCommits[year] += day.ContributionCount
				out.TotalCommits += day.ContributionCount
				cal.Add(day.Date, day.ContributionCount, day.Intensity)
			}
		}
	}

	for _, mr := range doc.MergeRequests {
		out.TotalPullRequests += mr.TotalMergeRequests
	}

	return models.SourceStatus{Source: "private", OK: true}
}

func notConfigured(source string) models.SourceStatus {
	return models.Fail[struct{}](ErrSourceNotConfigured).Status(source)
}

func dedupe(years []string) []string {
	seen := make(map[string]struct{}, len(years))
	out := make([]string, 0, len(years))
	for _, y := range years {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	return out
}
