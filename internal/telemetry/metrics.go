package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/portfolio-api/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	metricAggregations        = "portfolio_git_stats_aggregations"
	metricAggregationDuration = "portfolio_git_stats_aggregation_duration"
	metricSourceFailures      = "portfolio_git_stats_source_failures"

	attrOutcome = "outcome"
	attrSource  = "source"
)

var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// Metrics exposes aggregation metrics on a private Prometheus registry
type Metrics struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	aggregations   metric.Int64Counter
	duration       metric.Float64Histogram
	sourceFailures metric.Int64Counter
}

// NewMetrics creates the meter provider, Prometheus exporter and instruments
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("github.com/benvon/portfolio-api")

	m := &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	m.aggregations, err = meter.Int64Counter(metricAggregations,
		metric.WithDescription("Completed git statistics aggregations by outcome"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAggregations, err)
	}

	m.duration, err = meter.Float64Histogram(metricAggregationDuration,
		metric.WithDescription("Git statistics aggregation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricAggregationDuration, err)
	}

	m.sourceFailures, err = meter.Int64Counter(metricSourceFailures,
		metric.WithDescription("Sources that failed softly during aggregation"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSourceFailures, err)
	}

	return m, nil
}

// Handler serves the Prometheus scrape endpoint
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// RecordAggregation records one completed aggregation. Safe on a nil receiver.
func (m *Metrics) RecordAggregation(ctx context.Context, duration time.Duration, sources []models.SourceStatus) {
	if m == nil {
		return
	}

	outcome := "complete"
	for _, s := range sources {
		if s.OK {
			continue
		}
		outcome = "degraded"
		m.sourceFailures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrSource, sourceKind(s.Source))))
	}

	m.aggregations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordAggregationError counts an aggregation that failed outright
func (m *Metrics) RecordAggregationError(ctx context.Context) {
	if m == nil {
		return
	}
	m.aggregations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, "error")))
}

// Shutdown stops the meter provider. Safe on a nil receiver.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// sourceKind strips a trailing year from names like "github.calendar.2020"
// to keep label cardinality fixed
func sourceKind(source string) string {
	if i := strings.LastIndexByte(source, '.'); i >= 0 {
		suffix := source[i+1:]
		if len(suffix) == 4 && strings.Trim(suffix, "0123456789") == "" {
			return source[:i]
		}
	}
	return source
}
