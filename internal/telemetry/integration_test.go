package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/portfolio-api/internal/services/contributions"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TestTraceContextPropagation checks that an aggregation span joins the
// request span started by otelmux, including an incoming traceparent.
func TestTraceContextPropagation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	agg := contributions.NewAggregator(nil, nil, nil, zap.NewNop())

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("portfolio-api"))
	r.HandleFunc("/api/v1/git-stats", func(w http.ResponseWriter, r *http.Request) {
		if _, err := agg.Aggregate(r.Context(), []string{"2020"}); err != nil {
			t.Errorf("Aggregate() error: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		traceParent string
		wantTraceID string
	}{
		{
			name: "without existing trace ID",
		},
		{
			name:        "with existing trace ID",
			traceParent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			wantTraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest("GET", "/api/v1/git-stats", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status OK, got %d", rr.Code)
			}
			if err := tp.ForceFlush(context.Background()); err != nil {
				t.Errorf("Failed to flush tracer provider: %v", err)
			}

			spans := exporter.GetSpans()
			var aggSpan, reqSpan *tracetest.SpanStub
			for i := range spans {
				switch {
				case spans[i].Name == "contributions.Aggregate":
					aggSpan = &spans[i]
				case spans[i].SpanKind == trace.SpanKindServer:
					reqSpan = &spans[i]
				}
			}
			if aggSpan == nil || reqSpan == nil {
				t.Fatalf("Expected request and aggregation spans, got %d spans", len(spans))
			}
			if aggSpan.Parent.SpanID() != reqSpan.SpanContext.SpanID() {
				t.Error("Expected aggregation span to be a child of the request span")
			}
			if tt.wantTraceID != "" && aggSpan.SpanContext.TraceID().String() != tt.wantTraceID {
				t.Errorf("Expected trace ID %s, got %s", tt.wantTraceID, aggSpan.SpanContext.TraceID())
			}
		})
	}
}
