package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// newTestTracerProvider creates a tracer provider with in-memory exporter for testing.
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	handler := TracingMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/plugins", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "created", rr.Body.String())
}

func TestTracingMiddleware_SpanPerRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{name: "success", status: http.StatusOK, wantStatus: codes.Ok},
		{name: "client error", status: http.StatusNotFound, wantStatus: codes.Ok},
		{name: "server error", status: http.StatusInternalServerError, wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exporter, tp := newTestTracerProvider(t)

			r := chi.NewRouter()
			r.Use(TracingMiddleware(tp))
			r.Post("/api/plugins/{name}/update", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/plugins/formatter/update", nil))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "POST /api/plugins/{name}/update", span.Name)
			assert.Equal(t, tt.wantStatus, span.Status.Code)

			attrs := map[string]any{}
			for _, attr := range span.Attributes {
				attrs[string(attr.Key)] = attr.Value.AsInterface()
			}
			assert.Equal(t, "/api/plugins/{name}/update", attrs[string(semconv.HTTPRouteKey)])
			assert.Equal(t, int64(tt.status), attrs[string(semconv.HTTPResponseStatusCodeKey)])
		})
	}
}

func TestTracingMiddleware_UnknownRoute(t *testing.T) {
	t.Parallel()
	exporter, tp := newTestTracerProvider(t)

	handler := TracingMiddleware(tp)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plugins/x/README.md", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET unknown_route", spans[0].Name)
}
