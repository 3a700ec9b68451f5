// Package api provides the HTTP server for the plugin marketplace.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/api/common"
	v0 "github.com/stacklok/toolhive-plugin-marketplace/internal/api/v0"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
)

// ManifestPath is where Claude Code fetches the marketplace manifest
const ManifestPath = "/.claude-plugin/marketplace.json"

// ServerOption configures the marketplace API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
	pluginsDir     string
	publicDir      string
	requestTimeout time.Duration
	allowedOrigins []string
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithPluginsDir serves the files of plugin checkouts below /plugins/
func WithPluginsDir(dir string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.pluginsDir = dir
	}
}

// WithPublicDir serves the browsable UI from dir
func WithPublicDir(dir string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.publicDir = dir
	}
}

// WithRequestTimeout bounds read API requests
func WithRequestTimeout(timeout time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		cfg.requestTimeout = timeout
	}
}

// WithAllowedOrigins sets the origins allowed to make cross-origin requests
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.allowedOrigins = origins
	}
}

// NewServer creates and configures the HTTP router with the given service and options
func NewServer(svc service.MarketplaceService, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
	}))
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	health := v0.HealthRouter(svc)
	r.Handle("/health", health)
	r.Handle("/readiness", health)
	r.Handle("/version", health)

	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}

	r.Mount("/api", v0.Router(svc, cfg.requestTimeout))
	r.Get(ManifestPath, marketplaceViewHandler(svc))

	if cfg.pluginsDir != "" {
		plugins := http.StripPrefix("/plugins", pluginFileServer(cfg.pluginsDir))
		r.Method(http.MethodGet, "/plugins/*", plugins)
		r.Method(http.MethodHead, "/plugins/*", plugins)
	}

	ui := newUIHandler(cfg.publicDir)
	r.Get("/", rootHandler(svc, ui))
	r.NotFound(ui.ServeHTTP)

	return r
}

// rootHandler serves the marketplace view to API clients and the UI to browsers
func rootHandler(svc service.MarketplaceService, ui http.Handler) http.HandlerFunc {
	view := marketplaceViewHandler(svc)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept")
		if common.WantsStructuredData(r.Header.Get("Accept")) {
			view(w, r)
			return
		}
		ui.ServeHTTP(w, r)
	}
}

// marketplaceViewHandler serves the manifest with plugin sources resolved to their git remotes
func marketplaceViewHandler(svc service.MarketplaceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.MarketplaceView(r.Context())
		if err != nil {
			common.WriteServiceError(w, r, err)
			return
		}
		common.WriteJSONResponse(w, view, http.StatusOK)
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
