package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/api"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/config"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/git"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service/filesystem"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/telemetry"
)

const (
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 60 * time.Second

	// writeTimeoutMargin is added to the git timeout so that a slow clone
	// still gets its response written
	writeTimeoutMargin = 30 * time.Second
)

// MarketplaceAppOptions is a function that configures the marketplace app builder
type MarketplaceAppOptions func(*marketplaceAppConfig) error

// marketplaceAppConfig collects everything needed to build a MarketplaceApp.
// Components left nil are built from config.
type marketplaceAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	gitClient git.Client
	telemetry *telemetry.Telemetry
	service   service.MarketplaceService

	// HTTP server options
	address     string
	middlewares []func(http.Handler) http.Handler
	readTimeout time.Duration
	idleTimeout time.Duration
}

func baseConfig(opts ...MarketplaceAppOptions) (*marketplaceAppConfig, error) {
	cfg := &marketplaceAppConfig{
		readTimeout: defaultReadTimeout,
		idleTimeout: defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		cfg.config = config.Default()
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetAddress()
	}

	return cfg, nil
}

// NewMarketplaceApp builds the marketplace server from configuration
func NewMarketplaceApp(
	ctx context.Context,
	opts ...MarketplaceAppOptions,
) (*MarketplaceApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	svc, err := buildServiceComponents(cfg)
	if err != nil {
		_ = cfg.telemetry.Shutdown(ctx)
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, svc)
	if err != nil {
		_ = cfg.telemetry.Shutdown(ctx)
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return &MarketplaceApp{
		config: cfg.config,
		components: &AppComponents{
			MarketplaceService: svc,
			Telemetry:          cfg.telemetry,
		},
		httpServer: httpServer,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding server.address
func WithAddress(addr string) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("address is not a valid host:port: %w", err)
		}
		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default request middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithGitClient allows injecting a custom git client (for testing)
func WithGitClient(client git.Client) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.gitClient = client
		return nil
	}
}

// WithTelemetry allows injecting pre-built telemetry providers
func WithTelemetry(t *telemetry.Telemetry) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithMarketplaceService allows injecting a custom service (for testing)
func WithMarketplaceService(svc service.MarketplaceService) MarketplaceAppOptions {
	return func(cfg *marketplaceAppConfig) error {
		cfg.service = svc
		return nil
	}
}

// buildServiceComponents builds the filesystem marketplace service
func buildServiceComponents(b *marketplaceAppConfig) (service.MarketplaceService, error) {
	if b.service != nil {
		return b.service, nil
	}

	slog.Info("Initializing service components", "marketplace_dir", b.config.GetMarketplaceDir())

	if b.gitClient == nil {
		gitOpts, err := b.config.GitClientOptions()
		if err != nil {
			return nil, fmt.Errorf("failed to configure git authentication: %w", err)
		}
		b.gitClient, err = git.NewClient(b.config.GetGitDriver(), gitOpts...)
		if err != nil {
			return nil, err
		}
	}

	serviceOpts := []filesystem.Option{
		filesystem.WithMarketplaceDir(b.config.GetMarketplaceDir()),
		filesystem.WithGitClient(b.gitClient),
		filesystem.WithGitTimeout(b.config.GetGitTimeout()),
		filesystem.WithCloneDepth(b.config.GetGitDepth()),
	}

	if b.telemetry != nil {
		serviceOpts = append(serviceOpts,
			filesystem.WithTracer(b.telemetry.Tracer(filesystem.ServiceTracerName)))

		pluginMetrics, err := telemetry.NewPluginMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create plugin metrics: %w", err)
		}
		serviceOpts = append(serviceOpts, filesystem.WithMetrics(pluginMetrics))
	}

	svc, err := filesystem.New(serviceOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create marketplace service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *marketplaceAppConfig,
	svc service.MarketplaceService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			api.LoggingMiddleware,
		}
	}

	var metricsHandler http.Handler
	if b.telemetry != nil {
		// Tracing runs first so that metrics and logs see the request span
		instrumentation := []func(http.Handler) http.Handler{
			telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
		}

		metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			instrumentation = append(instrumentation, metricsMiddleware)
			slog.Info("HTTP metrics middleware enabled")
		}

		b.middlewares = append(instrumentation, b.middlewares...)
		metricsHandler = b.telemetry.MetricsHandler()
	}

	router := api.NewServer(svc,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(metricsHandler),
		api.WithPluginsDir(filepath.Join(b.config.GetMarketplaceDir(), manifest.PluginsDirName)),
		api.WithPublicDir(b.config.PublicDir),
		api.WithRequestTimeout(b.config.GetRequestTimeout()),
		api.WithAllowedOrigins(b.config.GetAllowedOrigins()...),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.config.GetGitTimeout() + writeTimeoutMargin,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
