package filesystem

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/git"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/telemetry"
)

const (
	// DefaultGitTimeout bounds a single clone or pull
	DefaultGitTimeout = 5 * time.Minute

	// DefaultConcurrency is the number of plugins enriched in parallel by ListPlugins
	DefaultConcurrency = 8
)

// options holds configuration options for the filesystem service
type options struct {
	rootDir     string
	store       manifest.Store
	gitClient   git.Client
	tracer      trace.Tracer
	metrics     *telemetry.PluginMetrics
	gitTimeout  time.Duration
	cloneDepth  int
	concurrency int
}

// Option is a functional option for configuring the filesystem service
type Option func(*options) error

// WithMarketplaceDir sets the marketplace root holding .claude-plugin/ and plugins/
func WithMarketplaceDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return fmt.Errorf("marketplace directory is required")
		}
		o.rootDir = dir
		return nil
	}
}

// WithStore overrides the manifest store. Defaults to the manifest file
// inside the marketplace directory.
func WithStore(store manifest.Store) Option {
	return func(o *options) error {
		o.store = store
		return nil
	}
}

// WithGitClient sets the client used to clone, pull and inspect checkouts.
// Defaults to the go-git client.
func WithGitClient(client git.Client) Option {
	return func(o *options) error {
		o.gitClient = client
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// WithMetrics sets the recorder for plugin operation metrics
func WithMetrics(metrics *telemetry.PluginMetrics) Option {
	return func(o *options) error {
		o.metrics = metrics
		return nil
	}
}

// WithGitTimeout bounds each clone and pull
func WithGitTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return fmt.Errorf("git timeout must be greater than zero, got %s", timeout)
		}
		o.gitTimeout = timeout
		return nil
	}
}

// WithCloneDepth limits the history fetched when adding a plugin; 0 fetches everything
func WithCloneDepth(depth int) Option {
	return func(o *options) error {
		if depth < 0 {
			return fmt.Errorf("clone depth must not be negative, got %d", depth)
		}
		o.cloneDepth = depth
		return nil
	}
}

// WithConcurrency sets how many plugins ListPlugins reads in parallel
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("concurrency must be greater than zero, got %d", n)
		}
		o.concurrency = n
		return nil
	}
}
