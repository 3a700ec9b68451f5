// Package filesystem provides a MarketplaceService backed by a marketplace
// directory on the local filesystem: the manifest under .claude-plugin/ and
// one git checkout per plugin under plugins/.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/git"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/otel"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/plugin"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/telemetry"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/validators"
)

const (
	// ServiceTracerName is the name used for the filesystem service tracer
	ServiceTracerName = "github.com/stacklok/toolhive-plugin-marketplace/service/filesystem"

	// stagingPrefix marks in-progress clones inside the plugins directory
	stagingPrefix = ".staging-"
)

// fsService implements the MarketplaceService interface on a marketplace directory
type fsService struct {
	store       manifest.Store
	reader      *plugin.Reader
	git         git.Client
	tracer      trace.Tracer
	metrics     *telemetry.PluginMetrics
	gitTimeout  time.Duration
	cloneDepth  int
	concurrency int

	// removeAll deletes a plugin directory tree
	removeAll func(path string) error
}

var _ service.MarketplaceService = (*fsService)(nil)

// New creates a new filesystem-backed marketplace service with the given options
func New(opts ...Option) (service.MarketplaceService, error) {
	o := &options{
		gitTimeout:  DefaultGitTimeout,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.rootDir == "" {
		return nil, fmt.Errorf("marketplace directory is required")
	}
	if o.store == nil {
		o.store = manifest.NewFileStore(manifest.PathFor(o.rootDir))
	}
	if o.gitClient == nil {
		o.gitClient = git.NewDefaultGitClient()
	}

	return &fsService{
		store:       o.store,
		reader:      plugin.NewReader(filepath.Join(o.rootDir, manifest.PluginsDirName)),
		git:         o.gitClient,
		tracer:      o.tracer,
		metrics:     o.metrics,
		gitTimeout:  o.gitTimeout,
		cloneDepth:  o.cloneDepth,
		concurrency: o.concurrency,
		removeAll:   os.RemoveAll,
	}, nil
}

// CheckReadiness checks if the manifest can be loaded
func (s *fsService) CheckReadiness(ctx context.Context) error {
	if _, err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}
	return nil
}

// ListMarketplace returns the manifest as stored on disk
func (s *fsService) ListMarketplace(ctx context.Context) (*manifest.Manifest, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "fsService.ListMarketplace")
	defer span.End()

	m, err := s.store.Load(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(m.Plugins)))
	s.metrics.RecordPluginsTotal(ctx, int64(len(m.Plugins)))
	return m, nil
}

// MarketplaceView returns a copy of the manifest in which every plugin with a
// resolvable git remote is sourced from that remote
func (s *fsService) MarketplaceView(ctx context.Context) (*manifest.Manifest, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "fsService.MarketplaceView")
	defer span.End()

	m, err := s.store.Load(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	view := m.Clone()
	for i, entry := range view.Plugins {
		if url, ok := s.resolveURL(ctx, entry.Name); ok {
			view.Plugins[i].Source = manifest.URLSource(url)
		}
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(view.Plugins)))
	return view, nil
}

// ListPlugins returns every manifest entry enriched with data read from its
// checkout, in manifest order. Failures reading a single plugin degrade to
// defaults; only an unreadable manifest fails the call.
func (s *fsService) ListPlugins(ctx context.Context) ([]*service.EnrichedEntry, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "fsService.ListPlugins")
	defer span.End()

	m, err := s.store.Load(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	results := make([]*service.EnrichedEntry, len(m.Plugins))
	ownerName := m.OwnerName()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entry := range m.Plugins {
		g.Go(func() error {
			results[i] = s.enrich(gctx, entry, ownerName)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(results)))
	s.metrics.RecordPluginsTotal(ctx, int64(len(results)))
	return results, nil
}

// GetPlugin returns the plugin's own manifest
func (s *fsService) GetPlugin(ctx context.Context, name string) (*plugin.Details, error) {
	_, span := otel.StartSpan(ctx, s.tracer, "fsService.GetPlugin",
		trace.WithAttributes(otel.AttrPluginName.String(name)))
	defer span.End()

	name, err := validateDirName(name)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	details, err := s.reader.ReadDetails(name)
	if err != nil {
		err = fmt.Errorf("failed to read plugin '%s': %w", name, err)
		otel.RecordError(span, err)
		return nil, err
	}
	if details == nil {
		return nil, fmt.Errorf("%w: %s", service.ErrNotFound, name)
	}

	span.SetAttributes(otel.AttrPluginVersion.String(details.Version()))
	return details, nil
}

// enrich adds version, author, commands, skills and the resolved remote to an entry
func (s *fsService) enrich(ctx context.Context, entry manifest.Entry, ownerName string) *service.EnrichedEntry {
	out := &service.EnrichedEntry{
		Entry:    entry,
		Version:  service.DefaultVersion,
		Author:   firstNonEmpty(ownerName, service.DefaultAuthor),
		Commands: []plugin.CommandDescriptor{},
		Skills:   []plugin.SkillDescriptor{},
	}

	if !validators.IsValidPluginDirName(entry.Name) {
		slog.WarnContext(ctx, "Skipping plugin directory lookup for unsafe name", "name", entry.Name)
		return out
	}

	details, err := s.reader.ReadDetails(entry.Name)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read plugin details", "name", entry.Name, "error", err)
	}
	out.Version = firstNonEmpty(details.Version(), service.DefaultVersion)
	out.Author = firstNonEmpty(details.AuthorName(), ownerName, service.DefaultAuthor)

	if commands, err := s.reader.ReadCommands(entry.Name); err != nil {
		slog.WarnContext(ctx, "Failed to read plugin commands", "name", entry.Name, "error", err)
	} else {
		out.Commands = commands
	}

	if skills, err := s.reader.ReadSkills(entry.Name); err != nil {
		slog.WarnContext(ctx, "Failed to read plugin skills", "name", entry.Name, "error", err)
	} else {
		out.Skills = skills
	}

	if url, ok := s.resolveURL(ctx, entry.Name); ok {
		out.GitURL = url
	}
	return out
}

// resolveURL returns the normalized remote URL of a plugin checkout. It
// reports false when the plugin has no checkout, is not a clone or has no remote.
func (s *fsService) resolveURL(ctx context.Context, name string) (string, bool) {
	if !validators.IsValidPluginDirName(name) {
		return "", false
	}

	raw, err := s.git.RemoteURL(ctx, s.reader.Dir(name))
	if err != nil {
		if !errors.Is(err, git.ErrNotRepository) && !errors.Is(err, git.ErrNoRemote) {
			slog.DebugContext(ctx, "Failed to resolve plugin remote", "name", name, "error", err)
		}
		return "", false
	}

	url := git.NormalizeRemoteURL(raw)
	return url, url != ""
}

// readVersion returns the version declared by the plugin, or the default
func (s *fsService) readVersion(ctx context.Context, name string) string {
	details, err := s.reader.ReadDetails(name)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read plugin details", "name", name, "error", err)
	}
	return firstNonEmpty(details.Version(), service.DefaultVersion)
}

// validateName applies the naming rule for new plugins
func validateName(name string) (string, error) {
	valid, err := validators.ValidatePluginName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", service.ErrInvalidName, err)
	}
	return valid, nil
}

// validateDirName accepts any name that maps to a directory under plugins/
func validateDirName(name string) (string, error) {
	valid, err := validators.ValidatePluginDirName(name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", service.ErrInvalidName, err)
	}
	return valid, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
