package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/git"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/otel"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/versions"
)

const (
	operationAdd    = "add"
	operationUpdate = "update"
	operationRemove = "remove"
)

// AddPlugin clones a repository into plugins/<name> and appends an entry to the manifest.
// The clone lands in a staging directory first; it is moved into place and the
// entry appended in one manifest update, so a failure at any step leaves both
// the plugins directory and the manifest as they were.
func (s *fsService) AddPlugin(ctx context.Context, req *service.AddPluginRequest) (*service.EnrichedEntry, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "fsService.AddPlugin",
		trace.WithAttributes(otel.AttrCloneDepth.Int(s.cloneDepth)))
	defer span.End()

	start := time.Now()
	entry, err := s.addPlugin(ctx, req)
	s.metrics.RecordOperation(ctx, operationAdd, time.Since(start), err)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		otel.AttrPluginName.String(entry.Name),
		otel.AttrPluginVersion.String(entry.Version),
	)
	slog.InfoContext(ctx, "Plugin added", "name", entry.Name, "version", entry.Version)
	return entry, nil
}

func (s *fsService) addPlugin(ctx context.Context, req *service.AddPluginRequest) (*service.EnrichedEntry, error) {
	if req == nil || strings.TrimSpace(req.GitURL) == "" {
		return nil, service.ErrMissingURL
	}
	gitURL := strings.TrimSpace(req.GitURL)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		derived, ok := git.ExtractName(gitURL)
		if !ok {
			return nil, fmt.Errorf("%w from URL '%s'", service.ErrNameUnresolvable, gitURL)
		}
		name = derived
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	// Fail fast before cloning; the checks are repeated under the manifest lock
	m, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	target := s.reader.Dir(name)
	if err := s.checkAvailable(m, name, target); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.reader.PluginsDir(), 0750); err != nil {
		return nil, fmt.Errorf("failed to create plugins directory: %w", err)
	}
	stagingName := stagingPrefix + uuid.NewString()
	staging := s.reader.Dir(stagingName)
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			slog.WarnContext(ctx, "Failed to remove staging directory", "path", staging, "error", err)
		}
	}()

	slog.InfoContext(ctx, "Cloning plugin repository", "name", name, "url", gitURL)
	cloneCtx, cancel := context.WithTimeout(ctx, s.gitTimeout)
	defer cancel()
	if err := s.git.Clone(cloneCtx, &git.CloneConfig{URL: gitURL, Directory: staging, Depth: s.cloneDepth}); err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrCloneFailed, err)
	}

	details, err := s.reader.ReadDetails(stagingName)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read details of cloned plugin", "name", name, "error", err)
	}
	entry := manifest.Entry{
		Name:        name,
		Description: firstNonEmpty(strings.TrimSpace(req.Description), details.Description(), service.DefaultDescription),
		Source:      manifest.LocalSource(name),
	}

	moved := false
	err = s.store.Update(ctx, func(m *manifest.Manifest) error {
		if err := s.checkAvailable(m, name, target); err != nil {
			return err
		}
		if err := os.Rename(staging, target); err != nil {
			return fmt.Errorf("failed to move checkout into place: %w", err)
		}
		moved = true
		return m.Append(entry)
	})
	if err != nil {
		if moved {
			if rmErr := os.RemoveAll(target); rmErr != nil {
				slog.ErrorContext(ctx, "Failed to remove plugin directory after manifest update failed",
					"name", name, "error", rmErr)
			}
		}
		return nil, err
	}

	enriched := s.enrich(ctx, entry, m.OwnerName())
	enriched.GitURL = gitURL
	return enriched, nil
}

// checkAvailable fails when the name is listed in m or its directory exists
func (*fsService) checkAvailable(m *manifest.Manifest, name, target string) error {
	if m.Has(name) {
		return fmt.Errorf("%w: %s", service.ErrAlreadyExists, name)
	}
	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("%w: %s", service.ErrAlreadyExists, name)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check plugin directory: %w", err)
	}
	return nil
}

// UpdatePlugin pulls the plugin checkout. The manifest is not modified.
func (s *fsService) UpdatePlugin(ctx context.Context, name string) (*service.UpdateResult, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "fsService.UpdatePlugin",
		trace.WithAttributes(otel.AttrPluginName.String(name)))
	defer span.End()

	start := time.Now()
	result, err := s.updatePlugin(ctx, name)
	s.metrics.RecordOperation(ctx, operationUpdate, time.Since(start), err)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		otel.AttrPluginVersion.String(result.Version),
		otel.AttrPreviousVersion.String(result.PreviousVersion),
	)
	slog.InfoContext(ctx, "Plugin updated",
		"name", result.Name,
		"version", result.Version,
		"previous_version", result.PreviousVersion)
	return result, nil
}

func (s *fsService) updatePlugin(ctx context.Context, name string) (*service.UpdateResult, error) {
	name, err := validateDirName(name)
	if err != nil {
		return nil, err
	}

	exists, err := s.reader.Exists(name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", service.ErrNotFound, name)
	}

	dir := s.reader.Dir(name)
	if !s.git.IsRepository(dir) {
		return nil, fmt.Errorf("%w: %s", service.ErrNotAClone, name)
	}

	previous := s.readVersion(ctx, name)

	pullCtx, cancel := context.WithTimeout(ctx, s.gitTimeout)
	defer cancel()
	if err := s.git.Pull(pullCtx, dir); err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrPullFailed, err)
	}

	current := s.readVersion(ctx, name)
	return &service.UpdateResult{
		Name:            name,
		Version:         current,
		PreviousVersion: previous,
		Updated:         versions.Changed(previous, current),
		Upgraded:        versions.IsNewerVersion(current, previous),
	}, nil
}

// RemovePlugin deletes plugins/<name> and then drops the entry from the manifest.
// When the directory cannot be deleted the manifest is left untouched.
func (s *fsService) RemovePlugin(ctx context.Context, name string) error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "fsService.RemovePlugin",
		trace.WithAttributes(otel.AttrPluginName.String(name)))
	defer span.End()

	start := time.Now()
	err := s.removePlugin(ctx, name)
	s.metrics.RecordOperation(ctx, operationRemove, time.Since(start), err)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}

	slog.InfoContext(ctx, "Plugin removed", "name", name)
	return nil
}

func (s *fsService) removePlugin(ctx context.Context, name string) error {
	name, err := validateDirName(name)
	if err != nil {
		return err
	}

	exists, err := s.reader.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", service.ErrNotFound, name)
	}

	if err := s.removeAll(s.reader.Dir(name)); err != nil {
		return fmt.Errorf("failed to delete plugin directory: %w", err)
	}

	return s.store.Update(ctx, func(m *manifest.Manifest) error {
		if !m.Remove(name) {
			slog.WarnContext(ctx, "Removed plugin was not listed in the manifest", "name", name)
		}
		return nil
	})
}
