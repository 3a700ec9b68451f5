package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/git"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
)

const emptyManifest = `{
  "name": "test-marketplace",
  "owner": {"name": "Marketplace Team"},
  "plugins": []
}
`

// newMarketplace creates a marketplace root containing the given manifest
func newMarketplace(t *testing.T, manifestJSON string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, manifest.PathFor(root), manifestJSON)
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func readManifest(t *testing.T, root string) []byte {
	t.Helper()
	data, err := os.ReadFile(manifest.PathFor(root))
	require.NoError(t, err)
	return data
}

func loadManifest(t *testing.T, root string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse(readManifest(t, root))
	require.NoError(t, err)
	return m
}

func entryNames(m *manifest.Manifest) []string {
	names := make([]string, 0, len(m.Plugins))
	for _, e := range m.Plugins {
		names = append(names, e.Name)
	}
	return names
}

// newPluginRepo creates a git repository named name holding files, committed in one commit
func newPluginRepo(t *testing.T, name string, files map[string]string) (string, *gogit.Repository) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	if len(files) == 0 {
		files = map[string]string{"README.md": "# " + name + "\n"}
	}
	commitFiles(t, repo, dir, files)
	return dir, repo
}

func commitFiles(t *testing.T, repo *gogit.Repository, dir string, files map[string]string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	for path, content := range files {
		writeFile(t, filepath.Join(dir, path), content)
		_, err := wt.Add(filepath.ToSlash(path))
		require.NoError(t, err)
	}
	_, err = wt.Commit("update", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

// initCheckout makes plugins/<name> a repository whose origin points at remote
func initCheckout(t *testing.T, root, name, remote string) {
	t.Helper()
	dir := filepath.Join(root, manifest.PluginsDirName, name)
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	if remote != "" {
		_, err = repo.CreateRemote(&config.RemoteConfig{Name: git.DefaultRemoteName, URLs: []string{remote}})
		require.NoError(t, err)
	}
}

func newTestService(t *testing.T, root string, opts ...Option) service.MarketplaceService {
	t.Helper()
	svc, err := New(append([]Option{WithMarketplaceDir(root)}, opts...)...)
	require.NoError(t, err)
	return svc
}

// failingSaveStore runs update callbacks but fails to persist the result
type failingSaveStore struct {
	manifest.Store
	err error
}

func (s *failingSaveStore) Update(ctx context.Context, fn func(m *manifest.Manifest) error) error {
	m, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	return s.err
}
