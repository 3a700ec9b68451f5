package helpers

import (
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/onsi/gomega"
)

// GitTestHelper manages plugin repositories for testing. Repositories are
// built with go-git, so no git binary is required.
type GitTestHelper struct {
	tempDir      string
	repositories []*GitTestRepository
}

// GitTestRepository represents a test plugin repository
type GitTestRepository struct {
	Name     string
	Path     string
	CloneURL string
	repo     *gogit.Repository
}

// NewGitTestHelper creates a new Git test helper
func NewGitTestHelper() *GitTestHelper {
	tempDir, err := os.MkdirTemp("", "git-test-repos-*")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	return &GitTestHelper{
		tempDir:      tempDir,
		repositories: make([]*GitTestRepository, 0),
	}
}

// CreatePluginRepository creates a repository named dirName holding the plugin
func (g *GitTestHelper) CreatePluginRepository(dirName string, plugin PluginFixture) *GitTestRepository {
	repoPath := filepath.Join(g.tempDir, dirName)
	repo, err := gogit.PlainInit(repoPath, false)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	testRepo := &GitTestRepository{
		Name:     dirName,
		Path:     repoPath,
		CloneURL: repoPath,
		repo:     repo,
	}
	g.CommitFiles(testRepo, plugin.Files(), "Initial commit")

	g.repositories = append(g.repositories, testRepo)
	return testRepo
}

// CommitFiles writes the files into the repository and commits them
func (*GitTestHelper) CommitFiles(repo *GitTestRepository, files map[string]string, message string) {
	workTree, err := repo.repo.Worktree()
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	for path, content := range files {
		fullPath := filepath.Join(repo.Path, filepath.FromSlash(path))
		gomega.Expect(os.MkdirAll(filepath.Dir(fullPath), 0750)).To(gomega.Succeed())
		gomega.Expect(os.WriteFile(fullPath, []byte(content), 0600)).To(gomega.Succeed())

		_, err := workTree.Add(path)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	}

	_, err = workTree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
}

// CommitPlugin replaces the plugin content of the repository with a new commit
func (g *GitTestHelper) CommitPlugin(repo *GitTestRepository, plugin PluginFixture, message string) {
	g.CommitFiles(repo, plugin.Files(), message)
}

// CleanupRepositories removes all test repositories
func (g *GitTestHelper) CleanupRepositories() error {
	return os.RemoveAll(g.tempDir)
}
