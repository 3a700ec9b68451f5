package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client

// Client defines the interface for Git operations on plugin checkouts
type Client interface {
	// Clone clones a repository into config.Directory
	Clone(ctx context.Context, config *CloneConfig) error

	// Pull fast-forwards the checkout in dir from its remote. A checkout that
	// is already up to date is not an error.
	Pull(ctx context.Context, dir string) error

	// RemoteURL returns the URL of the checkout's remote, preferring origin
	RemoteURL(ctx context.Context, dir string) (string, error)

	// IsRepository reports whether dir is the root of a git checkout
	IsRepository(dir string) bool
}

// Option configures a git client
type Option func(*clientOptions)

type clientOptions struct {
	auth   *AuthConfig
	binary string
}

// WithAuth sets HTTP basic authentication for clone and pull
func WithAuth(username, password string) Option {
	return func(o *clientOptions) {
		if username != "" {
			o.auth = &AuthConfig{Username: username, Password: password}
		}
	}
}

// WithBinary sets the git executable used by the CLI client
func WithBinary(path string) Option {
	return func(o *clientOptions) {
		o.binary = path
	}
}

// NewClient creates a git client for the named driver
func NewClient(driver string, opts ...Option) (Client, error) {
	switch driver {
	case DriverGoGit, "":
		return NewDefaultGitClient(opts...), nil
	case DriverCLI:
		return NewCLIGitClient(opts...), nil
	default:
		return nil, fmt.Errorf("unsupported git driver: %s", driver)
	}
}

// defaultGitClient implements Client using go-git
type defaultGitClient struct {
	auth *githttp.BasicAuth
}

// NewDefaultGitClient creates a new defaultGitClient
func NewDefaultGitClient(opts ...Option) Client {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	c := &defaultGitClient{}
	if o.auth != nil {
		c.auth = &githttp.BasicAuth{
			Username: o.auth.Username,
			Password: o.auth.Password,
		}
		slog.Debug("Using Git HTTP Basic authentication", "username", o.auth.Username)
	}
	return c
}

// Clone clones a repository with the given configuration
func (c *defaultGitClient) Clone(ctx context.Context, config *CloneConfig) error {
	var progress bytes.Buffer
	cloneOptions := &git.CloneOptions{
		URL:        config.URL,
		Depth:      config.Depth,
		Progress:   &progress,
		RemoteName: DefaultRemoteName,
	}
	if c.auth != nil {
		cloneOptions.Auth = c.auth
	}

	if _, err := git.PlainCloneContext(ctx, config.Directory, false, cloneOptions); err != nil {
		return &OperationError{Op: "clone", Err: err, Output: lastLine(progress.String())}
	}
	return nil
}

// Pull fast-forwards the worktree from origin
func (c *defaultGitClient) Pull(ctx context.Context, dir string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return ErrNotRepository
		}
		return fmt.Errorf("failed to open repository: %w", err)
	}

	workTree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	var progress bytes.Buffer
	pullOptions := &git.PullOptions{
		RemoteName: DefaultRemoteName,
		Progress:   &progress,
	}
	if c.auth != nil {
		pullOptions.Auth = c.auth
	}

	err = workTree.PullContext(ctx, pullOptions)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		slog.Debug("Repository already up to date", "dir", dir)
		return nil
	}
	if err != nil {
		return &OperationError{Op: "pull", Err: err, Output: lastLine(progress.String())}
	}
	return nil
}

// RemoteURL returns the first URL of origin, or of the first remote by name
func (*defaultGitClient) RemoteURL(_ context.Context, dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", ErrNotRepository
		}
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return "", fmt.Errorf("failed to list remotes: %w", err)
	}

	slices.SortFunc(remotes, func(a, b *git.Remote) int {
		return compareRemoteNames(a.Config().Name, b.Config().Name)
	})
	for _, remote := range remotes {
		if urls := remote.Config().URLs; len(urls) > 0 && urls[0] != "" {
			return urls[0], nil
		}
	}
	return "", ErrNoRemote
}

// IsRepository reports whether dir itself holds a repository; parent
// directories are not searched.
func (*defaultGitClient) IsRepository(dir string) bool {
	_, err := git.PlainOpen(dir)
	return err == nil
}

// compareRemoteNames orders origin first, then by name
func compareRemoteNames(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == DefaultRemoteName:
		return -1
	case b == DefaultRemoteName:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// lastLine keeps the final progress message, which carries the remote's error if any
func lastLine(output string) string {
	output = strings.TrimSpace(strings.ReplaceAll(output, "\r", "\n"))
	if i := strings.LastIndexByte(output, '\n'); i >= 0 {
		return strings.TrimSpace(output[i+1:])
	}
	return output
}
