package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

const defaultGitBinary = "git"

// cliGitClient implements Client by running the git binary. Credentials come
// from the user's git configuration (credential helpers, SSH agent).
type cliGitClient struct {
	binary string
}

// NewCLIGitClient creates a client that shells out to git
func NewCLIGitClient(opts ...Option) Client {
	o := &clientOptions{binary: defaultGitBinary}
	for _, opt := range opts {
		opt(o)
	}
	if o.binary == "" {
		o.binary = defaultGitBinary
	}
	return &cliGitClient{binary: o.binary}
}

func (c *cliGitClient) Clone(ctx context.Context, config *CloneConfig) error {
	args := []string{"clone"}
	if config.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(config.Depth))
	}
	args = append(args, "--", config.URL, config.Directory)

	_, err := c.run(ctx, "clone", "", args...)
	return err
}

func (c *cliGitClient) Pull(ctx context.Context, dir string) error {
	if !c.IsRepository(dir) {
		return ErrNotRepository
	}
	_, err := c.run(ctx, "pull", dir, "pull", "--ff-only")
	return err
}

func (c *cliGitClient) RemoteURL(ctx context.Context, dir string) (string, error) {
	if !c.IsRepository(dir) {
		return "", ErrNotRepository
	}

	out, err := c.run(ctx, "remote", dir, "remote")
	if err != nil {
		return "", err
	}
	names := strings.Fields(out)
	if len(names) == 0 {
		return "", ErrNoRemote
	}
	slices.SortFunc(names, compareRemoteNames)

	url, err := c.run(ctx, "remote get-url", dir, "remote", "get-url", names[0])
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", ErrNoRemote
	}
	return url, nil
}

// IsRepository checks for a .git entry directly inside dir so that a
// marketplace which is itself a checkout does not make every plugin look cloned.
func (*cliGitClient) IsRepository(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func (c *cliGitClient) run(ctx context.Context, op, dir string, args ...string) (string, error) {
	//nolint:gosec // Arguments are passed directly to git without a shell
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return "", &OperationError{Op: op, Err: err, Output: trimmed}
	}
	return trimmed, nil
}
