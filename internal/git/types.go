// Package git clones and refreshes plugin repositories and resolves their remotes.
package git

import (
	"errors"
	"fmt"
)

const (
	// DefaultRemoteName is the remote created by clone
	DefaultRemoteName = "origin"

	// DriverGoGit selects the go-git library implementation
	DriverGoGit = "go-git"

	// DriverCLI selects the implementation that runs the git binary
	DriverCLI = "cli"
)

var (
	// ErrNotRepository is returned when a directory is not a git checkout
	ErrNotRepository = errors.New("not a git repository")

	// ErrNoRemote is returned when a checkout has no remote configured
	ErrNoRemote = errors.New("no git remote configured")
)

// CloneConfig contains configuration for cloning a repository
type CloneConfig struct {
	// URL is the repository URL to clone
	URL string

	// Directory is where the working tree is checked out. It must not exist
	// or be empty.
	Directory string

	// Depth limits history to the given number of commits; 0 clones everything
	Depth int
}

// AuthConfig contains HTTP basic authentication used for clone and pull
type AuthConfig struct {
	Username string
	Password string
}

// OperationError carries the diagnostic output of a failed git operation
type OperationError struct {
	Op     string
	Output string
	Err    error
}

func (e *OperationError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("git %s failed: %v: %s", e.Op, e.Err, e.Output)
	}
	return fmt.Sprintf("git %s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
