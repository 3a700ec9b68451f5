// Package manifest loads and persists the marketplace manifest
// (.claude-plugin/marketplace.json) that lists the plugins served by the marketplace.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
)

const (
	// DirName is the directory, relative to the marketplace root, that holds the manifest
	DirName = ".claude-plugin"

	// FileName is the name of the manifest file
	FileName = "marketplace.json"

	lockRetryDelay = 50 * time.Millisecond
)

// ErrUnreadable is returned when the manifest file is missing, is not JSON or has no plugins array
var ErrUnreadable = errors.New("marketplace manifest unreadable")

// Store defines the interface for manifest persistence
type Store interface {
	// Load reads and parses the manifest
	Load(ctx context.Context) (*Manifest, error)

	// Save overwrites the manifest with m
	Save(ctx context.Context, m *Manifest) error

	// Update runs a read-modify-write cycle while holding the manifest lock.
	// The manifest is saved only when fn returns nil.
	Update(ctx context.Context, fn func(m *Manifest) error) error

	// Path returns the manifest file location
	Path() string
}

// fileStore implements Store on the local filesystem. Writers are serialized
// within the process by mu and across processes by an advisory lock file.
type fileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileStore creates a file-based manifest store for the manifest at path
func NewFileStore(path string) Store {
	return &fileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// PathFor returns the manifest location inside a marketplace root directory
func PathFor(rootDir string) string {
	return filepath.Join(rootDir, DirName, FileName)
}

func (f *fileStore) Path() string {
	return f.path
}

// Load reads the manifest, tolerating comments and trailing commas
func (f *fileStore) Load(_ context.Context) (*Manifest, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return Parse(data)
}

// Parse decodes manifest bytes. Only the document shape is enforced: a JSON
// object with a plugins array. Entries missing optional data still load;
// ValidateSchema applies the full schema.
func Parse(data []byte) (*Manifest, error) {
	standard, err := hujson.Standardize(slices.Clone(data))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrUnreadable, err)
	}

	doc := gjson.ParseBytes(standard)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: manifest must be a JSON object", ErrUnreadable)
	}
	if !doc.Get("plugins").IsArray() {
		return nil, fmt.Errorf("%w: 'plugins' must be an array", ErrUnreadable)
	}

	var m Manifest
	if err := json.Unmarshal(standard, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return &m, nil
}

// Encode renders the manifest the way it is stored on disk: two-space indent and a trailing newline
func Encode(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the manifest while holding the manifest lock
func (f *fileStore) Save(ctx context.Context, m *Manifest) error {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return f.write(m)
}

// Update runs fn against the current manifest and saves the result
func (f *fileStore) Update(ctx context.Context, fn func(m *Manifest) error) error {
	unlock, err := f.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	m, err := f.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	return f.write(m)
}

func (f *fileStore) acquire(ctx context.Context) (func(), error) {
	f.mu.Lock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0750); err != nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		f.mu.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("failed to lock manifest: %w", err)
	}

	return func() {
		_ = f.lock.Unlock()
		f.mu.Unlock()
	}, nil
}

// write stores the manifest atomically: temp file first, then rename
func (f *fileStore) write(m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	tempPath := f.path + ".tmp"
	//nolint:gosec // The manifest is served publicly and edited by hand
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary manifest file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename manifest file: %w", err)
	}

	return nil
}
