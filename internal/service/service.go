// Package service provides the business logic for the plugin marketplace API
package service

import (
	"context"
	"errors"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/plugin"
)

var (
	// ErrManifestUnreadable is returned when the marketplace manifest cannot be read or parsed
	ErrManifestUnreadable = manifest.ErrUnreadable
	// ErrNotFound is returned when a plugin is not found
	ErrNotFound = errors.New("plugin not found")
	// ErrAlreadyExists is returned when adding a plugin whose name is already taken
	ErrAlreadyExists = errors.New("plugin already exists")
	// ErrMissingURL is returned when adding a plugin without a repository URL
	ErrMissingURL = errors.New("git URL is required")
	// ErrNameUnresolvable is returned when no plugin name was given and none can be derived from the URL
	ErrNameUnresolvable = errors.New("could not determine plugin name")
	// ErrInvalidName is returned when a plugin name is not a safe directory name
	ErrInvalidName = errors.New("invalid plugin name")
	// ErrCloneFailed is returned when cloning a plugin repository fails
	ErrCloneFailed = errors.New("failed to clone repository")
	// ErrNotAClone is returned when updating a plugin that was not added from a git repository
	ErrNotAClone = errors.New("plugin is not a git repository")
	// ErrPullFailed is returned when pulling a plugin repository fails
	ErrPullFailed = errors.New("failed to pull repository")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go MarketplaceService

// MarketplaceService defines the interface for marketplace operations
type MarketplaceService interface {
	// CheckReadiness checks if the manifest can be loaded
	CheckReadiness(ctx context.Context) error

	// ListMarketplace returns the manifest as stored on disk
	ListMarketplace(ctx context.Context) (*manifest.Manifest, error)

	// MarketplaceView returns a copy of the manifest in which plugins backed
	// by a git checkout point at their remote URL
	MarketplaceView(ctx context.Context) (*manifest.Manifest, error)

	// ListPlugins returns every manifest entry enriched with data read from its checkout
	ListPlugins(ctx context.Context) ([]*EnrichedEntry, error)

	// GetPlugin returns the plugin's own manifest
	GetPlugin(ctx context.Context, name string) (*plugin.Details, error)

	// AddPlugin clones a repository into the plugins directory and registers it
	AddPlugin(ctx context.Context, req *AddPluginRequest) (*EnrichedEntry, error)

	// UpdatePlugin pulls the latest changes of a plugin checkout
	UpdatePlugin(ctx context.Context, name string) (*UpdateResult, error)

	// RemovePlugin deletes a plugin checkout and its manifest entry
	RemovePlugin(ctx context.Context, name string) error
}
