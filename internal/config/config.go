// Package config provides configuration loading and management for the marketplace server.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/git"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/telemetry"
)

const (
	// EnvPrefix is the prefix of environment variables read by the CLI
	EnvPrefix = "THV_MARKETPLACE"

	// DefaultMarketplaceDir is the marketplace root used when none is configured
	DefaultMarketplaceDir = "."

	// DefaultAddress is the address the HTTP server listens on
	DefaultAddress = ":4874"

	// DefaultRequestTimeout bounds read requests
	DefaultRequestTimeout = 30 * time.Second

	// DefaultGitTimeout bounds a single clone or pull
	DefaultGitTimeout = 5 * time.Minute

	// GitPasswordEnvVar supplies the git password when no password file is configured
	GitPasswordEnvVar = "THV_MARKETPLACE_GIT_PASSWORD"
)

// DefaultAllowedOrigins allows cross-origin requests from anywhere
var DefaultAllowedOrigins = []string{"*"}

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// MarketplaceDir is the root holding .claude-plugin/marketplace.json and plugins/
	MarketplaceDir string `yaml:"marketplaceDir,omitempty"`

	// PublicDir holds the browsable UI. An embedded page is served when empty.
	PublicDir string `yaml:"publicDir,omitempty"`

	Server    *ServerConfig     `yaml:"server,omitempty"`
	Git       *GitConfig        `yaml:"git,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address, e.g. ":4874"
	Address string `yaml:"address,omitempty"`

	// RequestTimeout bounds read requests (e.g., "30s"); mutations are bounded by git.timeout
	RequestTimeout string `yaml:"requestTimeout,omitempty"`

	CORS *CORSConfig `yaml:"cors,omitempty"`
}

// CORSConfig defines cross-origin settings
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// GitConfig defines how plugin repositories are cloned and pulled
type GitConfig struct {
	// Driver selects the implementation: "go-git" (default) or "cli"
	Driver string `yaml:"driver,omitempty"`

	// Timeout bounds each clone and pull (e.g., "5m")
	Timeout string `yaml:"timeout,omitempty"`

	// Depth limits fetched history when adding a plugin; 0 fetches everything
	Depth int `yaml:"depth,omitempty"`

	Auth *GitAuthConfig `yaml:"auth,omitempty"`
}

// GitAuthConfig defines HTTP basic authentication for private repositories
type GitAuthConfig struct {
	Username string `yaml:"username"`

	// PasswordFile is the path to a file containing the password or token
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`
}

// GetPassword returns the git password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from THV_MARKETPLACE_GIT_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (a *GitAuthConfig) GetPassword() (string, error) {
	if a.PasswordFile != "" {
		cleanPath := filepath.Clean(a.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", a.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(GitPasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no git password configured: set git.auth.passwordFile or %s environment variable", GitPasswordEnvVar,
	)
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		MarketplaceDir: DefaultMarketplaceDir,
		Telemetry: &telemetry.Config{
			Enabled: true,
			Metrics: &telemetry.MetricsConfig{Enabled: true},
		},
	}
}

// LoadConfig loads configuration from a YAML file. Without WithConfigPath the
// defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	config := Default()
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Fields absent from the file keep their defaults
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// GetMarketplaceDir returns the marketplace root, using "." if not specified
func (c *Config) GetMarketplaceDir() string {
	if c.MarketplaceDir == "" {
		return DefaultMarketplaceDir
	}
	return c.MarketplaceDir
}

// GetAddress returns the listen address
func (c *Config) GetAddress() string {
	if c.Server == nil || c.Server.Address == "" {
		return DefaultAddress
	}
	return c.Server.Address
}

// GetRequestTimeout returns the read request timeout
func (c *Config) GetRequestTimeout() time.Duration {
	if c.Server == nil || c.Server.RequestTimeout == "" {
		return DefaultRequestTimeout
	}
	d, err := time.ParseDuration(c.Server.RequestTimeout)
	if err != nil {
		return DefaultRequestTimeout
	}
	return d
}

// GetAllowedOrigins returns the CORS allowed origins
func (c *Config) GetAllowedOrigins() []string {
	if c.Server == nil || c.Server.CORS == nil || len(c.Server.CORS.AllowedOrigins) == 0 {
		return DefaultAllowedOrigins
	}
	return c.Server.CORS.AllowedOrigins
}

// GetGitDriver returns the git driver name
func (c *Config) GetGitDriver() string {
	if c.Git == nil || c.Git.Driver == "" {
		return git.DriverGoGit
	}
	return c.Git.Driver
}

// GetGitTimeout returns the timeout applied to each clone and pull
func (c *Config) GetGitTimeout() time.Duration {
	if c.Git == nil || c.Git.Timeout == "" {
		return DefaultGitTimeout
	}
	d, err := time.ParseDuration(c.Git.Timeout)
	if err != nil {
		return DefaultGitTimeout
	}
	return d
}

// GetGitDepth returns the clone depth
func (c *Config) GetGitDepth() int {
	if c.Git == nil {
		return 0
	}
	return c.Git.Depth
}

// GitClientOptions returns the git client options derived from the auth settings
func (c *Config) GitClientOptions() ([]git.Option, error) {
	if c.Git == nil || c.Git.Auth == nil || c.Git.Auth.Username == "" {
		return nil, nil
	}
	password, err := c.Git.Auth.GetPassword()
	if err != nil {
		return nil, err
	}
	return []git.Option{git.WithAuth(c.Git.Auth.Username, password)}, nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	if c.Server != nil {
		errs = append(errs, validateServerConfig(c.Server))
	}
	if c.Git != nil {
		errs = append(errs, validateGitConfig(c.Git))
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	return errors.Join(errs...)
}

// validateServerConfig validates the HTTP server settings
func validateServerConfig(server *ServerConfig) error {
	if server.Address != "" {
		if err := validateAddress(server.Address); err != nil {
			return fmt.Errorf("server.address: %w", err)
		}
	}
	if err := validateDuration(server.RequestTimeout); err != nil {
		return fmt.Errorf("server.requestTimeout: %w", err)
	}
	return nil
}

// validateGitConfig validates the git settings
func validateGitConfig(cfg *GitConfig) error {
	switch cfg.Driver {
	case "", git.DriverGoGit, git.DriverCLI:
	default:
		return fmt.Errorf("git.driver must be one of %s or %s, got %s", git.DriverGoGit, git.DriverCLI, cfg.Driver)
	}
	if err := validateDuration(cfg.Timeout); err != nil {
		return fmt.Errorf("git.timeout: %w", err)
	}
	if cfg.Depth < 0 {
		return fmt.Errorf("git.depth must not be negative, got %d", cfg.Depth)
	}
	if cfg.Auth != nil && cfg.Auth.Username == "" && cfg.Auth.PasswordFile != "" {
		return fmt.Errorf("git.auth.username is required when a password file is set")
	}
	return nil
}

// validateDuration accepts an empty value or a positive duration
func validateDuration(value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a valid duration (e.g., '30s', '5m'): %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("must be greater than zero, got %s", value)
	}
	return nil
}

// validateAddress accepts host:port with an optional host
func validateAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}
