package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/config"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/git"
	gitmocks "github.com/stacklok/toolhive-plugin-marketplace/internal/git/mocks"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service/mocks"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/telemetry"
)

func TestBaseConfig_Defaults(t *testing.T) {
	t.Parallel()

	built, err := baseConfig()
	require.NoError(t, err)
	require.NotNil(t, built.config)
	assert.Equal(t, config.DefaultAddress, built.address)
	assert.Equal(t, defaultReadTimeout, built.readTimeout)
	assert.Equal(t, defaultIdleTimeout, built.idleTimeout)
}

func TestBaseConfig_AddressFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Server = &config.ServerConfig{Address: "127.0.0.1:9000"}

	built, err := baseConfig(WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", built.address)

	built, err = baseConfig(WithConfig(cfg), WithAddress(":9090"))
	require.NoError(t, err)
	assert.Equal(t, ":9090", built.address)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "port only", addr: ":9090"},
		{name: "localhost", addr: "localhost:4874"},
		{name: "ipv4", addr: "127.0.0.1:8080"},
		{name: "ipv6", addr: "[::1]:8080"},
		{name: "empty", addr: "", wantErr: true},
		{name: "missing port", addr: ":", wantErr: true},
		{name: "no colon", addr: "localhost", wantErr: true},
		{name: "port out of range", addr: ":70000", wantErr: true},
		{name: "hostname", addr: "example.com:80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			built, err := baseConfig(WithAddress(tt.addr))
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, built)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, built.address)
		})
	}
}

func TestWithOptions(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	gitClient := gitmocks.NewMockClient(ctrl)
	svc := mocks.NewMockMarketplaceService(ctrl)
	tel, err := telemetry.New(context.Background())
	require.NoError(t, err)
	mw := func(next http.Handler) http.Handler { return next }

	built, err := baseConfig(
		WithGitClient(gitClient),
		WithMarketplaceService(svc),
		WithTelemetry(tel),
		WithMiddlewares(mw),
	)
	require.NoError(t, err)
	assert.Same(t, gitClient, built.gitClient)
	assert.Same(t, svc, built.service)
	assert.Same(t, tel, built.telemetry)
	assert.Len(t, built.middlewares, 1)
}

func TestNewMarketplaceApp(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	gitClient := gitmocks.NewMockClient(ctrl)
	gitClient.EXPECT().IsRepository(gomock.Any()).Return(false).AnyTimes()

	cfg := createTestAppConfig(t)
	cfg.Git = &config.GitConfig{Timeout: "1m", Depth: 1}

	app, err := NewMarketplaceApp(context.Background(),
		WithConfig(cfg),
		WithAddress("127.0.0.1:0"),
		WithGitClient(gitClient),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	assert.Equal(t, "127.0.0.1:0", app.GetHTTPServer().Addr)
	assert.Equal(t, time.Minute+writeTimeoutMargin, app.GetHTTPServer().WriteTimeout)
	assert.Equal(t, defaultReadTimeout, app.GetHTTPServer().ReadTimeout)

	require.NoError(t, app.GetMarketplaceService().CheckReadiness(context.Background()))

	rec := httptest.NewRecorder()
	app.GetHTTPServer().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/marketplace", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test-marketplace")

	// Telemetry is disabled, so metrics are not served
	rec = httptest.NewRecorder()
	app.GetHTTPServer().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewMarketplaceApp_ServesMetrics(t *testing.T) {
	t.Parallel()

	cfg := createTestAppConfig(t)
	cfg.Telemetry = &telemetry.Config{
		Enabled: true,
		Metrics: &telemetry.MetricsConfig{Enabled: true},
	}

	app, err := NewMarketplaceApp(context.Background(), WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	handler := app.GetHTTPServer().Handler

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plugins", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
	assert.Contains(t, string(body), "thv_marketplace_http_requests_total")
}

func TestNewMarketplaceApp_ServesPluginFiles(t *testing.T) {
	t.Parallel()

	cfg := createTestAppConfig(t)
	pluginDir := filepath.Join(cfg.MarketplaceDir, "plugins", "demo")
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "README.md"), []byte("# demo"), 0o644))

	app, err := NewMarketplaceApp(context.Background(), WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	rec := httptest.NewRecorder()
	app.GetHTTPServer().Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plugins/demo/README.md", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# demo", rec.Body.String())
}

func TestNewMarketplaceApp_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		configure func(*config.Config)
		opts      []MarketplaceAppOptions
		errMsg    string
	}{
		{
			name:   "invalid address",
			opts:   []MarketplaceAppOptions{WithAddress(":")},
			errMsg: "failed to build base configuration",
		},
		{
			name: "unknown git driver",
			configure: func(c *config.Config) {
				c.Git = &config.GitConfig{Driver: "svn"}
			},
			errMsg: "unsupported git driver",
		},
		{
			name: "missing git password",
			configure: func(c *config.Config) {
				c.Git = &config.GitConfig{
					Driver: git.DriverGoGit,
					Auth:   &config.GitAuthConfig{Username: "bot", PasswordFile: "/nonexistent/password"},
				}
			},
			errMsg: "failed to configure git authentication",
		},
		{
			name: "invalid telemetry",
			configure: func(c *config.Config) {
				c.Telemetry = &telemetry.Config{
					Enabled: true,
					Tracing: &telemetry.TracingConfig{Enabled: true, Sampling: 2},
				}
			},
			errMsg: "failed to initialize telemetry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := createTestAppConfig(t)
			if tt.configure != nil {
				tt.configure(cfg)
			}

			app, err := NewMarketplaceApp(context.Background(), append([]MarketplaceAppOptions{WithConfig(cfg)}, tt.opts...)...)
			require.Error(t, err)
			assert.Nil(t, app)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
