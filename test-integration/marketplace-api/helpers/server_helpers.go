package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	marketplaceapp "github.com/stacklok/toolhive-plugin-marketplace/internal/app"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/config"
)

// ServerTestHelper manages the marketplace server lifecycle for testing
type ServerTestHelper struct {
	ctx            context.Context
	marketplaceDir string
	baseURL        string
	address        string
	httpClient     *http.Client
	app            *marketplaceapp.MarketplaceApp
}

// NewServerTestHelper creates a server helper for the marketplace rooted at marketplaceDir
// listening on a free local port
func NewServerTestHelper(ctx context.Context, marketplaceDir string) *ServerTestHelper {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	address := listener.Addr().String()
	gomega.Expect(listener.Close()).To(gomega.Succeed())

	return &ServerTestHelper{
		ctx:            ctx,
		marketplaceDir: marketplaceDir,
		address:        address,
		baseURL:        "http://" + address,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StartServer starts the marketplace server programmatically
func (s *ServerTestHelper) StartServer() error {
	cfg := config.Default()
	cfg.MarketplaceDir = s.marketplaceDir

	app, err := marketplaceapp.NewMarketplaceApp(s.ctx,
		marketplaceapp.WithConfig(cfg),
		marketplaceapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the marketplace server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for the server to report readiness
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Get makes a GET request to path
func (s *ServerTestHelper) Get(path string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + path)
}

// GetWithAccept makes a GET request to path with the given Accept header
func (s *ServerTestHelper) GetWithAccept(path, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	return s.httpClient.Do(req)
}

// GetPlugins makes a GET request to /api/plugins
func (s *ServerTestHelper) GetPlugins() (*http.Response, error) {
	return s.Get("/api/plugins")
}

// GetPlugin makes a GET request to /api/plugins/{name}
func (s *ServerTestHelper) GetPlugin(name string) (*http.Response, error) {
	return s.Get("/api/plugins/" + name)
}

// AddPlugin makes a POST request to /api/plugins
func (s *ServerTestHelper) AddPlugin(gitURL, name string) (*http.Response, error) {
	body, err := json.Marshal(map[string]string{"gitUrl": gitURL, "name": name})
	if err != nil {
		return nil, err
	}
	return s.httpClient.Post(s.baseURL+"/api/plugins", "application/json", bytes.NewReader(body))
}

// UpdatePlugin makes a POST request to /api/plugins/{name}/update
func (s *ServerTestHelper) UpdatePlugin(name string) (*http.Response, error) {
	return s.httpClient.Post(fmt.Sprintf("%s/api/plugins/%s/update", s.baseURL, name), "application/json", nil)
}

// RemovePlugin makes a DELETE request to /api/plugins/{name}
func (s *ServerTestHelper) RemovePlugin(name string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodDelete, fmt.Sprintf("%s/api/plugins/%s", s.baseURL, name), nil)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Do(req)
}

// GetBaseURL returns the base URL of the server
func (s *ServerTestHelper) GetBaseURL() string {
	return s.baseURL
}

// DecodeJSON reads and closes the response body, decoding it into v
func DecodeJSON(resp *http.Response, v any) {
	defer func() {
		_ = resp.Body.Close()
	}()
	gomega.Expect(json.NewDecoder(resp.Body).Decode(v)).To(gomega.Succeed())
}
