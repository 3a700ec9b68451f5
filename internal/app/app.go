// Package app provides application lifecycle management for the marketplace server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/config"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
)

// MarketplaceApp encapsulates all components needed to run the marketplace server
// It provides lifecycle management and graceful shutdown capabilities
type MarketplaceApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
}

// Start serves HTTP until the server is stopped or fails
func (app *MarketplaceApp) Start() error {
	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the HTTP server and then flushes telemetry.
// In-flight plugin operations are given the full timeout to finish.
func (app *MarketplaceApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if app.components != nil && app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *MarketplaceApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *MarketplaceApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetMarketplaceService returns the service backing the HTTP API
func (app *MarketplaceApp) GetMarketplaceService() service.MarketplaceService {
	return app.components.MarketplaceService
}
