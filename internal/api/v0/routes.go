// Package v0 provides the REST API handlers for the plugin marketplace.
package v0

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/api/common"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/versions"
)

const maxRequestBodyBytes = 1 << 20

// RemoveResponse is returned after a plugin has been removed
type RemoveResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Routes defines the routes for the marketplace API with dependency injection
type Routes struct {
	service service.MarketplaceService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.MarketplaceService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates the marketplace API router. Read routes are bounded by
// requestTimeout when it is positive; mutations are bounded by the service's
// own git timeout instead.
func Router(svc service.MarketplaceService, requestTimeout time.Duration) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(middleware.Timeout(requestTimeout))
		}
		r.Get("/marketplace", routes.getMarketplace)
		r.Get("/plugins", routes.listPlugins)
		r.Get("/plugins/{name}", routes.getPlugin)
	})

	r.Post("/plugins", routes.addPlugin)
	r.Post("/plugins/{name}/update", routes.updatePlugin)
	r.Delete("/plugins/{name}", routes.removePlugin)

	return r
}

// getMarketplace handles GET /api/marketplace
func (rr *Routes) getMarketplace(w http.ResponseWriter, r *http.Request) {
	m, err := rr.service.ListMarketplace(r.Context())
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, m, http.StatusOK)
}

// listPlugins handles GET /api/plugins
func (rr *Routes) listPlugins(w http.ResponseWriter, r *http.Request) {
	plugins, err := rr.service.ListPlugins(r.Context())
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, plugins, http.StatusOK)
}

// getPlugin handles GET /api/plugins/{name}
func (rr *Routes) getPlugin(w http.ResponseWriter, r *http.Request) {
	name, err := common.PluginNameParam(r, "name")
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	details, err := rr.service.GetPlugin(r.Context(), name)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, details, http.StatusOK)
}

// addPlugin handles POST /api/plugins
func (rr *Routes) addPlugin(w http.ResponseWriter, r *http.Request) {
	var req service.AddPluginRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			common.WriteErrorResponse(w, service.ErrMissingURL.Error(), http.StatusBadRequest)
			return
		}
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := rr.service.AddPlugin(r.Context(), &req)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, entry, http.StatusCreated)
}

// updatePlugin handles POST /api/plugins/{name}/update
func (rr *Routes) updatePlugin(w http.ResponseWriter, r *http.Request) {
	name, err := common.PluginNameParam(r, "name")
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	result, err := rr.service.UpdatePlugin(r.Context(), name)
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, result, http.StatusOK)
}

// removePlugin handles DELETE /api/plugins/{name}
func (rr *Routes) removePlugin(w http.ResponseWriter, r *http.Request) {
	name, err := common.PluginNameParam(r, "name")
	if err != nil {
		common.WriteServiceError(w, r, err)
		return
	}

	if err := rr.service.RemovePlugin(r.Context(), name); err != nil {
		common.WriteServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, RemoveResponse{
		Message: "Plugin removed successfully",
		Name:    name,
	}, http.StatusOK)
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.MarketplaceService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once the manifest can be loaded
func readinessHandler(svc service.MarketplaceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Marketplace not ready", "error", err)
			common.WriteErrorResponse(w, "Marketplace not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
