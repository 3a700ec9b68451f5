package app

import (
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// MarketplaceService provides marketplace business logic
	MarketplaceService service.MarketplaceService

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry
}
