package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// PluginMetricsMeterName is the name used for the plugin metrics meter
	PluginMetricsMeterName = "github.com/stacklok/toolhive-plugin-marketplace/plugins"

	outcomeSuccess = "success"
	outcomeError   = "error"
)

// PluginMetrics holds the OpenTelemetry instruments for plugin operations
type PluginMetrics struct {
	pluginsTotal      metric.Int64Gauge
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
}

// NewPluginMetrics creates a new PluginMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewPluginMetrics(provider metric.MeterProvider) (*PluginMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PluginMetricsMeterName)

	pluginsTotal, err := meter.Int64Gauge(
		"thv_marketplace_plugins",
		metric.WithDescription("Number of plugins listed in the marketplace manifest"),
		metric.WithUnit("{plugin}"),
	)
	if err != nil {
		return nil, err
	}

	operationsTotal, err := meter.Int64Counter(
		"thv_marketplace_plugin_operations_total",
		metric.WithDescription("Total number of plugin add, update and remove operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram(
		"thv_marketplace_plugin_operation_duration_seconds",
		metric.WithDescription("Duration of plugin operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	return &PluginMetrics{
		pluginsTotal:      pluginsTotal,
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
	}, nil
}

// RecordPluginsTotal records the current number of manifest entries
func (m *PluginMetrics) RecordPluginsTotal(ctx context.Context, count int64) {
	if m == nil || m.pluginsTotal == nil {
		return
	}
	m.pluginsTotal.Record(ctx, count)
}

// RecordOperation records one plugin operation and its outcome
func (m *PluginMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	if m == nil || m.operationsTotal == nil {
		return
	}

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)

	m.operationsTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, duration.Seconds(), attrs)
}
