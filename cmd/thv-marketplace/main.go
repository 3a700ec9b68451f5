// Package main is the entry point for the ToolHive plugin marketplace server.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-plugin-marketplace/cmd/thv-marketplace/app"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/config"
)

// getLogLevel parses the THV_MARKETPLACE_LOG_LEVEL environment variable and returns the corresponding slog.Level.
// Falls back to LOG_LEVEL for backward compatibility.
// Defaults to slog.LevelInfo if neither is set or if the value is invalid.
func getLogLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
		return slog.LevelInfo
	}
}

func main() {
	// Logs go to stderr to keep stdout clean for commands that output data
	// (e.g., version --format json, plugins list).
	slog.SetDefault(slog.New(app.NewLogHandler(os.Stderr, getLogLevel(), false)))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
