// Package integration provides integration tests for the ToolHive plugin marketplace server.
// These tests run the complete server against real local git repositories and
// exercise the plugin lifecycle (add, list, update, remove) over HTTP.
package integration
