package app

import (
	"net"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/api"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(14)
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))
)

// BaseURL returns the URL clients use to reach a server listening on addr.
// Wildcard and empty hosts are reported as localhost.
func BaseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// RegistrationCommand is the Claude Code command that adds the marketplace
func RegistrationCommand(baseURL string) string {
	return "/plugin marketplace add " + baseURL + api.ManifestPath
}

// RenderBanner renders the startup banner listing the endpoints of the server
func RenderBanner(baseURL string) string {
	rows := [][2]string{
		{"UI", baseURL + "/"},
		{"Manifest", baseURL + api.ManifestPath},
		{"API", baseURL + "/api/plugins"},
		{"Health", baseURL + "/health"},
	}

	lines := []string{titleStyle.Render("Plugin marketplace running"), ""}
	for _, row := range rows {
		lines = append(lines, labelStyle.Render(row[0])+row[1])
	}
	lines = append(lines,
		"",
		"Add it to Claude Code with:",
		commandStyle.Render(RegistrationCommand(baseURL)),
	)

	return bannerStyle.Render(strings.Join(lines, "\n"))
}
