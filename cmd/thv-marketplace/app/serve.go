package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	marketplaceapp "github.com/stacklok/toolhive-plugin-marketplace/internal/app"
)

// defaultGracefulTimeout leaves room for an in-flight clone to finish
const defaultGracefulTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the marketplace server",
		Long: `Start the marketplace server. It serves the marketplace manifest for
Claude Code, the plugin management API under /api, the plugin files under
/plugins and the browsable UI.

Without --config the current directory is used as marketplace root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, v, cmd.OutOrStdout())
		},
	}

	serveCmd.Flags().String("address", "", "Address to listen on (default \":4874\")")
	serveCmd.Flags().String("public-dir", "", "Directory holding the browsable UI")
	serveCmd.Flags().Bool("open", false, "Open the UI in the default browser once the server is up")
	for _, name := range []string{"address", "public-dir", "open"} {
		if err := v.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	return serveCmd
}

// runServe runs the server until ctx is done, then shuts it down gracefully
func runServe(ctx context.Context, v *viper.Viper, out io.Writer) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if dir := v.GetString("public-dir"); dir != "" {
		cfg.PublicDir = dir
	}

	opts := []marketplaceapp.MarketplaceAppOptions{marketplaceapp.WithConfig(cfg)}
	if address := v.GetString("address"); address != "" {
		opts = append(opts, marketplaceapp.WithAddress(address))
	}

	// Telemetry providers must outlive ctx so they can flush on shutdown
	marketplaceApp, err := marketplaceapp.NewMarketplaceApp(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return fmt.Errorf("failed to create marketplace server: %w", err)
	}

	slog.Info("Starting marketplace server",
		"address", marketplaceApp.GetHTTPServer().Addr,
		"marketplace_dir", cfg.GetMarketplaceDir())

	errChan := make(chan error, 1)
	go func() {
		errChan <- marketplaceApp.Start()
	}()

	baseURL := BaseURL(marketplaceApp.GetHTTPServer().Addr)
	if isTerminal(out) {
		_, _ = fmt.Fprintln(out, RenderBanner(baseURL))
	}
	if v.GetBool("open") {
		if err := browser.OpenURL(baseURL); err != nil {
			slog.Warn("Failed to open browser", "url", baseURL, "error", err)
		}
	}

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	if err := marketplaceApp.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		return err
	}
	return <-errChan
}

// isTerminal reports whether out is an interactive terminal
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
