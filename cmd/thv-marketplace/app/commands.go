// Package app provides the entry point for the ToolHive plugin marketplace application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/config"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/versions"
)

// NewRootCmd creates a new root command for the marketplace server.
// Flags are bound to a viper instance owned by the command tree, so flags
// override THV_MARKETPLACE_* environment variables, which override the config file.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "thv-marketplace",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "ToolHive plugin marketplace server",
		Long: `ToolHive plugin marketplace server hosts a Claude Code plugin marketplace:
a marketplace.json manifest plus the git checkouts of the plugins it lists.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if v.GetBool("debug") {
				slog.SetDefault(slog.New(NewLogHandler(os.Stderr, slog.LevelDebug, true)))
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")
	rootCmd.PersistentFlags().String("marketplace-dir", "", "Marketplace root holding .claude-plugin/ and plugins/")
	for _, name := range []string{"debug", "config", "marketplace-dir"} {
		if err := v.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newPluginsCmd(v))
	rootCmd.AddCommand(newManifestCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("error retrieving format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("error formatting version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			slog.Info("thv-marketplace version",
				"version", info.Version,
				"commit", info.Commit,
				"built", info.BuildDate,
				"go", info.GoVersion,
				"platform", info.Platform)
			return nil
		},
	}
	versionCmd.Flags().String("format", "", "Output format (json)")
	return versionCmd
}

// loadConfig reads the config file named by --config and applies the
// marketplace directory flag on top of it
func loadConfig(v *viper.Viper) (*config.Config, error) {
	var opts []config.Option
	if path := v.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}

	cfg, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if dir := v.GetString("marketplace-dir"); dir != "" {
		cfg.MarketplaceDir = dir
	}
	return cfg, nil
}
