package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/git"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service/filesystem"
)

// serviceFactory builds the service the plugin commands operate on
type serviceFactory func(v *viper.Viper) (service.MarketplaceService, error)

// newLocalService opens the marketplace directory directly, without a server
func newLocalService(v *viper.Viper) (service.MarketplaceService, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	gitOpts, err := cfg.GitClientOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to configure git authentication: %w", err)
	}
	gitClient, err := git.NewClient(cfg.GetGitDriver(), gitOpts...)
	if err != nil {
		return nil, err
	}

	return filesystem.New(
		filesystem.WithMarketplaceDir(cfg.GetMarketplaceDir()),
		filesystem.WithGitClient(gitClient),
		filesystem.WithGitTimeout(cfg.GetGitTimeout()),
		filesystem.WithCloneDepth(cfg.GetGitDepth()),
	)
}

func newPluginsCmd(v *viper.Viper) *cobra.Command {
	return newPluginsCmdWithFactory(v, newLocalService)
}

func newPluginsCmdWithFactory(v *viper.Viper, newService serviceFactory) *cobra.Command {
	pluginsCmd := &cobra.Command{
		Use:   "plugins",
		Short: "Manage the plugins of a marketplace directory",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the plugins of the marketplace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newService(v)
			if err != nil {
				return err
			}
			entries, err := svc.ListPlugins(cmd.Context())
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return renderPluginTable(cmd.OutOrStdout(), entries)
		},
	}
	listCmd.Flags().String("format", "", "Output format (json)")

	addCmd := &cobra.Command{
		Use:   "add <git-url>",
		Short: "Clone a plugin repository and add it to the marketplace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(v)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			description, _ := cmd.Flags().GetString("description")

			entry, err := svc.AddPlugin(cmd.Context(), &service.AddPluginRequest{
				GitURL:      args[0],
				Name:        name,
				Description: description,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added plugin %s (version %s)\n", entry.Name, entry.Version)
			return err
		},
	}
	addCmd.Flags().String("name", "", "Plugin name (default: derived from the repository URL)")
	addCmd.Flags().String("description", "", "Plugin description (default: read from the plugin)")

	updateCmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Pull the latest changes of a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(v)
			if err != nil {
				return err
			}
			result, err := svc.UpdatePlugin(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !result.Updated {
				_, err = fmt.Fprintf(out, "Plugin %s is up to date (version %s)\n", result.Name, result.Version)
				return err
			}
			_, err = fmt.Fprintf(out, "Updated plugin %s from %s to %s\n", result.Name, result.PreviousVersion, result.Version)
			return err
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a plugin and its checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(v)
			if err != nil {
				return err
			}
			if err := svc.RemovePlugin(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed plugin %s\n", args[0])
			return err
		},
	}

	pluginsCmd.AddCommand(listCmd, addCmd, updateCmd, removeCmd)
	return pluginsCmd
}

func renderPluginTable(out io.Writer, entries []*service.EnrichedEntry) error {
	table := tablewriter.NewWriter(out)
	table.Header("Name", "Version", "Author", "Commands", "Skills", "Repository")
	for _, entry := range entries {
		err := table.Append([]string{
			entry.Name,
			entry.Version,
			entry.Author,
			strconv.Itoa(len(entry.Commands)),
			strconv.Itoa(len(entry.Skills)),
			entry.GitURL,
		})
		if err != nil {
			return fmt.Errorf("failed to render plugin table: %w", err)
		}
	}
	return table.Render()
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
