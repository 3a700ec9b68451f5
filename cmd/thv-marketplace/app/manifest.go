package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
)

func newManifestCmd(v *viper.Viper) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the marketplace manifest",
	}

	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a marketplace.json against the marketplace schema",
		Long: `Validate a marketplace.json against the marketplace schema and check that
plugin names are present and unique. Without a path, the manifest of the
configured marketplace directory is validated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifestPath(v, args)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read manifest: %w", err)
			}
			m, err := manifest.Parse(data)
			if err != nil {
				return err
			}
			if err := manifest.ValidateSchema(data); err != nil {
				return fmt.Errorf("invalid manifest: %w", err)
			}
			if err := m.Validate(); err != nil {
				return fmt.Errorf("invalid manifest: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%d plugins)\n", path, len(m.Plugins))
			return err
		},
	}

	manifestCmd.AddCommand(validateCmd)
	return manifestCmd
}

func manifestPath(v *viper.Viper, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return "", err
	}
	return manifest.PathFor(cfg.GetMarketplaceDir()), nil
}
