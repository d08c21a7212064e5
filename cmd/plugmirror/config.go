package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plugmirror/internal/domain/config"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or check the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration after defaults, file, and flags are merged",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		format := config.Format(configFormat)
		if format != config.FormatYAML && format != config.FormatTOML {
			return fmt.Errorf("unknown format %q (want yaml or toml)", configFormat)
		}

		data, err := config.Marshal(cfg, format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
		return err
	},
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", string(config.FormatYAML), "output format (yaml, toml)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
