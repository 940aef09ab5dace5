package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/logger"
	"github.com/bnema/wayrot/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage wayrot configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderConfig(config.Get(), config.GetConfigPath()))
		if err := config.Get().Validate(); err != nil {
			logger.Warnf("Configuration is invalid: %v", err)
		}
		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	Long:  `Write the effective configuration, including defaults and flags, to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Get().Validate(); err != nil {
			return fmt.Errorf("refusing to save invalid configuration: %w", err)
		}
		if err := config.Update(config.Get()); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
