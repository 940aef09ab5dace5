package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/logger"
)

var (
	configFile string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "wayrot",
		Short: "wayrot - automatic screen rotation",
		Long: `wayrot rotates a display to follow the device accelerometer.
It drives wlroots compositors through the output-management protocol,
sway and Hyprland through their IPC, and X11 through xrandr and xinput,
keeping touchscreens aligned with the display.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/wayrot/wayrot.toml)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringP("display", "d", "", "display to rotate, e.g. eDP-1")
	flags.StringP("backend", "b", "", "display backend (auto, wlroots, sway, hyprland, xorg, xorg-randr)")

	bindFlags()
}

func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("display", flags.Lookup("display"))
	_ = viper.BindPFlag("backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("logging.log_level", flags.Lookup("log-level"))
}

// initConfig loads the configuration and applies the log level, flags
// taking precedence over the file and the file over LOG_LEVEL.
func initConfig(cmd *cobra.Command, args []string) error {
	config.SetConfigPath(configFile)
	if err := config.Init(); err != nil {
		return err
	}

	if level := config.Get().Logging.LogLevel; level != "" {
		logger.SetLevel(level)
	}
	logger.Debugf("Using config file %s", config.GetConfigPath())
	return nil
}
