package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/sensor"
	"github.com/bnema/wayrot/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show live accelerometer readings without rotating",
	Long: `Display the raw accelerometer values, the normalized vector and the
orientation it classifies to. Useful to tune sensor.threshold,
sensor.axis_map and the invert options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if err := cfg.Validate(); err != nil {
			return err
		}

		accel, err := sensor.Open(cfg.Sensor.DeviceGlob)
		if err != nil {
			return err
		}
		projection, err := projectionFor(cfg)
		if err != nil {
			return err
		}

		model := ui.NewWatchModel(accel, projection, cfg.Sensor.Threshold, cfg.Sensor.PollInterval, orientation.Normal)
		_, err = tea.NewProgram(model).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
