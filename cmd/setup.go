package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/logger"
	"github.com/bnema/wayrot/internal/sensor"
	"github.com/bnema/wayrot/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively configure wayrot",
	Long: `Check for an accelerometer, detect the display environment and write a
configuration file from your answers.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.FormatHeader("wayrot setup"))
	fmt.Fprintln(out)

	cfg := config.Get()

	if paths, err := sensor.Discover(cfg.Sensor.DeviceGlob); err != nil {
		fmt.Fprintln(out, ui.FormatResult(false, fmt.Sprintf("Accelerometer: %v", err)))
	} else {
		fmt.Fprintln(out, ui.FormatResult(true, "Accelerometer: "+paths.X))
	}

	runner := display.ExecRunner{}
	kind, err := display.ParseKind(cfg.Backend)
	if err == nil && kind == display.KindAuto {
		kind, err = display.DetectEnvironment(runner)
	}
	if err != nil {
		fmt.Fprintln(out, ui.FormatResult(false, fmt.Sprintf("Display environment: %v", err)))
	} else {
		fmt.Fprintln(out, ui.FormatResult(true, "Display environment: "+string(kind)))
	}
	fmt.Fprintln(out)

	var outputNames []string
	if backend, err := openBackend(cfg); err == nil {
		if outputs, err := backend.Outputs(); err == nil {
			for _, o := range outputs {
				outputNames = append(outputNames, o.Name)
			}
		} else {
			logger.Debugf("Listing outputs: %v", err)
		}
		_ = backend.Close()
	} else {
		logger.Debugf("Opening backend for setup: %v", err)
	}

	var touchscreens []string
	if kind == display.KindXorg || kind == display.KindXorgRandR {
		if touchscreens, err = display.XInputDevices(runner); err != nil {
			logger.Debugf("Listing xinput devices: %v", err)
		}
	}

	choices := ui.ChoicesFromConfig(cfg)
	if err := ui.NewSetupForm(&choices, outputNames, touchscreens).Run(); err != nil {
		return err
	}

	updated, err := ui.ApplySetup(cfg, choices)
	if err != nil {
		return err
	}
	if err := config.Update(updated); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out, ui.FormatResult(true, "Configuration saved to "+config.GetConfigPath()))
	fmt.Fprintln(out, ui.SubtleStyle.Render("Start rotating with: wayrot run"))
	return nil
}
