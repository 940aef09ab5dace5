package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/daemon"
	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/ipc"
	"github.com/bnema/wayrot/internal/logger"
	"github.com/bnema/wayrot/internal/sensor"
)

var oneshot bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rotate the display to follow the accelerometer",
	Long: `Poll the accelerometer and rotate the configured display whenever the
device orientation changes. With --oneshot a single poll is performed.`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().BoolVar(&oneshot, "oneshot", false, "poll once, rotate if needed and exit")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	accel, err := sensor.Open(cfg.Sensor.DeviceGlob)
	if err != nil {
		return err
	}
	paths := accel.Paths()
	logger.Debugf("Accelerometer channels: x=%s y=%s z=%s", paths.X, paths.Y, paths.Z)

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Debugf("Closing backend: %v", err)
		}
	}()

	projection, err := projectionFor(cfg)
	if err != nil {
		return err
	}

	d := daemon.New(daemon.Options{
		Display:      cfg.Display,
		PollInterval: cfg.Sensor.PollInterval,
		Threshold:    cfg.Sensor.Threshold,
		Projection:   projection,
		BeforeHook:   cfg.Hooks.Before,
		AfterHook:    cfg.Hooks.After,
		Oneshot:      oneshot,
	}, accel, backend, daemon.ShellHook{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IPC.Enabled && !oneshot {
		server, err := ipc.NewSocketServer(cfg.IPC.SocketPath, ipc.DaemonHandler{Daemon: d})
		if err != nil {
			return err
		}
		if err := server.Start(); err != nil {
			return err
		}
		defer server.Stop()
	}

	return d.Run(ctx)
}

func openBackend(cfg *config.Config) (display.Backend, error) {
	kind, err := display.ParseKind(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return display.Open(display.Options{
		Kind:                  kind,
		Display:               cfg.Display,
		Touchscreens:          cfg.Input.Touchscreens,
		ManageKeyboard:        cfg.Input.ManageKeyboard,
		BestEffortSideEffects: cfg.Compositor.BestEffortSideEffects,
		RoundtripTimeout:      cfg.Wayland.RoundtripTimeout,
	})
}

func projectionFor(cfg *config.Config) (sensor.Projection, error) {
	axisMap, err := sensor.ParseAxisMap(cfg.Sensor.AxisMap)
	if err != nil {
		return sensor.Projection{}, err
	}
	return sensor.Projection{
		InvertX:             cfg.Sensor.InvertX,
		InvertY:             cfg.Sensor.InvertY,
		InvertZ:             cfg.Sensor.InvertZ,
		AxisMap:             axisMap,
		NormalizationFactor: cfg.Sensor.NormalizationFactor,
	}, nil
}
