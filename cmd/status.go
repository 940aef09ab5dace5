package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/ipc"
	"github.com/bnema/wayrot/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := ipc.NewClient(config.Get().IPC.SocketPath)
		if err != nil {
			return fmt.Errorf("failed to create IPC client: %w", err)
		}

		info, err := client.Status()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderStatus(info, time.Now()))
		return nil
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Stop rotating until unlocked",
	Long:  `Keep the current orientation. The daemon keeps polling but does not rotate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLock(cmd, true)
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Resume following the accelerometer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLock(cmd, false)
	},
}

func setLock(cmd *cobra.Command, locked bool) error {
	client, err := ipc.NewClient(config.Get().IPC.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC client: %w", err)
	}

	var info *ipc.StatusInfo
	if locked {
		info, err = client.Lock()
	} else {
		info, err = client.Unlock()
	}
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Rotation of %s unlocked", info.Display)
	if info.Locked {
		msg = fmt.Sprintf("Rotation of %s locked at %s", info.Display, info.Orientation)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.FormatResult(true, msg))
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
}
