package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/ipc"
)

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle))
}

func keyValueTable(rows [][]string) string {
	t := newTable().
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
		}).
		Rows(rows...)
	return t.String()
}

// RenderStatus renders the state reported by a running daemon.
func RenderStatus(info *ipc.StatusInfo, now time.Time) string {
	var b strings.Builder
	b.WriteString(FormatHeader("wayrot status"))
	b.WriteString("\n\n")

	lastTick := "never"
	if !info.LastTick.IsZero() {
		lastTick = fmt.Sprintf("%s ago", now.Sub(info.LastTick).Round(time.Millisecond))
	}
	uptime := "-"
	if !info.Started.IsZero() {
		uptime = now.Sub(info.Started).Round(time.Second).String()
	}

	rows := [][]string{
		{"Display", info.Display},
		{"Backend", info.Backend},
		{"Orientation", info.Orientation},
		{"Detected", info.Detected},
		{"Rotation", FormatLock(info.Locked)},
		{"Vector", fmt.Sprintf("(%.2f, %.2f)", info.VectorX, info.VectorY)},
		{"Last poll", lastTick},
		{"Polls", fmt.Sprintf("%d", info.Ticks)},
		{"Rotations", fmt.Sprintf("%d", info.Rotations)},
		{"Uptime", uptime},
	}
	if info.HasTransactions {
		rows = append(rows, []string{"Transactions", fmt.Sprintf("%d submitted, %d succeeded, %d failed, %d cancelled",
			info.Submitted, info.Succeeded, info.Failed, info.Cancelled)})
	}
	b.WriteString(keyValueTable(rows))
	return b.String()
}

// RenderOutputs renders the displays known to a backend, marking target.
func RenderOutputs(outputs []display.Output, target string) string {
	if len(outputs) == 0 {
		return SubtleStyle.Render("No outputs reported")
	}

	rows := make([][]string, 0, len(outputs))
	for _, o := range outputs {
		enabled := "no"
		if o.Enabled {
			enabled = "yes"
		}
		marker := ""
		if o.Name == target {
			marker = "◀"
		}
		rows = append(rows, []string{o.Name, o.Rotation, enabled, o.Description, marker})
	}

	t := newTable().
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 1)
			case col == 0:
				return lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Padding(0, 1)
			case col == 4 && rows[row][4] != "":
				return lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).Padding(0, 1)
			default:
				return lipgloss.NewStyle().Foreground(ColorText).Padding(0, 1)
			}
		}).
		Headers("NAME", "ROTATION", "ENABLED", "DESCRIPTION", "TARGET").
		Rows(rows...)

	return t.String()
}

// RenderConfig renders the effective configuration.
func RenderConfig(c *config.Config, path string) string {
	var b strings.Builder
	b.WriteString(FormatHeader("wayrot configuration"))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render("File: " + path))
	b.WriteString("\n\n")

	orNone := func(s string) string {
		if s == "" {
			return "(none)"
		}
		return s
	}
	timeout := "none"
	if c.Wayland.RoundtripTimeout > 0 {
		timeout = c.Wayland.RoundtripTimeout.String()
	}
	socket := c.IPC.SocketPath
	if socket == "" {
		socket = "(default)"
	}

	rows := [][]string{
		{"display", c.Display},
		{"backend", c.Backend},
		{"sensor.poll_interval", c.Sensor.PollInterval.String()},
		{"sensor.threshold", fmt.Sprintf("%g", c.Sensor.Threshold)},
		{"sensor.normalization_factor", fmt.Sprintf("%g", c.Sensor.NormalizationFactor)},
		{"sensor.invert", fmt.Sprintf("x=%t y=%t z=%t", c.Sensor.InvertX, c.Sensor.InvertY, c.Sensor.InvertZ)},
		{"sensor.axis_map", c.Sensor.AxisMap},
		{"sensor.device_glob", c.Sensor.DeviceGlob},
		{"input.touchscreens", orNone(strings.Join(c.Input.Touchscreens, ", "))},
		{"input.manage_keyboard", fmt.Sprintf("%t", c.Input.ManageKeyboard)},
		{"hooks.before", orNone(c.Hooks.Before)},
		{"hooks.after", orNone(c.Hooks.After)},
		{"wayland.roundtrip_timeout", timeout},
		{"ipc.enabled", fmt.Sprintf("%t", c.IPC.Enabled)},
		{"ipc.socket_path", socket},
		{"compositor.best_effort_side_effects", fmt.Sprintf("%t", c.Compositor.BestEffortSideEffects)},
		{"logging.log_level", orNone(c.Logging.LogLevel)},
	}
	b.WriteString(keyValueTable(rows))
	return b.String()
}
