package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/ipc"
)

func TestRenderStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	info := &ipc.StatusInfo{
		Display:         "eDP-1",
		Backend:         "hyprland",
		Orientation:     "right",
		Detected:        "right",
		Locked:          true,
		Started:         now.Add(-time.Hour),
		LastTick:        now.Add(-250 * time.Millisecond),
		Ticks:           7200,
		Rotations:       4,
		HasTransactions: true,
		Submitted:       4,
		Succeeded:       3,
		Cancelled:       1,
	}

	got := RenderStatus(info, now)
	for _, want := range []string{"eDP-1", "hyprland", "right", "locked", "250ms ago", "7200", "1h0m0s", "4 submitted, 3 succeeded, 0 failed, 1 cancelled"} {
		assert.Contains(t, got, want)
	}
}

func TestRenderStatusWithoutTransactions(t *testing.T) {
	got := RenderStatus(&ipc.StatusInfo{Display: "eDP-1", Backend: "xorg", Orientation: "unknown"}, time.Now())
	assert.Contains(t, got, "never")
	assert.NotContains(t, got, "Transactions")
}

func TestRenderOutputs(t *testing.T) {
	outputs := []display.Output{
		{Name: "eDP-1", Description: "Built-in panel", Enabled: true, Rotation: "90"},
		{Name: "HDMI-A-1", Enabled: false, Rotation: "normal"},
	}

	got := RenderOutputs(outputs, "eDP-1")
	for _, want := range []string{"NAME", "eDP-1", "HDMI-A-1", "Built-in panel", "90", "yes", "no", "◀"} {
		assert.Contains(t, got, want)
	}
}

func TestRenderOutputsEmpty(t *testing.T) {
	assert.Contains(t, RenderOutputs(nil, "eDP-1"), "No outputs")
}

func TestRenderConfig(t *testing.T) {
	c := config.DefaultConfig
	c.Input.Touchscreens = []string{"ELAN Touchscreen"}
	c.Hooks.After = "pkill -USR1 waybar"

	got := RenderConfig(&c, "/home/user/.config/wayrot/wayrot.toml")
	for _, want := range []string{"wayrot.toml", "eDP-1", "auto", "500ms", "ELAN Touchscreen", "pkill -USR1 waybar", "(default)"} {
		assert.Contains(t, got, want)
	}
}
