package display

import (
	"fmt"
	"os"
	"strings"
)

// Detect picks a backend from the session environment, then from the
// running processes.
func Detect(getenv func(string) string, running func(process string) bool) (Kind, error) {
	if getenv("SWAYSOCK") != "" {
		return KindSway, nil
	}
	if getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return KindHyprland, nil
	}

	switch strings.ToLower(strings.TrimSpace(getenv("XDG_CURRENT_DESKTOP"))) {
	case "sway":
		return KindSway, nil
	case "hyprland":
		return KindHyprland, nil
	}

	if getenv("WAYLAND_DISPLAY") != "" {
		return KindWlroots, nil
	}
	if getenv("DISPLAY") != "" {
		return KindXorg, nil
	}

	probes := []struct {
		process string
		kind    Kind
	}{
		{"sway", KindSway},
		{"Hyprland", KindHyprland},
		{"Xorg", KindXorg},
	}
	for _, p := range probes {
		if running(p.process) {
			return p.kind, nil
		}
	}

	return "", fmt.Errorf("unable to detect the display environment, set backend explicitly")
}

// DetectEnvironment runs Detect against the process environment, probing
// processes with pgrep.
func DetectEnvironment(runner Runner) (Kind, error) {
	return Detect(os.Getenv, func(process string) bool {
		_, err := runner.Run("pgrep", "-x", process)
		return err == nil
	})
}
