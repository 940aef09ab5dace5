package display

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/wayland"
)

type hyprDevices struct {
	Keyboards []struct {
		Name string `json:"name"`
	} `json:"keyboards"`
}

type hyprMonitor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Disabled    bool   `json:"disabled"`
	Transform   int    `json:"transform"`
}

// hyprlandBackend rotates through the output-management protocol, then
// points Hyprland's touch and tablet transforms at the same index since
// they do not follow the output.
type hyprlandBackend struct {
	client         transformClient
	runner         Runner
	manageKeyboard bool
	bestEffort     bool
}

func newHyprlandBackend(client transformClient, opts Options) *hyprlandBackend {
	return &hyprlandBackend{
		client:         client,
		runner:         opts.Runner,
		manageKeyboard: opts.ManageKeyboard,
		bestEffort:     opts.BestEffortSideEffects,
	}
}

func (h *hyprlandBackend) Name() Kind { return KindHyprland }

func (h *hyprlandBackend) Apply(o orientation.Orientation) error {
	if err := h.client.Apply(o); err != nil {
		return err
	}

	index := strconv.Itoa(o.Transform().Index())
	for _, key := range []string{"input:touchdevice:transform", "input:tablet:transform"} {
		_, err := h.runner.Run("hyprctl", "keyword", key, index)
		if err := sideEffect(h.bestEffort, "set "+key, err); err != nil {
			return err
		}
	}

	if !h.manageKeyboard {
		return nil
	}
	return sideEffect(h.bestEffort, "toggle Hyprland keyboards", h.setKeyboards(o == orientation.Normal))
}

func (h *hyprlandBackend) setKeyboards(enabled bool) error {
	out, err := h.runner.Run("hyprctl", "devices", "-j")
	if err != nil {
		return err
	}
	var devices hyprDevices
	if err := json.Unmarshal(out, &devices); err != nil {
		return fmt.Errorf("%w: hyprctl devices: %v", ErrParse, err)
	}

	value := strconv.FormatBool(enabled)
	for _, kb := range devices.Keyboards {
		key := fmt.Sprintf("device[%s]:enabled", kb.Name)
		if _, err := h.runner.Run("hyprctl", "keyword", key, value); err != nil {
			return err
		}
	}
	return nil
}

func (h *hyprlandBackend) Query() (orientation.Orientation, error) {
	return h.client.Query()
}

// Outputs lists monitors as Hyprland reports them.
func (h *hyprlandBackend) Outputs() ([]Output, error) {
	out, err := h.runner.Run("hyprctl", "monitors", "all", "-j")
	if err != nil {
		return nil, err
	}
	var monitors []hyprMonitor
	if err := json.Unmarshal(out, &monitors); err != nil {
		return nil, fmt.Errorf("%w: hyprctl monitors: %v", ErrParse, err)
	}

	outputs := make([]Output, 0, len(monitors))
	for _, m := range monitors {
		outputs = append(outputs, Output{
			Name:        m.Name,
			Description: m.Description,
			Enabled:     !m.Disabled,
			Rotation:    orientation.Transform(m.Transform).String(),
		})
	}
	return outputs, nil
}

func (h *hyprlandBackend) Stats() wayland.Stats {
	return h.client.Stats()
}

func (h *hyprlandBackend) Close() error {
	return h.client.Close()
}
