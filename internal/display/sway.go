package display

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/wayland"
)

type swayInput struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Type       string `json:"type"`
}

type swayOutput struct {
	Name      string `json:"name"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Active    bool   `json:"active"`
	Transform string `json:"transform"`
}

// swayBackend rotates through the output-management protocol and toggles
// keyboards with swaymsg.
type swayBackend struct {
	client         transformClient
	runner         Runner
	manageKeyboard bool
	bestEffort     bool
}

func newSwayBackend(client transformClient, opts Options) *swayBackend {
	return &swayBackend{
		client:         client,
		runner:         opts.Runner,
		manageKeyboard: opts.ManageKeyboard,
		bestEffort:     opts.BestEffortSideEffects,
	}
}

func (s *swayBackend) Name() Kind { return KindSway }

func (s *swayBackend) Apply(o orientation.Orientation) error {
	if err := s.client.Apply(o); err != nil {
		return err
	}
	if !s.manageKeyboard {
		return nil
	}
	return sideEffect(s.bestEffort, "toggle sway keyboards", s.setKeyboards(o == orientation.Normal))
}

func (s *swayBackend) setKeyboards(enabled bool) error {
	keyboards, err := s.keyboards()
	if err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	for _, id := range keyboards {
		if _, err := s.runner.Run("swaymsg", "input", strconv.Quote(id), "events", state); err != nil {
			return err
		}
	}
	return nil
}

func (s *swayBackend) keyboards() ([]string, error) {
	out, err := s.runner.Run("swaymsg", "-t", "get_inputs", "--raw")
	if err != nil {
		return nil, err
	}
	var inputs []swayInput
	if err := json.Unmarshal(out, &inputs); err != nil {
		return nil, fmt.Errorf("%w: swaymsg get_inputs: %v", ErrParse, err)
	}

	var keyboards []string
	for _, in := range inputs {
		if in.Type == "keyboard" {
			keyboards = append(keyboards, in.Identifier)
		}
	}
	return keyboards, nil
}

func (s *swayBackend) Query() (orientation.Orientation, error) {
	return s.client.Query()
}

// Outputs lists outputs as sway reports them.
func (s *swayBackend) Outputs() ([]Output, error) {
	out, err := s.runner.Run("swaymsg", "-t", "get_outputs", "--raw")
	if err != nil {
		return nil, err
	}
	var swayOutputs []swayOutput
	if err := json.Unmarshal(out, &swayOutputs); err != nil {
		return nil, fmt.Errorf("%w: swaymsg get_outputs: %v", ErrParse, err)
	}

	outputs := make([]Output, 0, len(swayOutputs))
	for _, so := range swayOutputs {
		outputs = append(outputs, Output{
			Name:        so.Name,
			Description: joinNonEmpty(so.Make, so.Model),
			Enabled:     so.Active,
			Rotation:    so.Transform,
		})
	}
	return outputs, nil
}

func (s *swayBackend) Stats() wayland.Stats {
	return s.client.Stats()
}

func (s *swayBackend) Close() error {
	return s.client.Close()
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
