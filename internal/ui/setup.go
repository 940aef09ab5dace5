package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/bnema/wayrot/internal/config"
	"github.com/bnema/wayrot/internal/display"
)

// SetupChoices holds the answers of the interactive setup.
type SetupChoices struct {
	Display        string
	Backend        string
	Touchscreens   []string
	ManageKeyboard bool
	PollInterval   string
	BeforeHook     string
	AfterHook      string
}

// ChoicesFromConfig pre-fills the setup answers with c.
func ChoicesFromConfig(c *config.Config) SetupChoices {
	return SetupChoices{
		Display:        c.Display,
		Backend:        c.Backend,
		Touchscreens:   append([]string(nil), c.Input.Touchscreens...),
		ManageKeyboard: c.Input.ManageKeyboard,
		PollInterval:   c.Sensor.PollInterval.String(),
		BeforeHook:     c.Hooks.Before,
		AfterHook:      c.Hooks.After,
	}
}

// NewSetupForm builds the setup form. outputs and touchscreens are offered
// as choices when known; an empty outputs list falls back to free text.
func NewSetupForm(choices *SetupChoices, outputs []string, touchscreens []string) *huh.Form {
	var displayField huh.Field
	if len(outputs) > 0 {
		displayField = huh.NewSelect[string]().
			Title("Display to rotate").
			Options(huh.NewOptions(outputs...)...).
			Value(&choices.Display)
	} else {
		displayField = huh.NewInput().
			Title("Display to rotate").
			Description("Output name, e.g. eDP-1").
			Value(&choices.Display).
			Validate(notEmpty("display"))
	}

	kinds := display.Kinds()
	backendOptions := make([]huh.Option[string], 0, len(kinds))
	for _, k := range kinds {
		backendOptions = append(backendOptions, huh.NewOption(string(k), string(k)))
	}

	groups := []*huh.Group{
		huh.NewGroup(
			displayField,
			huh.NewSelect[string]().
				Title("Display backend").
				Description("auto detects sway, Hyprland, other wlroots compositors and X11").
				Options(backendOptions...).
				Value(&choices.Backend),
		),
	}

	if len(touchscreens) > 0 {
		groups = append(groups, huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Touchscreens to rotate with the display (X11)").
				Options(huh.NewOptions(touchscreens...)...).
				Value(&choices.Touchscreens),
		))
	}

	groups = append(groups, huh.NewGroup(
		huh.NewConfirm().
			Title("Disable keyboards while rotated?").
			Description("Useful on 2-in-1 laptops folded into tablet mode (sway, Hyprland)").
			Value(&choices.ManageKeyboard),
		huh.NewInput().
			Title("Poll interval").
			Value(&choices.PollInterval).
			Validate(validInterval),
		huh.NewInput().
			Title("Command to run before rotating").
			Description("Optional; runs with sh -c").
			Value(&choices.BeforeHook),
		huh.NewInput().
			Title("Command to run after rotating").
			Description("Optional; runs with sh -c").
			Value(&choices.AfterHook),
	))

	return huh.NewForm(groups...)
}

// ApplySetup returns a copy of c updated with choices.
func ApplySetup(c *config.Config, choices SetupChoices) (*config.Config, error) {
	interval, err := time.ParseDuration(strings.TrimSpace(choices.PollInterval))
	if err != nil {
		return nil, fmt.Errorf("invalid poll interval %q: %w", choices.PollInterval, err)
	}

	updated := *c
	updated.Display = strings.TrimSpace(choices.Display)
	updated.Backend = choices.Backend
	updated.Input.Touchscreens = append([]string{}, choices.Touchscreens...)
	updated.Input.ManageKeyboard = choices.ManageKeyboard
	updated.Sensor.PollInterval = interval
	updated.Hooks.Before = strings.TrimSpace(choices.BeforeHook)
	updated.Hooks.After = strings.TrimSpace(choices.AfterHook)

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	return &updated, nil
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s must not be empty", what)
		}
		return nil
	}
}

func validInterval(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a duration: %s", s)
	}
	if d <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}
