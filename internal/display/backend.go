// Package display applies and queries screen rotation through the display
// environment in use: a wlroots compositor, sway or Hyprland on top of the
// output-management protocol, or an X server.
package display

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/wayrot/internal/logger"
	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/wayland"
)

// ErrParse is returned when tool output does not describe the expected
// display or device.
var ErrParse = errors.New("unable to parse display state")

// Kind names a backend implementation.
type Kind string

// Backend kinds
const (
	KindAuto      Kind = "auto"
	KindWlroots   Kind = "wlroots"
	KindSway      Kind = "sway"
	KindHyprland  Kind = "hyprland"
	KindXorg      Kind = "xorg"
	KindXorgRandR Kind = "xorg-randr"
)

// Kinds lists every accepted backend name.
func Kinds() []Kind {
	return []Kind{KindAuto, KindWlroots, KindSway, KindHyprland, KindXorg, KindXorgRandR}
}

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q", s)
}

// Output describes one display as reported by a backend.
type Output struct {
	Name        string
	Description string
	Enabled     bool
	Rotation    string
}

// Backend rotates one target display.
type Backend interface {
	// Name returns the backend kind.
	Name() Kind
	// Apply rotates the target display. Applying the current orientation
	// again has no visible effect.
	Apply(o orientation.Orientation) error
	// Query returns the current orientation of the target display.
	Query() (orientation.Orientation, error)
	// Outputs lists the displays known to the backend.
	Outputs() ([]Output, error)
	Close() error
}

// StatsReporter is implemented by backends that submit output
// configurations through the Wayland protocol.
type StatsReporter interface {
	Stats() wayland.Stats
}

// Options selects and configures a backend.
type Options struct {
	Kind    Kind
	Display string

	// Touchscreens are xinput device names transformed together with the
	// display on X11.
	Touchscreens []string
	// ManageKeyboard disables keyboards while rotated (sway, Hyprland).
	ManageKeyboard bool
	// BestEffortSideEffects logs failures of secondary compositor commands
	// instead of returning them.
	BestEffortSideEffects bool

	RoundtripTimeout time.Duration

	// Runner runs external tools. Defaults to ExecRunner.
	Runner Runner
}

// Open creates the backend selected by opts, detecting the environment
// when opts.Kind is KindAuto or empty.
func Open(opts Options) (Backend, error) {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}

	kind := opts.Kind
	if kind == "" || kind == KindAuto {
		detected, err := DetectEnvironment(opts.Runner)
		if err != nil {
			return nil, err
		}
		logger.Debugf("Detected display backend: %s", detected)
		kind = detected
	}

	switch kind {
	case KindWlroots, KindSway, KindHyprland:
		client, err := wayland.Connect(wayland.Options{
			Display:          opts.Display,
			RoundtripTimeout: opts.RoundtripTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to compositor: %w", err)
		}
		switch kind {
		case KindSway:
			return newSwayBackend(client, opts), nil
		case KindHyprland:
			return newHyprlandBackend(client, opts), nil
		default:
			return newWlrootsBackend(client), nil
		}
	case KindXorg:
		return newXorgBackend(opts), nil
	case KindXorgRandR:
		return newRandrBackend(opts)
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

// sideEffect runs a secondary compositor command according to the
// best-effort policy.
func sideEffect(bestEffort bool, what string, err error) error {
	if err == nil {
		return nil
	}
	if bestEffort {
		logger.Warnf("Failed to %s: %v", what, err)
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}
