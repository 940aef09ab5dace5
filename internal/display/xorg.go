package display

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/bnema/wayrot/internal/orientation"
)

// xorgBackend rotates with xrandr and keeps touchscreens aligned with
// xinput, one tool invocation at a time.
type xorgBackend struct {
	display      string
	touchscreens []string
	runner       Runner
}

func newXorgBackend(opts Options) *xorgBackend {
	return &xorgBackend{
		display:      opts.Display,
		touchscreens: opts.Touchscreens,
		runner:       opts.Runner,
	}
}

func (x *xorgBackend) Name() Kind { return KindXorg }

func (x *xorgBackend) Apply(o orientation.Orientation) error {
	if _, err := x.runner.Run("xrandr", "--output", x.display, "--rotate", o.XRandR()); err != nil {
		return err
	}
	for _, ts := range x.touchscreens {
		args := append([]string{"set-prop", ts, "Coordinate Transformation Matrix"}, o.Matrix().Args()...)
		if _, err := x.runner.Run("xinput", args...); err != nil {
			return err
		}
	}
	return nil
}

func (x *xorgBackend) Query() (orientation.Orientation, error) {
	out, err := x.runner.Run("xrandr")
	if err != nil {
		return orientation.Normal, err
	}
	return ParseXRandR(out, x.display)
}

func (x *xorgBackend) Outputs() ([]Output, error) {
	out, err := x.runner.Run("xrandr")
	if err != nil {
		return nil, err
	}
	return ParseXRandROutputs(out), nil
}

func (x *xorgBackend) Close() error { return nil }

const xrandrRotations = `\(normal left inverted right x axis y axis\)`

func xrandrLinePattern(display string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(display) +
		` connected (?:primary )?(?:\S+ )?(?:(normal|inverted|left|right) )?` + xrandrRotations)
}

// ParseXRandR finds display in xrandr's query output and returns its
// rotation. A connected line without a rotation token means normal.
func ParseXRandR(out []byte, display string) (orientation.Orientation, error) {
	pattern := xrandrLinePattern(display)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		m := pattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		if m[1] == "" {
			return orientation.Normal, nil
		}
		o, _ := orientation.FromXRandR(m[1])
		return o, nil
	}
	return orientation.Normal, fmt.Errorf("%w: display %s not found in xrandr output", ErrParse, display)
}

var (
	xrandrOutputLine = regexp.MustCompile(`^(\S+) (connected|disconnected)\b`)
	xrandrGeometry   = regexp.MustCompile(` \d+x\d+[+-]\d+[+-]\d+ `)
)

// ParseXRandROutputs lists every output line of xrandr's query output.
func ParseXRandROutputs(out []byte) []Output {
	var outputs []Output
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		m := xrandrOutputLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		o := Output{Name: m[1], Rotation: "unknown"}
		if m[2] == "connected" {
			o.Enabled = xrandrGeometry.MatchString(line)
			if rot, err := ParseXRandR([]byte(line), m[1]); err == nil {
				o.Rotation = rot.XRandR()
			}
		} else {
			o.Description = "disconnected"
		}
		outputs = append(outputs, o)
	}
	return outputs
}

// XInputDevices lists the names of the X input devices, for picking
// touchscreens.
func XInputDevices(r Runner) ([]string, error) {
	out, err := r.Run("xinput", "list", "--name-only")
	if err != nil {
		return nil, err
	}

	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || strings.HasPrefix(name, "Virtual core") {
			continue
		}
		names = append(names, name)
	}
	return names, scanner.Err()
}
