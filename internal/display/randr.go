package display

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/bnema/wayrot/internal/orientation"
)

// randrBackend reads rotation straight from the X server with the RandR
// extension and applies it with the xrandr tool, which also resizes the
// screen.
type randrBackend struct {
	conn    *xgb.Conn
	root    xproto.Window
	display string
	apply   *xorgBackend
}

func newRandrBackend(opts Options) (Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize RandR: %w", err)
	}

	return &randrBackend{
		conn:    conn,
		root:    xproto.Setup(conn).DefaultScreen(conn).Root,
		display: opts.Display,
		apply:   newXorgBackend(opts),
	}, nil
}

func (r *randrBackend) Name() Kind { return KindXorgRandR }

func (r *randrBackend) Apply(o orientation.Orientation) error {
	return r.apply.Apply(o)
}

type randrOutput struct {
	name      string
	connected bool
	enabled   bool
	rotation  uint16
}

func (r *randrBackend) outputs() ([]randrOutput, error) {
	resources, err := randr.GetScreenResources(r.conn, r.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("get screen resources: %w", err)
	}

	var outputs []randrOutput
	for _, id := range resources.Outputs {
		info, err := randr.GetOutputInfo(r.conn, id, resources.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("get output info: %w", err)
		}

		out := randrOutput{
			name:      string(info.Name),
			connected: info.Connection == randr.ConnectionConnected,
			rotation:  randr.RotationRotate0,
		}
		if info.Crtc != 0 {
			crtc, err := randr.GetCrtcInfo(r.conn, info.Crtc, resources.ConfigTimestamp).Reply()
			if err != nil {
				return nil, fmt.Errorf("get crtc info for %s: %w", out.name, err)
			}
			out.enabled = true
			out.rotation = crtc.Rotation
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func (r *randrBackend) Query() (orientation.Orientation, error) {
	outputs, err := r.outputs()
	if err != nil {
		return orientation.Normal, err
	}
	for _, out := range outputs {
		if out.name == r.display && out.connected {
			return orientationFromRandR(out.rotation)
		}
	}
	return orientation.Normal, fmt.Errorf("%w: display %s not found in RandR outputs", ErrParse, r.display)
}

func (r *randrBackend) Outputs() ([]Output, error) {
	outputs, err := r.outputs()
	if err != nil {
		return nil, err
	}
	list := make([]Output, 0, len(outputs))
	for _, out := range outputs {
		o := Output{Name: out.name, Enabled: out.enabled, Rotation: "unknown"}
		if !out.connected {
			o.Description = "disconnected"
		} else if rot, err := orientationFromRandR(out.rotation); err == nil {
			o.Rotation = rot.XRandR()
		}
		list = append(list, o)
	}
	return list, nil
}

func (r *randrBackend) Close() error {
	r.conn.Close()
	return nil
}

// orientationFromRandR maps a CRTC rotation mask to an orientation.
// RandR rotates counter-clockwise, so Rotate90 is xrandr's "left".
func orientationFromRandR(rotation uint16) (orientation.Orientation, error) {
	if rotation&(randr.RotationReflectX|randr.RotationReflectY) != 0 {
		return orientation.Normal, fmt.Errorf("%w: reflected rotation 0x%x", orientation.ErrUnsupportedTransform, rotation)
	}
	switch rotation & 0x0f {
	case randr.RotationRotate0:
		return orientation.Normal, nil
	case randr.RotationRotate90:
		return orientation.Left90, nil
	case randr.RotationRotate180:
		return orientation.Flipped180, nil
	case randr.RotationRotate270:
		return orientation.Right90, nil
	default:
		return orientation.Normal, fmt.Errorf("%w: rotation 0x%x", ErrParse, rotation)
	}
}
