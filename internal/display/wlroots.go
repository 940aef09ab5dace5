package display

import (
	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/wayland"
)

// transformClient is the part of *wayland.Client the compositor backends
// use.
type transformClient interface {
	Apply(o orientation.Orientation) error
	Query() (orientation.Orientation, error)
	Heads() ([]wayland.Head, error)
	Stats() wayland.Stats
	Close() error
}

// wlrootsBackend rotates through the output-management protocol alone.
type wlrootsBackend struct {
	client transformClient
}

func newWlrootsBackend(client transformClient) *wlrootsBackend {
	return &wlrootsBackend{client: client}
}

func (w *wlrootsBackend) Name() Kind { return KindWlroots }

func (w *wlrootsBackend) Apply(o orientation.Orientation) error {
	return w.client.Apply(o)
}

func (w *wlrootsBackend) Query() (orientation.Orientation, error) {
	return w.client.Query()
}

func (w *wlrootsBackend) Outputs() ([]Output, error) {
	return headOutputs(w.client)
}

func (w *wlrootsBackend) Stats() wayland.Stats {
	return w.client.Stats()
}

func (w *wlrootsBackend) Close() error {
	return w.client.Close()
}

func headOutputs(client transformClient) ([]Output, error) {
	heads, err := client.Heads()
	if err != nil {
		return nil, err
	}
	outputs := make([]Output, 0, len(heads))
	for _, h := range heads {
		rotation := "unknown"
		if h.HasTransform {
			rotation = h.Transform.String()
		}
		outputs = append(outputs, Output{
			Name:        h.Name,
			Description: h.Description,
			Enabled:     h.Enabled,
			Rotation:    rotation,
		})
	}
	return outputs, nil
}
