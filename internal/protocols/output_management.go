package protocols

import (
	"github.com/bnema/wayrot/internal/wire"
)

// Interface names of the wlr-output-management-unstable-v1 protocol.
const (
	OutputManagerInterface           = "zwlr_output_manager_v1"
	OutputHeadInterface              = "zwlr_output_head_v1"
	OutputModeInterface              = "zwlr_output_mode_v1"
	OutputConfigurationInterface     = "zwlr_output_configuration_v1"
	OutputConfigurationHeadInterface = "zwlr_output_configuration_head_v1"
)

// OutputManagerVersion is the highest protocol version implemented here.
const OutputManagerVersion = 4

// OutputManagerListener receives zwlr_output_manager_v1 events.
type OutputManagerListener struct {
	Head     func(*OutputHead)
	Done     func(serial uint32)
	Finished func()
}

// OutputManager is the zwlr_output_manager_v1 global.
type OutputManager struct {
	wire.Proxy
	listener OutputManagerListener
}

// NewOutputManager allocates a manager proxy, ready to be bound.
func NewOutputManager(conn *wire.Conn) *OutputManager {
	m := &OutputManager{}
	m.Init(conn, conn.NewID())
	return m
}

// SetListener installs the event handlers.
func (m *OutputManager) SetListener(l OutputManagerListener) {
	m.listener = l
}

// CreateConfiguration starts a configuration against the given done serial.
func (m *OutputManager) CreateConfiguration(serial uint32) (*OutputConfiguration, error) {
	cfg := &OutputConfiguration{}
	cfg.Init(m.Conn(), m.Conn().NewID())
	m.Conn().Register(cfg)

	if err := m.Conn().SendRequest(m, 0, cfg, serial); err != nil {
		m.Conn().Unregister(cfg.ID())
		return nil, err
	}
	return cfg, nil
}

// Stop asks the compositor to stop sending events. It answers with finished.
func (m *OutputManager) Stop() error {
	return m.Conn().SendRequest(m, 1)
}

// Dispatch handles manager events.
func (m *OutputManager) Dispatch(e *wire.Event) {
	switch e.Opcode {
	case 0: // head
		id := e.NewID()
		if e.Err() != nil {
			return
		}
		head := &OutputHead{}
		head.Init(m.Conn(), id)
		m.Conn().Register(head)
		if m.listener.Head != nil {
			m.listener.Head(head)
		}
	case 1: // done
		serial := e.Uint32()
		if e.Err() == nil && m.listener.Done != nil {
			m.listener.Done(serial)
		}
	case 2: // finished
		m.Conn().Unregister(m.ID())
		if m.listener.Finished != nil {
			m.listener.Finished()
		}
	}
}

// OutputHeadListener receives zwlr_output_head_v1 events. Transform values
// use the wl_output.transform enumeration.
type OutputHeadListener struct {
	Name         func(string)
	Description  func(string)
	PhysicalSize func(width, height int32)
	Mode         func(*OutputMode)
	Enabled      func(bool)
	CurrentMode  func(*OutputMode)
	Position     func(x, y int32)
	Transform    func(int32)
	Scale        func(wire.Fixed)
	Make         func(string)
	Model        func(string)
	SerialNumber func(string)
	AdaptiveSync func(enabled bool)
	Finished     func()
}

// OutputHead is a physical output advertised by the manager.
type OutputHead struct {
	wire.Proxy
	listener OutputHeadListener
}

// SetListener installs the event handlers.
func (h *OutputHead) SetListener(l OutputHeadListener) {
	h.listener = l
}

// Release destroys the head proxy (version 3 and later).
func (h *OutputHead) Release() error {
	err := h.Conn().SendRequest(h, 0)
	h.Conn().Unregister(h.ID())
	return err
}

// Dispatch handles head events.
func (h *OutputHead) Dispatch(e *wire.Event) {
	l := h.listener
	switch e.Opcode {
	case 0:
		if v := e.String(); e.Err() == nil && l.Name != nil {
			l.Name(v)
		}
	case 1:
		if v := e.String(); e.Err() == nil && l.Description != nil {
			l.Description(v)
		}
	case 2:
		w, ht := e.Int32(), e.Int32()
		if e.Err() == nil && l.PhysicalSize != nil {
			l.PhysicalSize(w, ht)
		}
	case 3:
		id := e.NewID()
		if e.Err() != nil {
			return
		}
		mode := &OutputMode{}
		mode.Init(h.Conn(), id)
		h.Conn().Register(mode)
		if l.Mode != nil {
			l.Mode(mode)
		}
	case 4:
		if v := e.Int32(); e.Err() == nil && l.Enabled != nil {
			l.Enabled(v != 0)
		}
	case 5:
		id := e.Object()
		if e.Err() != nil || l.CurrentMode == nil {
			return
		}
		if obj, ok := h.Conn().Lookup(id); ok {
			if mode, ok := obj.(*OutputMode); ok {
				l.CurrentMode(mode)
			}
		}
	case 6:
		x, y := e.Int32(), e.Int32()
		if e.Err() == nil && l.Position != nil {
			l.Position(x, y)
		}
	case 7:
		if v := e.Int32(); e.Err() == nil && l.Transform != nil {
			l.Transform(v)
		}
	case 8:
		if v := e.Fixed(); e.Err() == nil && l.Scale != nil {
			l.Scale(v)
		}
	case 9:
		h.Conn().Unregister(h.ID())
		if l.Finished != nil {
			l.Finished()
		}
	case 10:
		if v := e.String(); e.Err() == nil && l.Make != nil {
			l.Make(v)
		}
	case 11:
		if v := e.String(); e.Err() == nil && l.Model != nil {
			l.Model(v)
		}
	case 12:
		if v := e.String(); e.Err() == nil && l.SerialNumber != nil {
			l.SerialNumber(v)
		}
	case 13:
		if v := e.Uint32(); e.Err() == nil && l.AdaptiveSync != nil {
			l.AdaptiveSync(v == 1)
		}
	}
}

// OutputModeListener receives zwlr_output_mode_v1 events.
type OutputModeListener struct {
	Size      func(width, height int32)
	Refresh   func(mHz int32)
	Preferred func()
	Finished  func()
}

// OutputMode is a video mode of a head.
type OutputMode struct {
	wire.Proxy
	listener OutputModeListener
}

// SetListener installs the event handlers.
func (m *OutputMode) SetListener(l OutputModeListener) {
	m.listener = l
}

// Release destroys the mode proxy (version 3 and later).
func (m *OutputMode) Release() error {
	err := m.Conn().SendRequest(m, 0)
	m.Conn().Unregister(m.ID())
	return err
}

// Dispatch handles mode events.
func (m *OutputMode) Dispatch(e *wire.Event) {
	l := m.listener
	switch e.Opcode {
	case 0:
		w, h := e.Int32(), e.Int32()
		if e.Err() == nil && l.Size != nil {
			l.Size(w, h)
		}
	case 1:
		if v := e.Int32(); e.Err() == nil && l.Refresh != nil {
			l.Refresh(v)
		}
	case 2:
		if l.Preferred != nil {
			l.Preferred()
		}
	case 3:
		m.Conn().Unregister(m.ID())
		if l.Finished != nil {
			l.Finished()
		}
	}
}

// ConfigurationResult is the outcome the compositor reports for a
// configuration.
type ConfigurationResult int

const (
	ConfigurationSucceeded ConfigurationResult = iota
	ConfigurationFailed
	ConfigurationCancelled
)

func (r ConfigurationResult) String() string {
	switch r {
	case ConfigurationSucceeded:
		return "succeeded"
	case ConfigurationFailed:
		return "failed"
	case ConfigurationCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// OutputConfiguration is a pending zwlr_output_configuration_v1.
type OutputConfiguration struct {
	wire.Proxy
	resultHandler func(ConfigurationResult)
	destroyed     bool
}

// SetResultHandler sets the handler for succeeded, failed and cancelled.
func (c *OutputConfiguration) SetResultHandler(h func(ConfigurationResult)) {
	c.resultHandler = h
}

// EnableHead includes head in the configuration and returns its settings
// object.
func (c *OutputConfiguration) EnableHead(head *OutputHead) (*OutputConfigurationHead, error) {
	ch := &OutputConfigurationHead{}
	ch.Init(c.Conn(), c.Conn().NewID())
	c.Conn().Register(ch)

	if err := c.Conn().SendRequest(c, 0, ch, head); err != nil {
		c.Conn().Unregister(ch.ID())
		return nil, err
	}
	return ch, nil
}

// DisableHead turns head off in the configuration.
func (c *OutputConfiguration) DisableHead(head *OutputHead) error {
	return c.Conn().SendRequest(c, 1, head)
}

// Apply submits the configuration.
func (c *OutputConfiguration) Apply() error {
	return c.Conn().SendRequest(c, 2)
}

// Test asks the compositor to validate the configuration without applying.
func (c *OutputConfiguration) Test() error {
	return c.Conn().SendRequest(c, 3)
}

// Destroy sends the destructor once. The id stays registered until the
// compositor acknowledges it with delete_id.
func (c *OutputConfiguration) Destroy() error {
	if c.destroyed {
		return nil
	}
	c.destroyed = true
	return c.Conn().SendRequest(c, 4)
}

// Destroyed reports whether Destroy was called.
func (c *OutputConfiguration) Destroyed() bool {
	return c.destroyed
}

// Dispatch handles configuration events.
func (c *OutputConfiguration) Dispatch(e *wire.Event) {
	if c.destroyed || e.Opcode > 2 {
		return
	}
	if c.resultHandler != nil {
		c.resultHandler(ConfigurationResult(e.Opcode))
	}
}

// OutputConfigurationHead holds per-head settings of a configuration.
type OutputConfigurationHead struct {
	wire.Proxy
}

// SetMode selects one of the head's advertised modes.
func (h *OutputConfigurationHead) SetMode(mode *OutputMode) error {
	return h.Conn().SendRequest(h, 0, mode)
}

// SetCustomMode requests a mode not in the advertised list.
func (h *OutputConfigurationHead) SetCustomMode(width, height, refresh int32) error {
	return h.Conn().SendRequest(h, 1, width, height, refresh)
}

// SetPosition sets the head position in the global compositor space.
func (h *OutputConfigurationHead) SetPosition(x, y int32) error {
	return h.Conn().SendRequest(h, 2, x, y)
}

// SetTransform sets the wl_output.transform of the head.
func (h *OutputConfigurationHead) SetTransform(transform int32) error {
	return h.Conn().SendRequest(h, 3, transform)
}

// SetScale sets the head scale.
func (h *OutputConfigurationHead) SetScale(scale wire.Fixed) error {
	return h.Conn().SendRequest(h, 4, scale)
}

// SetAdaptiveSync toggles adaptive sync (version 4 and later).
func (h *OutputConfigurationHead) SetAdaptiveSync(enabled bool) error {
	var state uint32
	if enabled {
		state = 1
	}
	return h.Conn().SendRequest(h, 5, state)
}

// Dispatch ignores events; the configuration head has none.
func (h *OutputConfigurationHead) Dispatch(*wire.Event) {}
