// Package wayland implements the output-management client that rotates a
// display through the wlr-output-management protocol.
package wayland

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bnema/wayrot/internal/logger"
	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/protocols"
	"github.com/bnema/wayrot/internal/wire"
)

var (
	// ErrProtocolUnsupported means the compositor does not advertise
	// zwlr_output_manager_v1.
	ErrProtocolUnsupported = errors.New("compositor does not support wlr-output-management")

	// ErrHeadNotFound means the target output was never advertised, or
	// has since gone away.
	ErrHeadNotFound = errors.New("output head not found")

	// ErrNoTransform means the head is known but never reported a transform.
	ErrNoTransform = errors.New("no transform reported for output")

	// ErrNotReady is the parent of the conditions under which Apply skips
	// without sending anything. Callers retry on the next cycle.
	ErrNotReady = errors.New("output state not ready")

	// ErrNoSerial means no unused configuration serial has been received.
	ErrNoSerial = fmt.Errorf("%w: no fresh configuration serial", ErrNotReady)

	// ErrTransactionPending means the previous configuration has not been
	// answered yet.
	ErrTransactionPending = fmt.Errorf("%w: previous configuration still pending", ErrNotReady)
)

// State is the connection phase of a Client.
type State int

const (
	Connecting State = iota
	Discovering
	Synced
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Discovering:
		return "discovering"
	case Synced:
		return "synced"
	default:
		return "unknown"
	}
}

// Options configures a Client.
type Options struct {
	// Display is the name of the output to rotate, e.g. "eDP-1".
	Display string
	// RoundtripTimeout bounds every blocking read. Zero waits forever.
	RoundtripTimeout time.Duration
}

// Head is a snapshot of an advertised output.
type Head struct {
	Name         string
	Description  string
	Make         string
	Model        string
	Enabled      bool
	Transform    orientation.Transform
	HasTransform bool
	Scale        float64
	X, Y         int32
}

// Stats counts configuration transactions by outcome.
type Stats struct {
	Submitted uint64
	Succeeded uint64
	Failed    uint64
	Cancelled uint64
}

type head struct {
	proxy    *protocols.OutputHead
	info     Head
	finished bool
}

// Client owns one compositor connection. It is not safe for concurrent use;
// protocol events are only processed inside its methods.
type Client struct {
	conn        *wire.Conn
	manager     *protocols.OutputManager
	managerName uint32
	version     uint32
	target      string
	state       State

	heads map[uint32]*head

	serial        uint32
	hasSerial     bool
	lastSubmitted uint32
	submitted     bool

	pending *protocols.OutputConfiguration
	stats   Stats
}

// Connect dials the compositor from the environment and performs the
// handshake.
func Connect(opts Options) (*Client, error) {
	conn, err := wire.Dial()
	if err != nil {
		return nil, err
	}
	c, err := New(conn, opts)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// New performs the handshake over an established connection: bind the
// output manager, then collect heads and the first configuration serial.
func New(conn *wire.Conn, opts Options) (*Client, error) {
	conn.SetTimeout(opts.RoundtripTimeout)
	c := &Client{
		conn:   conn,
		target: opts.Display,
		heads:  make(map[uint32]*head),
	}

	registry, err := conn.Display().GetRegistry()
	if err != nil {
		return nil, err
	}
	registry.SetGlobalHandler(func(g wire.Global) {
		if g.Interface != protocols.OutputManagerInterface || c.manager != nil {
			return
		}
		version := g.Version
		if version > protocols.OutputManagerVersion {
			version = protocols.OutputManagerVersion
		}
		manager := protocols.NewOutputManager(conn)
		manager.SetListener(protocols.OutputManagerListener{
			Head:     c.addHead,
			Done:     c.handleDone,
			Finished: c.handleManagerFinished,
		})
		if err := registry.Bind(g.Name, g.Interface, version, manager); err != nil {
			logger.Errorf("Failed to bind %s: %v", g.Interface, err)
			return
		}
		logger.Debugf("Bound %s version %d", g.Interface, version)
		c.manager = manager
		c.managerName = g.Name
		c.version = version
	})
	registry.SetGlobalRemoveHandler(func(name uint32) {
		if c.manager != nil && name == c.managerName {
			logger.Warn("Compositor removed the output manager global")
			c.manager = nil
			c.hasSerial = false
		}
	})

	if err := conn.Roundtrip(); err != nil {
		return nil, fmt.Errorf("registry roundtrip: %w", err)
	}
	c.state = Discovering
	if c.manager == nil {
		return nil, ErrProtocolUnsupported
	}

	if err := conn.Roundtrip(); err != nil {
		return nil, fmt.Errorf("output discovery roundtrip: %w", err)
	}
	c.state = Synced

	logger.Debugf("Output manager synced: %d heads, serial %d", len(c.heads), c.serial)
	return c, nil
}

func (c *Client) addHead(proxy *protocols.OutputHead) {
	h := &head{proxy: proxy, info: Head{Scale: 1}}
	c.heads[proxy.ID()] = h
	proxy.SetListener(protocols.OutputHeadListener{
		Name:        func(name string) { h.info.Name = name },
		Description: func(d string) { h.info.Description = d },
		Make:        func(m string) { h.info.Make = m },
		Model:       func(m string) { h.info.Model = m },
		Enabled:     func(e bool) { h.info.Enabled = e },
		Position:    func(x, y int32) { h.info.X, h.info.Y = x, y },
		Scale:       func(s wire.Fixed) { h.info.Scale = s.Float() },
		Transform: func(t int32) {
			h.info.Transform = orientation.Transform(t)
			h.info.HasTransform = true
			if h.info.Name == c.target {
				logger.Debugf("Output %s transform is now %s", h.info.Name, h.info.Transform)
			}
		},
		Mode: c.trackMode,
		Finished: func() {
			h.finished = true
			delete(c.heads, proxy.ID())
			logger.Debugf("Output %s went away", h.info.Name)
			if c.version >= 3 {
				if err := proxy.Release(); err != nil {
					logger.Debugf("Releasing head %s: %v", h.info.Name, err)
				}
			}
		},
	})
}

// trackMode releases modes the compositor retires.
func (c *Client) trackMode(mode *protocols.OutputMode) {
	mode.SetListener(protocols.OutputModeListener{
		Finished: func() {
			if c.version < 3 {
				return
			}
			if err := mode.Release(); err != nil {
				logger.Debugf("Releasing mode %d: %v", mode.ID(), err)
			}
		},
	})
}

func (c *Client) handleDone(serial uint32) {
	c.serial = serial
	c.hasSerial = true
	logger.Debugf("Output configuration serial %d", serial)
}

func (c *Client) handleManagerFinished() {
	logger.Warn("Compositor finished the output manager")
	c.manager = nil
	c.hasSerial = false
}

func (c *Client) resolve(cfg *protocols.OutputConfiguration, serial uint32, result protocols.ConfigurationResult) {
	if err := cfg.Destroy(); err != nil {
		logger.Debugf("Destroying configuration: %v", err)
	}
	if c.pending == cfg {
		c.pending = nil
	}

	switch result {
	case protocols.ConfigurationSucceeded:
		c.stats.Succeeded++
		logger.Debugf("Configuration with serial %d succeeded", serial)
	case protocols.ConfigurationFailed:
		c.stats.Failed++
		logger.Warnf("Compositor rejected the configuration for %s (serial %d)", c.target, serial)
	case protocols.ConfigurationCancelled:
		c.stats.Cancelled++
		logger.Warnf("Configuration for %s cancelled, output state changed (serial %d)", c.target, serial)
	}
}

// drain processes every event the compositor has queued.
func (c *Client) drain() error {
	return c.conn.Roundtrip()
}

func (c *Client) serialFresh() bool {
	return c.hasSerial && !(c.submitted && c.lastSubmitted == c.serial)
}

func (c *Client) targetHead() *head {
	for _, h := range c.heads {
		if !h.finished && h.info.Name == c.target {
			return h
		}
	}
	return nil
}

// Apply submits a configuration that sets the target output's transform.
// It does not wait for the outcome; the result is processed on a later read.
// ErrNotReady is returned, with nothing sent, when no fresh serial exists
// or the previous configuration is unanswered.
func (c *Client) Apply(o orientation.Orientation) error {
	if err := c.drain(); err != nil {
		return err
	}
	if c.manager == nil {
		return ErrProtocolUnsupported
	}
	if !c.serialFresh() {
		logger.Debug("Skipping rotation: no fresh configuration serial")
		return ErrNoSerial
	}
	h := c.targetHead()
	if h == nil {
		return fmt.Errorf("%w: %s", ErrHeadNotFound, c.target)
	}
	if c.pending != nil {
		logger.Debug("Skipping rotation: configuration still pending")
		return ErrTransactionPending
	}

	serial := c.serial
	cfg, err := c.manager.CreateConfiguration(serial)
	if err != nil {
		return fmt.Errorf("create configuration: %w", err)
	}
	cfg.SetResultHandler(func(r protocols.ConfigurationResult) { c.resolve(cfg, serial, r) })

	cfgHead, err := cfg.EnableHead(h.proxy)
	if err != nil {
		return fmt.Errorf("enable head %s: %w", c.target, err)
	}
	if err := cfgHead.SetTransform(int32(o.Transform())); err != nil {
		return fmt.Errorf("set transform: %w", err)
	}
	if err := cfg.Apply(); err != nil {
		return fmt.Errorf("apply configuration: %w", err)
	}

	c.pending = cfg
	c.lastSubmitted = serial
	c.submitted = true
	c.stats.Submitted++

	if err := c.conn.Flush(); err != nil {
		return err
	}
	logger.Debugf("Submitted %s transform %s with serial %d", c.target, o.Transform(), serial)
	return nil
}

// Query reads pending events and returns the target output's orientation.
func (c *Client) Query() (orientation.Orientation, error) {
	if err := c.drain(); err != nil {
		return orientation.Normal, err
	}
	h := c.targetHead()
	if h == nil {
		return orientation.Normal, fmt.Errorf("%w: %s", ErrHeadNotFound, c.target)
	}
	if !h.info.HasTransform {
		return orientation.Normal, fmt.Errorf("%w: %s", ErrNoTransform, c.target)
	}
	o, ok := orientation.FromTransform(h.info.Transform)
	if !ok {
		return orientation.Normal, fmt.Errorf("%w: %s on %s", orientation.ErrUnsupportedTransform, h.info.Transform, c.target)
	}
	return o, nil
}

// Heads reads pending events and returns every advertised output, sorted by
// name.
func (c *Client) Heads() ([]Head, error) {
	if err := c.drain(); err != nil {
		return nil, err
	}
	heads := make([]Head, 0, len(c.heads))
	for _, h := range c.heads {
		heads = append(heads, h.info)
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i].Name < heads[j].Name })
	return heads, nil
}

// State returns the connection phase.
func (c *Client) State() State {
	return c.state
}

// Serial returns the most recent configuration serial and whether one was
// received.
func (c *Client) Serial() (uint32, bool) {
	return c.serial, c.hasSerial
}

// Pending reports whether a configuration awaits its outcome.
func (c *Client) Pending() bool {
	return c.pending != nil
}

// Stats returns transaction counters.
func (c *Client) Stats() Stats {
	return c.stats
}

// Target returns the name of the output being rotated.
func (c *Client) Target() string {
	return c.target
}

// Close stops the output manager and closes the compositor connection.
func (c *Client) Close() error {
	if c.manager != nil {
		if err := c.manager.Stop(); err != nil {
			logger.Debugf("Stopping output manager: %v", err)
		}
		c.manager = nil
	}
	return c.conn.Close()
}
