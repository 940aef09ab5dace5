package wire

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bnema/wayrot/internal/logger"
)

// ServerIDBase is the first object id in the range allocated by the server.
const ServerIDBase uint32 = 0xff000000

// ErrTimeout is returned when a roundtrip does not complete within the
// connection timeout.
var ErrTimeout = errors.New("wire: roundtrip timed out")

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("wire: connection closed")

// Conn is a client connection to a Wayland compositor.
type Conn struct {
	conn    net.Conn
	objects map[uint32]Object
	nextID  uint32
	freeIDs []uint32
	out     []byte
	timeout time.Duration
	display *Display
	err     error
}

// SocketPath resolves the compositor socket from WAYLAND_DISPLAY and
// XDG_RUNTIME_DIR.
func SocketPath() (string, error) {
	name := os.Getenv("WAYLAND_DISPLAY")
	if name == "" {
		name = "wayland-0"
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", fmt.Errorf("wire: XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, name), nil
}

// Dial connects to the compositor named by the environment. An inherited
// WAYLAND_SOCKET file descriptor takes precedence over WAYLAND_DISPLAY.
func Dial() (*Conn, error) {
	if s := os.Getenv("WAYLAND_SOCKET"); s != "" {
		fd, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("wire: invalid WAYLAND_SOCKET %q: %w", s, err)
		}
		_ = os.Unsetenv("WAYLAND_SOCKET")
		f := os.NewFile(uintptr(fd), "wayland-socket")
		defer f.Close()
		c, err := net.FileConn(f)
		if err != nil {
			return nil, fmt.Errorf("wire: WAYLAND_SOCKET: %w", err)
		}
		return NewConn(c), nil
	}

	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	c, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("wire: connect to %s: %w", path, err)
	}
	return NewConn(c), nil
}

// NewConn wraps an established stream connection. The wl_display object
// is registered as id 1.
func NewConn(c net.Conn) *Conn {
	conn := &Conn{
		conn:    c,
		objects: make(map[uint32]Object),
		nextID:  2,
	}
	conn.display = &Display{}
	conn.display.Init(conn, 1)
	conn.Register(conn.display)
	return conn
}

// Display returns the wl_display singleton.
func (c *Conn) Display() *Display {
	return c.display
}

// SetTimeout bounds each Roundtrip. Zero waits forever.
func (c *Conn) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Timeout returns the roundtrip timeout.
func (c *Conn) Timeout() time.Duration {
	return c.timeout
}

// Err returns the error that broke the connection, if any.
func (c *Conn) Err() error {
	return c.err
}

// NewID allocates a client object id, reusing ids released by delete_id.
func (c *Conn) NewID() uint32 {
	if n := len(c.freeIDs); n > 0 {
		id := c.freeIDs[n-1]
		c.freeIDs = c.freeIDs[:n-1]
		return id
	}
	id := c.nextID
	c.nextID++
	return id
}

// Register adds o to the object table under o.ID().
func (c *Conn) Register(o Object) {
	c.objects[o.ID()] = o
}

// Unregister removes an object from the table without releasing its id.
func (c *Conn) Unregister(id uint32) {
	delete(c.objects, id)
}

// Lookup returns the object registered under id.
func (c *Conn) Lookup(id uint32) (Object, bool) {
	o, ok := c.objects[id]
	return o, ok
}

func (c *Conn) deleteID(id uint32) {
	delete(c.objects, id)
	if id < ServerIDBase {
		c.freeIDs = append(c.freeIDs, id)
	}
}

func (c *Conn) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// SendRequest queues a request from sender. Requests are written by Flush.
func (c *Conn) SendRequest(sender Object, opcode uint16, args ...interface{}) error {
	if c.err != nil {
		return c.err
	}
	body, err := Encode(args...)
	if err != nil {
		return fmt.Errorf("encode request %d on object %d: %w", opcode, sender.ID(), err)
	}
	msg := Message{Sender: sender.ID(), Opcode: opcode, Body: body}
	if len(c.out)+msg.Size() > MaxMessageSize {
		if err := c.Flush(); err != nil {
			return err
		}
	}
	c.out = msg.AppendTo(c.out)
	return nil
}

// Flush writes all queued requests.
func (c *Conn) Flush() error {
	if c.err != nil {
		return c.err
	}
	if len(c.out) == 0 {
		return nil
	}
	_, err := c.conn.Write(c.out)
	c.out = c.out[:0]
	if err != nil {
		c.fail(fmt.Errorf("wire: write: %w", err))
		return c.err
	}
	return nil
}

// Dispatch reads one event and delivers it to its target object. Events
// for unknown objects are discarded.
func (c *Conn) Dispatch() error {
	if c.err != nil {
		return c.err
	}

	m, err := ReadMessage(c.conn)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			c.fail(fmt.Errorf("%w after %s", ErrTimeout, c.timeout))
		} else {
			c.fail(fmt.Errorf("wire: read: %w", err))
		}
		return c.err
	}

	obj, ok := c.objects[m.Sender]
	if !ok {
		logger.Debugf("Discarding event %d for unknown object %d", m.Opcode, m.Sender)
		return nil
	}

	e := NewEvent(m)
	obj.Dispatch(e)
	if e.Err() != nil {
		c.fail(fmt.Errorf("wire: malformed event %d on object %d: %w", m.Opcode, m.Sender, e.Err()))
	}
	return c.err
}

// Roundtrip sends wl_display.sync and dispatches events until the
// compositor answers it, so every request sent before has been processed
// and its events delivered.
func (c *Conn) Roundtrip() error {
	if c.err != nil {
		return c.err
	}

	done := false
	cb, err := c.display.Sync()
	if err != nil {
		return err
	}
	cb.SetDoneHandler(func(uint32) { done = true })

	if err := c.Flush(); err != nil {
		return err
	}

	var deadline time.Time
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("wire: set read deadline: %w", err)
	}

	for !done {
		if err := c.Dispatch(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	if errors.Is(c.err, ErrClosed) {
		return nil
	}
	_ = c.Flush()
	c.err = ErrClosed
	return c.conn.Close()
}

// Proxy holds the id and connection of a client-side object. Protocol
// bindings embed it.
type Proxy struct {
	id   uint32
	conn *Conn
}

// Init sets the proxy's id and connection.
func (p *Proxy) Init(c *Conn, id uint32) {
	p.conn = c
	p.id = id
}

// ID returns the object id.
func (p *Proxy) ID() uint32 {
	return p.id
}

// Conn returns the owning connection.
func (p *Proxy) Conn() *Conn {
	return p.conn
}
