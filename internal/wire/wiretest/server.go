// Package wiretest provides a scripted in-process compositor for testing
// Wayland clients built on package wire.
package wiretest

import (
	"net"
	"os"
	"sync"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/bnema/wayrot/internal/wire"
)

// Handler is called on the server goroutine for every request after the
// built-in wl_display and wl_registry handling. The server lock is held.
type Handler func(s *Server, m wire.Message)

// Server is a fake compositor connected to a client over a socketpair.
type Server struct {
	// Client is the client side of the socketpair.
	Client *wire.Conn

	conn     net.Conn
	handler  Handler
	globals  []wire.Global
	registry uint32
	bound    map[string]uint32
	serial   uint32

	mu       sync.Mutex
	requests []wire.Message
	done     chan struct{}
}

// New starts a server advertising globals. The server and client are
// closed when the test ends.
func New(t testing.TB, globals []wire.Global, handler Handler) *Server {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	clientConn, err := fileConn(fds[0], "client")
	if err != nil {
		t.Fatalf("client conn: %v", err)
	}
	serverConn, err := fileConn(fds[1], "server")
	if err != nil {
		t.Fatalf("server conn: %v", err)
	}

	s := &Server{
		Client:  wire.NewConn(clientConn),
		conn:    serverConn,
		handler: handler,
		globals: globals,
		bound:   make(map[string]uint32),
		done:    make(chan struct{}),
	}
	go s.serve()

	t.Cleanup(func() {
		_ = s.Client.Close()
		_ = s.conn.Close()
		<-s.done
	})
	return s
}

func fileConn(fd int, name string) (net.Conn, error) {
	f := os.NewFile(uintptr(fd), name)
	defer f.Close()
	return net.FileConn(f)
}

func (s *Server) serve() {
	defer close(s.done)
	for {
		m, err := wire.ReadMessage(s.conn)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, m)
		s.handle(m)
		s.mu.Unlock()
	}
}

func (s *Server) handle(m wire.Message) {
	switch {
	case m.Sender == 1 && m.Opcode == 0:
		// wl_display.sync: run the handler first so its events precede done.
		if s.handler != nil {
			s.handler(s, m)
		}
		cb := wire.NewDecoder(m.Body).NewID()
		s.serial++
		s.Send(cb, 0, s.serial)
		s.DeleteID(cb)
		return
	case m.Sender == 1 && m.Opcode == 1:
		s.registry = wire.NewDecoder(m.Body).NewID()
		for _, g := range s.globals {
			s.Send(s.registry, 0, g.Name, g.Interface, g.Version)
		}
	case s.registry != 0 && m.Sender == s.registry && m.Opcode == 0:
		d := wire.NewDecoder(m.Body)
		_ = d.Uint32()
		iface := d.String()
		_ = d.Uint32()
		s.bound[iface] = d.NewID()
	}
	if s.handler != nil {
		s.handler(s, m)
	}
}

// Send writes an event from sender. It is a no-op once the client is gone.
func (s *Server) Send(sender uint32, opcode uint16, args ...interface{}) {
	body, err := wire.Encode(args...)
	if err != nil {
		panic(err)
	}
	msg := wire.Message{Sender: sender, Opcode: opcode, Body: body}
	_, _ = s.conn.Write(msg.Bytes())
}

// DeleteID sends wl_display.delete_id for id.
func (s *Server) DeleteID(id uint32) {
	s.Send(1, 1, id)
}

// RemoveGlobal announces wl_registry.global_remove for name. Call it
// inside Do, after the client created its registry.
func (s *Server) RemoveGlobal(name uint32) {
	s.Send(s.registry, 1, name)
}

// Bound returns the id the client bound iface to. Call it from a Handler
// or inside Do.
func (s *Server) Bound(iface string) (uint32, bool) {
	id, ok := s.bound[iface]
	return id, ok
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Message, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the requests sent to object id.
func (s *Server) RequestsTo(id uint32) []wire.Message {
	var out []wire.Message
	for _, m := range s.Requests() {
		if m.Sender == id {
			out = append(out, m)
		}
	}
	return out
}

// Do runs fn with the server lock held, serialized with request handling.
func (s *Server) Do(fn func(s *Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}
