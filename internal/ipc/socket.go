package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bnema/wayrot/internal/daemon"
	"github.com/bnema/wayrot/internal/logger"
)

// Handler answers control requests.
type Handler interface {
	HandleStatus() (StatusInfo, error)
	HandleLock(locked bool) (StatusInfo, error)
}

// DaemonHandler serves requests from a running daemon.
type DaemonHandler struct {
	Daemon *daemon.Daemon
}

// HandleStatus returns the daemon status.
func (h DaemonHandler) HandleStatus() (StatusInfo, error) {
	return StatusFromDaemon(h.Daemon.Status()), nil
}

// HandleLock locks or unlocks rotation and returns the new status.
func (h DaemonHandler) HandleLock(locked bool) (StatusInfo, error) {
	if locked {
		h.Daemon.Lock()
	} else {
		h.Daemon.Unlock()
	}
	return StatusFromDaemon(h.Daemon.Status()), nil
}

// SocketServer handles incoming IPC connections
type SocketServer struct {
	mu         sync.Mutex
	listener   net.Listener
	socketPath string
	handler    Handler
	wg         sync.WaitGroup
	cancel     context.CancelFunc
	running    bool

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// NewSocketServer creates a server listening on socketPath, or on
// DefaultSocketPath when it is empty.
func NewSocketServer(socketPath string, handler Handler) (*SocketServer, error) {
	if socketPath == "" {
		var err error
		if socketPath, err = DefaultSocketPath(); err != nil {
			return nil, fmt.Errorf("failed to get socket path: %w", err)
		}
	}

	return &SocketServer{
		socketPath: socketPath,
		handler:    handler,
		conns:      make(map[net.Conn]struct{}),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *SocketServer) SocketPath() string {
	return s.socketPath
}

// Start starts the socket server
func (s *SocketServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	// Remove existing socket file if it exists
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}

	// Set socket permissions (user only)
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.listener = listener
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.acceptConnections(ctx)

	logger.Infof("IPC socket server started at %s", s.socketPath)
	return nil
}

// Stop stops the socket server and closes open connections.
func (s *SocketServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()

	_ = os.RemoveAll(s.socketPath)
	logger.Info("IPC socket server stopped")
}

func (s *SocketServer) acceptConnections(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Errorf("Failed to accept connection: %v", err)
			continue
		}

		s.connsMu.Lock()
		s.conns[conn] = struct{}{}
		s.connsMu.Unlock()
		if ctx.Err() != nil {
			_ = conn.Close()
		}

		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.connsMu.Lock()
		delete(s.conns, conn)
		s.connsMu.Unlock()
		_ = conn.Close()
	}()

	logger.Debug("New IPC connection established")

	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := readMessage(conn)
		if err != nil {
			logger.Debugf("Connection closed or read error: %v", err)
			return
		}

		if err := writeMessage(conn, s.handleMessage(msg)); err != nil {
			logger.Errorf("Failed to send response: %v", err)
			return
		}
	}
}

// handleMessage processes a single message and returns a response
func (s *SocketServer) handleMessage(msg *structpb.Struct) *structpb.Struct {
	var (
		info StatusInfo
		err  error
	)
	switch t := MessageType(msg); t {
	case TypeStatus:
		info, err = s.handler.HandleStatus()
	case TypeLock:
		info, err = s.handler.HandleLock(true)
	case TypeUnlock:
		info, err = s.handler.HandleLock(false)
	default:
		return NewErrorMessage(fmt.Sprintf("Unknown message type: %q", t))
	}
	if err != nil {
		return NewErrorMessage(err.Error())
	}

	response, err := NewStatusResponseMessage(info)
	if err != nil {
		return NewErrorMessage(err.Error())
	}
	return response
}

// DefaultSocketPath returns $XDG_RUNTIME_DIR/wayrot.sock, or
// /tmp/wayrot-<user>.sock without a runtime directory.
func DefaultSocketPath() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "wayrot.sock"), nil
	}

	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join("/tmp", fmt.Sprintf("wayrot-%s.sock", currentUser.Username)), nil
}
