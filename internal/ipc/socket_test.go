package ipc

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bnema/wayrot/internal/daemon"
	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/sensor"
)

// MockHandler implements Handler for testing
type MockHandler struct {
	mu        sync.Mutex
	locked    bool
	statusErr error
}

func (m *MockHandler) HandleStatus() (StatusInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statusErr != nil {
		return StatusInfo{}, m.statusErr
	}
	return StatusInfo{Display: "eDP-1", Backend: "sway", Locked: m.locked}, nil
}

func (m *MockHandler) HandleLock(locked bool) (StatusInfo, error) {
	m.mu.Lock()
	m.locked = locked
	m.mu.Unlock()
	return m.HandleStatus()
}

func startServer(t *testing.T, handler Handler) (*SocketServer, *Client) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wayrot.sock")

	server, err := NewSocketServer(path, handler)
	require.NoError(t, err)
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)

	client, err := NewClient(path)
	require.NoError(t, err)
	client.SetTimeout(2 * time.Second)
	return server, client
}

func TestSocketServerStartStop(t *testing.T) {
	server, _ := startServer(t, &MockHandler{})

	info, err := os.Stat(server.SocketPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Starting again should not error
	assert.NoError(t, server.Start())

	server.Stop()
	_, err = os.Stat(server.SocketPath())
	assert.True(t, os.IsNotExist(err))

	// Stopping again should not panic
	server.Stop()
}

func TestSocketServerCleanupExistingSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	server, err := NewSocketServer(path, &MockHandler{})
	require.NoError(t, err)
	require.NoError(t, server.Start())
	server.Stop()
}

func TestClientStatusLockUnlock(t *testing.T) {
	handler := &MockHandler{}
	_, client := startServer(t, handler)

	info, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, "eDP-1", info.Display)
	assert.False(t, info.Locked)

	info, err = client.Lock()
	require.NoError(t, err)
	assert.True(t, info.Locked)

	info, err = client.Unlock()
	require.NoError(t, err)
	assert.False(t, info.Locked)
}

func TestHandlerErrorIsReported(t *testing.T) {
	_, client := startServer(t, &MockHandler{statusErr: errors.New("not ready")})

	_, err := client.Status()
	assert.EqualError(t, err, "server error: not ready")
}

func TestUnknownMessageType(t *testing.T) {
	_, client := startServer(t, &MockHandler{})

	response, err := client.sendMessage(NewRequest("rotate"))
	require.NoError(t, err)
	assert.Equal(t, TypeError, MessageType(response))
}

func TestMultipleRequestsOnOneConnection(t *testing.T) {
	server, _ := startServer(t, &MockHandler{})

	conn, err := net.Dial("unix", server.SocketPath())
	require.NoError(t, err)
	defer conn.Close()

	for _, msgType := range []string{TypeStatus, TypeLock, TypeStatus} {
		require.NoError(t, writeMessage(conn, NewRequest(msgType)))
		var response *structpb.Struct
		response, err = readMessage(conn)
		require.NoError(t, err)
		assert.Equal(t, TypeStatusResponse, MessageType(response))
	}
}

func TestStopClosesIdleConnections(t *testing.T) {
	server, _ := startServer(t, &MockHandler{})

	conn, err := net.Dial("unix", server.SocketPath())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, writeMessage(conn, NewRequest(TypeStatus)))
	_, err = readMessage(conn)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		server.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() took too long")
	}
}

func TestClientNotRunning(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	require.NoError(t, err)

	_, err = client.Status()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestDefaultSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path, err := DefaultSocketPath()
	require.NoError(t, err)
	assert.Equal(t, "/run/user/1000/wayrot.sock", path)

	t.Setenv("XDG_RUNTIME_DIR", "")
	path, err = DefaultSocketPath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Contains(t, path, "/tmp/wayrot-")
}

type staticSource struct{}

func (staticSource) Read() (sensor.Reading, error) {
	return sensor.Reading{X: -1e6}, nil
}

type staticBackend struct{}

func (staticBackend) Name() display.Kind                      { return display.KindXorg }
func (staticBackend) Apply(orientation.Orientation) error     { return nil }
func (staticBackend) Query() (orientation.Orientation, error) { return orientation.Normal, nil }
func (staticBackend) Outputs() ([]display.Output, error)      { return nil, nil }
func (staticBackend) Close() error                            { return nil }

func TestDaemonHandler(t *testing.T) {
	d := daemon.New(daemon.Options{
		Display:    "eDP-1",
		Threshold:  0.5,
		Projection: sensor.Projection{NormalizationFactor: 1e6},
	}, staticSource{}, staticBackend{}, nil)
	_, client := startServer(t, DaemonHandler{Daemon: d})

	info, err := client.Lock()
	require.NoError(t, err)
	assert.True(t, info.Locked)
	assert.True(t, d.Locked())
	assert.Equal(t, "normal", info.Orientation)
	assert.Equal(t, "xorg", info.Backend)

	info, err = client.Unlock()
	require.NoError(t, err)
	assert.False(t, info.Locked)
	assert.False(t, d.Locked())
}
