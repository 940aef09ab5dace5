package ipc

import (
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bnema/wayrot/internal/logger"
)

// ErrNotRunning means no daemon listens on the socket.
var ErrNotRunning = errors.New("wayrot daemon is not running")

// Client handles IPC communication with a running daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath, or for DefaultSocketPath when
// it is empty.
func NewClient(socketPath string) (*Client, error) {
	if socketPath == "" {
		var err error
		if socketPath, err = DefaultSocketPath(); err != nil {
			return nil, fmt.Errorf("failed to get socket path: %w", err)
		}
	}
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}, nil
}

// SetTimeout sets the deadline of each request.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Status queries the daemon state.
func (c *Client) Status() (*StatusInfo, error) {
	return c.request(TypeStatus)
}

// Lock stops the daemon from rotating.
func (c *Client) Lock() (*StatusInfo, error) {
	return c.request(TypeLock)
}

// Unlock resumes rotation.
func (c *Client) Unlock() (*StatusInfo, error) {
	return c.request(TypeUnlock)
}

func (c *Client) request(msgType string) (*StatusInfo, error) {
	response, err := c.sendMessage(NewRequest(msgType))
	if err != nil {
		return nil, err
	}

	switch t := MessageType(response); t {
	case TypeStatusResponse:
		return GetStatusResponse(response)
	case TypeError:
		errMsg, _ := GetError(response)
		return nil, fmt.Errorf("server error: %s", errMsg)
	default:
		return nil, fmt.Errorf("unexpected response type: %q", t)
	}
}

// sendMessage sends a message and returns the response
func (c *Client) sendMessage(msg *structpb.Struct) (*structpb.Struct, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if isConnectionRefused(err) {
			return nil, fmt.Errorf("%w (%s)", ErrNotRunning, c.socketPath)
		}
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close IPC connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		logger.Warnf("Failed to set connection deadline: %v", err)
	}

	if err := writeMessage(conn, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	response, err := readMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return response, nil
}

// isConnectionRefused checks if the error is a dial error
func isConnectionRefused(err error) bool {
	var netErr *net.OpError
	return errors.As(err, &netErr) && netErr.Op == "dial"
}
