// Package ipc implements the control socket of a running daemon. Messages
// are protobuf Structs framed by a big-endian uint32 length.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/bnema/wayrot/internal/daemon"
)

// Message types
const (
	TypeStatus         = "status"
	TypeLock           = "lock"
	TypeUnlock         = "unlock"
	TypeStatusResponse = "status_response"
	TypeError          = "error"
)

// MaxMessageSize bounds a single framed message.
const MaxMessageSize = 1 << 20

// StatusInfo is the daemon state reported over the socket.
type StatusInfo struct {
	Display     string
	Backend     string
	Orientation string // Last applied orientation, "unknown" before the first one
	Detected    string
	Locked      bool
	Oneshot     bool
	Started     time.Time
	LastTick    time.Time
	Ticks       uint64
	Rotations   uint64
	VectorX     float64
	VectorY     float64

	HasTransactions bool
	Submitted       uint64
	Succeeded       uint64
	Failed          uint64
	Cancelled       uint64
}

// StatusFromDaemon converts a daemon snapshot.
func StatusFromDaemon(s daemon.Status) StatusInfo {
	info := StatusInfo{
		Display:         s.Display,
		Backend:         s.Backend,
		Orientation:     "unknown",
		Detected:        s.Detected.String(),
		Locked:          s.Locked,
		Oneshot:         s.Oneshot,
		Started:         s.Started,
		LastTick:        s.LastTick,
		Ticks:           s.Ticks,
		Rotations:       s.Rotations,
		VectorX:         s.Vector.X,
		VectorY:         s.Vector.Y,
		HasTransactions: s.HasStats,
		Submitted:       s.Transactions.Submitted,
		Succeeded:       s.Transactions.Succeeded,
		Failed:          s.Transactions.Failed,
		Cancelled:       s.Transactions.Cancelled,
	}
	if s.HasApplied {
		info.Orientation = s.Applied.String()
	}
	return info
}

// NewRequest creates a request message without payload.
func NewRequest(msgType string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"type": structpb.NewStringValue(msgType),
	}}
}

// NewStatusResponseMessage creates a status response message.
func NewStatusResponseMessage(info StatusInfo) (*structpb.Struct, error) {
	payload, err := structpb.NewStruct(map[string]interface{}{
		"display":          info.Display,
		"backend":          info.Backend,
		"orientation":      info.Orientation,
		"detected":         info.Detected,
		"locked":           info.Locked,
		"oneshot":          info.Oneshot,
		"started":          formatTime(info.Started),
		"last_tick":        formatTime(info.LastTick),
		"ticks":            info.Ticks,
		"rotations":        info.Rotations,
		"vector_x":         info.VectorX,
		"vector_y":         info.VectorY,
		"has_transactions": info.HasTransactions,
		"submitted":        info.Submitted,
		"succeeded":        info.Succeeded,
		"failed":           info.Failed,
		"cancelled":        info.Cancelled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	msg := NewRequest(TypeStatusResponse)
	msg.Fields["payload"] = structpb.NewStructValue(payload)
	return msg, nil
}

// NewErrorMessage creates a new error message
func NewErrorMessage(errMsg string) *structpb.Struct {
	msg := NewRequest(TypeError)
	msg.Fields["error"] = structpb.NewStringValue(errMsg)
	return msg
}

// MessageType returns the type field of msg.
func MessageType(msg *structpb.Struct) string {
	return msg.GetFields()["type"].GetStringValue()
}

// GetStatusResponse extracts status response from message
func GetStatusResponse(msg *structpb.Struct) (*StatusInfo, error) {
	if MessageType(msg) != TypeStatusResponse {
		return nil, fmt.Errorf("message is not a status response")
	}
	payload := msg.GetFields()["payload"].GetStructValue()
	if payload == nil {
		return nil, fmt.Errorf("invalid status response payload")
	}

	f := payload.GetFields()
	info := &StatusInfo{
		Display:         f["display"].GetStringValue(),
		Backend:         f["backend"].GetStringValue(),
		Orientation:     f["orientation"].GetStringValue(),
		Detected:        f["detected"].GetStringValue(),
		Locked:          f["locked"].GetBoolValue(),
		Oneshot:         f["oneshot"].GetBoolValue(),
		Ticks:           uint64(f["ticks"].GetNumberValue()),
		Rotations:       uint64(f["rotations"].GetNumberValue()),
		VectorX:         f["vector_x"].GetNumberValue(),
		VectorY:         f["vector_y"].GetNumberValue(),
		HasTransactions: f["has_transactions"].GetBoolValue(),
		Submitted:       uint64(f["submitted"].GetNumberValue()),
		Succeeded:       uint64(f["succeeded"].GetNumberValue()),
		Failed:          uint64(f["failed"].GetNumberValue()),
		Cancelled:       uint64(f["cancelled"].GetNumberValue()),
	}
	var err error
	if info.Started, err = parseTime(f["started"].GetStringValue()); err != nil {
		return nil, err
	}
	if info.LastTick, err = parseTime(f["last_tick"].GetStringValue()); err != nil {
		return nil, err
	}
	return info, nil
}

// GetError extracts the message of an error response.
func GetError(msg *structpb.Struct) (string, error) {
	if MessageType(msg) != TypeError {
		return "", fmt.Errorf("message is not an error response")
	}
	return msg.GetFields()["error"].GetStringValue(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// readMessage reads a length-prefixed message
func readMessage(r io.Reader) (*structpb.Struct, error) {
	// Read message length (4 bytes, big endian)
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if length > MaxMessageSize {
		return nil, fmt.Errorf("message of %d bytes exceeds limit of %d", length, MaxMessageSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read message data: %w", err)
	}

	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return msg, nil
}

// writeMessage writes a length-prefixed message
func writeMessage(w io.Writer, msg *structpb.Struct) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	frame := make([]byte, 4, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data))) //nolint:gosec // bounded by MaxMessageSize
	frame = append(frame, data...)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}
