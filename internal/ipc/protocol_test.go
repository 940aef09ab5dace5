package ipc

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wayrot/internal/daemon"
	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/wayland"
)

func TestStatusResponseRoundTrip(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	info := StatusInfo{
		Display:         "eDP-1",
		Backend:         "sway",
		Orientation:     "left",
		Detected:        "left",
		Locked:          true,
		Started:         started,
		LastTick:        started.Add(1500 * time.Millisecond),
		Ticks:           42,
		Rotations:       3,
		VectorX:         0.98,
		VectorY:         -0.1,
		HasTransactions: true,
		Submitted:       3,
		Succeeded:       2,
		Failed:          1,
	}

	msg, err := NewStatusResponseMessage(info)
	require.NoError(t, err)
	assert.Equal(t, TypeStatusResponse, MessageType(msg))

	var buf bytes.Buffer
	require.NoError(t, writeMessage(&buf, msg))
	decoded, err := readMessage(&buf)
	require.NoError(t, err)

	got, err := GetStatusResponse(decoded)
	require.NoError(t, err)
	assert.True(t, got.Started.Equal(info.Started))
	assert.True(t, got.LastTick.Equal(info.LastTick))
	got.Started, got.LastTick = info.Started, info.LastTick
	assert.Equal(t, info, *got)
}

func TestZeroTimesStayZero(t *testing.T) {
	msg, err := NewStatusResponseMessage(StatusInfo{Display: "eDP-1"})
	require.NoError(t, err)

	got, err := GetStatusResponse(msg)
	require.NoError(t, err)
	assert.True(t, got.LastTick.IsZero())
	assert.True(t, got.Started.IsZero())
}

func TestErrorMessage(t *testing.T) {
	msg := NewErrorMessage("boom")
	assert.Equal(t, TypeError, MessageType(msg))

	text, err := GetError(msg)
	require.NoError(t, err)
	assert.Equal(t, "boom", text)

	_, err = GetStatusResponse(msg)
	assert.Error(t, err)
	_, err = GetError(NewRequest(TypeStatus))
	assert.Error(t, err)
}

func TestStatusResponseWithoutPayload(t *testing.T) {
	_, err := GetStatusResponse(NewRequest(TypeStatusResponse))
	assert.Error(t, err)
}

func TestReadMessageRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(MaxMessageSize+1)))

	_, err := readMessage(&buf)
	assert.ErrorContains(t, err, "exceeds limit")
}

func TestReadMessageTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, uint32(10)))
	buf.WriteString("abc")

	_, err := readMessage(&buf)
	assert.Error(t, err)
}

func TestStatusFromDaemon(t *testing.T) {
	t.Run("before the first rotation", func(t *testing.T) {
		info := StatusFromDaemon(daemon.Status{Display: "eDP-1", Detected: orientation.Right90})
		assert.Equal(t, "unknown", info.Orientation)
		assert.Equal(t, "right", info.Detected)
		assert.False(t, info.HasTransactions)
	})

	t.Run("after a rotation", func(t *testing.T) {
		info := StatusFromDaemon(daemon.Status{
			Display:      "eDP-1",
			Backend:      "wlroots",
			Applied:      orientation.Flipped180,
			HasApplied:   true,
			Rotations:    1,
			HasStats:     true,
			Transactions: wayland.Stats{Submitted: 2, Succeeded: 1, Cancelled: 1},
			Vector:       orientation.Vector{X: 0, Y: 1},
		})
		assert.Equal(t, "flipped", info.Orientation)
		assert.True(t, info.HasTransactions)
		assert.Equal(t, uint64(2), info.Submitted)
		assert.Equal(t, uint64(1), info.Cancelled)
		assert.Equal(t, 1.0, info.VectorY)
	})
}
