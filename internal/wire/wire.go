// Package wire implements the Wayland wire format: message framing, argument
// encoding and decoding, and a client connection with an object table,
// wl_display, wl_registry and wl_callback.
//
// A Conn is not safe for concurrent use. Events are only dispatched from
// inside Roundtrip or Dispatch, on the caller's goroutine.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	headerSize = 8
	// MaxMessageSize is the largest message libwayland will send or accept.
	MaxMessageSize = 4096
)

var order = binary.NativeEndian

// ErrShortMessage is reported by a Decoder reading past the end of a body.
var ErrShortMessage = errors.New("wire: message body too short")

// Fixed is a signed 24.8 fixed point number.
type Fixed int32

// FixedFromFloat converts f to Fixed.
func FixedFromFloat(f float64) Fixed {
	return Fixed(math.Round(f * 256))
}

// Float converts f to float64.
func (f Fixed) Float() float64 {
	return float64(f) / 256
}

// Message is one framed protocol message. Body holds the encoded arguments.
type Message struct {
	Sender uint32
	Opcode uint16
	Body   []byte
}

// Size returns the framed size of the message including its header.
func (m Message) Size() int {
	return headerSize + len(m.Body)
}

// AppendTo appends the framed message to dst.
func (m Message) AppendTo(dst []byte) []byte {
	var hdr [headerSize]byte
	order.PutUint32(hdr[0:4], m.Sender)
	order.PutUint32(hdr[4:8], uint32(m.Size())<<16|uint32(m.Opcode))
	dst = append(dst, hdr[:]...)
	return append(dst, m.Body...)
}

// Bytes returns the framed message.
func (m Message) Bytes() []byte {
	return m.AppendTo(make([]byte, 0, m.Size()))
}

// ReadMessage reads one framed message from r.
func ReadMessage(r io.Reader) (Message, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Message{}, err
	}

	sender := order.Uint32(hdr[0:4])
	word := order.Uint32(hdr[4:8])
	size := int(word >> 16)
	if size < headerSize || size > MaxMessageSize || size%4 != 0 {
		return Message{}, fmt.Errorf("wire: invalid message size %d from object %d", size, sender)
	}

	body := make([]byte, size-headerSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return Message{}, fmt.Errorf("wire: truncated message from object %d: %w", sender, err)
	}

	return Message{Sender: sender, Opcode: uint16(word & 0xffff), Body: body}, nil
}

// Object is a protocol object able to receive events.
type Object interface {
	ID() uint32
	Dispatch(e *Event)
}

// NullObject encodes a null object argument.
type NullObject struct{}

// Encode encodes request or event arguments. Supported types are uint32,
// int32, int, Fixed, string, []byte (array), Object (its id) and NullObject.
func Encode(args ...interface{}) ([]byte, error) {
	var body []byte
	for i, arg := range args {
		switch v := arg.(type) {
		case uint32:
			body = order.AppendUint32(body, v)
		case int32:
			body = order.AppendUint32(body, uint32(v))
		case int:
			body = order.AppendUint32(body, uint32(int32(v)))
		case Fixed:
			body = order.AppendUint32(body, uint32(v))
		case string:
			body = appendString(body, v)
		case []byte:
			body = order.AppendUint32(body, uint32(len(v)))
			body = append(body, v...)
			body = pad(body, len(v))
		case Object:
			body = order.AppendUint32(body, v.ID())
		case NullObject:
			body = order.AppendUint32(body, 0)
		default:
			return nil, fmt.Errorf("wire: unsupported argument %d of type %T", i, arg)
		}
	}
	if len(body)+headerSize > MaxMessageSize {
		return nil, fmt.Errorf("wire: message of %d bytes exceeds %d", len(body)+headerSize, MaxMessageSize)
	}
	return body, nil
}

func appendString(body []byte, s string) []byte {
	n := len(s) + 1
	body = order.AppendUint32(body, uint32(n))
	body = append(body, s...)
	body = append(body, 0)
	return pad(body, n)
}

func pad(body []byte, n int) []byte {
	for ; n%4 != 0; n++ {
		body = append(body, 0)
	}
	return body
}

// Decoder reads arguments sequentially from a message body. The first
// failure is sticky and reported by Err; later reads return zero values.
type Decoder struct {
	body []byte
	off  int
	err  error
}

// NewDecoder creates a decoder over body.
func NewDecoder(body []byte) *Decoder {
	return &Decoder{body: body}
}

// Err returns the first decoding error.
func (d *Decoder) Err() error {
	return d.err
}

// Remaining returns the number of undecoded bytes.
func (d *Decoder) Remaining() int {
	return len(d.body) - d.off
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.body) {
		d.err = ErrShortMessage
		return nil
	}
	b := d.body[d.off : d.off+n]
	d.off += n
	return b
}

// Uint32 decodes an uint argument.
func (d *Decoder) Uint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return order.Uint32(b)
}

// Int32 decodes an int argument.
func (d *Decoder) Int32() int32 {
	return int32(d.Uint32())
}

// Fixed decodes a fixed argument.
func (d *Decoder) Fixed() Fixed {
	return Fixed(d.Uint32())
}

// Object decodes an object id argument (0 is null).
func (d *Decoder) Object() uint32 {
	return d.Uint32()
}

// NewID decodes a new_id argument.
func (d *Decoder) NewID() uint32 {
	return d.Uint32()
}

// String decodes a string argument. A null string decodes as "".
func (d *Decoder) String() string {
	n := int(d.Uint32())
	if n == 0 || d.err != nil {
		return ""
	}
	b := d.take(padded(n))
	if b == nil {
		return ""
	}
	if b[n-1] != 0 {
		d.err = fmt.Errorf("wire: string argument is not NUL terminated")
		return ""
	}
	return string(b[:n-1])
}

// Array decodes an array argument.
func (d *Decoder) Array() []byte {
	n := int(d.Uint32())
	if d.err != nil {
		return nil
	}
	b := d.take(padded(n))
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b[:n])
	return out
}

func padded(n int) int {
	return (n + 3) &^ 3
}

// Event is a received message being dispatched to its target object.
type Event struct {
	Sender uint32
	Opcode uint16
	*Decoder
}

// NewEvent wraps a message for dispatch.
func NewEvent(m Message) *Event {
	return &Event{Sender: m.Sender, Opcode: m.Opcode, Decoder: NewDecoder(m.Body)}
}
