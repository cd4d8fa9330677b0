// Package proto implements the SysEx request/reply protocol spoken by the
// Korg Volca Sample 2: header formats, message identities, fixed and
// variable length framing, and the payload codecs for every supported
// message.
package proto

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tamzrod/volsa/internal/sevenbit"
)

// Wire constants.
const (
	// EST is the exclusive-status marker opening every message.
	EST = 0xF0
	// EOX terminates every message.
	EOX = 0xF7
	// KorgID is the KORG manufacturer id.
	KorgID = 0x42
)

// ModelID identifies the Volca Sample 2 in a discovery reply.
var ModelID = [4]byte{0x2D, 0x01, 0x08, 0x00}

// ErrMissingTerminator reports a message that does not end with EOX.
var ErrMissingTerminator = errors.New("proto: missing end-of-exclusive byte")

// ErrShortMessage reports a message too short to hold its envelope.
var ErrShortMessage = errors.New("proto: not enough data")

// HeaderError reports header bytes that do not match the expected format.
type HeaderError struct {
	Received []byte
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("proto: invalid header: received % X", e.Received)
}

// IdentityError reports identity bytes that do not match the expected
// message kind. Both sides are kept so the caller can tell what actually
// arrived.
type IdentityError struct {
	Expected []byte
	Received []byte
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("proto: identity mismatch: expected % X, received % X",
		e.Expected, e.Received)
}

// LengthError reports a fixed-length payload of the wrong size.
type LengthError struct {
	Expected int
	Received int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("proto: payload length mismatch: expected %d, received %d",
		e.Expected, e.Received)
}

// variableLen marks messages with no fixed payload length.
const variableLen = -1

// desc is the dispatch record every concrete message provides: which
// header envelope it uses, its identity bytes, and its payload length
// before EOX (variableLen when unconstrained).
type desc struct {
	header   headerKind
	identity []byte
	payload  int
}

// Message is implemented by every protocol message kind.
type Message interface {
	desc() desc
}

// Incoming messages are transmitted by the device and decoded host-side.
type Incoming interface {
	Message
	decodePayload(data []byte) error
}

// Outgoing messages are transmitted by the host.
type Outgoing interface {
	Message
	encodePayload(buf *bytes.Buffer)
}

// Encode renders a complete wire message: header, identity bytes, payload,
// EOX. channel is the negotiated global channel; discovery messages ignore
// it. Fixed payload lengths are enforced on the decode side only.
func Encode(msg Outgoing, channel byte) []byte {
	d := msg.desc()
	var buf bytes.Buffer
	buf.Write(d.header.encode(channel))
	buf.Write(d.identity)
	msg.encodePayload(&buf)
	buf.WriteByte(EOX)
	return buf.Bytes()
}

// Decode parses raw into msg, which selects the expected message kind.
// It returns the parsed header so callers can observe the channel the
// device answered on.
func Decode(raw []byte, msg Incoming) (Header, error) {
	d := msg.desc()

	hdr, rest, err := d.header.parse(raw)
	if err != nil {
		return Header{}, err
	}

	if len(rest) < len(d.identity) {
		return Header{}, ErrShortMessage
	}
	id, rest := rest[:len(d.identity)], rest[len(d.identity):]
	if !bytes.Equal(id, d.identity) {
		return Header{}, &IdentityError{
			Expected: append([]byte(nil), d.identity...),
			Received: append([]byte(nil), id...),
		}
	}

	if len(rest) == 0 {
		return Header{}, ErrShortMessage
	}
	if rest[len(rest)-1] != EOX {
		return Header{}, ErrMissingTerminator
	}
	rest = rest[:len(rest)-1]

	if d.payload != variableLen && len(rest) != d.payload {
		return Header{}, &LengthError{Expected: d.payload, Received: len(rest)}
	}

	if err := msg.decodePayload(rest); err != nil {
		return Header{}, err
	}
	return hdr, nil
}

// writeU8 appends the two-unit encoding of an 8-bit value: the low 7 bits
// first, then the carried high bit.
func writeU8(buf *bytes.Buffer, v byte) {
	msb, low := sevenbit.SplitByte(v)
	buf.WriteByte(low)
	buf.WriteByte(msb)
}

// readU8 restores an 8-bit value from its two-unit encoding and returns
// the remaining data.
func readU8(data []byte) (byte, []byte, error) {
	if len(data) < 2 {
		return 0, nil, ErrShortMessage
	}
	return sevenbit.MergeByte(data[0], data[1]&1), data[2:], nil
}
