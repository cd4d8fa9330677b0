package proto

import "bytes"

// headerKind selects one of the two fixed envelope formats.
type headerKind int

const (
	// shortHeader is "F0 42", used only for device discovery.
	shortHeader headerKind = iota
	// extendedHeader is "F0 42 3g 00 01 2D" where g is the global
	// channel nibble. Used for all sample-related exchanges.
	extendedHeader
)

const (
	shortHeaderLen    = 2
	extendedHeaderLen = 6
	channelPrefix     = 0x30
)

// extendedSuffix follows the channel byte in an extended header.
var extendedSuffix = [3]byte{0x00, 0x01, 0x2D}

// Header is the parsed envelope of a decoded message.
type Header struct {
	// Extended reports which envelope format the message carried.
	Extended bool
	// Channel is the global channel nibble of an extended header.
	Channel byte
}

func (k headerKind) size() int {
	if k == extendedHeader {
		return extendedHeaderLen
	}
	return shortHeaderLen
}

// encode renders the header bytes. The channel is masked to its nibble.
func (k headerKind) encode(channel byte) []byte {
	if k == shortHeader {
		return []byte{EST, KorgID}
	}
	out := make([]byte, 0, extendedHeaderLen)
	out = append(out, EST, KorgID, channelPrefix|channel&0x0F)
	return append(out, extendedSuffix[:]...)
}

// parse validates the header at the front of raw and returns the parsed
// header plus the remaining bytes.
func (k headerKind) parse(raw []byte) (Header, []byte, error) {
	if len(raw) < k.size() {
		return Header{}, nil, ErrShortMessage
	}
	head, rest := raw[:k.size()], raw[k.size():]

	if head[0] != EST || head[1] != KorgID {
		return Header{}, nil, &HeaderError{Received: append([]byte(nil), head...)}
	}
	if k == shortHeader {
		return Header{}, rest, nil
	}

	if head[2]&0xF0 != channelPrefix || !bytes.Equal(head[3:], extendedSuffix[:]) {
		return Header{}, nil, &HeaderError{Received: append([]byte(nil), head...)}
	}
	return Header{Extended: true, Channel: head[2] & 0x0F}, rest, nil
}
