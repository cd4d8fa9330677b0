package proto

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Status byte values reported by the device after a header or data write.
const (
	statusAck     = 0x23
	statusBusy    = 0x24
	statusFull    = 0x25
	statusBadData = 0x26
)

// NakError is a negative acknowledgment reported by the device. It is an
// operation failure, not a framing error, and is never retried here.
type NakError struct {
	Code byte
}

func (e *NakError) Error() string {
	switch e.Code {
	case statusBusy:
		return "device is busy"
	case statusFull:
		return "sample memory is full"
	case statusBadData:
		return "invalid data format"
	}
	return fmt.Sprintf("unknown device status %#02X", e.Code)
}

// Status is the device's one-byte acknowledge / negative-acknowledge
// reply.
type Status struct {
	code byte
}

// Err returns nil for an acknowledged operation and a *NakError otherwise.
func (s *Status) Err() error {
	if s.code == statusAck {
		return nil
	}
	return &NakError{Code: s.code}
}

func (*Status) desc() desc {
	return desc{header: extendedHeader, payload: 1}
}

func (s *Status) decodePayload(data []byte) error {
	switch data[0] {
	case statusAck, statusBusy, statusFull, statusBadData:
		s.code = data[0]
		return nil
	}
	return fmt.Errorf("proto: invalid status byte %#02X", data[0])
}

// Version is the device firmware version from a discovery reply.
type Version struct {
	Major uint16
	Minor uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// SearchDeviceRequest asks any listening device to identify itself. Echo
// is an arbitrary value repeated back in the reply.
type SearchDeviceRequest struct {
	Echo byte
}

func (*SearchDeviceRequest) desc() desc {
	return desc{header: shortHeader, identity: []byte{0x50, 0x00}, payload: 2}
}

func (m *SearchDeviceRequest) encodePayload(buf *bytes.Buffer) {
	writeU8(buf, m.Echo)
}

// SearchDeviceReply is the device's answer to a search request. It carries
// the global channel used by all subsequent extended-header messages.
type SearchDeviceReply struct {
	Channel byte
	Echo    byte
	Version Version
}

func (*SearchDeviceReply) desc() desc {
	return desc{header: shortHeader, identity: []byte{0x50, 0x01}, payload: 10}
}

func (m *SearchDeviceReply) decodePayload(data []byte) error {
	channel, echo, model := data[0], data[1], data[2:6]
	if !bytes.Equal(model, ModelID[:]) {
		return &IdentityError{
			Expected: append([]byte(nil), ModelID[:]...),
			Received: append([]byte(nil), model...),
		}
	}
	if channel&0x80 != 0 || echo&0x80 != 0 {
		return fmt.Errorf("proto: reply fields not 7-bit safe: channel %#02x echo %#02x",
			channel, echo)
	}
	m.Channel = channel
	m.Echo = echo
	m.Version.Minor = binary.LittleEndian.Uint16(data[6:8])
	m.Version.Major = binary.LittleEndian.Uint16(data[8:10])
	return nil
}
