package proto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/tamzrod/volsa/internal/sevenbit"
)

// NumSlots is the number of sample slots on the device.
const NumSlots = 200

// Defaults applied to freshly constructed sample headers. The device, not
// this driver, performs gain and speed adjustment.
const (
	DefaultLevel uint16 = 65535
	DefaultSpeed uint16 = 16384
)

const (
	nameLen       = 24
	headerRawLen  = nameLen + 4 + 2 + 2
	headerDataU7  = 37
	headerPayload = 2 + headerDataU7
)

// ErrMalformedName reports a sample name that is not valid UTF-8.
var ErrMalformedName = errors.New("proto: sample name is not valid UTF-8")

// SampleSpaceDumpRequest asks for the device's storage occupancy.
type SampleSpaceDumpRequest struct{}

func (*SampleSpaceDumpRequest) desc() desc {
	return desc{header: extendedHeader, identity: []byte{0x1B}, payload: 0}
}

func (*SampleSpaceDumpRequest) encodePayload(*bytes.Buffer) {}

// SampleSpaceDump reports used and total sample memory in sectors. Both
// are 14-bit values assembled from two 7-bit halves, low half first.
type SampleSpaceDump struct {
	UsedSectors  uint16
	TotalSectors uint16
}

// Occupied returns the used fraction of sample memory.
func (m *SampleSpaceDump) Occupied() float64 {
	return float64(m.UsedSectors) / float64(m.TotalSectors)
}

func (*SampleSpaceDump) desc() desc {
	return desc{header: extendedHeader, identity: []byte{0x4B}, payload: 4}
}

func (m *SampleSpaceDump) decodePayload(data []byte) error {
	// Used comes first on the wire. The hardware documentation suggests
	// the opposite order; the order here is the one observed against a
	// real device.
	m.UsedSectors = uint16(data[0]) | uint16(data[1])<<7
	m.TotalSectors = uint16(data[2]) | uint16(data[3])<<7
	return nil
}

// SampleHeaderDumpRequest asks for the header of one sample slot.
type SampleHeaderDumpRequest struct {
	SampleNo byte
}

func (*SampleHeaderDumpRequest) desc() desc {
	return desc{header: extendedHeader, identity: []byte{0x1E}, payload: 2}
}

func (m *SampleHeaderDumpRequest) encodePayload(buf *bytes.Buffer) {
	writeU8(buf, m.SampleNo)
}

// SampleHeader is the metadata of one sample slot. The same message is
// received as a dump reply and sent to rewrite a slot.
type SampleHeader struct {
	SampleNo byte
	Name     string
	Length   uint32
	Level    uint16
	Speed    uint16
}

// EmptyHeader builds the all-zero header that erases a slot when written.
func EmptyHeader(sampleNo byte) *SampleHeader {
	return &SampleHeader{SampleNo: sampleNo}
}

// IsEmpty reports whether the header denotes an unoccupied slot.
func (m *SampleHeader) IsEmpty() bool {
	return m.Name == "" && m.Length == 0 && m.Level == 0 && m.Speed == 0
}

func (*SampleHeader) desc() desc {
	return desc{header: extendedHeader, identity: []byte{0x4E}, payload: headerPayload}
}

func (m *SampleHeader) decodePayload(data []byte) error {
	sampleNo, data, err := readU8(data)
	if err != nil {
		return err
	}

	raw := sevenbit.Unpack(data)
	if len(raw) < headerRawLen {
		return ErrShortMessage
	}

	name := raw[:nameLen]
	for len(name) > 0 && name[len(name)-1] == 0 {
		name = name[:len(name)-1]
	}
	if !utf8.Valid(name) {
		return ErrMalformedName
	}

	m.SampleNo = sampleNo
	m.Name = string(name)
	m.Length = binary.LittleEndian.Uint32(raw[nameLen:])
	m.Level = binary.LittleEndian.Uint16(raw[nameLen+4:])
	m.Speed = binary.LittleEndian.Uint16(raw[nameLen+6:])
	return nil
}

func (m *SampleHeader) encodePayload(buf *bytes.Buffer) {
	writeU8(buf, m.SampleNo)

	raw := make([]byte, headerRawLen)
	copy(raw[:nameLen], m.Name)
	binary.LittleEndian.PutUint32(raw[nameLen:], m.Length)
	binary.LittleEndian.PutUint16(raw[nameLen+4:], m.Level)
	binary.LittleEndian.PutUint16(raw[nameLen+6:], m.Speed)

	buf.Write(sevenbit.Pack(raw))
}

// SampleDataDumpRequest asks for the audio of one sample slot.
type SampleDataDumpRequest struct {
	SampleNo byte
}

func (*SampleDataDumpRequest) desc() desc {
	return desc{header: extendedHeader, identity: []byte{0x1F}, payload: 2}
}

func (m *SampleDataDumpRequest) encodePayload(buf *bytes.Buffer) {
	writeU8(buf, m.SampleNo)
}

// SampleData is the audio of one sample slot as signed 16-bit PCM. The
// same message is received as a dump reply and sent to load a slot.
type SampleData struct {
	SampleNo byte
	Data     []int16
}

// NewSample builds the header and data pair for uploading raw audio.
// The name is truncated to the 24 bytes a header can hold; level and
// speed are always the defaults regardless of the input audio.
func NewSample(sampleNo byte, name string, data []int16) (*SampleHeader, *SampleData) {
	if len(name) > nameLen {
		name = name[:nameLen]
	}
	header := &SampleHeader{
		SampleNo: sampleNo,
		Name:     name,
		Length:   uint32(len(data)),
		Level:    DefaultLevel,
		Speed:    DefaultSpeed,
	}
	return header, &SampleData{SampleNo: sampleNo, Data: data}
}

func (*SampleData) desc() desc {
	return desc{header: extendedHeader, identity: []byte{0x4F}, payload: variableLen}
}

func (m *SampleData) decodePayload(data []byte) error {
	sampleNo, data, err := readU8(data)
	if err != nil {
		return err
	}

	raw := sevenbit.Unpack(data)
	samples := make([]int16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		samples = append(samples, int16(binary.LittleEndian.Uint16(raw[i:])))
	}

	m.SampleNo = sampleNo
	m.Data = samples
	return nil
}

func (m *SampleData) encodePayload(buf *bytes.Buffer) {
	writeU8(buf, m.SampleNo)

	raw := make([]byte, 2*len(m.Data))
	for i, s := range m.Data {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(s))
	}

	buf.Grow(sevenbit.PackedLen(len(raw)))
	io.Copy(buf, sevenbit.NewPackReader(bytes.NewReader(raw)))
}
