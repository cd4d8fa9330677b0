// Package device implements the session against a connected Volca Sample
// 2: discovery and handshake, chunked message transmission with pacing,
// multi-frame reassembly, and the synchronous request/reply operations.
//
// A Device drives exactly one hardware unit. The protocol has no session
// identifiers, so opening several sessions against the same device
// interleaves their chunk streams with undefined results; callers must
// keep one session per device.
package device

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/volsa/internal/proto"
)

// ChunkSize is the transport frame bound for outgoing messages.
const ChunkSize = 256

// DefaultDeviceName is the client name the device announces on the
// transport.
const DefaultDeviceName = "volca sample"

// hexPreviewMax bounds how many bytes of a message are logged raw.
const hexPreviewMax = 16

// Config carries the session's immutable settings.
type Config struct {
	// DeviceName is the transport client name to connect to.
	DeviceName string
	// ChunkCooldown is the pause between outgoing chunks. Zero disables
	// pacing. The device's receive buffer drops data under back-to-back
	// large transfers, so uploads need a non-zero cooldown.
	ChunkCooldown time.Duration
	// Logger receives send/receive tracing. Nil is silent.
	Logger *zerolog.Logger
}

// Device is a connected session. Operations are strictly synchronous
// request/reply; there is never more than one outstanding request.
type Device struct {
	tr      Transport
	log     zerolog.Logger
	cfg     Config
	me      Addr
	volca   Addr
	channel byte
}

// New wraps an open transport. Connect must be called before any
// operation.
func New(tr Transport, cfg Config) (*Device, error) {
	if tr == nil {
		return nil, errors.New("device: transport required")
	}
	if cfg.DeviceName == "" {
		cfg.DeviceName = DefaultDeviceName
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Device{
		tr:  tr,
		log: log,
		cfg: cfg,
		me:  tr.Self(),
	}, nil
}

// Connect locates the device on the transport, binds both stream
// directions and performs the discovery handshake, recording the global
// channel the device reports for all subsequent extended messages.
func (d *Device) Connect() error {
	volca, err := d.tr.Find(d.cfg.DeviceName)
	if err != nil {
		return fmt.Errorf("device: find %q: %w", d.cfg.DeviceName, err)
	}
	d.volca = volca

	if err := d.tr.Subscribe(d.volca, d.me); err != nil {
		return fmt.Errorf("device: subscribe input: %w", err)
	}
	if err := d.tr.Subscribe(d.me, d.volca); err != nil {
		return fmt.Errorf("device: subscribe output: %w", err)
	}

	if err := d.send(&proto.SearchDeviceRequest{Echo: 42}); err != nil {
		return err
	}
	var reply proto.SearchDeviceReply
	if err := d.receive(&reply); err != nil {
		return err
	}

	d.channel = reply.Channel
	d.log.Info().
		Uint8("global_channel", reply.Channel).
		Stringer("version", reply.Version).
		Msg("connected to volca sample 2")
	return nil
}

// Close releases the underlying transport.
func (d *Device) Close() error {
	return d.tr.Close()
}

// send encodes msg and moves it across the transport in ChunkSize frames.
// Between chunks the session sleeps the configured cooldown, except after
// the final chunk (the one carrying the terminator).
func (d *Device) send(msg proto.Outgoing) error {
	buf := proto.Encode(msg, d.channel)
	d.logBuf("send msg", msg, buf)

	for off := 0; off < len(buf); off += ChunkSize {
		end := off + ChunkSize
		if end > len(buf) {
			end = len(buf)
		}
		chunk := buf[off:end]

		d.log.Trace().Int("len", len(chunk)).Msg("send chunk")
		if err := d.tr.SendFrame(Frame{Source: d.me, Dest: d.volca, Data: chunk}); err != nil {
			return fmt.Errorf("device: send frame: %w", err)
		}

		if chunk[len(chunk)-1] != proto.EOX && d.cfg.ChunkCooldown > 0 {
			time.Sleep(d.cfg.ChunkCooldown)
		}
	}

	if err := d.tr.Flush(); err != nil {
		return fmt.Errorf("device: flush: %w", err)
	}
	return nil
}

// receive blocks until one complete message of the expected kind arrives.
// Frames from unrelated endpoint pairs are skipped. There is no timeout:
// a dropped frame means the terminator never arrives and the call blocks
// until the transport read fails. Callers needing a deadline must wrap
// the operation externally.
func (d *Device) receive(msg proto.Incoming) error {
	data, err := d.nextFrame()
	if err != nil {
		return err
	}

	if !terminated(data) {
		buf := append([]byte(nil), data...)
		for !terminated(buf) {
			next, err := d.nextFrame()
			if err != nil {
				return err
			}
			buf = append(buf, next...)
		}
		data = buf
	}

	d.logBuf("recv msg", msg, data)
	if _, err := proto.Decode(data, msg); err != nil {
		return err
	}
	return nil
}

// nextFrame returns the payload of the next frame belonging to this
// session's endpoint pair.
func (d *Device) nextFrame() ([]byte, error) {
	for {
		f, err := d.tr.ReceiveFrame()
		if err != nil {
			return nil, fmt.Errorf("device: receive frame: %w", err)
		}
		if f.Source != d.volca || f.Dest != d.me {
			continue
		}
		d.log.Trace().Int("len", len(f.Data)).Msg("recv chunk")
		return f.Data, nil
	}
}

func terminated(buf []byte) bool {
	return bytes.HasSuffix(buf, []byte{proto.EOX})
}

func (d *Device) logBuf(what string, msg any, buf []byte) {
	ev := d.log.Debug().Type("msg", msg).Int("len", len(buf))
	if len(buf) <= hexPreviewMax {
		ev = ev.Hex("raw", buf)
	}
	ev.Msg(what)
}

// checkSlot rejects out-of-range slot numbers before any transport
// activity.
func checkSlot(sampleNo byte) error {
	if int(sampleNo) >= proto.NumSlots {
		return fmt.Errorf("device: sample slot %d out of range [0, %d]",
			sampleNo, proto.NumSlots-1)
	}
	return nil
}

// SampleSpace queries the device's storage occupancy.
func (d *Device) SampleSpace() (*proto.SampleSpaceDump, error) {
	if err := d.send(&proto.SampleSpaceDumpRequest{}); err != nil {
		return nil, err
	}
	var space proto.SampleSpaceDump
	if err := d.receive(&space); err != nil {
		return nil, err
	}
	return &space, nil
}

// Header fetches the header of one sample slot.
func (d *Device) Header(sampleNo byte) (*proto.SampleHeader, error) {
	if err := checkSlot(sampleNo); err != nil {
		return nil, err
	}
	if err := d.send(&proto.SampleHeaderDumpRequest{SampleNo: sampleNo}); err != nil {
		return nil, err
	}
	var header proto.SampleHeader
	if err := d.receive(&header); err != nil {
		return nil, err
	}
	return &header, nil
}

// Headers fetches all slot headers in order, calling visit for each one.
// Iteration stops at the first transport or framing error.
func (d *Device) Headers(visit func(*proto.SampleHeader)) error {
	for no := 0; no < proto.NumSlots; no++ {
		header, err := d.Header(byte(no))
		if err != nil {
			return err
		}
		visit(header)
	}
	return nil
}

// Sample fetches the audio of one sample slot.
func (d *Device) Sample(sampleNo byte) (*proto.SampleData, error) {
	if err := checkSlot(sampleNo); err != nil {
		return nil, err
	}
	if err := d.send(&proto.SampleDataDumpRequest{SampleNo: sampleNo}); err != nil {
		return nil, err
	}
	var data proto.SampleData
	if err := d.receive(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Delete erases one sample slot by writing an empty header and waiting
// for the device's acknowledgment.
func (d *Device) Delete(sampleNo byte) error {
	if err := checkSlot(sampleNo); err != nil {
		return err
	}
	if err := d.send(proto.EmptyHeader(sampleNo)); err != nil {
		return err
	}
	return d.awaitAck()
}

// Upload loads a sample into a slot: the header exchange and the data
// exchange are each individually acknowledged, and a negative
// acknowledgment on the header phase aborts before any data is sent.
func (d *Device) Upload(header *proto.SampleHeader, data *proto.SampleData) error {
	if err := checkSlot(header.SampleNo); err != nil {
		return err
	}
	if err := d.send(header); err != nil {
		return err
	}
	if err := d.awaitAck(); err != nil {
		return err
	}
	if err := d.send(data); err != nil {
		return err
	}
	return d.awaitAck()
}

// awaitAck receives one status message and surfaces a NAK as the
// operation's error.
func (d *Device) awaitAck() error {
	var status proto.Status
	if err := d.receive(&status); err != nil {
		return err
	}
	return status.Err()
}
