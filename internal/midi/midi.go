// Package midi adapts a real MIDI backend (rtmidi via gomidi) to the
// device.Transport contract. It is deliberately thin: port enumeration,
// raw SysEx delivery and nothing else. All protocol knowledge lives in
// internal/device and internal/proto.
package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/tamzrod/volsa/internal/device"
)

// inboundBuffer bounds how many frames may queue between the driver
// callback and ReceiveFrame.
const inboundBuffer = 64

// sysexBufferSize must hold the largest single message the device sends;
// a full sample data dump is a few hundred KiB after 7-bit packing.
const sysexBufferSize = 4 << 20

var errClosed = errors.New("midi: transport closed")

// selfAddr and port index 0 of the matched client form the two endpoints
// the session filters on. rtmidi has no client/port address space like
// ALSA, so the adapter synthesizes stable values.
var selfAddr = device.Addr{Client: -1, Port: 0}

// Transport implements device.Transport on top of an rtmidi driver.
type Transport struct {
	drv *rtmididrv.Driver

	mu     sync.Mutex
	in     drivers.In
	out    drivers.Out
	stop   func()
	dev    device.Addr
	frames chan device.Frame
	done   chan struct{}
	closed bool
}

// New opens the MIDI backend. No ports are opened until Find/Subscribe.
func New() (*Transport, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi: open driver: %w", err)
	}
	return &Transport{
		drv:    drv,
		frames: make(chan device.Frame, inboundBuffer),
		done:   make(chan struct{}),
	}, nil
}

// Self implements device.Transport.
func (t *Transport) Self() device.Addr {
	return selfAddr
}

// Find locates the in and out ports whose names contain name
// (case-insensitive) and returns the synthesized device endpoint.
func (t *Transport) Find(name string) (device.Addr, error) {
	ins, err := t.drv.Ins()
	if err != nil {
		return device.Addr{}, fmt.Errorf("midi: list inputs: %w", err)
	}
	outs, err := t.drv.Outs()
	if err != nil {
		return device.Addr{}, fmt.Errorf("midi: list outputs: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, in := range ins {
		if portMatches(in, name) {
			t.in = in
			break
		}
	}
	for _, out := range outs {
		if portMatches(out, name) {
			t.out = out
			break
		}
	}
	if t.in == nil || t.out == nil {
		return device.Addr{}, fmt.Errorf("midi: no port matching %q", name)
	}

	t.dev = device.Addr{Client: t.in.Number(), Port: t.out.Number()}
	return t.dev, nil
}

func portMatches(p drivers.Port, name string) bool {
	return strings.Contains(strings.ToLower(p.String()), strings.ToLower(name))
}

// Subscribe binds one stream direction. Device-to-self starts the inbound
// listener; self-to-device opens the output port.
func (t *Transport) Subscribe(sender, dest device.Addr) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.in == nil || t.out == nil {
		return errors.New("midi: Find must succeed before Subscribe")
	}

	if sender == t.dev && dest == selfAddr {
		return t.listenLocked()
	}
	if sender == selfAddr && dest == t.dev {
		if err := t.out.Open(); err != nil {
			return fmt.Errorf("midi: open output: %w", err)
		}
		return nil
	}
	return fmt.Errorf("midi: unknown endpoint pair %v -> %v", sender, dest)
}

func (t *Transport) listenLocked() error {
	if t.stop != nil {
		return nil
	}
	if err := t.in.Open(); err != nil {
		return fmt.Errorf("midi: open input: %w", err)
	}
	dev := t.dev
	stop, err := t.in.Listen(func(msg []byte, _ int32) {
		frame := device.Frame{
			Source: dev,
			Dest:   selfAddr,
			Data:   append([]byte(nil), msg...),
		}
		select {
		case <-t.done:
		case t.frames <- frame:
		default:
			// Inbound overflow with no consumer; the protocol is
			// half-duplex so this does not happen in a live session.
		}
	}, drivers.ListenConfig{
		SysEx:           true,
		SysExBufferSize: sysexBufferSize,
	})
	if err != nil {
		return fmt.Errorf("midi: listen: %w", err)
	}
	t.stop = stop
	return nil
}

// SendFrame writes one raw chunk to the output port.
func (t *Transport) SendFrame(f device.Frame) error {
	t.mu.Lock()
	out := t.out
	t.mu.Unlock()
	if out == nil {
		return errors.New("midi: output not open")
	}
	if err := out.Send(f.Data); err != nil {
		return fmt.Errorf("midi: send: %w", err)
	}
	return nil
}

// ReceiveFrame blocks for the next inbound frame.
func (t *Transport) ReceiveFrame() (device.Frame, error) {
	select {
	case f := <-t.frames:
		return f, nil
	case <-t.done:
		return device.Frame{}, errClosed
	}
}

// Flush is satisfied by the driver's synchronous writes.
func (t *Transport) Flush() error {
	return nil
}

// Close stops the listener and releases all ports and the driver.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	if t.stop != nil {
		t.stop()
	}
	close(t.done)
	if t.out != nil && t.out.IsOpen() {
		t.out.Close()
	}
	if t.in != nil && t.in.IsOpen() {
		t.in.Close()
	}
	return t.drv.Close()
}
