package device

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/tamzrod/volsa/internal/proto"
)

var (
	selfAddr  = Addr{Client: 128, Port: 0}
	volcaAddr = Addr{Client: 20, Port: 0}
	otherAddr = Addr{Client: 99, Port: 3}
)

// fakeTransport records outgoing frames and replays queued inbound ones.
type fakeTransport struct {
	sent    []Frame
	inbound []Frame
	flushes int
	findErr error
	subs    [][2]Addr
}

func (f *fakeTransport) Self() Addr { return selfAddr }

func (f *fakeTransport) Find(name string) (Addr, error) {
	if f.findErr != nil {
		return Addr{}, f.findErr
	}
	return volcaAddr, nil
}

func (f *fakeTransport) Subscribe(sender, dest Addr) error {
	f.subs = append(f.subs, [2]Addr{sender, dest})
	return nil
}

func (f *fakeTransport) SendFrame(frame Frame) error {
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeTransport) ReceiveFrame() (Frame, error) {
	if len(f.inbound) == 0 {
		return Frame{}, io.EOF
	}
	next := f.inbound[0]
	f.inbound = f.inbound[1:]
	return next, nil
}

func (f *fakeTransport) Flush() error {
	f.flushes++
	return nil
}

func (f *fakeTransport) Close() error { return nil }

// queue appends an inbound message, optionally split into chunks.
func (f *fakeTransport) queue(raw []byte, chunkSize int) {
	for off := 0; off < len(raw); off += chunkSize {
		end := off + chunkSize
		if end > len(raw) {
			end = len(raw)
		}
		f.inbound = append(f.inbound, Frame{
			Source: volcaAddr, Dest: selfAddr, Data: raw[off:end],
		})
	}
}

func (f *fakeTransport) queueStatus(code byte) {
	raw := []byte{0xF0, 0x42, 0x30, 0x00, 0x01, 0x2D, code, 0xF7}
	f.queue(raw, len(raw))
}

func newTestDevice(t *testing.T, tr *fakeTransport) *Device {
	t.Helper()
	dev, err := New(tr, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dev.volca = volcaAddr
	return dev
}

// encodedSampleData builds a sample-data message that is exactly 600 bytes
// on the wire: 2 slot units + 590 packed units for 258 samples, plus
// envelope and terminator.
func encodedSampleData(t *testing.T) ([]byte, *proto.SampleData) {
	t.Helper()
	pcm := make([]int16, 258)
	for i := range pcm {
		pcm[i] = int16(i * 100)
	}
	_, data := proto.NewSample(9, "big", pcm)
	raw := proto.Encode(data, 0)
	if len(raw) != 600 {
		t.Fatalf("fixture encodes to %d bytes, want 600", len(raw))
	}
	return raw, data
}

func TestSendChunking(t *testing.T) {
	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)

	raw, data := encodedSampleData(t)
	if err := dev.send(data); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(tr.sent) != 3 {
		t.Fatalf("sent %d chunks, want 3", len(tr.sent))
	}
	for i, want := range []int{256, 256, 88} {
		if len(tr.sent[i].Data) != want {
			t.Fatalf("chunk %d has %d bytes, want %d", i, len(tr.sent[i].Data), want)
		}
		if tr.sent[i].Source != selfAddr || tr.sent[i].Dest != volcaAddr {
			t.Fatalf("chunk %d addressed %v -> %v", i, tr.sent[i].Source, tr.sent[i].Dest)
		}
	}

	var joined []byte
	for _, f := range tr.sent {
		joined = append(joined, f.Data...)
	}
	if !bytes.Equal(joined, raw) {
		t.Fatal("concatenated chunks differ from encoded message")
	}
	if tr.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", tr.flushes)
	}
}

func TestReceiveReassembly(t *testing.T) {
	raw, want := encodedSampleData(t)

	// Direct decode of the whole buffer is the reference result.
	var direct proto.SampleData
	if _, err := proto.Decode(raw, &direct); err != nil {
		t.Fatalf("direct decode: %v", err)
	}

	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)
	tr.queue(raw, 256)
	if len(tr.inbound) != 3 {
		t.Fatalf("fixture queued %d frames, want 3", len(tr.inbound))
	}

	var got proto.SampleData
	if err := dev.receive(&got); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if got.SampleNo != want.SampleNo || len(got.Data) != len(direct.Data) {
		t.Fatalf("reassembled %d samples in slot %d", len(got.Data), got.SampleNo)
	}
	for i := range direct.Data {
		if got.Data[i] != direct.Data[i] {
			t.Fatalf("sample %d differs from direct decode", i)
		}
	}
}

func TestReceiveSkipsUnrelatedFrames(t *testing.T) {
	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)

	// Noise from other endpoint pairs must be skipped, not buffered.
	tr.inbound = append(tr.inbound,
		Frame{Source: otherAddr, Dest: selfAddr, Data: []byte{0xF0, 0xF7}},
		Frame{Source: volcaAddr, Dest: otherAddr, Data: []byte{0xF0, 0xF7}},
	)
	tr.queueStatus(0x23)

	var st proto.Status
	if err := dev.receive(&st); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if st.Err() != nil {
		t.Fatalf("status = %v", st.Err())
	}
}

func TestReceiveTransportError(t *testing.T) {
	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)

	var st proto.Status
	if err := dev.receive(&st); !errors.Is(err, io.EOF) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestConnectHandshake(t *testing.T) {
	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)

	reply := []byte{
		0xF0, 0x42, 0x50, 0x01,
		0x05, 42, // channel, echo
		0x2D, 0x01, 0x08, 0x00,
		0x00, 0x00, 0x01, 0x00, // version 1.0
		0xF7,
	}
	tr.queue(reply, len(reply))

	if err := dev.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if dev.channel != 5 {
		t.Fatalf("negotiated channel = %d, want 5", dev.channel)
	}
	if len(tr.subs) != 2 {
		t.Fatalf("subscriptions = %d, want 2", len(tr.subs))
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent %d frames during handshake, want 1", len(tr.sent))
	}

	// Extended messages after the handshake carry the channel nibble.
	tr.sent = nil
	tr.queueStatus(0x23)
	if err := dev.Delete(0); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if tr.sent[0].Data[2] != 0x35 {
		t.Fatalf("channel byte = %#02x, want 0x35", tr.sent[0].Data[2])
	}
}

func TestSlotRangeRejectedBeforeIO(t *testing.T) {
	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)

	if _, err := dev.Header(200); err == nil {
		t.Fatal("Header(200) accepted")
	}
	if _, err := dev.Sample(255); err == nil {
		t.Fatal("Sample(255) accepted")
	}
	if err := dev.Delete(200); err == nil {
		t.Fatal("Delete(200) accepted")
	}
	if len(tr.sent) != 0 {
		t.Fatalf("out-of-range slot caused %d frames", len(tr.sent))
	}
}

func TestUploadNakAbortsDataPhase(t *testing.T) {
	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)
	tr.queueStatus(0x24) // busy after the header phase

	header, data := proto.NewSample(3, "snare", make([]int16, 64))
	err := dev.Upload(header, data)
	var nak *proto.NakError
	if !errors.As(err, &nak) || nak.Code != 0x24 {
		t.Fatalf("expected busy NakError, got %v", err)
	}

	// Only the header message may have been sent.
	if len(tr.sent) != 1 {
		t.Fatalf("sent %d frames, want 1 (header only)", len(tr.sent))
	}
	if tr.sent[0].Data[6] != 0x4E {
		t.Fatalf("sent identity %#02x, want the header message", tr.sent[0].Data[6])
	}
}

func TestUploadTwoPhaseAck(t *testing.T) {
	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)
	tr.queueStatus(0x23)
	tr.queueStatus(0x23)

	header, data := proto.NewSample(3, "snare", make([]int16, 16))
	if err := dev.Upload(header, data); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(tr.sent) != 2 {
		t.Fatalf("sent %d frames, want 2", len(tr.sent))
	}
	if tr.sent[0].Data[6] != 0x4E || tr.sent[1].Data[6] != 0x4F {
		t.Fatalf("message order: %#02x then %#02x", tr.sent[0].Data[6], tr.sent[1].Data[6])
	}
}

func TestDeleteSendsEmptyHeader(t *testing.T) {
	tr := &fakeTransport{}
	dev := newTestDevice(t, tr)
	tr.queueStatus(0x25) // memory full NAK surfaces to the caller

	err := dev.Delete(11)
	var nak *proto.NakError
	if !errors.As(err, &nak) || nak.Code != 0x25 {
		t.Fatalf("expected full NakError, got %v", err)
	}

	var sent proto.SampleHeader
	if _, err := proto.Decode(tr.sent[0].Data, &sent); err != nil {
		t.Fatalf("decode sent frame: %v", err)
	}
	if !sent.IsEmpty() || sent.SampleNo != 11 {
		t.Fatalf("sent header = %+v", sent)
	}
}
