package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	pcm := make([]int16, 100)
	for i := range pcm {
		pcm[i] = int16(i*600 - 30000)
	}

	var buf bytes.Buffer
	if err := WriteWAV(&buf, pcm, DeviceRate); err != nil {
		t.Fatalf("write: %v", err)
	}

	clip, err := ReadWAV(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if clip.Channels != 1 || clip.Rate != DeviceRate {
		t.Fatalf("channels=%d rate=%d", clip.Channels, clip.Rate)
	}
	if len(clip.Samples) != len(pcm) {
		t.Fatalf("samples = %d, want %d", len(clip.Samples), len(pcm))
	}

	back := ToPCM16(clip.Samples)
	for i := range pcm {
		if back[i] != pcm[i] {
			t.Fatalf("sample %d = %d, want %d", i, back[i], pcm[i])
		}
	}
}

func TestReadRejectsUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, make([]int16, 4), DeviceRate); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.Bytes()
	// Corrupt the format tag inside the fmt chunk.
	raw[20] = 9

	var ferr *FormatError
	if _, err := ReadWAV(bytes.NewReader(raw)); !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestReadSkipsOddSizedChunk(t *testing.T) {
	pcm := []int16{100, -200, 300}
	var buf bytes.Buffer
	if err := WriteWAV(&buf, pcm, DeviceRate); err != nil {
		t.Fatalf("write: %v", err)
	}
	full := buf.Bytes()

	// Splice an odd-sized LIST chunk (3 bytes + pad) before fmt/data.
	var raw bytes.Buffer
	raw.Write(full[:12])
	raw.WriteString("LIST")
	binary.Write(&raw, binary.LittleEndian, uint32(3))
	raw.Write([]byte{'I', 'N', 'F', 0})
	raw.Write(full[12:])

	clip, err := ReadWAV(bytes.NewReader(raw.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	back := ToPCM16(clip.Samples)
	if len(back) != len(pcm) {
		t.Fatalf("samples = %d, want %d", len(back), len(pcm))
	}
	for i := range pcm {
		if back[i] != pcm[i] {
			t.Fatalf("sample %d = %d, want %d", i, back[i], pcm[i])
		}
	}
}

func TestReadRejectsNonRIFF(t *testing.T) {
	if _, err := ReadWAV(bytes.NewReader([]byte("not a wav file at all"))); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestMixdownModes(t *testing.T) {
	clip := &Clip{
		Channels: 2,
		Rate:     DeviceRate,
		Samples:  []float64{1, 0, 0.5, -0.5, -1, 1},
	}

	cases := []struct {
		mode MonoMode
		want []float64
	}{
		{MonoLeft, []float64{1, 0.5, -1}},
		{MonoRight, []float64{0, -0.5, 1}},
		{MonoMid, []float64{0.5, 0, 0}},
		{MonoSide, []float64{0.5, 0.5, -1}},
	}
	for _, c := range cases {
		got := Mixdown(clip, c.mode)
		if len(got) != len(c.want) {
			t.Fatalf("%s: %d frames, want %d", c.mode, len(got), len(c.want))
		}
		for i := range c.want {
			if math.Abs(got[i]-c.want[i]) > 1e-12 {
				t.Fatalf("%s frame %d = %f, want %f", c.mode, i, got[i], c.want[i])
			}
		}
	}
}

func TestMixdownMonoPassthrough(t *testing.T) {
	clip := &Clip{Channels: 1, Rate: 44100, Samples: []float64{0.25, -0.25}}
	got := Mixdown(clip, MonoSide)
	if len(got) != 2 || got[0] != 0.25 {
		t.Fatalf("mono input modified: %v", got)
	}
}

func TestResample(t *testing.T) {
	in := make([]float64, 1000)
	for i := range in {
		in[i] = math.Sin(float64(i) / 10)
	}

	out := Resample(in, 62500, DeviceRate)
	if len(out) != 500 {
		t.Fatalf("len = %d, want 500", len(out))
	}

	// Identity when the rates match.
	same := Resample(in, DeviceRate, DeviceRate)
	if len(same) != len(in) {
		t.Fatalf("identity resample changed length to %d", len(same))
	}
}

func TestParseMonoMode(t *testing.T) {
	for _, name := range []string{"left", "right", "mid", "side"} {
		mode, err := ParseMonoMode(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if mode.String() != name {
			t.Fatalf("round trip %q -> %q", name, mode)
		}
	}
	if _, err := ParseMonoMode("stereo"); err == nil {
		t.Fatal("bogus mode accepted")
	}
}

func TestToPCM16Clips(t *testing.T) {
	got := ToPCM16([]float64{2, -2, 0})
	if got[0] != math.MaxInt16 || got[1] != math.MinInt16 || got[2] != 0 {
		t.Fatalf("clipping produced %v", got)
	}
}
