package sevenbit

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func TestSplitMergeByte(t *testing.T) {
	for b := 0; b < 256; b++ {
		msb, low := SplitByte(byte(b))
		if low&0x80 != 0 {
			t.Fatalf("SplitByte(%#02x): low byte %#02x has high bit set", b, low)
		}
		if msb != byte(b)>>7 {
			t.Fatalf("SplitByte(%#02x): msb=%d", b, msb)
		}
		if got := MergeByte(low, msb); got != byte(b) {
			t.Fatalf("MergeByte(SplitByte(%#02x)) = %#02x", b, got)
		}
	}
}

func TestPackKnownVectors(t *testing.T) {
	got := Pack([]byte{0x80})
	want := []byte{0x01, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Pack([80]) = % X, want % X", got, want)
	}

	// 7 bytes with all high bits set: carrier is 0x7F.
	in := bytes.Repeat([]byte{0xFF}, 7)
	got = Pack(in)
	want = append([]byte{0x7F}, bytes.Repeat([]byte{0x7F}, 7)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("Pack(FF*7) = % X, want % X", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 2, 6, 7, 8, 13, 14, 64, 600} {
		in := make([]byte, n)
		rng.Read(in)

		packed := Pack(in)
		if want := PackedLen(n); len(packed) != want {
			t.Fatalf("len(Pack(%d bytes)) = %d, want %d", n, len(packed), want)
		}
		for i, u := range packed {
			if u&0x80 != 0 {
				t.Fatalf("packed[%d] = %#02x has high bit set", i, u)
			}
		}

		if got := Unpack(packed); !bytes.Equal(got, in) {
			t.Fatalf("Unpack(Pack(x)) != x for n=%d", n)
		}
		if want := UnpackedLen(len(packed)); want != n {
			t.Fatalf("UnpackedLen(%d) = %d, want %d", len(packed), want, n)
		}

		// Valid packed sequences survive the opposite direction too.
		if got := Pack(Unpack(packed)); !bytes.Equal(got, packed) {
			t.Fatalf("Pack(Unpack(s)) != s for n=%d", n)
		}
	}
}

func TestUnpackLoneCarrier(t *testing.T) {
	// A trailing group of exactly one unit carries no data and must be
	// accepted silently.
	if got := Unpack([]byte{0x55}); len(got) != 0 {
		t.Fatalf("Unpack(lone carrier) = % X, want empty", got)
	}

	full := Pack(bytes.Repeat([]byte{0xAB}, 7)) // 8 units, one full group
	in := append(append([]byte(nil), full...), 0x00)
	if got := Unpack(in); len(got) != 7 {
		t.Fatalf("Unpack with trailing lone carrier recovered %d bytes, want 7", len(got))
	}
}

func TestPackReaderMatchesPack(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	in := make([]byte, 1000)
	rng.Read(in)

	// Tiny destination buffers force group-boundary handling.
	r := NewPackReader(bytes.NewReader(in))
	var out bytes.Buffer
	buf := make([]byte, 3)
	for {
		n, err := r.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}

	if !bytes.Equal(out.Bytes(), Pack(in)) {
		t.Fatal("PackReader output differs from Pack")
	}
}

func TestUnpackReaderMatchesUnpack(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	in := make([]byte, 777)
	rng.Read(in)
	packed := Pack(in)

	r := NewUnpackReader(bytes.NewReader(packed))
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Fatal("UnpackReader output differs from original input")
	}
}

func TestLenFormulas(t *testing.T) {
	cases := []struct {
		raw, packed int
	}{
		{0, 0},
		{1, 2},
		{6, 7},
		{7, 8},
		{8, 10},
		{32, 37},
		{516, 590},
	}
	for _, c := range cases {
		if got := PackedLen(c.raw); got != c.packed {
			t.Fatalf("PackedLen(%d) = %d, want %d", c.raw, got, c.packed)
		}
		if got := UnpackedLen(c.packed); got != c.raw {
			t.Fatalf("UnpackedLen(%d) = %d, want %d", c.packed, got, c.raw)
		}
	}
}
