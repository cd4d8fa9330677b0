// Package sevenbit converts between 8-bit byte streams and the 7-bit-safe
// representation required inside a SysEx payload, where every data byte
// must have the high bit clear.
//
// Packing works in groups of up to 7 input bytes. Each group emits one
// carrier byte followed by the low 7 bits of every input byte; bit i of the
// carrier holds the high bit of the i-th byte in the group. Unpacking
// reverses this over groups of up to 8 units. A trailing group consisting
// of a lone carrier recovers zero bytes.
package sevenbit

// GroupSize is the number of raw bytes covered by one carrier byte.
const GroupSize = 7

// SplitByte splits a byte into its high bit (0 or 1) and its low 7 bits.
func SplitByte(b byte) (msb, low byte) {
	return b >> 7, b & 0x7F
}

// MergeByte restores a byte from its low 7 bits and a high-bit flag.
func MergeByte(low, msb byte) byte {
	return low&0x7F | msb<<7
}

// PackedLen returns the packed length of n raw bytes: n + ceil(n/7).
func PackedLen(n int) int {
	return n + (n+GroupSize-1)/GroupSize
}

// UnpackedLen returns the raw length recovered from n packed units:
// n - ceil(n/8). Zero for n < 2 since a lone carrier carries no data.
func UnpackedLen(n int) int {
	if n == 0 {
		return 0
	}
	return n - (n+GroupSize)/(GroupSize+1)
}

// Pack converts raw bytes into their 7-bit-safe form.
func Pack(src []byte) []byte {
	out := make([]byte, 0, PackedLen(len(src)))
	for len(src) > 0 {
		n := len(src)
		if n > GroupSize {
			n = GroupSize
		}
		var group [GroupSize + 1]byte
		packGroup(src[:n], &group)
		out = append(out, group[:n+1]...)
		src = src[n:]
	}
	return out
}

// Unpack converts 7-bit-safe units back into raw bytes. Input bytes must
// have the high bit clear; that precondition is on the caller, not checked
// here.
func Unpack(src []byte) []byte {
	out := make([]byte, 0, UnpackedLen(len(src)))
	for len(src) > 0 {
		n := len(src)
		if n > GroupSize+1 {
			n = GroupSize + 1
		}
		var group [GroupSize]byte
		got := unpackGroup(src[:n], &group)
		out = append(out, group[:got]...)
		src = src[n:]
	}
	return out
}

// packGroup packs up to 7 raw bytes into dst. dst[0] is the carrier,
// dst[1:1+len(src)] the 7-bit remainders.
func packGroup(src []byte, dst *[GroupSize + 1]byte) {
	dst[0] = 0
	for i, b := range src {
		msb, low := SplitByte(b)
		dst[0] |= msb << i
		dst[i+1] = low
	}
}

// unpackGroup restores up to 7 raw bytes from a carrier-led group of up to
// 8 units and reports how many bytes were recovered.
func unpackGroup(src []byte, dst *[GroupSize]byte) int {
	if len(src) < 2 {
		return 0
	}
	carrier := src[0]
	for i, low := range src[1:] {
		dst[i] = MergeByte(low, carrier>>i&1)
	}
	return len(src) - 1
}
