package sevenbit

import "io"

// PackReader packs the bytes of an underlying reader on demand. It buffers
// exactly one group and pulls further input only once that group is
// drained, so it works over inputs of unknown length without buffering the
// whole stream.
type PackReader struct {
	src io.Reader
	buf [GroupSize + 1]byte
	n   int // valid bytes in buf
	off int // next byte of buf to emit
	err error
}

// NewPackReader returns a reader yielding the packed form of src.
func NewPackReader(src io.Reader) *PackReader {
	return &PackReader{src: src}
}

func (p *PackReader) Read(dst []byte) (int, error) {
	total := 0
	for total < len(dst) {
		if p.off == p.n {
			if !p.fill() {
				break
			}
		}
		c := copy(dst[total:], p.buf[p.off:p.n])
		p.off += c
		total += c
	}
	if total > 0 {
		return total, nil
	}
	return 0, p.err
}

// fill consumes the next input group and reports whether any output is
// buffered.
func (p *PackReader) fill() bool {
	if p.err != nil {
		return false
	}
	var raw [GroupSize]byte
	n, err := readUpTo(p.src, raw[:])
	if err != nil {
		p.err = err
	}
	if n == 0 {
		if p.err == nil {
			p.err = io.EOF
		}
		return false
	}
	packGroup(raw[:n], &p.buf)
	p.n = n + 1
	p.off = 0
	return true
}

// UnpackReader restores raw bytes from a 7-bit-safe underlying reader, one
// group at a time. A trailing lone carrier yields no bytes.
type UnpackReader struct {
	src io.Reader
	buf [GroupSize]byte
	n   int
	off int
	err error
}

// NewUnpackReader returns a reader yielding the unpacked form of src.
func NewUnpackReader(src io.Reader) *UnpackReader {
	return &UnpackReader{src: src}
}

func (u *UnpackReader) Read(dst []byte) (int, error) {
	total := 0
	for total < len(dst) {
		if u.off == u.n {
			if !u.fill() {
				break
			}
		}
		c := copy(dst[total:], u.buf[u.off:u.n])
		u.off += c
		total += c
	}
	if total > 0 {
		return total, nil
	}
	return 0, u.err
}

func (u *UnpackReader) fill() bool {
	if u.err != nil {
		return false
	}
	var units [GroupSize + 1]byte
	n, err := readUpTo(u.src, units[:])
	if err != nil {
		u.err = err
	}
	got := unpackGroup(units[:n], &u.buf)
	if got == 0 {
		if u.err == nil {
			u.err = io.EOF
		}
		return false
	}
	u.n = got
	u.off = 0
	return true
}

// readUpTo reads until buf is full or the source is exhausted. Unlike
// io.ReadFull it treats a short read at end of input as success.
func readUpTo(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if err == io.EOF && total > 0 {
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}
