// Package audio prepares WAV files for the device: decoding, mono
// mixdown and resampling to the fixed 31250 Hz sample rate, plus writing
// downloaded samples back out as WAV.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// DeviceRate is the fixed sample rate of the device's sample memory.
const DeviceRate = 31250

const (
	riffHeader   = 0x52494646 // "RIFF"
	waveFormat   = 0x57415645 // "WAVE"
	formatHeader = 0x666d7420 // "fmt "
	dataHeader   = 0x64617461 // "data"

	formatPCM   = 1
	formatFloat = 3
)

// FormatError reports a WAV encoding this package cannot decode.
type FormatError struct {
	Format        uint16
	BitsPerSample uint16
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("audio: unsupported format %d with %d bits per sample",
		e.Format, e.BitsPerSample)
}

type waveHeader struct {
	Format        uint16
	NChannels     uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Clip is decoded audio: interleaved samples normalized to [-1, 1].
type Clip struct {
	Channels int
	Rate     int
	Samples  []float64
}

// ReadWAV decodes a RIFF/WAVE stream. Integer PCM of 8, 16, 24 and 32
// bits and 32-bit float are supported.
func ReadWAV(r io.ReadSeeker) (*Clip, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, err
	}
	if magic != riffHeader {
		return nil, errors.New("audio: not a RIFF file")
	}

	var riffSize uint32
	if err := binary.Read(r, binary.LittleEndian, &riffSize); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, err
	}
	if magic != waveFormat {
		return nil, errors.New("audio: not a WAVE file")
	}

	var (
		header    waveHeader
		data      []byte
		hasHeader bool
		hasData   bool
	)
	for !hasHeader || !hasData {
		var chunkSize uint32
		if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
			return nil, fmt.Errorf("audio: truncated WAV: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, err
		}

		start, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}

		switch magic {
		case formatHeader:
			if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
				return nil, err
			}
			hasHeader = true
		case dataHeader:
			data = make([]byte, chunkSize)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, err
			}
			hasData = true
		}

		// Chunks are word aligned; an odd-sized chunk carries a pad byte.
		next := start + int64(chunkSize) + int64(chunkSize%2)
		if _, err := r.Seek(next, io.SeekStart); err != nil {
			return nil, err
		}
	}

	samples, err := normalize(data, header)
	if err != nil {
		return nil, err
	}
	return &Clip{
		Channels: int(header.NChannels),
		Rate:     int(header.SampleRate),
		Samples:  samples,
	}, nil
}

// normalize converts the raw data chunk to float64 samples in [-1, 1].
func normalize(data []byte, header waveHeader) ([]float64, error) {
	bytesPer := int(header.BitsPerSample) / 8
	if bytesPer == 0 {
		return nil, &FormatError{header.Format, header.BitsPerSample}
	}
	n := len(data) / bytesPer
	out := make([]float64, n)

	switch {
	case header.Format == formatPCM && header.BitsPerSample == 8:
		// 8-bit WAV is unsigned.
		for i := 0; i < n; i++ {
			out[i] = (float64(data[i]) - 128) / 128
		}
	case header.Format == formatPCM && header.BitsPerSample == 16:
		for i := 0; i < n; i++ {
			s := int16(binary.LittleEndian.Uint16(data[2*i:]))
			out[i] = float64(s) / math.MaxInt16
		}
	case header.Format == formatPCM && header.BitsPerSample == 24:
		for i := 0; i < n; i++ {
			b := data[3*i : 3*i+3]
			s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			s = s << 8 >> 8 // sign extend
			out[i] = float64(s) / (1 << 23)
		}
	case header.Format == formatPCM && header.BitsPerSample == 32:
		for i := 0; i < n; i++ {
			s := int32(binary.LittleEndian.Uint32(data[4*i:]))
			out[i] = float64(s) / math.MaxInt32
		}
	case header.Format == formatFloat && header.BitsPerSample == 32:
		for i := 0; i < n; i++ {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:])))
		}
	default:
		return nil, &FormatError{header.Format, header.BitsPerSample}
	}
	return out, nil
}

// WriteWAV writes mono 16-bit PCM at the given rate.
func WriteWAV(w io.Writer, pcm []int16, rate int) error {
	dataSize := uint32(2 * len(pcm))
	header := waveHeader{
		Format:        formatPCM,
		NChannels:     1,
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
	}

	// 4 (WAVE) + 8 + 16 (fmt) + 8 + data
	if err := binary.Write(w, binary.BigEndian, uint32(riffHeader)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, 36+dataSize); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(waveFormat)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(formatHeader)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(dataHeader)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, dataSize); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, pcm)
}
