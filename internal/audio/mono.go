package audio

import "fmt"

// MonoMode selects how multi-channel input collapses to the single
// channel the device stores.
type MonoMode int

const (
	// MonoMid averages left and right.
	MonoMid MonoMode = iota
	// MonoLeft keeps the left channel.
	MonoLeft
	// MonoRight keeps the right channel.
	MonoRight
	// MonoSide keeps the stereo difference (l-r)/2.
	MonoSide
)

func (m MonoMode) String() string {
	switch m {
	case MonoMid:
		return "mid"
	case MonoLeft:
		return "left"
	case MonoRight:
		return "right"
	case MonoSide:
		return "side"
	}
	return fmt.Sprintf("MonoMode(%d)", int(m))
}

// ParseMonoMode parses a mode name as used on the command line.
func ParseMonoMode(s string) (MonoMode, error) {
	switch s {
	case "mid":
		return MonoMid, nil
	case "left":
		return MonoLeft, nil
	case "right":
		return MonoRight, nil
	case "side":
		return MonoSide, nil
	}
	return 0, fmt.Errorf("audio: unknown mono mode %q", s)
}

// Mixdown collapses an interleaved clip to one channel. Single-channel
// input is returned as-is regardless of mode.
func Mixdown(clip *Clip, mode MonoMode) []float64 {
	if clip.Channels <= 1 {
		return clip.Samples
	}

	frames := len(clip.Samples) / clip.Channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := clip.Samples[i*clip.Channels]
		r := clip.Samples[i*clip.Channels+1]
		switch mode {
		case MonoLeft:
			out[i] = l
		case MonoRight:
			out[i] = r
		case MonoSide:
			out[i] = (l - r) / 2
		default:
			out[i] = (l + r) / 2
		}
	}
	return out
}
